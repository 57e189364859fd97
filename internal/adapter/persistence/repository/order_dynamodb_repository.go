package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/usecase/interfaces"
)

const defaultOrdersTableName = "orders"

type contactItem struct {
	Email      string `dynamodbav:"email"`
	Name       string `dynamodbav:"name"`
	Phone      string `dynamodbav:"phone,omitempty"`
	EventDate  string `dynamodbav:"event_date"`
	EventType  string `dynamodbav:"event_type,omitempty"`
	Address    string `dynamodbav:"address,omitempty"`
	GuestCount int    `dynamodbav:"guest_count"`
}

type extrasItem struct {
	Wines          bool     `dynamodbav:"wines"`
	Equipment      []string `dynamodbav:"equipment,omitempty"`
	Decoration     bool     `dynamodbav:"decoration"`
	SpecialRequest string   `dynamodbav:"special_request,omitempty"`
	DistanceKm     float64  `dynamodbav:"distance_km"`
}

type orderItem struct {
	ID             string      `dynamodbav:"id"`
	Contact        contactItem `dynamodbav:"contact_data"`
	MenuType       string      `dynamodbav:"menu_type"`
	Entrees        []string    `dynamodbav:"entrees"`
	Viandes        []string    `dynamodbav:"viandes"`
	Dessert        string      `dynamodbav:"dessert,omitempty"`
	Extras         extrasItem  `dynamodbav:"extras"`
	Status         string      `dynamodbav:"status"`
	EstimatedPrice string      `dynamodbav:"estimated_price,omitempty"`
	CreatedAt      string      `dynamodbav:"created_at"`
	UpdatedAt      string      `dynamodbav:"updated_at"`
}

// OrderDynamoRepository persists Order entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
type OrderDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
}

var _ interfaces.IOrderRepository = (*OrderDynamoRepository)(nil)

func NewOrderDynamoRepository(ddb DynamoAPI, tableName string) *OrderDynamoRepository {
	if tableName == "" {
		tableName = defaultOrdersTableName
	}
	return &OrderDynamoRepository{ddb: ddb, tableName: tableName}
}

func (r *OrderDynamoRepository) Create(ctx context.Context, o entities.Order) (entities.Order, error) {
	av, err := attributevalue.MarshalMap(toOrderItem(o))
	if err != nil {
		return entities.Order{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.Order{}, err
	}
	return o, nil
}

func (r *OrderDynamoRepository) GetByID(ctx context.Context, id string) (entities.Order, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Order{}, err
	}
	if len(out.Item) == 0 {
		return entities.Order{}, nil
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

func (r *OrderDynamoRepository) MarkProcessed(ctx context.Context, id string, estimatedPrice float64) (entities.Order, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 idKey(id),
		ConditionExpression: aws.String("attribute_exists(#id)"),
		UpdateExpression:    aws.String("SET #status = :status, #estimated_price = :price, #updated_at = :updated_at"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":     str(string(entities.OrderStatusProcessed)),
			":price":      str(floatToString(estimatedPrice)),
			":updated_at": str(now),
		},
		ExpressionAttributeNames: map[string]string{
			"#id":              "id",
			"#status":          "status",
			"#estimated_price": "estimated_price",
			"#updated_at":      "updated_at",
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return entities.Order{}, nil
		}
		return entities.Order{}, err
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

func toOrderItem(o entities.Order) orderItem {
	it := orderItem{
		ID: o.ID,
		Contact: contactItem{
			Email:      o.ContactData.Email,
			Name:       o.ContactData.Name,
			Phone:      o.ContactData.Phone,
			EventDate:  o.ContactData.EventDate,
			EventType:  o.ContactData.EventType,
			Address:    o.ContactData.Address,
			GuestCount: o.ContactData.GuestCount,
		},
		MenuType: string(o.MenuType),
		Entrees:  o.Entrees,
		Viandes:  o.Viandes,
		Dessert:  o.Dessert,
		Extras: extrasItem{
			Wines:          o.Extras.Wines,
			Equipment:      o.Extras.Equipment,
			Decoration:     o.Extras.Decoration,
			SpecialRequest: o.Extras.SpecialRequest,
			DistanceKm:     o.Extras.DistanceKm,
		},
		Status:    string(o.Status),
		CreatedAt: formatTime(o.CreatedAt),
		UpdatedAt: formatTime(o.UpdatedAt),
	}
	if o.EstimatedPrice != nil {
		it.EstimatedPrice = floatToString(*o.EstimatedPrice)
	}
	return it
}

func fromOrderItem(it orderItem) entities.Order {
	o := entities.Order{
		ID: it.ID,
		ContactData: entities.ContactData{
			Email:      it.Contact.Email,
			Name:       it.Contact.Name,
			Phone:      it.Contact.Phone,
			EventDate:  it.Contact.EventDate,
			EventType:  it.Contact.EventType,
			Address:    it.Contact.Address,
			GuestCount: it.Contact.GuestCount,
		},
		MenuType: entities.MenuType(it.MenuType),
		Entrees:  it.Entrees,
		Viandes:  it.Viandes,
		Dessert:  it.Dessert,
		Extras: entities.Extras{
			Wines:          it.Extras.Wines,
			Equipment:      it.Extras.Equipment,
			Decoration:     it.Extras.Decoration,
			SpecialRequest: it.Extras.SpecialRequest,
			DistanceKm:     it.Extras.DistanceKm,
		},
		Status:    entities.OrderStatus(it.Status),
		CreatedAt: parseTime(it.CreatedAt),
		UpdatedAt: parseTime(it.UpdatedAt),
	}
	if it.EstimatedPrice != "" {
		if v, err := strconv.ParseFloat(it.EstimatedPrice, 64); err == nil {
			o.EstimatedPrice = &v
		}
	}
	return o
}
