package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/usecase/interfaces"
)

type fakeDynamo struct {
	updates     []*dynamodb.UpdateItemInput
	updateOut   *dynamodb.UpdateItemOutput
	updateErr   error
	getOut      *dynamodb.GetItemOutput
	queryOut    *dynamodb.QueryOutput
	puts        []*dynamodb.PutItemInput
	items       map[string]map[string]types.AttributeValue
	transacts   []*dynamodb.TransactWriteItemsInput
	transactErr error
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.items != nil {
		var key struct {
			ID string `dynamodbav:"id"`
		}
		if err := attributevalue.UnmarshalMap(in.Key, &key); err != nil {
			return nil, err
		}
		return &dynamodb.GetItemOutput{Item: f.items[key.ID]}, nil
	}
	if f.getOut == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getOut, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updateOut == nil {
		return &dynamodb.UpdateItemOutput{}, nil
	}
	return f.updateOut, nil
}

func (f *fakeDynamo) Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.queryOut == nil {
		return &dynamodb.QueryOutput{}, nil
	}
	return f.queryOut, nil
}

// TransactWriteItems applies the puts to items, honouring attribute_not_exists(#id)
// for the whole transaction.
func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.transacts = append(f.transacts, in)
	if f.transactErr != nil {
		return nil, f.transactErr
	}
	if f.items == nil {
		f.items = map[string]map[string]types.AttributeValue{}
	}
	ids := make([]string, len(in.TransactItems))
	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, ti := range in.TransactItems {
		var key struct {
			ID string `dynamodbav:"id"`
		}
		if err := attributevalue.UnmarshalMap(ti.Put.Item, &key); err != nil {
			return nil, err
		}
		ids[i] = key.ID
		reasons[i] = types.CancellationReason{Code: aws.String("None")}
		if _, taken := f.items[key.ID]; taken {
			reasons[i] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
			failed = true
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{Message: aws.String("cancelled"), CancellationReasons: reasons}
	}
	for i, ti := range in.TransactItems {
		f.items[ids[i]] = ti.Put.Item
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func sampleBudget() entities.Budget {
	url := "https://cdn.test/budgets/b-1/v2.pdf"
	approvedAt := time.Date(2026, 5, 6, 8, 0, 0, 0, time.UTC)
	old, next := 4.0, 6.0
	return entities.Budget{
		ID:       "b-1",
		OrderID:  "o-1",
		Version:  2,
		Status:   entities.BudgetStatusApproved,
		Strategy: "rules",
		BudgetData: entities.BudgetData{
			ClientInfo: entities.ClientInfo{Name: "Claire", GuestCount: 30, MenuType: entities.MenuTypeLunch},
			Menu: entities.MenuSection{
				PricePerPerson: 65,
				GuestCount:     30,
				Desserts:       []entities.LineItem{{Name: "Tarte", Quantity: 30, UnitPrice: 13, LineTotal: 390}},
				SectionAmounts: entities.SectionAmounts{TotalHT: 390, Tax: 39, TaxRate: 0.1, TotalTTC: 429},
			},
			Service:     entities.Some(entities.ServiceSection{StaffCount: 1, Hours: 6, HourlyRate: 35}),
			GeneratedAt: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
		},
		PDFURL: &url,
		VersionHistory: []entities.VersionHistoryEntry{{
			Version:   2,
			ChangedBy: "chef",
			ChangedAt: time.Date(2026, 5, 5, 9, 0, 0, 0, time.UTC),
			Changes:   []entities.FieldChange{{Field: "Heures de service", OldValue: &old, NewValue: &next}},
			Summary:   "Modification : Heures de service",
		}},
		ApprovedBy: "chef",
		ApprovedAt: &approvedAt,
		SentAt:     &approvedAt,
		CreatedAt:  time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
		UpdatedAt:  approvedAt,
	}
}

func TestBudgetItem_RoundTrip(t *testing.T) {
	b := sampleBudget()
	it, err := toBudgetItem(b)
	require.NoError(t, err)

	av, err := attributevalue.MarshalMap(it)
	require.NoError(t, err)
	assert.Contains(t, av, "pdf_url")
	assert.NotContains(t, av, "rejected_at")

	got, err := unmarshalBudget(av)
	require.NoError(t, err)
	assert.Equal(t, b, got)
	assert.False(t, got.BudgetData.Material.IsPresent())
}

func TestBudgetDynamoRepository_CreateClaimsOrder(t *testing.T) {
	ctx := context.Background()
	fake := &fakeDynamo{}
	repo := NewBudgetDynamoRepository(fake, "")

	first := sampleBudget()
	created, err := repo.Create(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "b-1", created.ID)

	require.Len(t, fake.transacts, 1)
	items := fake.transacts[0].TransactItems
	require.Len(t, items, 2)
	for _, ti := range items {
		assert.Equal(t, "budgets", aws.ToString(ti.Put.TableName))
		assert.Equal(t, "attribute_not_exists(#id)", aws.ToString(ti.Put.ConditionExpression))
	}
	assert.Equal(t, &types.AttributeValueMemberS{Value: "order#o-1"}, items[1].Put.Item["id"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "b-1"}, items[1].Put.Item["budget_id"])
	assert.NotContains(t, items[1].Put.Item, "order_id")

	second := sampleBudget()
	second.ID = "b-2"
	dup, err := repo.Create(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, dup.ID)
	assert.NotContains(t, fake.items, "b-2")

	got, err := repo.GetByOrderID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	none, err := repo.GetByOrderID(ctx, "o-404")
	require.NoError(t, err)
	assert.Empty(t, none.ID)

	lock, err := repo.GetByID(ctx, "order#o-1")
	require.NoError(t, err)
	assert.Empty(t, lock.ID)
}

func TestBudgetDynamoRepository_CreateErrors(t *testing.T) {
	fake := &fakeDynamo{transactErr: errors.New("throttled")}
	repo := NewBudgetDynamoRepository(fake, "")
	_, err := repo.Create(context.Background(), sampleBudget())
	assert.EqualError(t, err, "throttled")
}

func TestBudgetDynamoRepository_ApplyEdit(t *testing.T) {
	b := sampleBudget()
	it, err := toBudgetItem(b)
	require.NoError(t, err)
	av, err := attributevalue.MarshalMap(it)
	require.NoError(t, err)

	fake := &fakeDynamo{updateOut: &dynamodb.UpdateItemOutput{Attributes: av}}
	repo := NewBudgetDynamoRepository(fake, "")

	got, err := repo.ApplyEdit(context.Background(), "b-1", interfaces.BudgetEdit{
		ExpectedVersion: 1,
		BudgetData:      b.BudgetData,
		Entry:           b.VersionHistory[0],
		EditedBy:        "chef",
		EditedAt:        time.Date(2026, 5, 5, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "b-1", got.ID)

	require.Len(t, fake.updates, 1)
	in := fake.updates[0]
	assert.Equal(t, "budgets", aws.ToString(in.TableName))
	assert.Equal(t, "attribute_exists(#id) AND #version = :expected", aws.ToString(in.ConditionExpression))
	assert.Contains(t, aws.ToString(in.UpdateExpression), "list_append(if_not_exists(#version_history, :empty), :entry)")
	assert.True(t, strings.HasSuffix(aws.ToString(in.UpdateExpression), "REMOVE #pdf_url"))
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1"}, in.ExpressionAttributeValues[":expected"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "2"}, in.ExpressionAttributeValues[":next"])
	entry, ok := in.ExpressionAttributeValues[":entry"].(*types.AttributeValueMemberL)
	require.True(t, ok)
	assert.Len(t, entry.Value, 1)
}

func TestBudgetDynamoRepository_ConditionFailed(t *testing.T) {
	fake := &fakeDynamo{updateErr: &types.ConditionalCheckFailedException{Message: aws.String("stale")}}
	repo := NewBudgetDynamoRepository(fake, "budgets-test")

	got, err := repo.Approve(context.Background(), "b-1", 3, "chef", time.Now())
	require.NoError(t, err)
	assert.Empty(t, got.ID)
	assert.Contains(t, aws.ToString(fake.updates[0].ConditionExpression), "attribute_exists(#pdf_url)")

	fake.updateErr = errors.New("throttled")
	_, err = repo.MarkSent(context.Background(), "b-1", "chef", time.Now())
	assert.Error(t, err)
}

func TestBudgetDynamoRepository_RejectWithoutReason(t *testing.T) {
	fake := &fakeDynamo{}
	repo := NewBudgetDynamoRepository(fake, "")

	got, err := repo.Reject(context.Background(), "b-1", "chef", "", time.Now())
	require.NoError(t, err)
	assert.Empty(t, got.ID)
	in := fake.updates[0]
	assert.NotContains(t, in.ExpressionAttributeValues, ":reason")
	assert.NotContains(t, in.ExpressionAttributeNames, "#rejection_reason")
}

func TestOrderItem_RoundTrip(t *testing.T) {
	price := 1930.5
	o := entities.Order{
		ID:          "o-1",
		ContactData: entities.ContactData{Email: "claire@example.com", Name: "Claire", EventDate: "2026-06-20", GuestCount: 30},
		MenuType:    entities.MenuTypeLunch,
		Entrees:     []string{"burrata", "gaspacho"},
		Viandes:     []string{"mechoui"},
		Extras:      entities.Extras{Equipment: []string{"chairs"}, DistanceKm: 12.5},
		Status:      entities.OrderStatusProcessed,
		CreatedAt:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
	}
	o.EstimatedPrice = &price

	av, err := attributevalue.MarshalMap(toOrderItem(o))
	require.NoError(t, err)
	var it orderItem
	require.NoError(t, attributevalue.UnmarshalMap(av, &it))
	assert.Equal(t, o, fromOrderItem(it))
}

func TestDepositItem_RoundTrip(t *testing.T) {
	p := entities.DepositPayment{
		ID:                 "123",
		BudgetID:           "b-1",
		Amount:             579.15,
		Date:               time.Date(2026, 5, 7, 0, 0, 0, 0, time.UTC),
		Status:             entities.DepositStatusApproved,
		ProviderPayloadRaw: []byte(`{"id":123}`),
		ProviderPayload:    map[string]interface{}{"status": "approved"},
	}
	av, err := attributevalue.MarshalMap(toDepositItem(p))
	require.NoError(t, err)
	var it depositItem
	require.NoError(t, attributevalue.UnmarshalMap(av, &it))
	assert.Equal(t, p, fromDepositItem(it))
}
