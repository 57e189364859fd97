package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/usecase/interfaces"
)

const (
	defaultBudgetsTableName = "budgets"
	orderLockPrefix         = "order#"
)

type fieldChangeItem struct {
	Field    string   `dynamodbav:"field"`
	OldValue *float64 `dynamodbav:"old_value"`
	NewValue *float64 `dynamodbav:"new_value"`
}

type historyEntryItem struct {
	Version   int               `dynamodbav:"version"`
	ChangedBy string            `dynamodbav:"changed_by"`
	ChangedAt string            `dynamodbav:"changed_at"`
	Changes   []fieldChangeItem `dynamodbav:"changes"`
	Summary   string            `dynamodbav:"summary"`
}

// budgetItem stores BudgetData as its JSON document so optional sections keep
// their null/absent meaning.
type budgetItem struct {
	ID              string             `dynamodbav:"id"`
	OrderID         string             `dynamodbav:"order_id"`
	Version         int                `dynamodbav:"version"`
	Status          string             `dynamodbav:"status"`
	Strategy        string             `dynamodbav:"strategy,omitempty"`
	BudgetData      string             `dynamodbav:"budget_data"`
	PDFURL          string             `dynamodbav:"pdf_url,omitempty"`
	VersionHistory  []historyEntryItem `dynamodbav:"version_history"`
	GeneratedBy     string             `dynamodbav:"generated_by,omitempty"`
	EditedBy        string             `dynamodbav:"edited_by,omitempty"`
	EditedAt        string             `dynamodbav:"edited_at,omitempty"`
	ApprovedBy      string             `dynamodbav:"approved_by,omitempty"`
	ApprovedAt      string             `dynamodbav:"approved_at,omitempty"`
	SentBy          string             `dynamodbav:"sent_by,omitempty"`
	SentAt          string             `dynamodbav:"sent_at,omitempty"`
	RejectedBy      string             `dynamodbav:"rejected_by,omitempty"`
	RejectedAt      string             `dynamodbav:"rejected_at,omitempty"`
	RejectionReason string             `dynamodbav:"rejection_reason,omitempty"`
	CreatedAt       string             `dynamodbav:"created_at"`
	UpdatedAt       string             `dynamodbav:"updated_at"`
}

// orderLockItem claims an order for exactly one budget. It shares the budgets
// table under the key "order#<order id>" and is written in the same transaction
// as the budget it points to.
type orderLockItem struct {
	ID        string `dynamodbav:"id"`
	BudgetID  string `dynamodbav:"budget_id"`
	CreatedAt string `dynamodbav:"created_at"`
}

// BudgetDynamoRepository persists Budget entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string), shared by budgets and their order lock items
//
// Creation is a two-item transaction (budget + order lock). Every later state
// change is a single UpdateItem guarded by a condition expression, so version
// checks and history appends are atomic on the server.
type BudgetDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
}

var _ interfaces.IBudgetRepository = (*BudgetDynamoRepository)(nil)

func NewBudgetDynamoRepository(ddb DynamoAPI, tableName string) *BudgetDynamoRepository {
	if tableName == "" {
		tableName = defaultBudgetsTableName
	}
	return &BudgetDynamoRepository{ddb: ddb, tableName: tableName}
}

// Create writes the budget and its order lock atomically. It returns a zero
// Budget when the id or the order is already taken.
func (r *BudgetDynamoRepository) Create(ctx context.Context, b entities.Budget) (entities.Budget, error) {
	it, err := toBudgetItem(b)
	if err != nil {
		return entities.Budget{}, err
	}
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return entities.Budget{}, err
	}
	lock, err := attributevalue.MarshalMap(orderLockItem{
		ID:        orderLockKey(b.OrderID),
		BudgetID:  b.ID,
		CreatedAt: formatTime(b.CreatedAt),
	})
	if err != nil {
		return entities.Budget{}, err
	}

	notExists := func(item map[string]types.AttributeValue) types.TransactWriteItem {
		return types.TransactWriteItem{Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{
				"#id": "id",
			},
		}}
	}
	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{notExists(av), notExists(lock)},
	})
	if err != nil {
		if isTransactionConditionFailed(err) {
			return entities.Budget{}, nil
		}
		return entities.Budget{}, err
	}
	return b, nil
}

func (r *BudgetDynamoRepository) GetByID(ctx context.Context, id string) (entities.Budget, error) {
	if strings.HasPrefix(id, orderLockPrefix) {
		return entities.Budget{}, nil
	}
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Budget{}, err
	}
	if len(out.Item) == 0 {
		return entities.Budget{}, nil
	}
	return unmarshalBudget(out.Item)
}

// GetByOrderID follows the order lock, with consistent reads on both items.
func (r *BudgetDynamoRepository) GetByOrderID(ctx context.Context, orderID string) (entities.Budget, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            idKey(orderLockKey(orderID)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Budget{}, err
	}
	if len(out.Item) == 0 {
		return entities.Budget{}, nil
	}
	var lock orderLockItem
	if err := attributevalue.UnmarshalMap(out.Item, &lock); err != nil {
		return entities.Budget{}, err
	}
	return r.GetByID(ctx, lock.BudgetID)
}

func (r *BudgetDynamoRepository) ApplyEdit(ctx context.Context, id string, edit interfaces.BudgetEdit) (entities.Budget, error) {
	data, err := json.Marshal(edit.BudgetData)
	if err != nil {
		return entities.Budget{}, err
	}
	entry, err := attributevalue.Marshal([]historyEntryItem{toHistoryEntryItem(edit.Entry)})
	if err != nil {
		return entities.Budget{}, err
	}
	at := formatTime(edit.EditedAt)

	return r.update(ctx, id, budgetUpdate{
		condition: "#version = :expected",
		expr: "SET #budget_data = :data, #version = :next, " +
			"#version_history = list_append(if_not_exists(#version_history, :empty), :entry), " +
			"#status = :pending, #edited_by = :edited_by, #edited_at = :at, #updated_at = :at " +
			"REMOVE #pdf_url",
		values: map[string]types.AttributeValue{
			":expected":  num(edit.ExpectedVersion),
			":next":      num(edit.ExpectedVersion + 1),
			":data":      str(string(data)),
			":empty":     &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":entry":     entry,
			":pending":   str(string(entities.BudgetStatusPendingReview)),
			":edited_by": str(edit.EditedBy),
			":at":        str(at),
		},
		names: map[string]string{
			"#version":         "version",
			"#budget_data":     "budget_data",
			"#version_history": "version_history",
			"#status":          "status",
			"#edited_by":       "edited_by",
			"#edited_at":       "edited_at",
			"#updated_at":      "updated_at",
			"#pdf_url":         "pdf_url",
		},
	})
}

func (r *BudgetDynamoRepository) SetPDFURL(ctx context.Context, id string, version int, url string) (entities.Budget, error) {
	return r.update(ctx, id, budgetUpdate{
		condition: "#version = :version",
		expr:      "SET #pdf_url = :url, #updated_at = :now",
		values: map[string]types.AttributeValue{
			":version": num(version),
			":url":     str(url),
			":now":     str(formatTime(time.Now())),
		},
		names: map[string]string{
			"#version":    "version",
			"#pdf_url":    "pdf_url",
			"#updated_at": "updated_at",
		},
	})
}

func (r *BudgetDynamoRepository) Approve(ctx context.Context, id string, version int, approvedBy string, at time.Time) (entities.Budget, error) {
	return r.update(ctx, id, budgetUpdate{
		condition: "#version = :version AND #status = :pending AND attribute_exists(#pdf_url)",
		expr:      "SET #status = :approved, #approved_by = :by, #approved_at = :at, #sent_at = :at, #updated_at = :at",
		values: map[string]types.AttributeValue{
			":version":  num(version),
			":pending":  str(string(entities.BudgetStatusPendingReview)),
			":approved": str(string(entities.BudgetStatusApproved)),
			":by":       str(approvedBy),
			":at":       str(formatTime(at)),
		},
		names: map[string]string{
			"#version":     "version",
			"#status":      "status",
			"#pdf_url":     "pdf_url",
			"#approved_by": "approved_by",
			"#approved_at": "approved_at",
			"#sent_at":     "sent_at",
			"#updated_at":  "updated_at",
		},
	})
}

func (r *BudgetDynamoRepository) RevertApproval(ctx context.Context, id string) (entities.Budget, error) {
	return r.update(ctx, id, budgetUpdate{
		condition: "#status = :approved",
		expr:      "SET #status = :pending, #updated_at = :now REMOVE #approved_by, #approved_at, #sent_at",
		values: map[string]types.AttributeValue{
			":approved": str(string(entities.BudgetStatusApproved)),
			":pending":  str(string(entities.BudgetStatusPendingReview)),
			":now":      str(formatTime(time.Now())),
		},
		names: map[string]string{
			"#status":      "status",
			"#approved_by": "approved_by",
			"#approved_at": "approved_at",
			"#sent_at":     "sent_at",
			"#updated_at":  "updated_at",
		},
	})
}

func (r *BudgetDynamoRepository) MarkSent(ctx context.Context, id string, sentBy string, at time.Time) (entities.Budget, error) {
	return r.update(ctx, id, budgetUpdate{
		condition: "attribute_exists(#pdf_url) AND #status IN (:pending, :approved)",
		expr:      "SET #status = :sent, #sent_by = :by, #sent_at = :at, #updated_at = :at",
		values: map[string]types.AttributeValue{
			":pending":  str(string(entities.BudgetStatusPendingReview)),
			":approved": str(string(entities.BudgetStatusApproved)),
			":sent":     str(string(entities.BudgetStatusSent)),
			":by":       str(sentBy),
			":at":       str(formatTime(at)),
		},
		names: map[string]string{
			"#pdf_url":    "pdf_url",
			"#status":     "status",
			"#sent_by":    "sent_by",
			"#sent_at":    "sent_at",
			"#updated_at": "updated_at",
		},
	})
}

func (r *BudgetDynamoRepository) Reject(ctx context.Context, id string, rejectedBy, reason string, at time.Time) (entities.Budget, error) {
	values := map[string]types.AttributeValue{
		":draft":    str(string(entities.BudgetStatusDraft)),
		":pending":  str(string(entities.BudgetStatusPendingReview)),
		":rejected": str(string(entities.BudgetStatusRejected)),
		":by":       str(rejectedBy),
		":at":       str(formatTime(at)),
	}
	expr := "SET #status = :rejected, #rejected_by = :by, #rejected_at = :at, #updated_at = :at"
	names := map[string]string{
		"#status":      "status",
		"#rejected_by": "rejected_by",
		"#rejected_at": "rejected_at",
		"#updated_at":  "updated_at",
	}
	if reason != "" {
		expr += ", #rejection_reason = :reason"
		values[":reason"] = str(reason)
		names["#rejection_reason"] = "rejection_reason"
	}
	return r.update(ctx, id, budgetUpdate{
		condition: "#status IN (:draft, :pending)",
		expr:      expr,
		values:    values,
		names:     names,
	})
}

type budgetUpdate struct {
	condition string
	expr      string
	values    map[string]types.AttributeValue
	names     map[string]string
}

// update runs one conditional UpdateItem. A failed condition, including a missing
// item, yields a zero Budget and no error.
func (r *BudgetDynamoRepository) update(ctx context.Context, id string, u budgetUpdate) (entities.Budget, error) {
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       idKey(id),
		ConditionExpression:       aws.String("attribute_exists(#id) AND " + u.condition),
		UpdateExpression:          aws.String(u.expr),
		ExpressionAttributeValues: u.values,
		ExpressionAttributeNames:  mergeNames(u.names, map[string]string{"#id": "id"}),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return entities.Budget{}, nil
		}
		return entities.Budget{}, err
	}
	if len(out.Attributes) == 0 {
		return entities.Budget{}, nil
	}
	return unmarshalBudget(out.Attributes)
}

func orderLockKey(orderID string) string {
	return orderLockPrefix + orderID
}

func unmarshalBudget(av map[string]types.AttributeValue) (entities.Budget, error) {
	var it budgetItem
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return entities.Budget{}, err
	}
	return fromBudgetItem(it)
}

func toHistoryEntryItem(e entities.VersionHistoryEntry) historyEntryItem {
	changes := make([]fieldChangeItem, 0, len(e.Changes))
	for _, c := range e.Changes {
		changes = append(changes, fieldChangeItem{Field: c.Field, OldValue: c.OldValue, NewValue: c.NewValue})
	}
	return historyEntryItem{
		Version:   e.Version,
		ChangedBy: e.ChangedBy,
		ChangedAt: formatTime(e.ChangedAt),
		Changes:   changes,
		Summary:   e.Summary,
	}
}

func fromHistoryEntryItem(it historyEntryItem) entities.VersionHistoryEntry {
	changes := make([]entities.FieldChange, 0, len(it.Changes))
	for _, c := range it.Changes {
		changes = append(changes, entities.FieldChange{Field: c.Field, OldValue: c.OldValue, NewValue: c.NewValue})
	}
	return entities.VersionHistoryEntry{
		Version:   it.Version,
		ChangedBy: it.ChangedBy,
		ChangedAt: parseTime(it.ChangedAt),
		Changes:   changes,
		Summary:   it.Summary,
	}
}

func toBudgetItem(b entities.Budget) (budgetItem, error) {
	data, err := json.Marshal(b.BudgetData)
	if err != nil {
		return budgetItem{}, fmt.Errorf("encode budget data: %w", err)
	}
	history := make([]historyEntryItem, 0, len(b.VersionHistory))
	for _, e := range b.VersionHistory {
		history = append(history, toHistoryEntryItem(e))
	}
	it := budgetItem{
		ID:              b.ID,
		OrderID:         b.OrderID,
		Version:         b.Version,
		Status:          string(b.Status),
		Strategy:        b.Strategy,
		BudgetData:      string(data),
		VersionHistory:  history,
		GeneratedBy:     b.GeneratedBy,
		EditedBy:        b.EditedBy,
		EditedAt:        formatTimePtr(b.EditedAt),
		ApprovedBy:      b.ApprovedBy,
		ApprovedAt:      formatTimePtr(b.ApprovedAt),
		SentBy:          b.SentBy,
		SentAt:          formatTimePtr(b.SentAt),
		RejectedBy:      b.RejectedBy,
		RejectedAt:      formatTimePtr(b.RejectedAt),
		RejectionReason: b.RejectionReason,
		CreatedAt:       formatTime(b.CreatedAt),
		UpdatedAt:       formatTime(b.UpdatedAt),
	}
	if b.PDFURL != nil {
		it.PDFURL = *b.PDFURL
	}
	return it, nil
}

func fromBudgetItem(it budgetItem) (entities.Budget, error) {
	var data entities.BudgetData
	if err := json.Unmarshal([]byte(it.BudgetData), &data); err != nil {
		return entities.Budget{}, fmt.Errorf("decode budget data of %s: %w", it.ID, err)
	}
	history := make([]entities.VersionHistoryEntry, 0, len(it.VersionHistory))
	for _, e := range it.VersionHistory {
		history = append(history, fromHistoryEntryItem(e))
	}
	b := entities.Budget{
		ID:              it.ID,
		OrderID:         it.OrderID,
		Version:         it.Version,
		Status:          entities.BudgetStatus(it.Status),
		Strategy:        it.Strategy,
		BudgetData:      data,
		VersionHistory:  history,
		GeneratedBy:     it.GeneratedBy,
		EditedBy:        it.EditedBy,
		EditedAt:        parseTimePtr(it.EditedAt),
		ApprovedBy:      it.ApprovedBy,
		ApprovedAt:      parseTimePtr(it.ApprovedAt),
		SentBy:          it.SentBy,
		SentAt:          parseTimePtr(it.SentAt),
		RejectedBy:      it.RejectedBy,
		RejectedAt:      parseTimePtr(it.RejectedAt),
		RejectionReason: it.RejectionReason,
		CreatedAt:       parseTime(it.CreatedAt),
		UpdatedAt:       parseTime(it.UpdatedAt),
	}
	if it.PDFURL != "" {
		url := it.PDFURL
		b.PDFURL = &url
	}
	return b, nil
}
