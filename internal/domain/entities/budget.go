package entities

import (
	"fmt"
	"time"
)

// BudgetStatus represents the lifecycle of a budget (devis).
//
//	draft -> pending_review -> approved -> sent
//	pending_review -> rejected
//	approved -> pending_review (any edit)
type BudgetStatus string

const (
	BudgetStatusDraft         BudgetStatus = "draft"
	BudgetStatusPendingReview BudgetStatus = "pending_review"
	BudgetStatusApproved      BudgetStatus = "approved"
	BudgetStatusSent          BudgetStatus = "sent"
	BudgetStatusRejected      BudgetStatus = "rejected"
)

var budgetTransitions = map[BudgetStatus][]BudgetStatus{
	BudgetStatusDraft:         {BudgetStatusPendingReview, BudgetStatusRejected},
	BudgetStatusPendingReview: {BudgetStatusApproved, BudgetStatusSent, BudgetStatusRejected},
	BudgetStatusApproved:      {BudgetStatusSent, BudgetStatusPendingReview},
}

// CanTransitionTo reports whether an explicit lifecycle action may move a budget
// from s to next. Edits bypass this table: they always land in pending_review.
func (s BudgetStatus) CanTransitionTo(next BudgetStatus) bool {
	for _, allowed := range budgetTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BudgetStatus) Valid() bool {
	switch s {
	case BudgetStatusDraft, BudgetStatusPendingReview, BudgetStatusApproved, BudgetStatusSent, BudgetStatusRejected:
		return true
	}
	return false
}

// FieldChange is one observable difference between two budget versions.
// A nil value means the field's section was absent.
type FieldChange struct {
	Field    string   `json:"field"`
	OldValue *float64 `json:"oldValue"`
	NewValue *float64 `json:"newValue"`
}

// VersionHistoryEntry is an immutable audit record of one budget edit.
type VersionHistoryEntry struct {
	Version   int           `json:"version"`
	ChangedBy string        `json:"changedBy"`
	ChangedAt time.Time     `json:"changedAt"`
	Changes   []FieldChange `json:"changes"`
	Summary   string        `json:"summary"`
}

// AppendHistory returns a new history with entry appended. The input slice is
// never written to, so callers holding it keep seeing the previous log.
func AppendHistory(history []VersionHistoryEntry, entry VersionHistoryEntry) []VersionHistoryEntry {
	out := make([]VersionHistoryEntry, len(history), len(history)+1)
	copy(out, history)
	return append(out, entry)
}

// Budget is the persisted, versioned envelope around a BudgetData.
//
// Storage model (DynamoDB):
//   - PK: id
//   - "order#<order id>" lock item pointing at the single budget of an order
//
// Invariant: Version == len(VersionHistory)+1. Every change of BudgetData appends
// exactly one history entry and clears PDFURL.
type Budget struct {
	ID             string                `json:"id"`
	OrderID        string                `json:"orderId"`
	Version        int                   `json:"version"`
	Status         BudgetStatus          `json:"status"`
	Strategy       string                `json:"strategy"`
	BudgetData     BudgetData            `json:"budgetData"`
	PDFURL         *string               `json:"pdfUrl"`
	VersionHistory []VersionHistoryEntry `json:"versionHistory"`

	GeneratedBy     string     `json:"generatedBy"`
	EditedBy        string     `json:"editedBy,omitempty"`
	EditedAt        *time.Time `json:"editedAt,omitempty"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	SentBy          string     `json:"sentBy,omitempty"`
	SentAt          *time.Time `json:"sentAt,omitempty"`
	RejectedBy      string     `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b Budget) HasPDF() bool {
	return b.PDFURL != nil && *b.PDFURL != ""
}

// CheckInvariants verifies the version/history bookkeeping. A failure is a defect
// in the code that wrote the budget, never a user error.
func (b Budget) CheckInvariants() error {
	if b.Version < 1 {
		return fmt.Errorf("%w: budget %s has version %d", ErrInvariantViolation, b.ID, b.Version)
	}
	if b.Version != len(b.VersionHistory)+1 {
		return fmt.Errorf("%w: budget %s has version %d but %d history entries",
			ErrInvariantViolation, b.ID, b.Version, len(b.VersionHistory))
	}
	for i, entry := range b.VersionHistory {
		if entry.Version != i+2 {
			return fmt.Errorf("%w: budget %s history entry %d has version %d",
				ErrInvariantViolation, b.ID, i, entry.Version)
		}
	}
	if !b.Status.Valid() {
		return fmt.Errorf("%w: budget %s has unknown status %q", ErrInvariantViolation, b.ID, b.Status)
	}
	return nil
}

// BudgetHistory is the read-only view returned by the history endpoint.
type BudgetHistory struct {
	BudgetID       string                `json:"budgetId"`
	Version        int                   `json:"version"`
	VersionHistory []VersionHistoryEntry `json:"versionHistory"`
}
