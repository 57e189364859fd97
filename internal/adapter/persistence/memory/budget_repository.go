package memory

import (
	"context"
	"sync"
	"time"

	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/usecase/interfaces"
)

// BudgetRepository holds one budget per order. Every conditional write checks and
// applies under the same lock, like a DynamoDB condition expression.
type BudgetRepository struct {
	mu      sync.Mutex
	budgets map[string]entities.Budget
	byOrder map[string]string
}

var _ interfaces.IBudgetRepository = (*BudgetRepository)(nil)

func NewBudgetRepository() *BudgetRepository {
	return &BudgetRepository{
		budgets: make(map[string]entities.Budget),
		byOrder: make(map[string]string),
	}
}

// Create stores a new budget. It returns a zero Budget when the id or the order
// already has one.
func (r *BudgetRepository) Create(_ context.Context, b entities.Budget) (entities.Budget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.budgets[b.ID]; ok {
		return entities.Budget{}, nil
	}
	if _, ok := r.byOrder[b.OrderID]; ok {
		return entities.Budget{}, nil
	}
	r.budgets[b.ID] = cloneBudget(b)
	r.byOrder[b.OrderID] = b.ID
	return cloneBudget(b), nil
}

func (r *BudgetRepository) GetByID(_ context.Context, id string) (entities.Budget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.budgets[id]
	if !ok {
		return entities.Budget{}, nil
	}
	return cloneBudget(b), nil
}

func (r *BudgetRepository) GetByOrderID(_ context.Context, orderID string) (entities.Budget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byOrder[orderID]
	if !ok {
		return entities.Budget{}, nil
	}
	return cloneBudget(r.budgets[id]), nil
}

func (r *BudgetRepository) ApplyEdit(_ context.Context, id string, edit interfaces.BudgetEdit) (entities.Budget, error) {
	return r.update(id, func(b *entities.Budget) bool {
		if b.Version != edit.ExpectedVersion {
			return false
		}
		editedAt := edit.EditedAt
		b.Version++
		b.BudgetData = cloneBudgetData(edit.BudgetData)
		b.VersionHistory = entities.AppendHistory(b.VersionHistory, cloneHistory([]entities.VersionHistoryEntry{edit.Entry})[0])
		b.PDFURL = nil
		b.Status = entities.BudgetStatusPendingReview
		b.EditedBy = edit.EditedBy
		b.EditedAt = &editedAt
		b.UpdatedAt = editedAt
		return true
	})
}

func (r *BudgetRepository) SetPDFURL(_ context.Context, id string, version int, url string) (entities.Budget, error) {
	return r.update(id, func(b *entities.Budget) bool {
		if b.Version != version {
			return false
		}
		b.PDFURL = &url
		b.UpdatedAt = time.Now().UTC()
		return true
	})
}

func (r *BudgetRepository) Approve(_ context.Context, id string, version int, approvedBy string, at time.Time) (entities.Budget, error) {
	return r.update(id, func(b *entities.Budget) bool {
		if b.Version != version || b.Status != entities.BudgetStatusPendingReview || !b.HasPDF() {
			return false
		}
		b.Status = entities.BudgetStatusApproved
		b.ApprovedBy = approvedBy
		b.ApprovedAt = &at
		b.SentAt = &at
		b.UpdatedAt = at
		return true
	})
}

func (r *BudgetRepository) RevertApproval(_ context.Context, id string) (entities.Budget, error) {
	return r.update(id, func(b *entities.Budget) bool {
		if b.Status != entities.BudgetStatusApproved {
			return false
		}
		b.Status = entities.BudgetStatusPendingReview
		b.ApprovedBy = ""
		b.ApprovedAt = nil
		b.SentAt = nil
		b.UpdatedAt = time.Now().UTC()
		return true
	})
}

func (r *BudgetRepository) MarkSent(_ context.Context, id string, sentBy string, at time.Time) (entities.Budget, error) {
	return r.update(id, func(b *entities.Budget) bool {
		if !b.HasPDF() {
			return false
		}
		if b.Status != entities.BudgetStatusPendingReview && b.Status != entities.BudgetStatusApproved {
			return false
		}
		b.Status = entities.BudgetStatusSent
		b.SentBy = sentBy
		b.SentAt = &at
		b.UpdatedAt = at
		return true
	})
}

func (r *BudgetRepository) Reject(_ context.Context, id string, rejectedBy, reason string, at time.Time) (entities.Budget, error) {
	return r.update(id, func(b *entities.Budget) bool {
		if b.Status != entities.BudgetStatusDraft && b.Status != entities.BudgetStatusPendingReview {
			return false
		}
		b.Status = entities.BudgetStatusRejected
		b.RejectedBy = rejectedBy
		b.RejectionReason = reason
		b.RejectedAt = &at
		b.UpdatedAt = at
		return true
	})
}

// update applies mutate to a working copy and stores it only when mutate accepts.
func (r *BudgetRepository) update(id string, mutate func(*entities.Budget) bool) (entities.Budget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.budgets[id]
	if !ok {
		return entities.Budget{}, nil
	}
	b := cloneBudget(stored)
	if !mutate(&b) {
		return entities.Budget{}, nil
	}
	r.budgets[id] = b
	return cloneBudget(b), nil
}
