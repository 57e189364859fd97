package interfaces

import (
	"context"
	"time"

	"traiteur_devis/internal/domain/entities"
)

// BudgetEdit is one compare-and-swap edit of a budget. It applies only while the
// stored version still equals ExpectedVersion; it then bumps the version by one,
// appends Entry to the history, replaces the data, clears the PDF and moves the
// budget back to pending_review.
type BudgetEdit struct {
	ExpectedVersion int
	BudgetData      entities.BudgetData
	Entry           entities.VersionHistoryEntry
	EditedBy        string
	EditedAt        time.Time
}

// IBudgetRepository abstracts persistence for Budget.
//
// Every conditional write returns a zero Budget (empty ID) and a nil error when its
// condition does not hold, including when the id is unknown. Callers reload to
// tell the two apart.
type IBudgetRepository interface {
	Create(ctx context.Context, b entities.Budget) (entities.Budget, error)
	GetByID(ctx context.Context, id string) (entities.Budget, error)
	GetByOrderID(ctx context.Context, orderID string) (entities.Budget, error)

	ApplyEdit(ctx context.Context, id string, edit BudgetEdit) (entities.Budget, error)
	// SetPDFURL attaches a rendered document to the given version only.
	SetPDFURL(ctx context.Context, id string, version int, url string) (entities.Budget, error)

	// Approve requires status pending_review, the given version and a PDF.
	Approve(ctx context.Context, id string, version int, approvedBy string, at time.Time) (entities.Budget, error)
	// RevertApproval undoes Approve after a failed delivery.
	RevertApproval(ctx context.Context, id string) (entities.Budget, error)
	// MarkSent requires status pending_review or approved and a PDF.
	MarkSent(ctx context.Context, id string, sentBy string, at time.Time) (entities.Budget, error)
	// Reject requires status draft or pending_review.
	Reject(ctx context.Context, id string, rejectedBy, reason string, at time.Time) (entities.Budget, error)
}
