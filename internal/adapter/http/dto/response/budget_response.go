package response

import (
	"time"

	"traiteur_devis/internal/domain/entities"
)

type BudgetResponse struct {
	ID         string              `json:"id"`
	OrderID    string              `json:"orderId"`
	Version    int                 `json:"version"`
	Status     string              `json:"status"`
	Strategy   string              `json:"strategy"`
	BudgetData entities.BudgetData `json:"budgetData"`
	PDFURL     *string             `json:"pdfUrl"`
	TotalTTC   float64             `json:"totalTTC"`

	GeneratedBy     string     `json:"generatedBy,omitempty"`
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

// FromBudget leaves the version history out; it is served by the history endpoint.
func FromBudget(b entities.Budget) BudgetResponse {
	return BudgetResponse{
		ID:              b.ID,
		OrderID:         b.OrderID,
		Version:         b.Version,
		Status:          string(b.Status),
		Strategy:        b.Strategy,
		BudgetData:      b.BudgetData,
		PDFURL:          b.PDFURL,
		TotalTTC:        b.BudgetData.Totals.TotalTTC,
		GeneratedBy:     b.GeneratedBy,
		EditedBy:        b.EditedBy,
		EditedAt:        b.EditedAt,
		ApprovedBy:      b.ApprovedBy,
		ApprovedAt:      b.ApprovedAt,
		SentBy:          b.SentBy,
		SentAt:          b.SentAt,
		RejectedBy:      b.RejectedBy,
		RejectedAt:      b.RejectedAt,
		RejectionReason: b.RejectionReason,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

type BudgetHistoryResponse struct {
	BudgetID       string                         `json:"budgetId"`
	Version        int                            `json:"version"`
	VersionHistory []entities.VersionHistoryEntry `json:"versionHistory"`
}

func FromBudgetHistory(h entities.BudgetHistory) BudgetHistoryResponse {
	history := h.VersionHistory
	if history == nil {
		history = []entities.VersionHistoryEntry{}
	}
	return BudgetHistoryResponse{BudgetID: h.BudgetID, Version: h.Version, VersionHistory: history}
}
