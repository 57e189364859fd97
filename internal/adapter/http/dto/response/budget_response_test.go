package response

import (
	"encoding/json"
	"testing"
	"time"

	"traiteur_devis/internal/domain/entities"
)

func TestFromBudget(t *testing.T) {
	now := time.Now().UTC()
	url := "https://files.traiteur.test/budgets/b-1/v2.pdf"
	b := entities.Budget{
		ID:         "b-1",
		OrderID:    "o-1",
		Version:    2,
		Status:     entities.BudgetStatusApproved,
		Strategy:   "rules",
		BudgetData: entities.BudgetData{Totals: entities.Totals{TotalTTC: 1930.5}},
		PDFURL:     &url,
		VersionHistory: []entities.VersionHistoryEntry{
			{Version: 2, ChangedBy: "admin", ChangedAt: now},
		},
		ApprovedBy: "admin",
		ApprovedAt: &now,
		SentAt:     &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	res := FromBudget(b)
	if res.ID != "b-1" || res.OrderID != "o-1" || res.Version != 2 || res.Status != "approved" {
		t.Fatalf("unexpected fields: %+v", res)
	}
	if res.TotalTTC != 1930.5 || res.PDFURL == nil || *res.PDFURL != url {
		t.Fatalf("unexpected totals or pdf: %+v", res)
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	if _, ok := body["versionHistory"]; ok {
		t.Fatalf("history must not be embedded: %s", raw)
	}
	if _, ok := body["rejectedBy"]; ok {
		t.Fatalf("empty actors must be omitted: %s", raw)
	}
}

func TestFromBudgetHistory(t *testing.T) {
	res := FromBudgetHistory(entities.BudgetHistory{BudgetID: "b-1", Version: 1})
	if res.VersionHistory == nil || len(res.VersionHistory) != 0 {
		t.Fatalf("expected empty non-nil history, got %#v", res.VersionHistory)
	}
}
