package request

import (
	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/usecase"
)

type GenerateBudgetRequest struct {
	GeneratedBy string `json:"generatedBy"`
}

// EditBudgetRequest carries a complete BudgetData. Sections sent as null are
// removed; recalculate rebuilds the derived amounts before validation.
type EditBudgetRequest struct {
	BudgetData  entities.BudgetData `json:"budgetData" binding:"required"`
	EditedBy    string              `json:"editedBy"`
	Summary     string              `json:"summary"`
	Recalculate bool                `json:"recalculate"`
}

func (r EditBudgetRequest) ToCommand() usecase.EditBudgetCommand {
	return usecase.EditBudgetCommand{
		BudgetData:  r.BudgetData,
		EditedBy:    r.EditedBy,
		Summary:     r.Summary,
		Recalculate: r.Recalculate,
	}
}

// BudgetActionRequest is the body of approve, mark-sent and reject.
type BudgetActionRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}
