package interfaces

import (
	"context"

	"traiteur_devis/internal/domain/entities"
)

// IDepositRepository abstracts DynamoDB persistence for DepositPayment.
type IDepositRepository interface {
	Create(ctx context.Context, p entities.DepositPayment) (entities.DepositPayment, error)
	GetByID(ctx context.Context, id string) (entities.DepositPayment, error)
	ListByBudgetID(ctx context.Context, budgetID string) ([]entities.DepositPayment, error)
}
