package interfaces

import (
	"context"

	"traiteur_devis/internal/domain/entities"
)

// IOrderRepository abstracts persistence for Order.
//
// Lookups return a zero Order (empty ID) and a nil error when the id is unknown.
type IOrderRepository interface {
	Create(ctx context.Context, o entities.Order) (entities.Order, error)
	GetByID(ctx context.Context, id string) (entities.Order, error)
	// MarkProcessed annotates the order once a budget has been generated for it.
	MarkProcessed(ctx context.Context, id string, estimatedPrice float64) (entities.Order, error)
}
