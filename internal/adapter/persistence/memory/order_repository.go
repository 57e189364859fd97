// Package memory keeps orders, budgets and deposits in process memory. It backs
// STORAGE_DRIVER=memory and the usecase tests, and applies the same conditional
// write rules as the DynamoDB repositories.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/usecase/interfaces"
)

var ErrDuplicateID = errors.New("item already exists")

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]entities.Order
}

var _ interfaces.IOrderRepository = (*OrderRepository)(nil)

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]entities.Order)}
}

func (r *OrderRepository) Create(_ context.Context, o entities.Order) (entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return entities.Order{}, ErrDuplicateID
	}
	r.orders[o.ID] = cloneOrder(o)
	return cloneOrder(o), nil
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (entities.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return entities.Order{}, nil
	}
	return cloneOrder(o), nil
}

func (r *OrderRepository) MarkProcessed(_ context.Context, id string, estimatedPrice float64) (entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return entities.Order{}, nil
	}
	o.Status = entities.OrderStatusProcessed
	o.EstimatedPrice = &estimatedPrice
	o.UpdatedAt = time.Now().UTC()
	r.orders[id] = o
	return cloneOrder(o), nil
}
