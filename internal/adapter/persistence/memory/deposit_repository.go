package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/usecase/interfaces"
)

type DepositRepository struct {
	mu       sync.RWMutex
	deposits map[string]entities.DepositPayment
}

var _ interfaces.IDepositRepository = (*DepositRepository)(nil)

func NewDepositRepository() *DepositRepository {
	return &DepositRepository{deposits: make(map[string]entities.DepositPayment)}
}

func cloneDeposit(p entities.DepositPayment) entities.DepositPayment {
	out := p
	if p.ProviderPayloadRaw != nil {
		out.ProviderPayloadRaw = append(json.RawMessage(nil), p.ProviderPayloadRaw...)
	}
	return out
}

func (r *DepositRepository) Create(_ context.Context, p entities.DepositPayment) (entities.DepositPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deposits[p.ID]; ok {
		return entities.DepositPayment{}, ErrDuplicateID
	}
	r.deposits[p.ID] = cloneDeposit(p)
	return cloneDeposit(p), nil
}

func (r *DepositRepository) GetByID(_ context.Context, id string) (entities.DepositPayment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.deposits[id]
	if !ok {
		return entities.DepositPayment{}, nil
	}
	return cloneDeposit(p), nil
}

// ListByBudgetID returns the deposits of a budget, oldest first.
func (r *DepositRepository) ListByBudgetID(_ context.Context, budgetID string) ([]entities.DepositPayment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entities.DepositPayment, 0)
	for _, p := range r.deposits {
		if p.BudgetID == budgetID {
			out = append(out, cloneDeposit(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
