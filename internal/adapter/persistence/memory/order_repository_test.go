package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traiteur_devis/internal/domain/entities"
)

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	r := NewOrderRepository()

	_, err := r.Create(ctx, entities.Order{ID: "o-1", Entrees: []string{"a", "b"}, Status: entities.OrderStatusPending})
	require.NoError(t, err)
	_, err = r.Create(ctx, entities.Order{ID: "o-1"})
	assert.True(t, errors.Is(err, ErrDuplicateID))

	o, err := r.MarkProcessed(ctx, "o-1", 1930.5)
	require.NoError(t, err)
	assert.Equal(t, entities.OrderStatusProcessed, o.Status)
	require.NotNil(t, o.EstimatedPrice)
	assert.Equal(t, 1930.5, *o.EstimatedPrice)

	missing, err := r.MarkProcessed(ctx, "o-2", 1)
	require.NoError(t, err)
	assert.Empty(t, missing.ID)
}

func TestDepositRepository_ListByBudgetID(t *testing.T) {
	ctx := context.Background()
	r := NewDepositRepository()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"p-2", "p-1", "p-3"} {
		budget := "b-1"
		if id == "p-3" {
			budget = "b-2"
		}
		_, err := r.Create(ctx, entities.DepositPayment{ID: id, BudgetID: budget, Date: base.Add(-time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}

	list, err := r.ListByBudgetID(ctx, "b-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p-1", list[0].ID)
	assert.Equal(t, "p-2", list[1].ID)

	empty, err := r.ListByBudgetID(ctx, "b-9")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
