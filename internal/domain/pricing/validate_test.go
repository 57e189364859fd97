package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traiteur_devis/internal/domain/entities"
)

func generated(t *testing.T, order entities.Order) entities.BudgetData {
	t.Helper()
	data, err := newTestCalculator().ComputeBudget(context.Background(), order)
	require.NoError(t, err)
	return data
}

func TestValidate(t *testing.T) {
	t.Run("accepts generated budget", func(t *testing.T) {
		assert.NoError(t, Validate(generated(t, lunchOrder())))
	})

	tampered := []struct {
		name   string
		mutate func(*entities.BudgetData)
	}{
		{"line total", func(d *entities.BudgetData) { d.Menu.Entrees[0].LineTotal += 5 }},
		{"menu HT", func(d *entities.BudgetData) { d.Menu.TotalHT += 1 }},
		{"menu tax", func(d *entities.BudgetData) { d.Menu.Tax = 0 }},
		{"menu TTC", func(d *entities.BudgetData) { d.Menu.TotalTTC += 0.5 }},
		{"grand TTC", func(d *entities.BudgetData) { d.Totals.TotalTTC += 0.02 }},
		{"grand HT", func(d *entities.BudgetData) { d.Totals.TotalHT -= 3 }},
		{"discount amount", func(d *entities.BudgetData) {
			disc, _ := d.Totals.Discount.Get()
			disc.Amount += 10
			d.Totals.Discount = entities.Some(disc)
		}},
		{"no dessert line", func(d *entities.BudgetData) { d.Menu.Desserts = nil }},
	}
	for _, tc := range tampered {
		t.Run("rejects tampered "+tc.name, func(t *testing.T) {
			data := generated(t, lunchOrder())
			tc.mutate(&data)
			err := Validate(data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, entities.ErrInvariantViolation))
		})
	}

	t.Run("tolerates one cent", func(t *testing.T) {
		data := generated(t, lunchOrder())
		data.Totals.TotalTTC = 1930.51
		assert.NoError(t, Validate(data))
	})

	t.Run("checks optional sections", func(t *testing.T) {
		order := lunchOrder()
		order.Extras.Equipment = []string{"chairs"}
		data := generated(t, order)
		m, _ := data.Material.Get()
		m.TotalHT = 1
		data.Material = entities.Some(m)
		assert.True(t, errors.Is(Validate(data), entities.ErrInvariantViolation))
	})
}

func TestCheckDiscountLaw(t *testing.T) {
	rules := DefaultRules()

	lunch := generated(t, lunchOrder())
	assert.NoError(t, CheckDiscountLaw(lunch, rules))

	lunch.Totals.Discount = entities.None[entities.Discount]()
	assert.True(t, errors.Is(CheckDiscountLaw(lunch, rules), entities.ErrInvariantViolation))

	order := lunchOrder()
	order.MenuType = entities.MenuTypeDinner
	dinner := generated(t, order)
	assert.NoError(t, CheckDiscountLaw(dinner, rules))

	dinner.Totals.Discount = entities.Some(entities.Discount{Reason: "x", Percentage: 10, Amount: 1})
	assert.Error(t, CheckDiscountLaw(dinner, rules))
}

func TestCheckOrderConsistency(t *testing.T) {
	order := lunchOrder()
	order.Extras.Equipment = []string{"chairs"}
	data := generated(t, order)
	assert.NoError(t, CheckOrderConsistency(data, order, DefaultRules()))

	other := order
	other.ContactData.GuestCount = 45
	err := CheckOrderConsistency(data, other, DefaultRules())
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrInvariantViolation)
	assert.Contains(t, err.Error(), "menu.guestCount 30 != 45 guests")
	assert.Contains(t, err.Error(), "material.items[0]: quantity 30 != 45 guests")
}

func TestRecalculate(t *testing.T) {
	data := generated(t, lunchOrder())
	data.Service = entities.Some(entities.ServiceSection{
		StaffCount:     2,
		Hours:          4,
		HourlyRate:     35,
		SectionAmounts: entities.SectionAmounts{TaxRate: 0.20},
	})
	require.Error(t, Validate(data))

	out := Recalculate(data)
	require.NoError(t, Validate(out))

	service, ok := out.Service.Get()
	require.True(t, ok)
	assert.Equal(t, 280.0, service.TotalHT)
	assert.Equal(t, 56.0, service.Tax)
	assert.Equal(t, 336.0, service.TotalTTC)

	discount, ok := out.Totals.Discount.Get()
	require.True(t, ok)
	assert.Equal(t, 248.1, discount.Amount)
	assert.Equal(t, 2232.9, out.Totals.TotalTTC)

	// the input is left untouched
	assert.Equal(t, 0.0, data.Service.OrZero().TotalHT)
}

func TestDiff(t *testing.T) {
	before := generated(t, lunchOrder())
	before.Service = entities.Some(entities.ServiceSection{StaffCount: 2, Hours: 4, HourlyRate: 35})

	t.Run("service hours", func(t *testing.T) {
		after := before
		after.Service = entities.Some(entities.ServiceSection{StaffCount: 2, Hours: 6, HourlyRate: 35})

		changes := Diff(before, after)
		require.Len(t, changes, 1)
		assert.Equal(t, FieldServiceHours, changes[0].Field)
		assert.Equal(t, "Heures de service", changes[0].Field)
		require.NotNil(t, changes[0].OldValue)
		require.NotNil(t, changes[0].NewValue)
		assert.Equal(t, 4.0, *changes[0].OldValue)
		assert.Equal(t, 6.0, *changes[0].NewValue)
	})

	t.Run("section removed", func(t *testing.T) {
		after := before
		after.Service = entities.None[entities.ServiceSection]()

		changes := Diff(before, after)
		require.Len(t, changes, 2)
		assert.Equal(t, FieldServiceStaff, changes[0].Field)
		assert.Nil(t, changes[0].NewValue)
		assert.Equal(t, FieldServiceHours, changes[1].Field)
	})

	t.Run("identical", func(t *testing.T) {
		changes := Diff(before, before)
		assert.NotNil(t, changes)
		assert.Empty(t, changes)
	})
}

func TestDefaultSummary(t *testing.T) {
	assert.Equal(t, "Modification du budget (version 3)", DefaultSummary(nil, 3))

	changes := []entities.FieldChange{{Field: FieldTotalTTC}, {Field: FieldServiceHours}}
	assert.Equal(t, "Modification : Total TTC, Heures de service", DefaultSummary(changes, 2))
}
