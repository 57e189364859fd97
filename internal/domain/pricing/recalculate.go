package pricing

import (
	"github.com/shopspring/decimal"

	"traiteur_devis/internal/domain/entities"
)

// Recalculate rebuilds every derived amount of an edited BudgetData from its
// inputs: line totals, section HT/tax/TTC, grand totals and the discount amount.
// The discount keeps its percentage and reason. Quantities, unit prices, rates and
// the set of present sections are taken as given.
func Recalculate(data entities.BudgetData) entities.BudgetData {
	out := data

	relines := func(items []entities.LineItem) []entities.LineItem {
		if items == nil {
			return nil
		}
		res := make([]entities.LineItem, len(items))
		for i, l := range items {
			res[i] = lineItem(l.Name, l.Quantity, dec(l.UnitPrice))
		}
		return res
	}

	out.Menu.Entrees = relines(data.Menu.Entrees)
	out.Menu.Viandes = relines(data.Menu.Viandes)
	out.Menu.Desserts = relines(data.Menu.Desserts)
	out.Menu.SectionAmounts = amounts(sumLines(out.Menu.Lines()), data.Menu.TaxRate)

	if m, ok := data.Material.Get(); ok {
		m.Items = relines(m.Items)
		ht := sumLines(m.Items).Add(dec(m.HandlingFee)).Add(dec(m.DeliveryFee))
		m.SectionAmounts = amounts(ht, m.TaxRate)
		out.Material = entities.Some(m)
	}
	if d, ok := data.Deplacement.Get(); ok {
		d.SectionAmounts = amounts(dec(d.DistanceKm).Mul(dec(d.RatePerKm)), d.TaxRate)
		out.Deplacement = entities.Some(d)
	}
	if s, ok := data.Service.Get(); ok {
		ht := decimal.NewFromInt(int64(s.StaffCount)).Mul(dec(s.Hours)).Mul(dec(s.HourlyRate))
		s.SectionAmounts = amounts(ht, s.TaxRate)
		out.Service = entities.Some(s)
	}

	var rule *DiscountRule
	if d, ok := data.Totals.Discount.Get(); ok {
		rule = &DiscountRule{Percentage: d.Percentage, Reason: d.Reason}
	}
	out.Totals = aggregate(out.Sections(), rule)
	return out
}
