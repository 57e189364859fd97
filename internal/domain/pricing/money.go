package pricing

import (
	"github.com/shopspring/decimal"

	"traiteur_devis/internal/domain/entities"
)

var (
	hundred = decimal.NewFromInt(100)
	// cent is the tolerance used when reconciling amounts produced elsewhere.
	cent = decimal.New(1, -2)
)

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func toFloat(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// Round2 rounds an amount to cents.
func Round2(v float64) float64 {
	return toFloat(dec(v))
}

func approxEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(cent)
}

// amounts derives tax and TTC from a pre-tax amount.
func amounts(ht decimal.Decimal, rate float64) entities.SectionAmounts {
	ht = round2(ht)
	tax := round2(ht.Mul(dec(rate)))
	return entities.SectionAmounts{
		TotalHT:  toFloat(ht),
		Tax:      toFloat(tax),
		TaxRate:  rate,
		TotalTTC: toFloat(ht.Add(tax)),
	}
}

func lineItem(name string, quantity int, unitPrice decimal.Decimal) entities.LineItem {
	unitPrice = round2(unitPrice)
	return entities.LineItem{
		Name:      name,
		Quantity:  quantity,
		UnitPrice: toFloat(unitPrice),
		LineTotal: toFloat(unitPrice.Mul(decimal.NewFromInt(int64(quantity)))),
	}
}

func sumLines(lines []entities.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(dec(l.LineTotal))
	}
	return total
}

// aggregate computes grand totals from the present sections and applies a
// discount percentage to the pre-discount TTC.
func aggregate(sections []entities.NamedSection, discount *DiscountRule) entities.Totals {
	ht, tax, ttc := decimal.Zero, decimal.Zero, decimal.Zero
	for _, s := range sections {
		ht = ht.Add(dec(s.Amounts.TotalHT))
		tax = tax.Add(dec(s.Amounts.Tax))
		ttc = ttc.Add(dec(s.Amounts.TotalTTC))
	}

	totals := entities.Totals{
		TotalHT:  toFloat(ht),
		Tax:      toFloat(tax),
		TotalTTC: toFloat(ttc),
	}
	if discount == nil {
		return totals
	}

	amount := round2(ttc.Mul(dec(discount.Percentage)).Div(hundred))
	totals.Discount = entities.Some(entities.Discount{
		Reason:     discount.Reason,
		Percentage: discount.Percentage,
		Amount:     toFloat(amount),
	})
	totals.TotalTTC = toFloat(ttc.Sub(amount))
	return totals
}
