package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"traiteur_devis/internal/domain/entities"
)

// Validate checks the structural invariants of a BudgetData: every line, every
// section and the grand totals must reconcile to the cent. It is run on every
// calculator result and on every edited payload before storage.
func Validate(data entities.BudgetData) error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(data.Menu.GuestCount > 0, "menu.guestCount must be greater than 0")
	check(len(data.Menu.Desserts) > 0, "menu.desserts must contain at least one line")

	lines := func(section string, items []entities.LineItem) {
		for i, l := range items {
			expected := round2(dec(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
			check(approxEqual(dec(l.LineTotal), expected),
				"%s[%d]: lineTotal %.2f != %d x %.2f", section, i, l.LineTotal, l.Quantity, l.UnitPrice)
		}
	}
	reconcile := func(section string, a entities.SectionAmounts) {
		ht := dec(a.TotalHT)
		tax := dec(a.Tax)
		check(approxEqual(tax, round2(ht.Mul(dec(a.TaxRate)))),
			"%s: tax %.2f != %.2f x %.2f", section, a.Tax, a.TotalHT, a.TaxRate)
		check(approxEqual(dec(a.TotalTTC), round2(ht.Add(tax))),
			"%s: totalTTC %.2f != %.2f + %.2f", section, a.TotalTTC, a.TotalHT, a.Tax)
	}

	lines("menu.entrees", data.Menu.Entrees)
	lines("menu.viandes", data.Menu.Viandes)
	lines("menu.desserts", data.Menu.Desserts)
	check(approxEqual(dec(data.Menu.TotalHT), sumLines(data.Menu.Lines())),
		"menu: totalHT %.2f does not match its lines", data.Menu.TotalHT)
	reconcile("menu", data.Menu.SectionAmounts)

	if m, ok := data.Material.Get(); ok {
		lines("material.items", m.Items)
		expected := sumLines(m.Items).Add(dec(m.HandlingFee)).Add(dec(m.DeliveryFee))
		check(approxEqual(dec(m.TotalHT), expected),
			"material: totalHT %.2f does not match its items and fees", m.TotalHT)
		reconcile("material", m.SectionAmounts)
	}
	if d, ok := data.Deplacement.Get(); ok {
		check(approxEqual(dec(d.TotalHT), round2(dec(d.DistanceKm).Mul(dec(d.RatePerKm)))),
			"deplacement: totalHT %.2f != %.2f km x %.2f", d.TotalHT, d.DistanceKm, d.RatePerKm)
		reconcile("deplacement", d.SectionAmounts)
	}
	if s, ok := data.Service.Get(); ok {
		expected := round2(decimal.NewFromInt(int64(s.StaffCount)).Mul(dec(s.Hours)).Mul(dec(s.HourlyRate)))
		check(approxEqual(dec(s.TotalHT), expected),
			"service: totalHT %.2f != %d x %.2f h x %.2f", s.TotalHT, s.StaffCount, s.Hours, s.HourlyRate)
		reconcile("service", s.SectionAmounts)
	}

	ht, tax, ttc := decimal.Zero, decimal.Zero, decimal.Zero
	for _, s := range data.Sections() {
		ht = ht.Add(dec(s.Amounts.TotalHT))
		tax = tax.Add(dec(s.Amounts.Tax))
		ttc = ttc.Add(dec(s.Amounts.TotalTTC))
	}
	check(approxEqual(dec(data.Totals.TotalHT), ht),
		"totals: totalHT %.2f != sum of sections %s", data.Totals.TotalHT, ht.StringFixed(2))
	check(approxEqual(dec(data.Totals.Tax), tax),
		"totals: tax %.2f != sum of sections %s", data.Totals.Tax, tax.StringFixed(2))

	discounted := ttc
	if d, ok := data.Totals.Discount.Get(); ok {
		check(d.Percentage > 0 && d.Percentage <= 100,
			"totals.discount: percentage %.2f out of range", d.Percentage)
		check(approxEqual(dec(d.Amount), round2(ttc.Mul(dec(d.Percentage)).Div(hundred))),
			"totals.discount: amount %.2f != %.2f%% of %s", d.Amount, d.Percentage, ttc.StringFixed(2))
		discounted = ttc.Sub(dec(d.Amount))
	}
	check(approxEqual(dec(data.Totals.TotalTTC), round2(discounted)),
		"totals: totalTTC %.2f != %s", data.Totals.TotalTTC, round2(discounted).StringFixed(2))

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", entities.ErrInvariantViolation, errors.Join(errs...))
	}
	return nil
}

// CheckDiscountLaw verifies that a freshly generated budget carries the lunch
// discount exactly when the event is a lunch, at the configured percentage.
// Edited budgets are not held to it: an admin may waive or change the discount.
func CheckDiscountLaw(data entities.BudgetData, rules Rules) error {
	d, present := data.Totals.Discount.Get()
	lunch := data.ClientInfo.MenuType == entities.MenuTypeLunch
	switch {
	case lunch && !present:
		return fmt.Errorf("%w: lunch budget has no discount", entities.ErrInvariantViolation)
	case !lunch && present:
		return fmt.Errorf("%w: %s budget carries a discount", entities.ErrInvariantViolation, data.ClientInfo.MenuType)
	case present && !dec(d.Percentage).Equal(dec(rules.LunchDiscount.Percentage)):
		return fmt.Errorf("%w: discount percentage %.2f, expected %.2f",
			entities.ErrInvariantViolation, d.Percentage, rules.LunchDiscount.Percentage)
	}
	return nil
}

// CheckOrderConsistency ties a priced budget back to the order it was computed
// for: guest count and per-guest quantities must match the order, and every
// section must carry the configured tax rate.
func CheckOrderConsistency(data entities.BudgetData, order entities.Order, rules Rules) error {
	guests := order.ContactData.GuestCount
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	quantities := func(section string, items []entities.LineItem) {
		for i, l := range items {
			check(l.Quantity == guests, "%s[%d]: quantity %d != %d guests", section, i, l.Quantity, guests)
		}
	}
	rate := func(section string, got, want float64) {
		check(dec(got).Equal(dec(want)), "%s: taxRate %.2f, expected %.2f", section, got, want)
	}

	check(data.Menu.GuestCount == guests, "menu.guestCount %d != %d guests", data.Menu.GuestCount, guests)
	quantities("menu.entrees", data.Menu.Entrees)
	quantities("menu.viandes", data.Menu.Viandes)
	quantities("menu.desserts", data.Menu.Desserts)
	rate("menu", data.Menu.TaxRate, rules.MenuTaxRate)

	if m, ok := data.Material.Get(); ok {
		quantities("material.items", m.Items)
		rate("material", m.TaxRate, rules.MaterialTaxRate)
	}
	if d, ok := data.Deplacement.Get(); ok {
		rate("deplacement", d.TaxRate, rules.DeplacementTaxRate)
	}
	if s, ok := data.Service.Get(); ok {
		rate("service", s.TaxRate, rules.ServiceTaxRate)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", entities.ErrInvariantViolation, errors.Join(errs...))
	}
	return nil
}
