package pricing

import (
	"fmt"
	"strings"

	"traiteur_devis/internal/domain/entities"
)

// Labels of the fields compared between two budget versions. They are shown
// verbatim to reviewers in the history.
const (
	FieldTotalTTC        = "Total TTC"
	FieldPricePerPerson  = "Prix par personne"
	FieldGuestCount      = "Nombre d'invités"
	FieldMenuTTC         = "Total menu TTC"
	FieldMaterialTTC     = "Total matériel TTC"
	FieldDeplacementTTC  = "Total déplacement TTC"
	FieldServiceStaff    = "Nombre de serveurs"
	FieldServiceHours    = "Heures de service"
	FieldDiscountPercent = "Remise (%)"
)

type trackedField struct {
	label string
	value func(entities.BudgetData) *float64
}

func ptr(v float64) *float64 { return &v }

func fromSection[T any](o entities.Optional[T], pick func(T) float64) *float64 {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	return ptr(pick(v))
}

var trackedFields = []trackedField{
	{FieldTotalTTC, func(d entities.BudgetData) *float64 { return ptr(d.Totals.TotalTTC) }},
	{FieldPricePerPerson, func(d entities.BudgetData) *float64 { return ptr(d.Menu.PricePerPerson) }},
	{FieldGuestCount, func(d entities.BudgetData) *float64 { return ptr(float64(d.Menu.GuestCount)) }},
	{FieldMenuTTC, func(d entities.BudgetData) *float64 { return ptr(d.Menu.TotalTTC) }},
	{FieldMaterialTTC, func(d entities.BudgetData) *float64 {
		return fromSection(d.Material, func(m entities.MaterialSection) float64 { return m.TotalTTC })
	}},
	{FieldDeplacementTTC, func(d entities.BudgetData) *float64 {
		return fromSection(d.Deplacement, func(s entities.DeplacementSection) float64 { return s.TotalTTC })
	}},
	{FieldServiceStaff, func(d entities.BudgetData) *float64 {
		return fromSection(d.Service, func(s entities.ServiceSection) float64 { return float64(s.StaffCount) })
	}},
	{FieldServiceHours, func(d entities.BudgetData) *float64 {
		return fromSection(d.Service, func(s entities.ServiceSection) float64 { return s.Hours })
	}},
	{FieldDiscountPercent, func(d entities.BudgetData) *float64 {
		return fromSection(d.Totals.Discount, func(s entities.Discount) float64 { return s.Percentage })
	}},
}

// Diff compares the tracked fields of two versions and returns one change per
// field whose value differs. Changes are ordered like the tracked field list.
func Diff(before, after entities.BudgetData) []entities.FieldChange {
	changes := []entities.FieldChange{}
	for _, f := range trackedFields {
		oldV, newV := f.value(before), f.value(after)
		if sameValue(oldV, newV) {
			continue
		}
		changes = append(changes, entities.FieldChange{Field: f.label, OldValue: oldV, NewValue: newV})
	}
	return changes
}

func sameValue(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return dec(*a).Equal(dec(*b))
}

// DefaultSummary describes an edit when the caller gave no summary.
func DefaultSummary(changes []entities.FieldChange, newVersion int) string {
	if len(changes) == 0 {
		return fmt.Sprintf("Modification du budget (version %d)", newVersion)
	}
	labels := make([]string, 0, len(changes))
	for _, c := range changes {
		labels = append(labels, c.Field)
	}
	return "Modification : " + strings.Join(labels, ", ")
}
