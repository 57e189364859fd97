package memory

import "traiteur_devis/internal/domain/entities"

// Stored values never share slices or pointers with callers.

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneLines(lines []entities.LineItem) []entities.LineItem {
	if lines == nil {
		return nil
	}
	return append([]entities.LineItem(nil), lines...)
}

func cloneBudgetData(d entities.BudgetData) entities.BudgetData {
	out := d
	out.Menu.Entrees = cloneLines(d.Menu.Entrees)
	out.Menu.Viandes = cloneLines(d.Menu.Viandes)
	out.Menu.Desserts = cloneLines(d.Menu.Desserts)
	if d.Menu.Accompaniments != nil {
		out.Menu.Accompaniments = append([]string(nil), d.Menu.Accompaniments...)
	}
	if m, ok := d.Material.Get(); ok {
		m.Items = cloneLines(m.Items)
		out.Material = entities.Some(m)
	}
	return out
}

func cloneHistory(h []entities.VersionHistoryEntry) []entities.VersionHistoryEntry {
	if h == nil {
		return nil
	}
	out := make([]entities.VersionHistoryEntry, len(h))
	for i, e := range h {
		out[i] = e
		if e.Changes != nil {
			out[i].Changes = make([]entities.FieldChange, len(e.Changes))
			for j, c := range e.Changes {
				out[i].Changes[j] = entities.FieldChange{
					Field:    c.Field,
					OldValue: clonePtr(c.OldValue),
					NewValue: clonePtr(c.NewValue),
				}
			}
		}
	}
	return out
}

func cloneBudget(b entities.Budget) entities.Budget {
	out := b
	out.BudgetData = cloneBudgetData(b.BudgetData)
	out.PDFURL = clonePtr(b.PDFURL)
	out.VersionHistory = cloneHistory(b.VersionHistory)
	out.EditedAt = clonePtr(b.EditedAt)
	out.ApprovedAt = clonePtr(b.ApprovedAt)
	out.SentAt = clonePtr(b.SentAt)
	out.RejectedAt = clonePtr(b.RejectedAt)
	return out
}

func cloneOrder(o entities.Order) entities.Order {
	out := o
	out.Entrees = append([]string(nil), o.Entrees...)
	out.Viandes = append([]string(nil), o.Viandes...)
	if o.Extras.Equipment != nil {
		out.Extras.Equipment = append([]string(nil), o.Extras.Equipment...)
	}
	out.EstimatedPrice = clonePtr(o.EstimatedPrice)
	return out
}
