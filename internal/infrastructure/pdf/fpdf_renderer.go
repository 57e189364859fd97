// Package pdf lays out a budget as a one-document A4 PDF with go-pdf/fpdf.
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/usecase/interfaces"
	"traiteur_devis/internal/usecase/notification"
	"traiteur_devis/pkg"
)

const (
	fontFamily = "Helvetica"
	lineHeight = 6.0
	colName    = 95.0
	colQty     = 20.0
	colUnit    = 35.0
	colTotal   = 35.0
)

// Renderer formats values only. Every amount printed comes from BudgetData
// unchanged.
type Renderer struct {
	CompanyName string
	Compress    bool
}

var _ interfaces.IBudgetRenderer = (*Renderer)(nil)

func NewRenderer(companyName string) *Renderer {
	return &Renderer{CompanyName: companyName, Compress: true}
}

func (r *Renderer) Render(data entities.BudgetData) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(r.Compress)
	doc.SetCatalogSort(true)
	doc.SetCreationDate(data.GeneratedAt)
	doc.SetModificationDate(data.GeneratedAt)
	doc.SetTitle("Devis "+data.ClientInfo.Name, true)
	doc.SetAuthor(r.CompanyName, true)
	doc.SetMargins(15, 15, 15)
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()

	w := &writer{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}
	w.header(r.CompanyName, data)
	w.client(data.ClientInfo)

	w.sectionTitle(fmt.Sprintf("Menu %s : %d invités à %s", notification.MenuLabel(data.ClientInfo.MenuType),
		data.Menu.GuestCount, pkg.FormatEUR(data.Menu.PricePerPerson)))
	w.tableHeader()
	w.lines("Entrées", data.Menu.Entrees)
	w.lines("Plats", data.Menu.Viandes)
	w.lines("Desserts", data.Menu.Desserts)
	if len(data.Menu.Accompaniments) > 0 {
		w.text("Accompagnements : " + strings.Join(data.Menu.Accompaniments, ", "))
	}
	w.amounts(data.Menu.SectionAmounts)

	if m, ok := data.Material.Get(); ok {
		w.sectionTitle("Matériel")
		w.tableHeader()
		w.lines("", m.Items)
		if m.HandlingFee > 0 {
			w.row("Manutention", "", "", pkg.FormatEUR(m.HandlingFee))
		}
		if m.DeliveryFee > 0 {
			w.row("Livraison", "", "", pkg.FormatEUR(m.DeliveryFee))
		}
		w.amounts(m.SectionAmounts)
	}
	if d, ok := data.Deplacement.Get(); ok {
		w.sectionTitle("Déplacement")
		w.row(fmt.Sprintf("%s km", pkg.FormatAmount(d.DistanceKm)), "", pkg.FormatEUR(d.RatePerKm)+"/km", pkg.FormatEUR(d.TotalHT))
		w.amounts(d.SectionAmounts)
	}
	if s, ok := data.Service.Get(); ok {
		w.sectionTitle("Service")
		w.row(fmt.Sprintf("%d serveur(s) x %s h", s.StaffCount, pkg.FormatAmount(s.Hours)), "", pkg.FormatEUR(s.HourlyRate)+"/h", pkg.FormatEUR(s.TotalHT))
		w.amounts(s.SectionAmounts)
	}

	w.totals(data.Totals)
	if data.Notes != "" {
		w.sectionTitle("Notes")
		w.text(data.Notes)
	}
	w.footer(data.ValidUntil)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render budget pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type writer struct {
	doc *fpdf.Fpdf
	tr  func(string) string
}

func (w *writer) header(company string, data entities.BudgetData) {
	w.doc.SetFont(fontFamily, "B", 18)
	w.doc.CellFormat(0, 10, w.tr(company), "", 1, "L", false, 0, "")
	w.doc.SetFont(fontFamily, "B", 14)
	w.doc.CellFormat(0, 8, w.tr("DEVIS"), "", 1, "L", false, 0, "")
	w.doc.SetFont(fontFamily, "", 10)
	w.doc.CellFormat(0, lineHeight, w.tr("Établi le "+data.GeneratedAt.Format("02/01/2006")), "", 1, "L", false, 0, "")
	w.doc.Ln(4)
}

func (w *writer) client(c entities.ClientInfo) {
	w.sectionTitle("Client")
	w.text(c.Name)
	for _, s := range []string{c.Email, c.Phone, c.Address} {
		if s != "" {
			w.text(s)
		}
	}
	event := "Événement"
	if c.EventType != "" {
		event = c.EventType
	}
	w.text(fmt.Sprintf("%s le %s, %d invités", event, c.EventDate, c.GuestCount))
}

func (w *writer) sectionTitle(title string) {
	w.doc.Ln(3)
	w.doc.SetFont(fontFamily, "B", 12)
	w.doc.SetFillColor(235, 235, 235)
	w.doc.CellFormat(0, 8, w.tr(title), "", 1, "L", true, 0, "")
	w.doc.SetFont(fontFamily, "", 10)
}

func (w *writer) tableHeader() {
	w.doc.SetFont(fontFamily, "B", 10)
	w.cells("Désignation", "Qté", "PU HT", "Total HT")
	w.doc.SetFont(fontFamily, "", 10)
}

func (w *writer) lines(group string, items []entities.LineItem) {
	if len(items) == 0 {
		return
	}
	if group != "" {
		w.doc.SetFont(fontFamily, "I", 10)
		w.doc.CellFormat(0, lineHeight, w.tr(group), "", 1, "L", false, 0, "")
		w.doc.SetFont(fontFamily, "", 10)
	}
	for _, it := range items {
		w.row(it.Name, fmt.Sprintf("%d", it.Quantity), pkg.FormatEUR(it.UnitPrice), pkg.FormatEUR(it.LineTotal))
	}
}

func (w *writer) row(name, qty, unit, total string) {
	w.cells(name, qty, unit, total)
}

func (w *writer) cells(name, qty, unit, total string) {
	w.doc.CellFormat(colName, lineHeight, w.tr(name), "B", 0, "L", false, 0, "")
	w.doc.CellFormat(colQty, lineHeight, w.tr(qty), "B", 0, "R", false, 0, "")
	w.doc.CellFormat(colUnit, lineHeight, w.tr(unit), "B", 0, "R", false, 0, "")
	w.doc.CellFormat(colTotal, lineHeight, w.tr(total), "B", 1, "R", false, 0, "")
}

func (w *writer) amounts(a entities.SectionAmounts) {
	w.summary("Total HT", pkg.FormatEUR(a.TotalHT), false)
	w.summary(fmt.Sprintf("TVA %s %%", pkg.FormatAmount(a.TaxRate*100)), pkg.FormatEUR(a.Tax), false)
	w.summary("Total TTC", pkg.FormatEUR(a.TotalTTC), true)
}

func (w *writer) summary(label, value string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	w.doc.SetFont(fontFamily, style, 10)
	w.doc.CellFormat(colName+colQty+colUnit, lineHeight, w.tr(label), "", 0, "R", false, 0, "")
	w.doc.CellFormat(colTotal, lineHeight, w.tr(value), "", 1, "R", false, 0, "")
	w.doc.SetFont(fontFamily, "", 10)
}

func (w *writer) totals(t entities.Totals) {
	w.sectionTitle("Récapitulatif")
	w.summary("Total HT", pkg.FormatEUR(t.TotalHT), false)
	w.summary("TVA", pkg.FormatEUR(t.Tax), false)
	if d, ok := t.Discount.Get(); ok {
		w.summary(fmt.Sprintf("%s (-%s %%)", d.Reason, pkg.FormatAmount(d.Percentage)), "-"+pkg.FormatEUR(d.Amount), false)
	}
	w.summary("Total TTC", pkg.FormatEUR(t.TotalTTC), true)
}

func (w *writer) text(s string) {
	w.doc.MultiCell(0, lineHeight, w.tr(s), "", "L", false)
}

func (w *writer) footer(validUntil time.Time) {
	w.doc.Ln(6)
	w.doc.SetFont(fontFamily, "I", 9)
	w.text("Devis valable jusqu'au " + validUntil.Format("02/01/2006") + ".")
}
