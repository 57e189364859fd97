// Package notification builds the transactional e-mails sent to clients and admins.
// Values are copied verbatim from the Order or BudgetData they describe.
package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/pkg"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"eur":  pkg.FormatEUR,
	"join": func(items []string) string { return strings.Join(items, ", ") },
}).ParseFS(templateFS, "templates/*.html"))

// Composer renders the three message kinds. CompanyName signs client e-mails and
// AdminEmail receives new-order alerts.
type Composer struct {
	CompanyName string
	AdminEmail  string
}

func NewComposer(companyName, adminEmail string) Composer {
	return Composer{CompanyName: companyName, AdminEmail: adminEmail}
}

type orderView struct {
	OrderID        string
	ClientName     string
	ClientEmail    string
	Phone          string
	EventType      string
	EventDate      string
	Address        string
	GuestCount     int
	MenuLabel      string
	Entrees        []string
	Viandes        []string
	Dessert        string
	Equipment      []string
	SpecialRequest string
	CompanyName    string
}

func (c Composer) orderView(o entities.Order) orderView {
	return orderView{
		OrderID:        o.ID,
		ClientName:     o.ContactData.Name,
		ClientEmail:    o.ContactData.Email,
		Phone:          o.ContactData.Phone,
		EventType:      o.ContactData.EventType,
		EventDate:      o.ContactData.EventDate,
		Address:        o.ContactData.Address,
		GuestCount:     o.ContactData.GuestCount,
		MenuLabel:      MenuLabel(o.MenuType),
		Entrees:        o.Entrees,
		Viandes:        o.Viandes,
		Dessert:        o.Dessert,
		Equipment:      o.Extras.Equipment,
		SpecialRequest: o.Extras.SpecialRequest,
		CompanyName:    c.CompanyName,
	}
}

// OrderReceived acknowledges a new request to the client.
func (c Composer) OrderReceived(o entities.Order) (entities.EmailMessage, error) {
	html, err := render("order_received.html", c.orderView(o))
	if err != nil {
		return entities.EmailMessage{}, err
	}
	return entities.EmailMessage{
		To:      o.ContactData.Email,
		ToName:  o.ContactData.Name,
		Subject: "Votre demande de devis a bien été reçue",
		HTML:    html,
	}, nil
}

// NewOrderAlert tells the admin a request is waiting.
func (c Composer) NewOrderAlert(o entities.Order) (entities.EmailMessage, error) {
	html, err := render("admin_new_order.html", c.orderView(o))
	if err != nil {
		return entities.EmailMessage{}, err
	}
	return entities.EmailMessage{
		To:      c.AdminEmail,
		Subject: fmt.Sprintf("Nouvelle demande de devis : %s (%d invités)", o.ContactData.Name, o.ContactData.GuestCount),
		HTML:    html,
	}, nil
}

type budgetView struct {
	ClientName     string
	EventType      string
	EventDate      string
	GuestCount     int
	TotalHT        float64
	Tax            float64
	TotalTTC       float64
	HasDiscount    bool
	DiscountReason string
	DiscountAmount float64
	PDFURL         string
	ValidUntil     string
	CompanyName    string
}

// BudgetDelivery carries an approved budget and its PDF link to the client.
func (c Composer) BudgetDelivery(data entities.BudgetData, pdfURL string) (entities.EmailMessage, error) {
	view := budgetView{
		ClientName:  data.ClientInfo.Name,
		EventType:   data.ClientInfo.EventType,
		EventDate:   data.ClientInfo.EventDate,
		GuestCount:  data.ClientInfo.GuestCount,
		TotalHT:     data.Totals.TotalHT,
		Tax:         data.Totals.Tax,
		TotalTTC:    data.Totals.TotalTTC,
		PDFURL:      pdfURL,
		ValidUntil:  data.ValidUntil.Format("02/01/2006"),
		CompanyName: c.CompanyName,
	}
	if d, ok := data.Totals.Discount.Get(); ok {
		view.HasDiscount = true
		view.DiscountReason = d.Reason
		view.DiscountAmount = d.Amount
	}

	html, err := render("budget_delivery.html", view)
	if err != nil {
		return entities.EmailMessage{}, err
	}
	return entities.EmailMessage{
		To:      data.ClientInfo.Email,
		ToName:  data.ClientInfo.Name,
		Subject: "Votre devis " + c.CompanyName,
		HTML:    html,
	}, nil
}

// MenuLabel is the French name of a menu type.
func MenuLabel(mt entities.MenuType) string {
	switch mt {
	case entities.MenuTypeLunch:
		return "déjeuner"
	case entities.MenuTypeDinner:
		return "dîner"
	}
	return string(mt)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
