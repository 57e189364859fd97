package entities

import "time"

// BudgetValidity is the fixed offset between generation and expiry of a budget.
const BudgetValidity = 30 * 24 * time.Hour

// BudgetData is a fully computed price breakdown. It is a value: edits replace it as
// a whole, they never patch it in place. JSON keys are the external contract shared
// with the pricing assistant and the document renderer.
type BudgetData struct {
	ClientInfo  ClientInfo                   `json:"clientInfo"`
	Menu        MenuSection                  `json:"menu"`
	Material    Optional[MaterialSection]    `json:"material"`
	Deplacement Optional[DeplacementSection] `json:"deplacement"`
	Service     Optional[ServiceSection]     `json:"service"`
	Totals      Totals                       `json:"totals"`
	Notes       string                       `json:"notes,omitempty"`
	GeneratedAt time.Time                    `json:"generatedAt"`
	ValidUntil  time.Time                    `json:"validUntil"`
}

type ClientInfo struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Address    string   `json:"address"`
	EventDate  string   `json:"eventDate"`
	EventType  string   `json:"eventType"`
	GuestCount int      `json:"guestCount"`
	MenuType   MenuType `json:"menuType"`
}

type LineItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

// SectionAmounts is the HT/tax/TTC triple every priced section carries.
type SectionAmounts struct {
	TotalHT  float64 `json:"totalHT"`
	Tax      float64 `json:"tax"`
	TaxRate  float64 `json:"taxRate"`
	TotalTTC float64 `json:"totalTTC"`
}

type MenuSection struct {
	PricePerPerson float64    `json:"pricePerPerson"`
	GuestCount     int        `json:"guestCount"`
	Entrees        []LineItem `json:"entrees"`
	Viandes        []LineItem `json:"viandes"`
	Desserts       []LineItem `json:"desserts"`
	Accompaniments []string   `json:"accompaniments"`
	SectionAmounts
}

// Lines returns every menu line in display order.
func (m MenuSection) Lines() []LineItem {
	out := make([]LineItem, 0, len(m.Entrees)+len(m.Viandes)+len(m.Desserts))
	out = append(out, m.Entrees...)
	out = append(out, m.Viandes...)
	out = append(out, m.Desserts...)
	return out
}

type MaterialSection struct {
	Items       []LineItem `json:"items"`
	HandlingFee float64    `json:"handlingFee,omitempty"`
	DeliveryFee float64    `json:"deliveryFee,omitempty"`
	SectionAmounts
}

type DeplacementSection struct {
	DistanceKm float64 `json:"distanceKm"`
	RatePerKm  float64 `json:"ratePerKm"`
	SectionAmounts
}

type ServiceSection struct {
	StaffCount int     `json:"staffCount"`
	Hours      float64 `json:"hours"`
	HourlyRate float64 `json:"hourlyRate"`
	SectionAmounts
}

type Discount struct {
	Reason     string  `json:"reason"`
	Percentage float64 `json:"percentage"`
	Amount     float64 `json:"amount"`
}

// Totals aggregates every present section. TotalHT and Tax are reported before
// the discount; only TotalTTC has the discount subtracted.
type Totals struct {
	TotalHT  float64            `json:"totalHT"`
	Tax      float64            `json:"tax"`
	TotalTTC float64            `json:"totalTTC"`
	Discount Optional[Discount] `json:"discount"`
}

// NamedSection pairs a section label with its amounts.
type NamedSection struct {
	Name    string
	Amounts SectionAmounts
}

// Sections lists the amounts of every present section, menu first.
func (d BudgetData) Sections() []NamedSection {
	out := []NamedSection{{Name: "menu", Amounts: d.Menu.SectionAmounts}}
	if m, ok := d.Material.Get(); ok {
		out = append(out, NamedSection{Name: "material", Amounts: m.SectionAmounts})
	}
	if dep, ok := d.Deplacement.Get(); ok {
		out = append(out, NamedSection{Name: "deplacement", Amounts: dep.SectionAmounts})
	}
	if s, ok := d.Service.Get(); ok {
		out = append(out, NamedSection{Name: "service", Amounts: s.SectionAmounts})
	}
	return out
}

// ClientInfoFromOrder copies the contact and event facts of an order.
func ClientInfoFromOrder(o Order) ClientInfo {
	return ClientInfo{
		Name:       o.ContactData.Name,
		Email:      o.ContactData.Email,
		Phone:      o.ContactData.Phone,
		Address:    o.ContactData.Address,
		EventDate:  o.ContactData.EventDate,
		EventType:  o.ContactData.EventType,
		GuestCount: o.ContactData.GuestCount,
		MenuType:   o.MenuType,
	}
}
