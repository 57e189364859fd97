package request

import (
	"strings"

	"traiteur_devis/internal/domain/entities"
)

type ContactRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	EventDate  string `json:"eventDate"`
	EventType  string `json:"eventType"`
	Address    string `json:"address"`
	GuestCount int    `json:"guestCount"`
}

type ExtrasRequest struct {
	Wines          bool     `json:"wines"`
	Equipment      []string `json:"equipment"`
	Decoration     bool     `json:"decoration"`
	SpecialRequest string   `json:"specialRequest"`
	DistanceKm     float64  `json:"distanceKm"`
}

// OrderRequest is the payload posted by the last step of the quote form.
type OrderRequest struct {
	ContactData ContactRequest `json:"contactData" binding:"required"`
	MenuType    string         `json:"menuType"`
	Entrees     []string       `json:"entrees"`
	Viandes     []string       `json:"viandes"`
	Dessert     string         `json:"dessert"`
	Extras      ExtrasRequest  `json:"extras"`
}

// ToEntity trims the free-text fields. Business validation happens in the order
// use case.
func (r OrderRequest) ToEntity() entities.Order {
	return entities.Order{
		ContactData: entities.ContactData{
			Email:      strings.TrimSpace(r.ContactData.Email),
			Name:       strings.TrimSpace(r.ContactData.Name),
			Phone:      strings.TrimSpace(r.ContactData.Phone),
			EventDate:  strings.TrimSpace(r.ContactData.EventDate),
			EventType:  strings.TrimSpace(r.ContactData.EventType),
			Address:    strings.TrimSpace(r.ContactData.Address),
			GuestCount: r.ContactData.GuestCount,
		},
		MenuType: entities.MenuType(strings.ToLower(strings.TrimSpace(r.MenuType))),
		Entrees:  r.Entrees,
		Viandes:  r.Viandes,
		Dessert:  strings.TrimSpace(r.Dessert),
		Extras: entities.Extras{
			Wines:          r.Extras.Wines,
			Equipment:      r.Extras.Equipment,
			Decoration:     r.Extras.Decoration,
			SpecialRequest: strings.TrimSpace(r.Extras.SpecialRequest),
			DistanceKm:     r.Extras.DistanceKm,
		},
	}
}
