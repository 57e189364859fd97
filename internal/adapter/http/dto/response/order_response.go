package response

import (
	"time"

	"traiteur_devis/internal/domain/entities"
)

type OrderResponse struct {
	ID             string               `json:"id"`
	ContactData    entities.ContactData `json:"contactData"`
	MenuType       string               `json:"menuType"`
	Entrees        []string             `json:"entrees"`
	Viandes        []string             `json:"viandes"`
	Dessert        string               `json:"dessert,omitempty"`
	Extras         entities.Extras      `json:"extras"`
	Status         string               `json:"status"`
	EstimatedPrice *float64             `json:"estimatedPrice,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

func FromOrder(o entities.Order) OrderResponse {
	return OrderResponse{
		ID:             o.ID,
		ContactData:    o.ContactData,
		MenuType:       string(o.MenuType),
		Entrees:        o.Entrees,
		Viandes:        o.Viandes,
		Dessert:        o.Dessert,
		Extras:         o.Extras,
		Status:         string(o.Status),
		EstimatedPrice: o.EstimatedPrice,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}
