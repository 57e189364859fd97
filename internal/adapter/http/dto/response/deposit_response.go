package response

import (
	"time"

	"traiteur_devis/internal/domain/entities"
)

type DepositResponse struct {
	PaymentID string    `json:"payment_id"`
	ID        string    `json:"id"`
	BudgetID  string    `json:"budget_id"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`

	ProviderPayloadRaw string                 `json:"provider_payload_raw,omitempty"`
	ProviderPayload    map[string]interface{} `json:"provider_payload,omitempty"`
}

func FromDeposit(p entities.DepositPayment) DepositResponse {
	return DepositResponse{
		PaymentID:          p.ID,
		ID:                 p.ID,
		BudgetID:           p.BudgetID,
		Amount:             p.Amount,
		Date:               p.Date,
		Status:             string(p.Status),
		ProviderPayloadRaw: string(p.ProviderPayloadRaw),
		ProviderPayload:    p.ProviderPayload,
	}
}

func FromDeposits(list []entities.DepositPayment) []DepositResponse {
	out := make([]DepositResponse, 0, len(list))
	for _, p := range list {
		out = append(out, FromDeposit(p))
	}
	return out
}
