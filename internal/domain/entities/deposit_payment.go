package entities

import (
	"encoding/json"
	"time"
)

// DepositStatus represents the outcome of a deposit (acompte) payment.
type DepositStatus string

const (
	DepositStatusPending  DepositStatus = "pending"
	DepositStatusApproved DepositStatus = "approved"
	DepositStatusDenied   DepositStatus = "denied"
)

// DepositPayment is the deposit a client pays once a budget is approved.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (budget_id-index): budget_id
//
// ProviderPayloadRaw keeps the provider response body for reconciliation; ProviderPayload
// is its parsed form for querying.
type DepositPayment struct {
	ID       string        `json:"id"`
	BudgetID string        `json:"budget_id"`
	Amount   float64       `json:"amount"`
	Date     time.Time     `json:"date"`
	Status   DepositStatus `json:"status"`

	ProviderPayloadRaw json.RawMessage        `json:"provider_payload_raw,omitempty"`
	ProviderPayload    map[string]interface{} `json:"provider_payload,omitempty"`
}
