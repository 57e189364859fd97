package interfaces

import (
	"context"
	"encoding/json"
)

// IPaymentGateway abstracts the deposit payment provider (Mercado Pago).
//
// The provider response body is returned verbatim so the deposit keeps it for
// reconciliation.
type IPaymentGateway interface {
	CreatePayment(ctx context.Context, requestPayload json.RawMessage) (providerPaymentID string, providerStatus string, providerResponse json.RawMessage, err error)
}
