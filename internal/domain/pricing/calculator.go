// Package pricing turns an order's selections into an itemized, reconciled BudgetData.
//
// Two strategies satisfy the same Calculator contract: a deterministic rule engine and
// an LLM-backed assistant. Every result, whatever its origin, must pass Validate before
// it may be stored.
package pricing

import (
	"context"
	"fmt"
	"strings"

	"traiteur_devis/internal/domain/entities"
)

// Strategy names a pricing implementation.
type Strategy string

const (
	StrategyRules     Strategy = "rules"
	StrategyAssistant Strategy = "assistant"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyRules:
		return StrategyRules, nil
	case StrategyAssistant:
		return StrategyAssistant, nil
	}
	return "", entities.NewValidationError("strategy", fmt.Sprintf("unknown pricing strategy %q", s))
}

// Calculator computes a budget from an order.
type Calculator interface {
	Strategy() Strategy
	ComputeBudget(ctx context.Context, order entities.Order) (entities.BudgetData, error)
}

// ValidateInput rejects orders that cannot be priced. It runs before any computation
// so no partial BudgetData is ever produced.
func ValidateInput(order entities.Order) error {
	var errs entities.ValidationErrors
	if order.ContactData.GuestCount <= 0 {
		errs = append(errs, entities.NewValidationError("contactData.guestCount", "must be greater than 0"))
	}
	if strings.TrimSpace(order.ContactData.Email) == "" {
		errs = append(errs, entities.NewValidationError("contactData.email", "is required"))
	}
	if order.MenuType != entities.MenuTypeLunch && order.MenuType != entities.MenuTypeDinner {
		errs = append(errs, entities.NewValidationError("menuType", "must be one of: lunch dinner"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
