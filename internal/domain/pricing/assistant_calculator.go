package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"traiteur_devis/internal/domain/entities"
)

// DefaultAssistantTimeout bounds one assistant round trip.
const DefaultAssistantTimeout = 45 * time.Second

// Assistant is a text completion backend (an LLM API in production).
type Assistant interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// requiredKeys must be present at the top level of the assistant output.
var requiredKeys = []string{"clientInfo", "menu", "totals"}

// AssistantCalculator prices an order by prompting an external assistant with the
// pricing grid. Its output is untrusted: it is parsed strictly and must pass the
// same invariants as the rule engine, or the call fails.
type AssistantCalculator struct {
	assistant Assistant
	rules     Rules
	timeout   time.Duration
	now       func() time.Time
}

var _ Calculator = (*AssistantCalculator)(nil)

type AssistantOption func(*AssistantCalculator)

func WithTimeout(d time.Duration) AssistantOption {
	return func(c *AssistantCalculator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithAssistantClock(now func() time.Time) AssistantOption {
	return func(c *AssistantCalculator) { c.now = now }
}

func NewAssistantCalculator(assistant Assistant, rules Rules, opts ...AssistantOption) *AssistantCalculator {
	c := &AssistantCalculator{
		assistant: assistant,
		rules:     rules,
		timeout:   DefaultAssistantTimeout,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *AssistantCalculator) Strategy() Strategy { return StrategyAssistant }

func (c *AssistantCalculator) ComputeBudget(ctx context.Context, order entities.Order) (entities.BudgetData, error) {
	if err := ValidateInput(order); err != nil {
		return entities.BudgetData{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.assistant.Complete(ctx, BuildAssistantPrompt(order, c.rules))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return entities.BudgetData{}, entities.NewDependencyError("pricing assistant", fmt.Errorf("no answer within %s: %w", c.timeout, err))
		}
		return entities.BudgetData{}, entities.NewDependencyError("pricing assistant", err)
	}

	data, err := ParseAssistantOutput(raw)
	if err != nil {
		return entities.BudgetData{}, err
	}

	data.ClientInfo = entities.ClientInfoFromOrder(order)
	data.GeneratedAt = c.now()
	data.ValidUntil = data.GeneratedAt.Add(entities.BudgetValidity)

	if err := Validate(data); err != nil {
		return entities.BudgetData{}, err
	}
	if err := CheckDiscountLaw(data, c.rules); err != nil {
		return entities.BudgetData{}, err
	}
	if err := CheckOrderConsistency(data, order, c.rules); err != nil {
		return entities.BudgetData{}, err
	}
	return data, nil
}

// ParseAssistantOutput decodes the raw assistant text. The text must be exactly
// one JSON object, with no surrounding prose, carrying every required top-level key.
func ParseAssistantOutput(raw string) (entities.BudgetData, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return entities.BudgetData{}, fmt.Errorf("%w: empty assistant output", entities.ErrUpstreamParse)
	}
	if !gjson.Valid(text) {
		return entities.BudgetData{}, fmt.Errorf("%w: assistant output is not valid JSON", entities.ErrUpstreamParse)
	}

	root := gjson.Parse(text)
	if !root.IsObject() {
		return entities.BudgetData{}, fmt.Errorf("%w: assistant output is not a JSON object", entities.ErrUpstreamParse)
	}
	var missing []string
	for _, key := range requiredKeys {
		if v := root.Get(key); !v.Exists() || !v.IsObject() {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return entities.BudgetData{}, fmt.Errorf("%w: missing required fields: %s",
			entities.ErrUpstreamParse, strings.Join(missing, ", "))
	}

	var out assistantOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return entities.BudgetData{}, fmt.Errorf("%w: %v", entities.ErrUpstreamParse, err)
	}
	return entities.BudgetData{
		Menu:        out.Menu,
		Material:    out.Material,
		Deplacement: out.Deplacement,
		Service:     out.Service,
		Totals:      out.Totals,
		Notes:       out.Notes,
	}, nil
}

// assistantOutput is the subset of BudgetData the assistant is trusted to price.
// Client details and dates are always taken from the order and the clock.
type assistantOutput struct {
	Menu        entities.MenuSection                           `json:"menu"`
	Material    entities.Optional[entities.MaterialSection]    `json:"material"`
	Deplacement entities.Optional[entities.DeplacementSection] `json:"deplacement"`
	Service     entities.Optional[entities.ServiceSection]     `json:"service"`
	Totals      entities.Totals                                `json:"totals"`
	Notes       string                                         `json:"notes"`
}
