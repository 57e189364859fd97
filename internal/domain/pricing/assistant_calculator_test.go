package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traiteur_devis/internal/domain/entities"
)

type stubAssistant struct {
	reply  string
	err    error
	block  bool
	prompt string
}

func (s *stubAssistant) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func newAssistantCalc(a Assistant, opts ...AssistantOption) *AssistantCalculator {
	opts = append(opts, WithAssistantClock(func() time.Time { return fixedNow }))
	return NewAssistantCalculator(a, DefaultRules(), opts...)
}

func assistantReply(t *testing.T, data entities.BudgetData) string {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return string(raw)
}

func TestAssistantCalculator_AcceptsValidOutput(t *testing.T) {
	order := lunchOrder()
	order.Extras.Equipment = []string{"chairs", "plates"}
	expected := generated(t, order)

	priced := expected
	priced.ClientInfo = entities.ClientInfo{Name: "someone else", Email: "wrong@example.com"}
	stub := &stubAssistant{reply: "\n  " + assistantReply(t, priced) + "\n"}

	data, err := newAssistantCalc(stub).ComputeBudget(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, "claire@example.com", data.ClientInfo.Email)
	assert.Equal(t, expected.Totals, data.Totals)
	assert.Equal(t, expected.Material, data.Material)
	assert.Equal(t, fixedNow, data.GeneratedAt)
	assert.Contains(t, stub.prompt, "Chaises, Assiettes")
	assert.Contains(t, stub.prompt, "Nombre d'invités : 30")
}

func TestAssistantCalculator_Rejects(t *testing.T) {
	valid := generated(t, lunchOrder())

	withoutTotals := func() string {
		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(assistantReply(t, valid)), &m))
		delete(m, "totals")
		raw, err := json.Marshal(m)
		require.NoError(t, err)
		return string(raw)
	}

	cases := []struct {
		name  string
		reply string
	}{
		{"missing totals", withoutTotals()},
		{"surrounding prose", "Voici le devis : " + assistantReply(t, valid)},
		{"code fence", "```json\n" + assistantReply(t, valid) + "\n```"},
		{"array", "[" + assistantReply(t, valid) + "]"},
		{"empty", "   "},
		{"wrong types", `{"clientInfo":{},"menu":{"guestCount":"thirty"},"totals":{}}`},
		{"scalar sections", `{"clientInfo":"x","menu":{},"totals":{}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newAssistantCalc(&stubAssistant{reply: tc.reply}).ComputeBudget(context.Background(), lunchOrder())
			require.Error(t, err)
			assert.True(t, errors.Is(err, entities.ErrUpstreamParse), "got %v", err)
		})
	}

	t.Run("totals that do not reconcile", func(t *testing.T) {
		bad := valid
		bad.Totals.TotalTTC = 1
		_, err := newAssistantCalc(&stubAssistant{reply: assistantReply(t, bad)}).ComputeBudget(context.Background(), lunchOrder())
		assert.True(t, errors.Is(err, entities.ErrInvariantViolation), "got %v", err)
	})

	t.Run("lunch without discount", func(t *testing.T) {
		bad := valid
		bad.Totals.Discount = entities.None[entities.Discount]()
		bad.Totals.TotalTTC = bad.Menu.TotalTTC
		_, err := newAssistantCalc(&stubAssistant{reply: assistantReply(t, bad)}).ComputeBudget(context.Background(), lunchOrder())
		assert.True(t, errors.Is(err, entities.ErrInvariantViolation), "got %v", err)
	})
}

func TestAssistantCalculator_RejectsOutputContradictingOrder(t *testing.T) {
	order := lunchOrder()
	order.Extras.Equipment = []string{"chairs"}
	order.Extras.DistanceKm = 45

	cases := []struct {
		name   string
		mutate func(*entities.BudgetData)
	}{
		{"menu priced for one guest", func(d *entities.BudgetData) {
			d.Menu.GuestCount = 1
			for i := range d.Menu.Entrees {
				d.Menu.Entrees[i].Quantity = 1
			}
			for i := range d.Menu.Viandes {
				d.Menu.Viandes[i].Quantity = 1
			}
			for i := range d.Menu.Desserts {
				d.Menu.Desserts[i].Quantity = 1
			}
		}},
		{"one menu line short", func(d *entities.BudgetData) { d.Menu.Viandes[0].Quantity = 20 }},
		{"material line short", func(d *entities.BudgetData) {
			m, _ := d.Material.Get()
			m.Items[0].Quantity = 10
			d.Material = entities.Some(m)
		}},
		{"untaxed menu", func(d *entities.BudgetData) { d.Menu.TaxRate = 0 }},
		{"material at menu rate", func(d *entities.BudgetData) {
			m, _ := d.Material.Get()
			m.TaxRate = 0.10
			d.Material = entities.Some(m)
		}},
		{"deplacement untaxed", func(d *entities.BudgetData) {
			dep, _ := d.Deplacement.Get()
			dep.TaxRate = 0
			d.Deplacement = entities.Some(dep)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := generated(t, order)
			require.True(t, data.Material.IsPresent())
			require.True(t, data.Deplacement.IsPresent())
			tc.mutate(&data)
			// Reconciled, so only the order check can reject it.
			data = Recalculate(data)
			require.NoError(t, Validate(data))

			_, err := newAssistantCalc(&stubAssistant{reply: assistantReply(t, data)}).ComputeBudget(context.Background(), order)
			require.Error(t, err)
			assert.True(t, errors.Is(err, entities.ErrInvariantViolation), "got %v", err)
		})
	}
}

func TestAssistantCalculator_Failures(t *testing.T) {
	t.Run("invalid order never reaches the assistant", func(t *testing.T) {
		stub := &stubAssistant{}
		order := lunchOrder()
		order.ContactData.GuestCount = 0
		_, err := newAssistantCalc(stub).ComputeBudget(context.Background(), order)
		assert.True(t, errors.Is(err, entities.ErrValidation))
		assert.Empty(t, stub.prompt)
	})

	t.Run("assistant error", func(t *testing.T) {
		stub := &stubAssistant{err: errors.New("quota exceeded")}
		_, err := newAssistantCalc(stub).ComputeBudget(context.Background(), lunchOrder())
		assert.True(t, errors.Is(err, entities.ErrDependencyFailure))
		assert.True(t, strings.Contains(err.Error(), "quota exceeded"))
	})

	t.Run("timeout", func(t *testing.T) {
		stub := &stubAssistant{block: true}
		start := time.Now()
		_, err := newAssistantCalc(stub, WithTimeout(20*time.Millisecond)).ComputeBudget(context.Background(), lunchOrder())
		assert.True(t, errors.Is(err, entities.ErrDependencyFailure))
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

func TestBuildAssistantPrompt(t *testing.T) {
	order := lunchOrder()
	order.Dessert = ""
	order.Extras.SpecialRequest = "sans gluten"
	prompt := BuildAssistantPrompt(order, DefaultRules())

	assert.Contains(t, prompt, "30 à 59 invités : 55.00 à 65.00 €")
	assert.Contains(t, prompt, "100 invités et plus")
	assert.Contains(t, prompt, "Formule : déjeuner")
	assert.Contains(t, prompt, "Dessert : aucun")
	assert.Contains(t, prompt, "sans gluten")
	assert.Contains(t, prompt, `"totals"`)
}
