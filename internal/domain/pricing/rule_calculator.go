package pricing

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"traiteur_devis/internal/domain/entities"
)

// RuleCalculator is the deterministic reference pricing. Identical orders always
// produce identical amounts; only GeneratedAt/ValidUntil follow the clock.
type RuleCalculator struct {
	rules Rules
	now   func() time.Time
}

var _ Calculator = (*RuleCalculator)(nil)

type RuleOption func(*RuleCalculator)

// WithClock overrides the time source used for GeneratedAt.
func WithClock(now func() time.Time) RuleOption {
	return func(c *RuleCalculator) { c.now = now }
}

func NewRuleCalculator(rules Rules, opts ...RuleOption) *RuleCalculator {
	c := &RuleCalculator{
		rules: rules,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RuleCalculator) Strategy() Strategy { return StrategyRules }

func (c *RuleCalculator) ComputeBudget(_ context.Context, order entities.Order) (entities.BudgetData, error) {
	if err := ValidateInput(order); err != nil {
		return entities.BudgetData{}, err
	}

	guests := order.ContactData.GuestCount
	ppp, err := c.PricePerPerson(order.MenuType, guests)
	if err != nil {
		return entities.BudgetData{}, err
	}

	data := entities.BudgetData{
		ClientInfo: entities.ClientInfoFromOrder(order),
		Menu:       c.menuSection(order, ppp),
		Notes:      notesFor(order.Extras),
	}
	if len(order.Extras.Equipment) > 0 {
		data.Material = entities.Some(c.materialSection(order))
	}
	if order.Extras.DistanceKm > c.rules.Deplacement.FreeDistanceKm {
		data.Deplacement = entities.Some(c.deplacementSection(order.Extras.DistanceKm))
	}

	var discount *DiscountRule
	if order.MenuType == entities.MenuTypeLunch {
		discount = &c.rules.LunchDiscount
	}
	data.Totals = aggregate(data.Sections(), discount)

	generatedAt := c.now()
	data.GeneratedAt = generatedAt
	data.ValidUntil = generatedAt.Add(entities.BudgetValidity)

	if err := Validate(data); err != nil {
		return entities.BudgetData{}, err
	}
	return data, nil
}

// PricePerPerson picks the per-person rate inside the guest-count band. The rate
// moves linearly from the band maximum at its first guest count to the band minimum
// at its last one, so larger groups within a band never pay more. An open-ended band
// reaches its minimum at twice its starting count.
func (c *RuleCalculator) PricePerPerson(menuType entities.MenuType, guests int) (decimal.Decimal, error) {
	band, ok := c.rules.BandFor(menuType, guests)
	if !ok {
		return decimal.Zero, entities.NewValidationError("menuType", "no price band configured for "+string(menuType))
	}

	hi := band.MaxGuests
	if hi == 0 {
		hi = band.MinGuests * 2
	}
	span := hi - band.MinGuests

	fraction := decimal.Zero
	if span > 0 {
		pos := guests - band.MinGuests
		if pos < 0 {
			pos = 0
		}
		if pos > span {
			pos = span
		}
		fraction = decimal.NewFromInt(int64(pos)).Div(decimal.NewFromInt(int64(span)))
	}

	maxPrice, minPrice := dec(band.MaxPrice), dec(band.MinPrice)
	return round2(maxPrice.Sub(maxPrice.Sub(minPrice).Mul(fraction))), nil
}

func (c *RuleCalculator) menuSection(order entities.Order, ppp decimal.Decimal) entities.MenuSection {
	guests := order.ContactData.GuestCount
	catalog := c.rules.Catalog

	categoryLines := func(ids []string, share float64, labels map[string]string) []entities.LineItem {
		if len(ids) == 0 {
			return []entities.LineItem{}
		}
		unit := ppp.Mul(dec(share)).Div(decimal.NewFromInt(int64(len(ids))))
		lines := make([]entities.LineItem, 0, len(ids))
		for _, id := range ids {
			lines = append(lines, lineItem(labelFor(labels, id), guests, unit))
		}
		return lines
	}

	dessertLabel := c.rules.DefaultDessertLabel
	if d := strings.TrimSpace(order.Dessert); d != "" {
		dessertLabel = labelFor(catalog.Desserts, d)
	}
	dessertUnit := ppp.Mul(dec(c.rules.CategoryShares.Desserts))

	menu := entities.MenuSection{
		PricePerPerson: toFloat(ppp),
		GuestCount:     guests,
		Entrees:        categoryLines(order.Entrees, c.rules.CategoryShares.Entrees, catalog.Entrees),
		Viandes:        categoryLines(order.Viandes, c.rules.CategoryShares.Viandes, catalog.Viandes),
		Desserts:       []entities.LineItem{lineItem(dessertLabel, guests, dessertUnit)},
		Accompaniments: append([]string(nil), c.rules.Accompaniments...),
	}
	menu.SectionAmounts = amounts(sumLines(menu.Lines()), c.rules.MenuTaxRate)
	return menu
}

func (c *RuleCalculator) materialSection(order entities.Order) entities.MaterialSection {
	guests := order.ContactData.GuestCount
	unit := dec(c.rules.Material.PerPersonCost)

	items := make([]entities.LineItem, 0, len(order.Extras.Equipment))
	for _, id := range order.Extras.Equipment {
		items = append(items, lineItem(labelFor(c.rules.Catalog.Equipment, id), guests, unit))
	}

	section := entities.MaterialSection{
		Items:       items,
		HandlingFee: Round2(c.rules.Material.HandlingFee),
		DeliveryFee: Round2(c.rules.Material.DeliveryFee),
	}
	ht := sumLines(items).Add(dec(section.HandlingFee)).Add(dec(section.DeliveryFee))
	section.SectionAmounts = amounts(ht, c.rules.MaterialTaxRate)
	return section
}

func (c *RuleCalculator) deplacementSection(distanceKm float64) entities.DeplacementSection {
	rate := c.rules.Deplacement.RatePerKm
	return entities.DeplacementSection{
		DistanceKm:     distanceKm,
		RatePerKm:      rate,
		SectionAmounts: amounts(dec(distanceKm).Mul(dec(rate)), c.rules.DeplacementTaxRate),
	}
}

func notesFor(extras entities.Extras) string {
	var notes []string
	if s := strings.TrimSpace(extras.SpecialRequest); s != "" {
		notes = append(notes, "Demande particulière : "+s)
	}
	if extras.Wines {
		notes = append(notes, "Accord mets et vins demandé, chiffré séparément.")
	}
	if extras.Decoration {
		notes = append(notes, "Décoration demandée, chiffrée séparément.")
	}
	return strings.Join(notes, "\n")
}
