package pricing

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"traiteur_devis/internal/domain/entities"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// PriceBand is one degressive per-person price range. MaxGuests 0 means open-ended.
type PriceBand struct {
	MinGuests int     `yaml:"min_guests"`
	MaxGuests int     `yaml:"max_guests"`
	MinPrice  float64 `yaml:"min_price"`
	MaxPrice  float64 `yaml:"max_price"`
}

func (b PriceBand) contains(guests int) bool {
	return guests >= b.MinGuests && (b.MaxGuests == 0 || guests <= b.MaxGuests)
}

type CategoryShares struct {
	Entrees  float64 `yaml:"entrees"`
	Viandes  float64 `yaml:"viandes"`
	Desserts float64 `yaml:"desserts"`
}

type MaterialRules struct {
	PerPersonCost float64 `yaml:"per_person_cost"`
	HandlingFee   float64 `yaml:"handling_fee"`
	DeliveryFee   float64 `yaml:"delivery_fee"`
}

type DeplacementRules struct {
	FreeDistanceKm float64 `yaml:"free_distance_km"`
	RatePerKm      float64 `yaml:"rate_per_km"`
}

type ServiceRules struct {
	HourlyRate float64 `yaml:"hourly_rate"`
}

type DiscountRule struct {
	Percentage float64 `yaml:"percentage"`
	Reason     string  `yaml:"reason"`
}

// Catalog maps the ids sent by the quote form to display labels.
type Catalog struct {
	Entrees   map[string]string `yaml:"entrees"`
	Viandes   map[string]string `yaml:"viandes"`
	Desserts  map[string]string `yaml:"desserts"`
	Equipment map[string]string `yaml:"equipment"`
}

// Rules is the pricing grid shared by the rule engine and the assistant prompt.
type Rules struct {
	MenuTaxRate         float64                           `yaml:"menu_tax_rate"`
	MaterialTaxRate     float64                           `yaml:"material_tax_rate"`
	DeplacementTaxRate  float64                           `yaml:"deplacement_tax_rate"`
	ServiceTaxRate      float64                           `yaml:"service_tax_rate"`
	CategoryShares      CategoryShares                    `yaml:"category_shares"`
	PriceBands          map[entities.MenuType][]PriceBand `yaml:"price_bands"`
	Material            MaterialRules                     `yaml:"material"`
	Deplacement         DeplacementRules                  `yaml:"deplacement"`
	Service             ServiceRules                      `yaml:"service"`
	LunchDiscount       DiscountRule                      `yaml:"lunch_discount"`
	DefaultDessertLabel string                            `yaml:"default_dessert_label"`
	Accompaniments      []string                          `yaml:"accompaniments"`
	Catalog             Catalog                           `yaml:"catalog"`
}

// DefaultRules returns the embedded pricing grid.
func DefaultRules() Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("pricing: embedded rules are invalid: %v", err))
	}
	return r
}

// LoadRules reads a YAML grid from path. Keys missing from the file keep their
// default value. An empty path returns the defaults.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read pricing rules: %w", err)
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse pricing rules: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func ParseRules(data []byte) (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse pricing rules: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// Validate checks that every menu type has ordered, non-overlapping bands with a
// sane price range, and that rates are fractions.
func (r *Rules) Validate() error {
	var errs []error
	for _, mt := range []entities.MenuType{entities.MenuTypeLunch, entities.MenuTypeDinner} {
		bands := r.PriceBands[mt]
		if len(bands) == 0 {
			errs = append(errs, fmt.Errorf("price_bands.%s: at least one band is required", mt))
			continue
		}
		sort.Slice(bands, func(i, j int) bool { return bands[i].MinGuests < bands[j].MinGuests })
		for i, b := range bands {
			if b.MinPrice <= 0 || b.MaxPrice < b.MinPrice {
				errs = append(errs, fmt.Errorf("price_bands.%s[%d]: invalid price range %.2f-%.2f", mt, i, b.MinPrice, b.MaxPrice))
			}
			if b.MaxGuests != 0 && b.MaxGuests < b.MinGuests {
				errs = append(errs, fmt.Errorf("price_bands.%s[%d]: max_guests below min_guests", mt, i))
			}
			if b.MaxGuests == 0 && i != len(bands)-1 {
				errs = append(errs, fmt.Errorf("price_bands.%s[%d]: only the last band may be open-ended", mt, i))
			}
			if i > 0 && bands[i-1].MaxGuests >= b.MinGuests {
				errs = append(errs, fmt.Errorf("price_bands.%s[%d]: overlaps previous band", mt, i))
			}
		}
		r.PriceBands[mt] = bands
	}

	for name, rate := range map[string]float64{
		"menu_tax_rate":        r.MenuTaxRate,
		"material_tax_rate":    r.MaterialTaxRate,
		"deplacement_tax_rate": r.DeplacementTaxRate,
		"service_tax_rate":     r.ServiceTaxRate,
	} {
		if rate < 0 || rate >= 1 {
			errs = append(errs, fmt.Errorf("%s: must be within [0, 1)", name))
		}
	}
	if r.LunchDiscount.Percentage < 0 || r.LunchDiscount.Percentage > 100 {
		errs = append(errs, errors.New("lunch_discount.percentage: must be within [0, 100]"))
	}
	return errors.Join(errs...)
}

// BandFor returns the price band applying to a guest count. Counts below the first
// band use the first band.
func (r Rules) BandFor(menuType entities.MenuType, guests int) (PriceBand, bool) {
	bands := r.PriceBands[menuType]
	if len(bands) == 0 {
		return PriceBand{}, false
	}
	for _, b := range bands {
		if b.contains(guests) {
			return b, true
		}
	}
	if guests < bands[0].MinGuests {
		return bands[0], true
	}
	return bands[len(bands)-1], true
}

func labelFor(catalog map[string]string, id string) string {
	if name, ok := catalog[id]; ok {
		return name
	}
	return id
}
