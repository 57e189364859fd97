package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traiteur_devis/internal/domain/entities"
)

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	assert.Equal(t, 0.10, rules.MenuTaxRate)
	assert.Equal(t, 0.20, rules.MaterialTaxRate)
	assert.Equal(t, 10.0, rules.LunchDiscount.Percentage)
	assert.Equal(t, "Dessert du chef", rules.DefaultDessertLabel)
	assert.InDelta(t, 1.0, rules.CategoryShares.Entrees+rules.CategoryShares.Viandes+rules.CategoryShares.Desserts, 1e-9)
	require.Len(t, rules.PriceBands[entities.MenuTypeLunch], 4)
	require.Len(t, rules.PriceBands[entities.MenuTypeDinner], 4)
}

func TestRules_BandFor(t *testing.T) {
	rules := DefaultRules()

	band, ok := rules.BandFor(entities.MenuTypeDinner, 45)
	require.True(t, ok)
	assert.Equal(t, 30, band.MinGuests)
	assert.Equal(t, 59, band.MaxGuests)

	band, ok = rules.BandFor(entities.MenuTypeLunch, 1000)
	require.True(t, ok)
	assert.Equal(t, 0, band.MaxGuests)

	_, ok = rules.BandFor("brunch", 10)
	assert.False(t, ok)
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty path returns defaults", func(t *testing.T) {
		rules, err := LoadRules("")
		require.NoError(t, err)
		assert.Equal(t, DefaultRules(), rules)
	})

	t.Run("overlays file on defaults", func(t *testing.T) {
		path := filepath.Join(dir, "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("lunch_discount:\n  percentage: 15\n  reason: Promo\n"), 0o600))

		rules, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, 15.0, rules.LunchDiscount.Percentage)
		assert.Equal(t, "Promo", rules.LunchDiscount.Reason)
		assert.Equal(t, 0.10, rules.MenuTaxRate)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("overlapping bands", func(t *testing.T) {
		path := filepath.Join(dir, "overlap.yaml")
		content := "price_bands:\n" +
			"  lunch:\n" +
			"    - { min_guests: 1, max_guests: 40, min_price: 60, max_price: 70 }\n" +
			"    - { min_guests: 30, max_guests: 0, min_price: 50, max_price: 60 }\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		_, err := LoadRules(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "overlaps previous band")
	})
}

func TestParseRules_Invalid(t *testing.T) {
	_, err := ParseRules([]byte("menu_tax_rate: 1.5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price_bands.lunch")
	assert.Contains(t, err.Error(), "menu_tax_rate")

	_, err = ParseRules([]byte("::: not yaml"))
	assert.Error(t, err)
}
