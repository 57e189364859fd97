package entities

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrder() Order {
	return Order{
		ContactData: ContactData{
			Email:      "claire@example.com",
			Name:       "Claire",
			EventDate:  "2026-06-20",
			GuestCount: 40,
		},
		MenuType: MenuTypeDinner,
		Entrees:  []string{"burrata", "gaspacho"},
		Viandes:  []string{"mechoui"},
	}
}

func TestOrder_Validate(t *testing.T) {
	require.NoError(t, validOrder().Validate())

	cases := []struct {
		name   string
		mutate func(*Order)
		field  string
	}{
		{"missing email", func(o *Order) { o.ContactData.Email = "" }, "contactData.email"},
		{"bad email", func(o *Order) { o.ContactData.Email = "claire" }, "contactData.email"},
		{"zero guests", func(o *Order) { o.ContactData.GuestCount = 0 }, "contactData.guestCount"},
		{"bad date", func(o *Order) { o.ContactData.EventDate = "20/06/2026" }, "contactData.eventDate"},
		{"one entree", func(o *Order) { o.Entrees = o.Entrees[:1] }, "entrees"},
		{"four viandes", func(o *Order) { o.Viandes = []string{"a", "b", "c", "d"} }, "viandes"},
		{"blank viande", func(o *Order) { o.Viandes = []string{""} }, "viandes[0]"},
		{"menu type", func(o *Order) { o.MenuType = "brunch" }, "menuType"},
		{"negative distance", func(o *Order) { o.Extras.DistanceKm = -1 }, "extras.distanceKm"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := validOrder()
			tc.mutate(&o)
			err := o.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

func TestOptional(t *testing.T) {
	var o Optional[int]
	_, ok := o.Get()
	assert.False(t, ok)
	assert.Equal(t, 0, o.OrZero())

	o = Some(4)
	v, ok := o.Get()
	assert.True(t, ok)
	assert.Equal(t, 4, v)

	require.NoError(t, o.UnmarshalJSON([]byte(" null ")))
	assert.False(t, o.IsPresent())

	require.NoError(t, o.UnmarshalJSON([]byte("7")))
	assert.Equal(t, Some(7), o)
	assert.Error(t, o.UnmarshalJSON([]byte(`"x"`)))

	raw, err := None[string]().MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestDependencyError(t *testing.T) {
	cause := errors.New("smtp down")
	err := NewDependencyError("mailer", cause)
	assert.True(t, errors.Is(err, ErrDependencyFailure))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "mailer failed: smtp down", err.Error())
}
