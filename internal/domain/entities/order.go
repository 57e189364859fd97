package entities

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MenuType selects the price tier of a menu.
type MenuType string

const (
	MenuTypeLunch  MenuType = "lunch"
	MenuTypeDinner MenuType = "dinner"
)

// OrderStatus represents the lifecycle of a devis request.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusProcessed OrderStatus = "processed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ContactData holds the client and event facts collected by the quote form.
type ContactData struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone"`
	EventDate  string `json:"eventDate" validate:"required,datetime=2006-01-02"`
	EventType  string `json:"eventType"`
	Address    string `json:"address"`
	GuestCount int    `json:"guestCount" validate:"gt=0"`
}

// Extras are the optional requests of the last form step.
//
// DistanceKm is computed by the site from the event address; zero means unknown.
type Extras struct {
	Wines          bool     `json:"wines"`
	Equipment      []string `json:"equipment" validate:"dive,required"`
	Decoration     bool     `json:"decoration"`
	SpecialRequest string   `json:"specialRequest"`
	DistanceKm     float64  `json:"distanceKm" validate:"gte=0"`
}

// Order is a client's raw catering request prior to pricing.
//
// Storage model (DynamoDB):
//   - PK: id
//
// An order is immutable once stored, except for EstimatedPrice and Status which are
// annotated when a budget is generated.
type Order struct {
	ID             string      `json:"id"`
	ContactData    ContactData `json:"contactData"`
	MenuType       MenuType    `json:"menuType" validate:"oneof=lunch dinner"`
	Entrees        []string    `json:"entrees" validate:"len=2,dive,required"`
	Viandes        []string    `json:"viandes" validate:"min=1,max=3,dive,required"`
	Dessert        string      `json:"dessert"`
	Extras         Extras      `json:"extras"`
	Status         OrderStatus `json:"status"`
	EstimatedPrice *float64    `json:"estimatedPrice,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

var orderValidator = newOrderValidator()

func newOrderValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the order against the form rules: contact email and name, a
// positive guest count, exactly two entrées, one to three viandes and at most one dessert.
func (o Order) Validate() error {
	err := orderValidator.Struct(o)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError("", err.Error())
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, NewValidationError(fieldPath(fe.Namespace()), describeRule(fe)))
	}
	return out
}

func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a date formatted as YYYY-MM-DD"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "len":
		return "must contain exactly " + fe.Param() + " items"
	case "min":
		return "must contain at least " + fe.Param() + " items"
	case "max":
		return "must contain at most " + fe.Param() + " items"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return fmt.Sprintf("failed rule %q", fe.Tag())
	}
}
