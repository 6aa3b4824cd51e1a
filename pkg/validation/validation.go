// Package validation configures the shared go-playground validator and maps its
// failures onto typed validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/schedule"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

var shared = New()

// New returns a validator that reports json field names and understands
// decimal and money values (compared as float for gte/lte tags) and "HH:MM"
// strings.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{}, money.Amount{}, money.Rate{})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	return v
}

func decimalValue(field reflect.Value) interface{} {
	switch d := field.Interface().(type) {
	case decimal.Decimal:
		f, _ := d.Float64()
		return f
	case decimal.NullDecimal:
		if !d.Valid {
			return nil
		}
		f, _ := d.Decimal.Float64()
		return f
	case money.Amount:
		f, _ := d.Float64()
		return f
	case money.Rate:
		f, _ := d.Float64()
		return f
	}
	return nil
}

// Struct validates s with the shared validator.
func Struct(s any) error {
	if err := shared.Struct(s); err != nil {
		return FromValidator(err)
	}
	return nil
}

// FromValidator converts validator output into a CodeValidation error whose
// details map field paths to messages.
func FromValidator(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldPath(fieldErr)] = Message(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

// Message renders a short, user facing description of a failed tag.
func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gtefield":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "required_if":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "len":
		return fmt.Sprintf("must have exactly %s items", fe.Param())
	case "hhmm":
		return "must be a time formatted as HH:MM"
	case "uuid", "uuid4":
		return "must be a valid uuid"
	}
	return "is invalid"
}
