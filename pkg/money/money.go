// Package money is the single parse/format boundary for BRL amounts. Everything
// past this package handles decimal.Decimal only.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of minor-unit digits shown to customers.
const Scale = 2

var (
	ErrEmpty     = errors.New("money: empty amount")
	ErrNegative  = errors.New("money: negative amount")
	ErrPrecision = errors.New("money: more than two decimal places")

	hundred = decimal.NewFromInt(100)
)

// Parse accepts "12,50", "12.50", "1.234,56" and "R$ 1.234,56". When a comma is
// present it is the decimal separator and dots are thousands separators.
func Parse(raw string) (decimal.Decimal, error) {
	value, err := parse(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if value.Exponent() < -Scale && !value.Equal(value.Round(Scale)) {
		return decimal.Zero, ErrPrecision
	}
	return value, nil
}

// ParsePercent parses a percentage such as "4,99" or "4.99%".
func ParsePercent(raw string) (decimal.Decimal, error) {
	return parse(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
}

func parse(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, ErrEmpty
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: invalid amount %q: %w", raw, err)
	}
	if value.IsNegative() {
		return decimal.Zero, ErrNegative
	}
	return value, nil
}

// Round applies half-up rounding to cents. Only call it on displayed values.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Percent returns amount × pct / 100 without rounding.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// Format renders the amount as "R$ 1.234,56".
func Format(d decimal.Decimal) string {
	fixed := Round(d).StringFixed(Scale)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")
	return fmt.Sprintf("%sR$ %s,%s", sign, groupThousands(intPart), frac)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Amount is a non-negative money value on the API boundary. It decodes JSON
// numbers as well as strings in any form Parse accepts, so "12,50" and 12.5
// land on the same decimal.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// RequireAmount parses raw and panics on failure. Meant for fixtures.
func RequireAmount(raw string) Amount {
	d, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return Amount{Decimal: d}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	d, err := unmarshalWith(data, Parse)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

// Rate is a percentage on the API boundary, decoded through ParsePercent.
type Rate struct {
	decimal.Decimal
}

func NewRate(d decimal.Decimal) Rate {
	return Rate{Decimal: d}
}

func (r *Rate) UnmarshalJSON(data []byte) error {
	d, err := unmarshalWith(data, ParsePercent)
	if err != nil {
		return err
	}
	r.Decimal = d
	return nil
}

func unmarshalWith(data []byte, parseFn func(string) (decimal.Decimal, error)) (decimal.Decimal, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return decimal.Zero, nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	return parseFn(raw)
}
