// Package extras validates a customer's modifier selection for a product
// against the cardinality rules of the product's linked extras groups.
package extras

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("extras selection invalid")

// Kind names a class of selection violation.
type Kind string

const (
	KindBelowMinimumSelection  Kind = "below_minimum_selection"
	KindAboveMaximumSelection  Kind = "above_maximum_selection"
	KindOptionQuantityExceeded Kind = "option_quantity_exceeded"
	KindUnknownOption          Kind = "unknown_option"
	KindInvalidQuantity        Kind = "invalid_quantity"
)

// Selection maps an option id to the chosen quantity.
type Selection map[uuid.UUID]int

// Normalized drops zero entries. It returns nil for an empty selection.
func (s Selection) Normalized() Selection {
	var out Selection
	for id, qty := range s {
		if qty == 0 {
			continue
		}
		if out == nil {
			out = make(Selection, len(s))
		}
		out[id] = qty
	}
	return out
}

// Empty reports whether nothing is chosen.
func (s Selection) Empty() bool {
	return len(s.Normalized()) == 0
}

// Equal compares two selections as sets of (option, quantity) pairs.
func (s Selection) Equal(other Selection) bool {
	a, b := s.Normalized(), other.Normalized()
	if len(a) != len(b) {
		return false
	}
	for id, qty := range a {
		if b[id] != qty {
			return false
		}
	}
	return true
}

// Key is a stable string form of the normalized selection.
func (s Selection) Key() string {
	pairs := make([]string, 0, len(s))
	for id, qty := range s.Normalized() {
		pairs = append(pairs, fmt.Sprintf("%s=%d", id, qty))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

// Violation describes one broken rule. GroupID or OptionID is nil when the
// rule is not scoped to it.
type Violation struct {
	Kind     Kind       `json:"kind"`
	GroupID  *uuid.UUID `json:"group_id,omitempty"`
	OptionID *uuid.UUID `json:"option_id,omitempty"`
	Limit    int        `json:"limit"`
	Actual   int        `json:"actual"`
}

func (v Violation) String() string {
	switch {
	case v.OptionID != nil:
		return fmt.Sprintf("%s: option %s (limit %d, got %d)", v.Kind, v.OptionID, v.Limit, v.Actual)
	case v.GroupID != nil:
		return fmt.Sprintf("%s: group %s (limit %d, got %d)", v.Kind, v.GroupID, v.Limit, v.Actual)
	}
	return string(v.Kind)
}

// ValidationError carries every violation found for one selection.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Kind implements the error dump kind hook.
func (e *ValidationError) Kind() string {
	if len(e.Violations) == 0 {
		return ""
	}
	return string(e.Violations[0].Kind)
}

// Validate checks selection against the groups linked to product and returns
// every violation. Violations are ordered by group order then option order;
// unknown options come last, sorted by id. A nil result means valid.
func Validate(product catalog.Product, groups []catalog.ExtrasGroup, selection Selection) []Violation {
	var violations []Violation
	claimed := make(map[uuid.UUID]struct{}, len(selection))

	for _, group := range groups {
		groupID := group.ID
		selected := 0
		for _, opt := range group.Options {
			qty, ok := selection[opt.ID]
			if !ok {
				continue
			}
			claimed[opt.ID] = struct{}{}
			optionID := opt.ID
			switch {
			case qty < 0:
				violations = append(violations, Violation{Kind: KindInvalidQuantity, GroupID: &groupID, OptionID: &optionID, Limit: 0, Actual: qty})
				continue
			case qty > maxQuantity(opt):
				violations = append(violations, Violation{Kind: KindOptionQuantityExceeded, GroupID: &groupID, OptionID: &optionID, Limit: maxQuantity(opt), Actual: qty})
			}
			selected += qty
		}
		if selected < group.MinSelection {
			violations = append(violations, Violation{Kind: KindBelowMinimumSelection, GroupID: &groupID, Limit: group.MinSelection, Actual: selected})
		}
		if selected > group.MaxSelection {
			violations = append(violations, Violation{Kind: KindAboveMaximumSelection, GroupID: &groupID, Limit: group.MaxSelection, Actual: selected})
		}
	}

	var unknown []uuid.UUID
	for id, qty := range selection {
		if _, ok := claimed[id]; ok || qty == 0 {
			continue
		}
		unknown = append(unknown, id)
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i].String() < unknown[j].String() })
	for _, id := range unknown {
		optionID := id
		violations = append(violations, Violation{Kind: KindUnknownOption, OptionID: &optionID, Actual: selection[id]})
	}
	return violations
}

// Check is Validate returning a *ValidationError, or nil when valid.
func Check(product catalog.Product, groups []catalog.ExtrasGroup, selection Selection) error {
	if violations := Validate(product, groups, selection); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// Chosen is a selected option resolved against the catalog.
type Chosen struct {
	OptionID  uuid.UUID       `json:"option_id"`
	GroupID   uuid.UUID       `json:"group_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Resolve lists the positively chosen options that belong to groups, in group
// then option order. Unknown ids are skipped.
func Resolve(groups []catalog.ExtrasGroup, selection Selection) []Chosen {
	var chosen []Chosen
	for _, group := range groups {
		for _, opt := range group.Options {
			qty := selection[opt.ID]
			if qty <= 0 {
				continue
			}
			chosen = append(chosen, Chosen{
				OptionID:  opt.ID,
				GroupID:   group.ID,
				Name:      opt.Name,
				UnitPrice: opt.Price,
				Quantity:  qty,
			})
		}
	}
	return chosen
}

func maxQuantity(opt catalog.ExtraOption) int {
	if opt.MaxQuantity < 1 {
		return 1
	}
	return opt.MaxQuantity
}
