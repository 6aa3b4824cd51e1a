// Package stock guards tracked product quantities. Quantities are only checked
// against a snapshot before commit and only written by an atomic conditional
// decrement at commit or an admin restock.
package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
)

// DefaultLowStockThreshold is the advisory low-stock cutoff.
const DefaultLowStockThreshold = 5

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNegativeQuantity  = errors.New("stock quantity cannot be negative")
	ErrInvalidQuantity   = errors.New("requested quantity must be positive")
	ErrProductNotFound   = errors.New("product not found")
)

// Line is one product quantity to decrement.
type Line struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
}

// InsufficientStockError reports one line that could not be covered.
type InsufficientStockError struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

func (e *InsufficientStockError) Kind() string {
	return "insufficient_stock"
}

// Conflicts unpacks every *InsufficientStockError combined into err.
func Conflicts(err error) []InsufficientStockError {
	var out []InsufficientStockError
	for _, e := range multierr.Errors(err) {
		var conflict *InsufficientStockError
		if errors.As(e, &conflict) {
			out = append(out, *conflict)
		}
	}
	return out
}

// Store is the persistence collaborator. DecrementAll must apply every line or
// none; on shortfall it returns the per-line *InsufficientStockError values
// combined with multierr.
type Store interface {
	DecrementAll(ctx context.Context, lines []Line) error
	SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) error
	ListBelow(ctx context.Context, threshold int) ([]catalog.Product, error)
}

type Ledger struct {
	store     Store
	threshold int
}

// NewLedger builds a ledger; a non-positive threshold falls back to the default.
func NewLedger(store Store, threshold int) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("stock store required")
	}
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return &Ledger{store: store, threshold: threshold}, nil
}

// CheckAvailability reports whether qty units of p can be sold per the snapshot.
func CheckAvailability(p catalog.Product, qty int) bool {
	if !p.TrackStock {
		return true
	}
	return qty <= p.StockQuantity
}

// CheckAvailability delegates to the package-level check.
func (l *Ledger) CheckAvailability(p catalog.Product, qty int) bool {
	return CheckAvailability(p, qty)
}

// IsLowStock is advisory only.
func (l *Ledger) IsLowStock(p catalog.Product) bool {
	return p.TrackStock && p.StockQuantity < l.threshold
}

// Threshold returns the low-stock cutoff.
func (l *Ledger) Threshold() int {
	return l.threshold
}

// CommitDecrement merges lines per product and decrements them atomically.
// Nothing is written when any line falls short.
func (l *Ledger) CommitDecrement(ctx context.Context, lines []Line) error {
	merged, err := MergeLines(lines)
	if err != nil {
		return err
	}
	if len(merged) == 0 {
		return nil
	}
	return l.store.DecrementAll(ctx, merged)
}

// SetQuantity replaces the stored quantity, bypassing decrement rules.
func (l *Ledger) SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}
	return l.store.SetQuantity(ctx, productID, quantity)
}

// LowStock lists tracked products below the threshold, lowest first.
func (l *Ledger) LowStock(ctx context.Context) ([]catalog.Product, error) {
	return l.store.ListBelow(ctx, l.threshold)
}

// MergeLines sums quantities per product, keeping first-seen order.
func MergeLines(lines []Line) ([]Line, error) {
	index := make(map[uuid.UUID]int, len(lines))
	merged := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if idx, ok := index[line.ProductID]; ok {
			merged[idx].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

// ShortfallsAgainst checks lines against the snapshot without writing anything.
func ShortfallsAgainst(c *catalog.Catalog, lines []Line) error {
	merged, err := MergeLines(lines)
	if err != nil {
		return err
	}
	var errs error
	for _, line := range merged {
		p, ok := c.Product(line.ProductID)
		if !ok {
			errs = multierr.Append(errs, &InsufficientStockError{ProductID: line.ProductID, Name: line.Name, Requested: line.Quantity})
			continue
		}
		if !CheckAvailability(p, line.Quantity) {
			errs = multierr.Append(errs, &InsufficientStockError{ProductID: p.ID, Name: p.Name, Requested: line.Quantity, Available: p.StockQuantity})
		}
	}
	return errs
}
