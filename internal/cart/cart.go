// Package cart aggregates a session's selections into line items. A Cart is
// plain state owned by the caller; the Service loads and stores it per request.
package cart

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/extras"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/internal/schedule"
	"github.com/angelmondragon/storefront-backend/internal/stock"
)

// MaxLineQuantity caps a single line and the size of one delta.
const MaxLineQuantity = 999

var (
	ErrStoreClosed        = errors.New("store is closed")
	ErrValidationFailed   = errors.New("extras selection rejected")
	ErrProductNotFound    = errors.New("product not found")
	ErrZeroDelta          = errors.New("quantity delta must not be zero")
	ErrQuantityOutOfRange = errors.New("line quantity out of range")
)

// Line is one cart entry. UnitPrice and Extras are snapshots taken when the
// line was first added.
type Line struct {
	ProductID uuid.UUID        `json:"product_id"`
	Name      string           `json:"name"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Selection extras.Selection `json:"selection,omitempty"`
	Extras    []extras.Chosen  `json:"extras,omitempty"`
	Quantity  int              `json:"quantity"`
}

// Key is the merge identity: product plus normalized selection.
func (l Line) Key() string {
	return l.ProductID.String() + "|" + l.Selection.Key()
}

// PricingLine converts the line for the pricing calculator.
func (l Line) PricingLine() pricing.Line {
	return pricing.Line{
		ProductID: l.ProductID,
		Name:      l.Name,
		BasePrice: l.UnitPrice,
		Extras:    l.Extras,
		Quantity:  l.Quantity,
	}
}

type Cart struct {
	SessionID string    `json:"session_id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty cart for the session.
func New(sessionID string) *Cart {
	return &Cart{SessionID: sessionID, Lines: []Line{}}
}

// Add applies delta units of productID with selection. The store must be open
// per menu's hours at now. A positive delta merges into the line with the same
// identity or appends one; a negative delta shrinks that line and drops it at
// zero. A non-empty selection must satisfy the product's extras groups. No
// line may hold more than MaxLineQuantity units.
func (c *Cart) Add(menu *catalog.Catalog, now time.Time, productID uuid.UUID, delta int, selection extras.Selection) error {
	if !schedule.IsOpen(menu.OpeningHours(), now) {
		return ErrStoreClosed
	}
	if delta == 0 {
		return ErrZeroDelta
	}
	if delta > MaxLineQuantity || delta < -MaxLineQuantity {
		return ErrQuantityOutOfRange
	}
	product, ok := menu.Product(productID)
	if !ok {
		return ErrProductNotFound
	}

	selection = selection.Normalized()
	idx := c.find(product.ID, selection)

	if delta < 0 {
		if idx < 0 {
			return nil
		}
		c.Lines[idx].Quantity += delta
		if c.Lines[idx].Quantity <= 0 {
			c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
		}
		c.UpdatedAt = now
		return nil
	}

	groups := menu.GroupsForProduct(product.ID)
	if !selection.Empty() {
		if err := extras.Check(product, groups, selection); err != nil {
			return fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
	}

	if idx >= 0 {
		if c.Lines[idx].Quantity+delta > MaxLineQuantity {
			return ErrQuantityOutOfRange
		}
		c.Lines[idx].Quantity += delta
	} else {
		c.Lines = append(c.Lines, Line{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Selection: selection,
			Extras:    extras.Resolve(groups, selection),
			Quantity:  delta,
		})
	}
	c.UpdatedAt = now
	return nil
}

func (c *Cart) find(productID uuid.UUID, selection extras.Selection) int {
	for i, line := range c.Lines {
		if line.ProductID == productID && line.Selection.Equal(selection) {
			return i
		}
	}
	return -1
}

// QuantityOf sums the quantity of productID across every selection.
func (c *Cart) QuantityOf(productID uuid.UUID) int {
	total := 0
	for _, line := range c.Lines {
		if line.ProductID == productID {
			total += line.Quantity
		}
	}
	return total
}

// ItemCount sums every line quantity.
func (c *Cart) ItemCount() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// PricingLines lists the lines in pricing form.
func (c *Cart) PricingLines() []pricing.Line {
	lines := make([]pricing.Line, len(c.Lines))
	for i, line := range c.Lines {
		lines[i] = line.PricingLine()
	}
	return lines
}

// StockLines lists the lines as stock requests; the ledger merges per product.
func (c *Cart) StockLines() []stock.Line {
	lines := make([]stock.Line, len(c.Lines))
	for i, line := range c.Lines {
		lines[i] = stock.Line{ProductID: line.ProductID, Name: line.Name, Quantity: line.Quantity}
	}
	return lines
}

// Subtotal is the unrounded sum of line subtotals.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.PricingLine().Subtotal())
	}
	return total
}
