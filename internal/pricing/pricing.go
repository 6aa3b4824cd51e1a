// Package pricing computes line and order totals. PriceOrder is a pure function
// of its Input.
package pricing

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/extras"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

var (
	ErrDeliveryAreaNotServed    = errors.New("delivery area not served")
	ErrUnsupportedPaymentMethod = errors.New("unsupported payment method")
	ErrUnsupportedFulfillment   = errors.New("unsupported fulfillment mode")
	ErrInvalidLineQuantity      = errors.New("line quantity must be positive")
)

// Line is one priced cart entry. BasePrice is the product price snapshot.
type Line struct {
	ProductID uuid.UUID
	Name      string
	BasePrice decimal.Decimal
	Extras    []extras.Chosen
	Quantity  int
}

// UnitPrice is the base price plus each chosen option price times its quantity.
func (l Line) UnitPrice() decimal.Decimal {
	unit := l.BasePrice
	for _, extra := range l.Extras {
		unit = unit.Add(extra.UnitPrice.Mul(decimal.NewFromInt(int64(extra.Quantity))))
	}
	return unit
}

// Subtotal is UnitPrice times Quantity, unrounded.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Input struct {
	Lines         []Line
	StoreConfig   catalog.StoreConfig
	DeliveryFees  []catalog.DeliveryFee
	PaymentMethod enums.PaymentMethod
	Fulfillment   enums.FulfillmentMode
	Neighborhood  string
}

type LineTotal struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// Quote is the priced order. Displayed amounts are rounded half-up to cents;
// Total is computed from the unrounded parts.
type Quote struct {
	Lines            []LineTotal     `json:"lines"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	DeliveryFee      decimal.Decimal `json:"delivery_fee"`
	SurchargePercent decimal.Decimal `json:"surcharge_percent"`
	Surcharge        decimal.Decimal `json:"surcharge"`
	Total            decimal.Decimal `json:"total"`
}

// PriceOrder prices the lines for the chosen payment method and fulfillment.
func PriceOrder(in Input) (Quote, error) {
	if !in.PaymentMethod.IsValid() {
		return Quote{}, ErrUnsupportedPaymentMethod
	}

	fee, err := deliveryFee(in)
	if err != nil {
		return Quote{}, err
	}

	quote := Quote{Lines: make([]LineTotal, 0, len(in.Lines))}
	subtotal := decimal.Zero
	for _, line := range in.Lines {
		if line.Quantity < 1 {
			return Quote{}, ErrInvalidLineQuantity
		}
		lineSubtotal := line.Subtotal()
		subtotal = subtotal.Add(lineSubtotal)
		quote.Lines = append(quote.Lines, LineTotal{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: money.Round(line.UnitPrice()),
			Total:     money.Round(lineSubtotal),
		})
	}

	pct := in.StoreConfig.SurchargePercent(in.PaymentMethod)
	surcharge := money.Percent(subtotal, pct)

	quote.Subtotal = money.Round(subtotal)
	quote.DeliveryFee = money.Round(fee)
	quote.SurchargePercent = pct
	quote.Surcharge = money.Round(surcharge)
	quote.Total = money.Round(subtotal.Add(fee).Add(surcharge))
	return quote, nil
}

func deliveryFee(in Input) (decimal.Decimal, error) {
	switch in.Fulfillment {
	case enums.FulfillmentPickup:
		return decimal.Zero, nil
	case enums.FulfillmentDelivery:
		fee, ok := catalog.FindActiveFee(in.DeliveryFees, in.Neighborhood)
		if !ok {
			return decimal.Zero, ErrDeliveryAreaNotServed
		}
		return fee.Fee, nil
	}
	return decimal.Zero, ErrUnsupportedFulfillment
}
