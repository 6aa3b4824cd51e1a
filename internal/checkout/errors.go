package checkout

import (
	"errors"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// StockConflictDetail is one line the ledger could not cover.
type StockConflictDetail struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// ToAPIError maps checkout domain errors to typed API errors. Errors that are
// already typed pass through.
func ToAPIError(err error) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}

	var unavailable *UnavailableProductsError
	switch {
	case errors.Is(err, stock.ErrInsufficientStock):
		conflicts := stock.Conflicts(err)
		details := make([]StockConflictDetail, 0, len(conflicts))
		for _, c := range conflicts {
			details = append(details, StockConflictDetail{
				ProductID: c.ProductID.String(),
				Name:      c.Name,
				Requested: c.Requested,
				Available: c.Available,
			})
		}
		return pkgerrors.Wrap(pkgerrors.CodeAvailability, err, "insufficient stock").WithDetails(map[string]any{
			"conflicts": details,
		})
	case errors.As(err, &unavailable):
		return pkgerrors.Wrap(pkgerrors.CodeAvailability, err, "products no longer available").WithDetails(map[string]any{
			"unavailable_product_ids": unavailable.ProductIDs,
		})
	case errors.Is(err, cart.ErrStoreClosed):
		return cart.StoreClosedError()
	case errors.Is(err, cart.ErrValidationFailed):
		return cart.ViolationsError(err)
	case errors.Is(err, ErrEmptyCart):
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty").WithDetails(map[string]string{"cart": "must not be empty"})
	case errors.Is(err, pricing.ErrDeliveryAreaNotServed):
		return pkgerrors.Wrap(pkgerrors.CodeAvailability, err, "delivery area not served")
	case errors.Is(err, pricing.ErrUnsupportedPaymentMethod):
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method").WithDetails(map[string]string{"payment_method": "unsupported"})
	case errors.Is(err, pricing.ErrUnsupportedFulfillment):
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported fulfillment").WithDetails(map[string]string{"fulfillment": "unsupported"})
	case errors.Is(err, pricing.ErrInvalidLineQuantity), errors.Is(err, stock.ErrInvalidQuantity):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line quantity")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout failed")
}
