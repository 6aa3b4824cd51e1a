package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// ChangeViolationDetail exposes the data returned to callers when the cash
// tendered does not cover the order.
type ChangeViolationDetail struct {
	ChangeFor decimal.Decimal `json:"change_for"`
	Total     decimal.Decimal `json:"total"`
}

// ValidateChange checks the cash amount a customer will hand over and returns
// the change due. A nil changeFor means exact payment or a non-cash method.
func ValidateChange(method enums.PaymentMethod, changeFor *decimal.Decimal, total decimal.Decimal) (*decimal.Decimal, error) {
	if changeFor == nil {
		return nil, nil
	}
	if method != enums.PaymentMethodCash {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "change is only given for cash payments").WithDetails(map[string]string{
			"change_for": "only allowed with cash",
		})
	}
	tendered := money.Round(*changeFor)
	if tendered.LessThan(total) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cash amount does not cover the order total").WithDetails(ChangeViolationDetail{
			ChangeFor: tendered,
			Total:     total,
		})
	}
	due := tendered.Sub(total)
	return &due, nil
}
