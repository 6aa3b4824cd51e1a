// Package checkout turns a session cart into a committed order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/extras"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/internal/schedule"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// DailyCounterTTL keeps yesterday's counter around past midnight.
const DailyCounterTTL = 48 * time.Hour

// Checkout outcomes reported to metrics.
const (
	OutcomeCommitted     = "committed"
	OutcomeStockConflict = "stock_conflict"
	OutcomeRejected      = "rejected"
	OutcomeFailed        = "failed"
)

var ErrEmptyCart = errors.New("cart is empty")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockCommitter interface {
	Commit(ctx context.Context, tx *gorm.DB, lines []stock.Line) error
}

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(parts ...string) string
}

type checkoutRecorder interface {
	OrderCommitted(paymentMethod string, total float64)
	StockConflict()
	ObserveCheckout(outcome string, duration time.Duration)
}

// LedgerCommitter runs the stock ledger against the products table inside tx.
type LedgerCommitter struct {
	store *stock.GormStore
}

// NewLedgerCommitter adapts a stock store for the checkout transaction.
func NewLedgerCommitter(store *stock.GormStore) LedgerCommitter {
	return LedgerCommitter{store: store}
}

func (c LedgerCommitter) Commit(ctx context.Context, tx *gorm.DB, lines []stock.Line) error {
	ledger, err := stock.NewLedger(c.store.WithTx(tx), 0)
	if err != nil {
		return err
	}
	return ledger.CommitDecrement(ctx, lines)
}

// QuoteRequest prices the session cart without committing it.
type QuoteRequest struct {
	Fulfillment   enums.FulfillmentMode `json:"fulfillment" validate:"required,oneof=delivery pickup"`
	Neighborhood  string                `json:"neighborhood" validate:"required_if=Fulfillment delivery,max=120"`
	PaymentMethod enums.PaymentMethod   `json:"payment_method" validate:"required,oneof=pix cash debit_card credit_card"`
}

// Request carries the customer details collected on the checkout form.
type Request struct {
	CustomerName  string                `json:"customer_name" validate:"required,max=120"`
	Phone         string                `json:"phone" validate:"required,max=32"`
	Fulfillment   enums.FulfillmentMode `json:"fulfillment" validate:"required,oneof=delivery pickup"`
	Neighborhood  string                `json:"neighborhood" validate:"required_if=Fulfillment delivery,max=120"`
	Address       string                `json:"address" validate:"required_if=Fulfillment delivery,max=255"`
	PaymentMethod enums.PaymentMethod   `json:"payment_method" validate:"required,oneof=pix cash debit_card credit_card"`
	ChangeFor     *money.Amount         `json:"change_for"`
	Observation   string                `json:"observation" validate:"max=500"`
}

func (r Request) changeFor() *decimal.Decimal {
	if r.ChangeFor == nil {
		return nil
	}
	tendered := r.ChangeFor.Decimal
	return &tendered
}

// ManualLine is one product keyed in by staff.
type ManualLine struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"min=1,max=999"`
	Selection extras.Selection `json:"selection"`
}

// ManualOrderRequest is an order taken outside the storefront, e.g. over the
// phone. It has no session cart but is priced and committed like a checkout.
type ManualOrderRequest struct {
	Customer Request      `json:"customer"`
	Lines    []ManualLine `json:"lines" validate:"required,min=1,dive"`
}

// Service executes checkout orchestration.
type Service interface {
	Quote(ctx context.Context, sessionID string, input QuoteRequest) (*pricing.Quote, error)
	CheckAndCommitOrder(ctx context.Context, sessionID string, input Request) (*orders.Detail, error)
	CommitManualOrder(ctx context.Context, input ManualOrderRequest) (*orders.Detail, error)
}

type service struct {
	tx       txRunner
	loader   catalog.Loader
	sessions cart.Sessions
	orders   orders.Repository
	stock    stockCommitter
	counter  counterStore
	clock    schedule.Clock
	metrics  checkoutRecorder
	logg     *logger.Logger
}

// Deps groups the collaborators of the checkout service. Metrics and Logger are optional.
type Deps struct {
	Tx       txRunner
	Loader   catalog.Loader
	Sessions cart.Sessions
	Orders   orders.Repository
	Stock    stockCommitter
	Counter  counterStore
	Clock    schedule.Clock
	Metrics  checkoutRecorder
	Logger   *logger.Logger
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Loader == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("cart sessions required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Stock == nil {
		return nil, fmt.Errorf("stock committer required")
	}
	if deps.Counter == nil {
		return nil, fmt.Errorf("order counter required")
	}
	if deps.Clock == nil {
		return nil, fmt.Errorf("clock required")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:       deps.Tx,
		loader:   deps.Loader,
		sessions: deps.Sessions,
		orders:   deps.Orders,
		stock:    deps.Stock,
		counter:  deps.Counter,
		clock:    deps.Clock,
		metrics:  deps.Metrics,
		logg:     logg,
	}, nil
}

func (s *service) Quote(ctx context.Context, sessionID string, input QuoteRequest) (*pricing.Quote, error) {
	c, menu, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	fresh, err := Revalidate(menu, c)
	if err != nil {
		return nil, ToAPIError(err)
	}
	quote, err := s.price(menu, fresh, input.PaymentMethod, input.Fulfillment, input.Neighborhood)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// CheckAndCommitOrder prices the session cart against a fresh catalog snapshot
// and commits the stock decrement and the order in one transaction. On any
// failure nothing is written and the cart is left as it was.
func (s *service) CheckAndCommitOrder(ctx context.Context, sessionID string, input Request) (*orders.Detail, error) {
	started := time.Now()
	ctx = s.logg.WithSessionID(ctx, sessionID)

	detail, err := s.commit(ctx, sessionID, input)
	s.observe(ctx, started, err)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// CommitManualOrder places a back-office order. Store hours are not enforced;
// stock, pricing and numbering follow the storefront checkout.
func (s *service) CommitManualOrder(ctx context.Context, input ManualOrderRequest) (*orders.Detail, error) {
	started := time.Now()
	ctx = s.logg.WithField(ctx, "source", "manual")

	detail, err := s.commitManual(ctx, input)
	s.observe(ctx, started, err)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) commit(ctx context.Context, sessionID string, input Request) (*orders.Detail, error) {
	c, menu, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !schedule.IsOpen(menu.OpeningHours(), s.clock.Now()) {
		return nil, ToAPIError(cart.ErrStoreClosed)
	}

	order, err := s.place(ctx, menu, c, input)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		s.logg.Error(ctx, "checkout.cart_clear_failed", err)
	}
	s.committed(ctx, order, "checkout.committed")
	return orders.DetailFromModel(*order), nil
}

func (s *service) commitManual(ctx context.Context, input ManualOrderRequest) (*orders.Detail, error) {
	if len(input.Lines) == 0 {
		return nil, ToAPIError(ErrEmptyCart)
	}
	menu, err := s.loader.LoadCatalog(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog")
	}
	draft := cart.New("")
	for _, line := range input.Lines {
		draft.Lines = append(draft.Lines, cart.Line{
			ProductID: line.ProductID,
			Selection: line.Selection,
			Quantity:  line.Quantity,
		})
	}

	order, err := s.place(ctx, menu, draft, input.Customer)
	if err != nil {
		return nil, err
	}
	s.committed(s.logg.WithOrderID(ctx, order.ID.String()), order, "checkout.manual_committed")
	return orders.DetailFromModel(*order), nil
}

// place revalidates c against menu, prices it and writes the stock decrement
// and the order in one transaction.
func (s *service) place(ctx context.Context, menu *catalog.Catalog, c *cart.Cart, input Request) (*models.Order, error) {
	if orders.NormalizePhone(input.Phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid phone").WithDetails(map[string]string{"phone": "must contain digits"})
	}
	fresh, err := Revalidate(menu, c)
	if err != nil {
		return nil, ToAPIError(err)
	}
	quote, err := s.price(menu, fresh, input.PaymentMethod, input.Fulfillment, input.Neighborhood)
	if err != nil {
		return nil, err
	}
	changeFor := input.changeFor()
	changeDue, err := pkgcheckout.ValidateChange(input.PaymentMethod, changeFor, quote.Total)
	if err != nil {
		return nil, err
	}
	lines := fresh.StockLines()
	if err := stock.ShortfallsAgainst(menu, lines); err != nil {
		return nil, ToAPIError(err)
	}

	now := s.clock.Now()
	order := buildOrder(input, fresh.Lines, quote, changeFor, changeDue)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.stock.Commit(ctx, tx, lines); err != nil {
			return err
		}
		number, err := s.counter.IncrWithTTL(ctx, s.counter.CounterKey("orders", now.Format("2006-01-02")), DailyCounterTTL)
		if err != nil {
			return fmt.Errorf("next order number: %w", err)
		}
		order.DailyNumber = int(number)
		_, err = s.orders.WithTx(tx).Create(ctx, order)
		return err
	})
	if err != nil {
		if conflicts := stock.Conflicts(err); len(conflicts) > 0 {
			return nil, ToAPIError(err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit order")
	}
	return order, nil
}

func (s *service) committed(ctx context.Context, order *models.Order, event string) {
	if s.metrics != nil {
		s.metrics.OrderCommitted(order.PaymentMethod.String(), order.Total.InexactFloat64())
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"daily_number":   order.DailyNumber,
		"total":          order.Total.StringFixed(2),
		"payment_method": order.PaymentMethod,
	}), event)
}

func (s *service) load(ctx context.Context, sessionID string) (*cart.Cart, *catalog.Catalog, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session required")
	}
	c, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if c.IsEmpty() {
		return nil, nil, ToAPIError(ErrEmptyCart)
	}
	menu, err := s.loader.LoadCatalog(ctx)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog")
	}
	return c, menu, nil
}

func (s *service) price(menu *catalog.Catalog, c *cart.Cart, method enums.PaymentMethod, fulfillment enums.FulfillmentMode, neighborhood string) (pricing.Quote, error) {
	quote, err := pricing.PriceOrder(pricing.Input{
		Lines:         c.PricingLines(),
		StoreConfig:   menu.StoreConfig,
		DeliveryFees:  menu.DeliveryFees,
		PaymentMethod: method,
		Fulfillment:   fulfillment,
		Neighborhood:  neighborhood,
	})
	if err != nil {
		if errors.Is(err, pricing.ErrDeliveryAreaNotServed) {
			return pricing.Quote{}, pkgerrors.Wrap(pkgerrors.CodeAvailability, err, "delivery area not served").WithDetails(map[string]string{
				"neighborhood": neighborhood,
			})
		}
		return pricing.Quote{}, ToAPIError(err)
	}
	return quote, nil
}

func (s *service) observe(ctx context.Context, started time.Time, err error) {
	outcome := OutcomeCommitted
	switch {
	case err == nil:
	case pkgerrors.CodeOf(err) == pkgerrors.CodeAvailability && isStockConflict(err):
		outcome = OutcomeStockConflict
		if s.metrics != nil {
			s.metrics.StockConflict()
		}
		s.logg.Warn(s.logg.WithField(ctx, "conflicts", len(stock.Conflicts(err))), "checkout.stock_conflict")
	case pkgerrors.IsClientCode(pkgerrors.CodeOf(err)):
		outcome = OutcomeRejected
	default:
		outcome = OutcomeFailed
	}
	if s.metrics != nil {
		s.metrics.ObserveCheckout(outcome, time.Since(started))
	}
}

func isStockConflict(err error) bool {
	return errors.Is(err, stock.ErrInsufficientStock)
}

// Revalidate rebuilds every cart line from the current snapshot into a new
// cart: prices and extras are refreshed and selections are checked against
// today's groups.
func Revalidate(menu *catalog.Catalog, c *cart.Cart) (*cart.Cart, error) {
	lines := make([]cart.Line, 0, len(c.Lines))
	var unavailable []uuid.UUID
	for _, line := range c.Lines {
		if line.Quantity < 1 || line.Quantity > cart.MaxLineQuantity {
			return nil, stock.ErrInvalidQuantity
		}
		product, ok := menu.Product(line.ProductID)
		if !ok || !product.InStock {
			unavailable = append(unavailable, line.ProductID)
			continue
		}
		groups := menu.GroupsForProduct(product.ID)
		selection := line.Selection.Normalized()
		if !selection.Empty() {
			if err := extras.Check(product, groups, selection); err != nil {
				return nil, fmt.Errorf("%w: %w", cart.ErrValidationFailed, err)
			}
		}
		lines = append(lines, cart.Line{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Selection: selection,
			Extras:    extras.Resolve(groups, selection),
			Quantity:  line.Quantity,
		})
	}
	if len(unavailable) > 0 {
		return nil, &UnavailableProductsError{ProductIDs: unavailable}
	}
	fresh := cart.New(c.SessionID)
	fresh.Lines = lines
	return fresh, nil
}

// UnavailableProductsError lists cart products removed or paused since they were added.
type UnavailableProductsError struct {
	ProductIDs []uuid.UUID
}

func (e *UnavailableProductsError) Error() string {
	return fmt.Sprintf("%d product(s) no longer available", len(e.ProductIDs))
}

func buildOrder(input Request, lines []cart.Line, quote pricing.Quote, changeFor, changeDue *decimal.Decimal) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		CustomerName:  strings.TrimSpace(input.CustomerName),
		Phone:         orders.NormalizePhone(input.Phone),
		Fulfillment:   input.Fulfillment,
		Observation:   optionalString(input.Observation),
		PaymentMethod: input.PaymentMethod,
		Status:        enums.InitialOrderStatus(input.PaymentMethod),
		Subtotal:      quote.Subtotal,
		DeliveryFee:   quote.DeliveryFee,
		Surcharge:     quote.Surcharge,
		Total:         quote.Total,
		ChangeDue:     changeDue,
		Items:         make([]models.OrderLineItem, len(lines)),
	}
	if changeDue != nil {
		order.ChangeFor = changeFor
	}
	if input.Fulfillment == enums.FulfillmentDelivery {
		order.Neighborhood = optionalString(input.Neighborhood)
		order.Address = optionalString(input.Address)
	}
	for i, line := range lines {
		order.Items[i] = models.OrderLineItem{
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.Name,
			UnitPrice:   quote.Lines[i].UnitPrice,
			Extras:      lineExtras(line.Extras),
			Quantity:    line.Quantity,
			LineTotal:   quote.Lines[i].Total,
		}
	}
	return order
}

func lineExtras(chosen []extras.Chosen) types.LineExtras {
	out := make(types.LineExtras, len(chosen))
	for i, extra := range chosen {
		out[i] = types.LineExtra{
			OptionID:  extra.OptionID,
			GroupID:   extra.GroupID,
			Name:      extra.Name,
			UnitPrice: extra.UnitPrice,
			Quantity:  extra.Quantity,
		}
	}
	return out
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
