package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/extras"
	"github.com/angelmondragon/storefront-backend/internal/schedule"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// Rejection reasons reported to metrics and error details.
const (
	ReasonStoreClosed      = "store_closed"
	ReasonInvalidSelection = "invalid_selection"
	ReasonUnavailable      = "product_unavailable"
)

type rejectionRecorder interface {
	CartRejected(reason string)
}

// AddItemInput is one cart mutation.
type AddItemInput struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Delta     int              `json:"delta" validate:"required,min=-999,max=999"`
	Selection extras.Selection `json:"selection"`
}

type LineView struct {
	Line
	LineTotal decimal.Decimal `json:"line_total"`
}

// View is the cart as returned to the storefront.
type View struct {
	SessionID string          `json:"session_id"`
	Lines     []LineView      `json:"lines"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// NewView renders c with rounded line totals.
func NewView(c *Cart) *View {
	view := &View{SessionID: c.SessionID, Lines: make([]LineView, len(c.Lines)), ItemCount: c.ItemCount(), Subtotal: money.Round(c.Subtotal())}
	for i, line := range c.Lines {
		view.Lines[i] = LineView{Line: line, LineTotal: money.Round(line.PricingLine().Subtotal())}
	}
	return view
}

// Service exposes session cart operations.
type Service interface {
	Get(ctx context.Context, sessionID string) (*View, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*View, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	loader   catalog.Loader
	sessions Sessions
	clock    schedule.Clock
	metrics  rejectionRecorder
	logg     *logger.Logger
}

// NewService wires the cart service. metrics may be nil.
func NewService(loader catalog.Loader, sessions Sessions, clock schedule.Clock, metrics rejectionRecorder, logg *logger.Logger) (Service, error) {
	if loader == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("cart sessions required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{loader: loader, sessions: sessions, clock: clock, metrics: metrics, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*View, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return NewView(c), nil
}

func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*View, error) {
	ctx = s.logg.WithSessionID(ctx, sessionID)
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	menu, err := s.loader.LoadCatalog(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog")
	}

	if input.Delta > 0 {
		if product, ok := menu.Product(input.ProductID); ok && !product.InStock {
			s.reject(ctx, ReasonUnavailable)
			return nil, pkgerrors.New(pkgerrors.CodeAvailability, "product is unavailable").WithDetails(map[string]any{
				"reason":     ReasonUnavailable,
				"product_id": product.ID,
			})
		}
	}

	if err := c.Add(menu, s.clock.Now(), input.ProductID, input.Delta, input.Selection); err != nil {
		return nil, s.mapAddError(ctx, err)
	}
	if err := s.sessions.Save(ctx, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return NewView(c), nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) load(ctx context.Context, sessionID string) (*Cart, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	c, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return c, nil
}

func (s *service) mapAddError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrStoreClosed):
		s.reject(ctx, ReasonStoreClosed)
		return StoreClosedError()
	case errors.Is(err, ErrValidationFailed):
		s.reject(ctx, ReasonInvalidSelection)
		return ViolationsError(err)
	case errors.Is(err, ErrProductNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	case errors.Is(err, ErrZeroDelta):
		return pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero").WithDetails(map[string]string{"delta": "must not be zero"})
	case errors.Is(err, ErrQuantityOutOfRange):
		return pkgerrors.New(pkgerrors.CodeValidation, "line quantity out of range").WithDetails(map[string]any{"delta": "out of range", "max_quantity": MaxLineQuantity})
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart")
}

func (s *service) reject(ctx context.Context, reason string) {
	if s.metrics != nil {
		s.metrics.CartRejected(reason)
	}
	s.logg.Info(s.logg.WithField(ctx, "reason", reason), "cart.rejected")
}

// StoreClosedError is the typed error for mutations while the store is closed.
func StoreClosedError() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "store is closed").WithDetails(map[string]string{"reason": ReasonStoreClosed})
}

// ViolationsError exposes the extras violations wrapped in err as details.
func ViolationsError(err error) *pkgerrors.Error {
	var verr *extras.ValidationError
	violations := []extras.Violation{}
	if errors.As(err, &verr) {
		violations = verr.Violations
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "extras selection invalid").WithDetails(map[string]any{
		"violations": violations,
	})
}

func validateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session required")
	}
	return nil
}
