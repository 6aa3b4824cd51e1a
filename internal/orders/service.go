package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service exposes the back-office order operations.
type Service interface {
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	Get(ctx context.Context, id uuid.UUID) (*Detail, error)
	AdvanceStatus(ctx context.Context, id uuid.UUID) (*Detail, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID) (*Detail, error)
	ListByPhone(ctx context.Context, phone string) ([]Detail, error)
}

// CustomerOrdersLimit caps the storefront's order history lookup.
const CustomerOrdersLimit = 5

// minPhoneDigits rejects lookups too short to identify a customer.
const minPhoneDigits = 8

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the orders service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// ListByPhone returns the customer's most recent orders, newest first.
func (s *service) ListByPhone(ctx context.Context, phone string) ([]Detail, error) {
	normalized := NormalizePhone(phone)
	if len(normalized) < minPhoneDigits {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid phone").WithDetails(map[string]string{"phone": "must have at least 8 digits"})
	}
	records, err := s.repo.FindByPhone(ctx, normalized, CustomerOrdersLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	out := make([]Detail, 0, len(records))
	for _, record := range records {
		out = append(out, *DetailFromModel(record))
	}
	return out, nil
}

// NormalizePhone keeps digits only, so "(11) 99999-0000" and "11999990000"
// name the same customer.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return DetailFromModel(*order), nil
}

// AdvanceStatus moves a paid order one step along pending, preparing,
// delivering and finished.
func (s *service) AdvanceStatus(ctx context.Context, id uuid.UUID) (*Detail, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next, ok := order.Status.Next()
	if !ok {
		return nil, transitionError(order.Status, "order cannot advance")
	}
	return s.transition(ctx, id, order.Status, next)
}

// ConfirmPayment releases a PIX order awaiting payment to the kitchen.
func (s *service) ConfirmPayment(ctx context.Context, id uuid.UUID) (*Detail, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusAwaitingPayment {
		return nil, transitionError(order.Status, "order is not awaiting payment")
	}
	return s.transition(ctx, id, order.Status, enums.OrderStatusPending)
}

func (s *service) transition(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (*Detail, error) {
	ctx = s.logg.WithOrderID(ctx, id.String())
	if err := s.repo.UpdateStatus(ctx, id, from, to); err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, transitionError(from, "order status changed, reload and retry")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"from": from, "to": to}), "orders.status_changed")
	return s.Get(ctx, id)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func transitionError(status enums.OrderStatus, message string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, message).WithDetails(map[string]any{"status": status})
}
