package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// AdminOrderList serves the back-office order queue, newest first.
func AdminOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters orders.ListFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.OrderStatus(raw)
			filters.Status = &status
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessPage(w, list.Orders, types.PageMeta{NextCursor: list.NextCursor, Limit: limit})
	}
}

func AdminOrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderHandler(svc, logg, func(ctx context.Context, id uuid.UUID) (*orders.Detail, error) {
		return svc.Get(ctx, id)
	})
}

// AdminAdvanceOrder moves the order one step along its status flow.
func AdminAdvanceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderHandler(svc, logg, func(ctx context.Context, id uuid.UUID) (*orders.Detail, error) {
		return svc.AdvanceStatus(ctx, id)
	})
}

// AdminConfirmPayment releases a pix order awaiting payment to the kitchen.
func AdminConfirmPayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderHandler(svc, logg, func(ctx context.Context, id uuid.UUID) (*orders.Detail, error) {
		return svc.ConfirmPayment(ctx, id)
	})
}

func orderHandler(svc orders.Service, logg *logger.Logger, do func(context.Context, uuid.UUID) (*orders.Detail, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
		}
		detail, err := do(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}
