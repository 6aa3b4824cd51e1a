package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const defaultStalePaymentAfter = 30 * time.Minute

type statusAgeReader interface {
	FindByStatusBefore(ctx context.Context, status enums.OrderStatus, cutoff time.Time) ([]models.Order, error)
}

type stalePaymentGauge interface {
	SetStalePayments(count int)
}

// StalePaymentJobParams configure the pix follow-up job.
type StalePaymentJobParams struct {
	Logger *logger.Logger
	Orders statusAgeReader
	Gauge  stalePaymentGauge
	After  time.Duration
	Now    func() time.Time
}

// NewStalePaymentJob flags pix orders whose payment was never confirmed by the
// attendant. Orders are left untouched; stock stays reserved until staff act.
func NewStalePaymentJob(params StalePaymentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	after := params.After
	if after <= 0 {
		after = defaultStalePaymentAfter
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &stalePaymentJob{
		logg:   params.Logger,
		orders: params.Orders,
		gauge:  params.Gauge,
		after:  after,
		now:    now,
	}, nil
}

type stalePaymentJob struct {
	logg   *logger.Logger
	orders statusAgeReader
	gauge  stalePaymentGauge
	after  time.Duration
	now    func() time.Time
}

func (j *stalePaymentJob) Name() string { return "stale_pix_payments" }

func (j *stalePaymentJob) Run(ctx context.Context) error {
	now := j.now()
	cutoff := now.Add(-j.after)
	stale, err := j.orders.FindByStatusBefore(ctx, enums.OrderStatusAwaitingPayment, cutoff)
	if err != nil {
		return fmt.Errorf("find stale pix orders: %w", err)
	}
	if j.gauge != nil {
		j.gauge.SetStalePayments(len(stale))
	}
	for _, order := range stale {
		orderCtx := j.logg.WithOrderID(ctx, order.ID.String())
		orderCtx = j.logg.WithFields(orderCtx, map[string]any{
			"daily_number": order.DailyNumber,
			"waiting_min":  int(now.Sub(order.CreatedAt).Minutes()),
			"total":        order.Total.StringFixed(2),
		})
		j.logg.Warn(orderCtx, "pix payment still unconfirmed")
	}
	return nil
}
