package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/repo/repotest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func pixOrder(number int, status enums.OrderStatus, createdAt time.Time) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		DailyNumber:   number,
		CustomerName:  "Bruno",
		Phone:         "11988887777",
		Fulfillment:   enums.FulfillmentPickup,
		PaymentMethod: enums.PaymentMethodPix,
		Status:        status,
		Subtotal:      decimal.RequireFromString("40.00"),
		DeliveryFee:   decimal.Zero,
		Surcharge:     decimal.Zero,
		Total:         decimal.RequireFromString("40.00"),
		CreatedAt:     createdAt,
	}
}

func TestStalePaymentJobCountsOverdueOrders(t *testing.T) {
	db := repotest.Open(t, &models.Order{}, &models.OrderLineItem{})
	repo := orders.NewRepository(db)
	ctx := context.Background()
	now := time.Date(2026, time.October, 16, 20, 0, 0, 0, time.UTC)

	for _, order := range []*models.Order{
		pixOrder(1, enums.OrderStatusAwaitingPayment, now.Add(-2*time.Hour)),
		pixOrder(2, enums.OrderStatusAwaitingPayment, now.Add(-45*time.Minute)),
		pixOrder(3, enums.OrderStatusAwaitingPayment, now.Add(-5*time.Minute)),
		pixOrder(4, enums.OrderStatusPending, now.Add(-3*time.Hour)),
	} {
		if _, err := repo.Create(ctx, order); err != nil {
			t.Fatalf("seed order: %v", err)
		}
	}

	gauge := &fakeGauge{}
	job, err := NewStalePaymentJob(StalePaymentJobParams{
		Logger: logger.Nop(),
		Orders: repo,
		Gauge:  gauge,
		After:  30 * time.Minute,
		Now:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if gauge.stale != 2 {
		t.Fatalf("expected 2 stale pix orders, got %d", gauge.stale)
	}
}

func TestNewStalePaymentJobRequiresReader(t *testing.T) {
	if _, err := NewStalePaymentJob(StalePaymentJobParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected error without orders reader")
	}
}
