package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type lowStockReporter interface {
	LowStock(ctx context.Context) (*stock.LowStockReport, error)
}

type lowStockGauge interface {
	SetLowStock(count int)
}

// NewLowStockJob warns about tracked products whose stock is below the restock threshold.
func NewLowStockJob(logg *logger.Logger, reporter lowStockReporter, gauge lowStockGauge) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if reporter == nil {
		return nil, fmt.Errorf("low stock reporter required")
	}
	return &lowStockJob{logg: logg, reporter: reporter, gauge: gauge}, nil
}

type lowStockJob struct {
	logg     *logger.Logger
	reporter lowStockReporter
	gauge    lowStockGauge
}

func (j *lowStockJob) Name() string { return "low_stock_alert" }

func (j *lowStockJob) Run(ctx context.Context) error {
	report, err := j.reporter.LowStock(ctx)
	if err != nil {
		return fmt.Errorf("load low stock report: %w", err)
	}
	if j.gauge != nil {
		j.gauge.SetLowStock(len(report.Items))
	}
	for _, item := range report.Items {
		itemCtx := j.logg.WithProductID(ctx, item.ProductID.String())
		itemCtx = j.logg.WithFields(itemCtx, map[string]any{
			"product_name":   item.Name,
			"stock_quantity": item.StockQuantity,
			"threshold":      report.Threshold,
		})
		j.logg.Warn(itemCtx, "product stock below threshold")
	}
	return nil
}
