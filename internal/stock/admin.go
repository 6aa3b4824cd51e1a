package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// LowStockItem is one row of the restock report.
type LowStockItem struct {
	ProductID     uuid.UUID `json:"product_id"`
	Name          string    `json:"name"`
	StockQuantity int       `json:"stock_quantity"`
}

type LowStockReport struct {
	Threshold int            `json:"threshold"`
	Items     []LowStockItem `json:"items"`
}

// Admin exposes restocking to the back office and drops the cached catalog
// after each write.
type Admin struct {
	ledger      *Ledger
	invalidator catalog.Invalidator
	logg        *logger.Logger
}

func NewAdmin(ledger *Ledger, invalidator catalog.Invalidator, logg *logger.Logger) (*Admin, error) {
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Admin{ledger: ledger, invalidator: invalidator, logg: logg}, nil
}

func (a *Admin) SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	err := a.ledger.SetQuantity(ctx, productID, quantity)
	switch {
	case err == nil:
	case errors.Is(err, ErrNegativeQuantity):
		return pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative").
			WithDetails(map[string]string{"quantity": "must be at least 0"})
	case errors.Is(err, ErrProductNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set stock quantity")
	}

	ctx = a.logg.WithFields(a.logg.WithProductID(ctx, productID.String()), map[string]any{"quantity": quantity})
	a.logg.Info(ctx, "stock.quantity_set")
	if a.invalidator != nil {
		if err := a.invalidator.Invalidate(ctx); err != nil {
			a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "catalog.cache_invalidate_failed")
		}
	}
	return nil
}

func (a *Admin) LowStock(ctx context.Context) (*LowStockReport, error) {
	products, err := a.ledger.LowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	report := &LowStockReport{Threshold: a.ledger.Threshold(), Items: make([]LowStockItem, len(products))}
	for i, p := range products {
		report.Items[i] = LowStockItem{ProductID: p.ID, Name: p.Name, StockQuantity: p.StockQuantity}
	}
	return report, nil
}
