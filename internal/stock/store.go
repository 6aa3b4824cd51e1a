package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// GormStore persists stock on the products table.
type GormStore struct {
	repo.Base
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{Base: repo.NewBase(db)}
}

// WithTx binds the store to an outer transaction.
func (s *GormStore) WithTx(tx *gorm.DB) *GormStore {
	return &GormStore{Base: s.Base.WithTx(tx)}
}

// DecrementAll issues one conditional UPDATE per line inside a transaction.
// Untracked products are left untouched. Any shortfall rolls the whole batch back.
func (s *GormStore) DecrementAll(ctx context.Context, lines []Line) error {
	return s.Transaction(ctx, func(tx *gorm.DB) error {
		var conflicts error
		for _, line := range lines {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND track_stock = ? AND stock_quantity >= ?", line.ProductID, true, line.Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", line.Quantity))
			if res.Error != nil {
				return fmt.Errorf("decrement stock for %s: %w", line.ProductID, res.Error)
			}
			if res.RowsAffected == 1 {
				continue
			}

			var current models.Product
			err := tx.Select("id", "name", "track_stock", "stock_quantity").First(&current, "id = ?", line.ProductID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				conflicts = multierr.Append(conflicts, &InsufficientStockError{ProductID: line.ProductID, Name: line.Name, Requested: line.Quantity})
			case err != nil:
				return fmt.Errorf("load stock for %s: %w", line.ProductID, err)
			case !current.TrackStock:
			default:
				conflicts = multierr.Append(conflicts, &InsufficientStockError{
					ProductID: current.ID,
					Name:      current.Name,
					Requested: line.Quantity,
					Available: current.StockQuantity,
				})
			}
		}
		return conflicts
	})
}

func (s *GormStore) SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	res := s.DB(ctx).Model(&models.Product{}).Where("id = ?", productID).Update("stock_quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *GormStore) ListBelow(ctx context.Context, threshold int) ([]catalog.Product, error) {
	var rows []models.Product
	if err := s.DB(ctx).
		Where("track_stock = ? AND stock_quantity < ?", true, threshold).
		Order("stock_quantity ASC").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]catalog.Product, len(rows))
	for i, row := range rows {
		products[i] = catalog.ProductFromModel(row)
	}
	return products, nil
}
