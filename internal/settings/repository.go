// Package settings manages the store profile, weekly hours and delivery fees.
package settings

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/internal/schedule"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository writes the settings tables.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// SaveStoreConfig upserts the singleton store_config row.
func (r *Repository) SaveStoreConfig(ctx context.Context, cfg catalog.StoreConfig) error {
	row := models.StoreConfig{
		ID:                   models.StoreConfigID,
		Name:                 cfg.Name,
		WhatsApp:             cfg.WhatsApp,
		PixKey:               cfg.PixKey,
		CoverURL:             optional(cfg.CoverURL),
		LogoURL:              optional(cfg.LogoURL),
		CardDebitFeePercent:  cfg.CardDebitFeePercent,
		CardCreditFeePercent: cfg.CardCreditFeePercent,
	}
	return r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&row).Error
}

// SaveHours upserts the given weekdays in one transaction.
func (r *Repository) SaveHours(ctx context.Context, days []schedule.Hours) error {
	if len(days) == 0 {
		return nil
	}
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		for _, day := range days {
			row := models.OpeningHour{DayOfWeek: int(day.DayOfWeek), IsClosed: day.Closed}
			if day.Open != nil {
				open := day.Open.String()
				row.OpenTime = &open
			}
			if day.Close != nil {
				closeAt := day.Close.String()
				row.CloseTime = &closeAt
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "day_of_week"}},
				DoUpdates: clause.AssignmentColumns([]string{"open_time", "close_time", "is_closed"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("save hours for day %d: %w", row.DayOfWeek, err)
			}
		}
		return nil
	})
}

// ApplyFees writes a fee change set in one transaction.
func (r *Repository) ApplyFees(ctx context.Context, changes FeeChanges) error {
	if changes.Empty() {
		return nil
	}
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if len(changes.Delete) > 0 {
			if err := tx.Where("id IN ?", changes.Delete).Delete(&models.DeliveryFee{}).Error; err != nil {
				return fmt.Errorf("delete fees: %w", err)
			}
		}
		for _, fee := range changes.Update {
			err := tx.Model(&models.DeliveryFee{}).Where("id = ?", fee.ID).Updates(map[string]any{
				"neighborhood": fee.Neighborhood,
				"fee":          fee.Fee,
				"is_active":    fee.IsActive,
			}).Error
			if err != nil {
				return fmt.Errorf("update fee %s: %w", fee.ID, err)
			}
		}
		for _, fee := range changes.Create {
			row := models.DeliveryFee{ID: fee.ID, Neighborhood: fee.Neighborhood, Fee: fee.Fee, IsActive: fee.IsActive}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create fee: %w", err)
			}
		}
		return nil
	})
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
