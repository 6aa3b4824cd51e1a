package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/internal/schedule"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository reads and writes catalog tables through GORM.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// LoadCatalog reads every catalog table into one indexed snapshot.
func (r *Repository) LoadCatalog(ctx context.Context) (*Catalog, error) {
	db := r.DB(ctx)

	var products []models.Product
	if err := db.Order("position ASC").Order("name ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	var categories []models.Category
	if err := db.Order("position ASC").Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	var groups []models.ExtrasGroup
	if err := db.Preload("Options", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC").Order("name ASC")
	}).Order("position ASC").Order("name ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("load extras groups: %w", err)
	}
	var links []models.ProductExtraLink
	if err := db.Find(&links).Error; err != nil {
		return nil, fmt.Errorf("load product extras: %w", err)
	}
	cfg, err := r.StoreConfig(ctx)
	if err != nil {
		return nil, err
	}
	hours, err := r.OpeningHours(ctx)
	if err != nil {
		return nil, err
	}
	fees, err := r.DeliveryFees(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := Catalog{
		Products:     make([]Product, len(products)),
		Categories:   make([]Category, len(categories)),
		ExtrasGroups: make([]ExtrasGroup, len(groups)),
		Links:        make([]ProductExtraLink, len(links)),
		StoreConfig:  cfg,
		Hours:        hours,
		DeliveryFees: fees,
	}
	for i, p := range products {
		snapshot.Products[i] = ProductFromModel(p)
	}
	for i, c := range categories {
		snapshot.Categories[i] = Category{ID: c.ID, Name: c.Name, Icon: c.Icon, Position: c.Position}
	}
	for i, g := range groups {
		snapshot.ExtrasGroups[i] = GroupFromModel(g)
	}
	for i, l := range links {
		snapshot.Links[i] = ProductExtraLink{ProductID: l.ProductID, GroupID: l.GroupID}
	}
	return New(snapshot), nil
}

// StoreConfig loads the singleton row; a missing row yields zero values.
func (r *Repository) StoreConfig(ctx context.Context) (StoreConfig, error) {
	var row models.StoreConfig
	err := r.DB(ctx).First(&row, "id = ?", models.StoreConfigID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StoreConfig{}, nil
	}
	if err != nil {
		return StoreConfig{}, fmt.Errorf("load store config: %w", err)
	}
	return StoreConfigFromModel(row), nil
}

// OpeningHours loads the weekly schedule ordered by weekday.
func (r *Repository) OpeningHours(ctx context.Context) ([]schedule.Hours, error) {
	var rows []models.OpeningHour
	if err := r.DB(ctx).Order("day_of_week ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load opening hours: %w", err)
	}
	hours := make([]schedule.Hours, 0, len(rows))
	for _, row := range rows {
		h, err := HoursFromModel(row)
		if err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	return hours, nil
}

// DeliveryFees loads every fee, active or not, ordered by neighborhood.
func (r *Repository) DeliveryFees(ctx context.Context) ([]DeliveryFee, error) {
	var rows []models.DeliveryFee
	if err := r.DB(ctx).Order("neighborhood ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load delivery fees: %w", err)
	}
	fees := make([]DeliveryFee, len(rows))
	for i, row := range rows {
		fees[i] = DeliveryFee{ID: row.ID, Neighborhood: row.Neighborhood, Fee: row.Fee, IsActive: row.IsActive}
	}
	return fees, nil
}

// FindProduct loads one product row.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.DB(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// CategoryNameTaken reports whether another category already uses name, ignoring case.
func (r *Repository) CategoryNameTaken(ctx context.Context, name string, exceptID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Category{}).
		Where("LOWER(name) = LOWER(?) AND id <> ?", name, exceptID).
		Count(&count).Error
	return count > 0, err
}

// SaveCategory inserts or updates a category row.
func (r *Repository) SaveCategory(ctx context.Context, category *models.Category) error {
	if category.ID == uuid.Nil {
		return r.DB(ctx).Create(category).Error
	}
	return r.DB(ctx).Save(category).Error
}

// DeleteCategory detaches products from the category and removes it.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// SaveProduct inserts or updates a product row.
func (r *Repository) SaveProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		return r.DB(ctx).Create(product).Error
	}
	return r.DB(ctx).Save(product).Error
}

// DeleteProduct removes the product and its extras links.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductExtraLink{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FindExtrasGroup loads a group with its options.
func (r *Repository) FindExtrasGroup(ctx context.Context, id uuid.UUID) (*models.ExtrasGroup, error) {
	var group models.ExtrasGroup
	if err := r.DB(ctx).Preload("Options", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	}).First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// SaveExtrasGroup upserts the group and replaces its option list: options
// missing from group.Options are deleted, the rest are upserted in order.
func (r *Repository) SaveExtrasGroup(ctx context.Context, group *models.ExtrasGroup) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		options := group.Options
		group.Options = nil
		save := tx.Omit(clause.Associations).Save
		if group.ID == uuid.Nil {
			save = tx.Omit(clause.Associations).Create
		}
		if err := save(group).Error; err != nil {
			return err
		}

		keep := make([]uuid.UUID, 0, len(options))
		for i := range options {
			options[i].GroupID = group.ID
			options[i].Position = i
			if options[i].ID == uuid.Nil {
				options[i].ID = uuid.New()
			}
			keep = append(keep, options[i].ID)
		}

		stale := tx.Where("group_id = ?", group.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&models.ExtraOption{}).Error; err != nil {
			return err
		}
		for i := range options {
			if err := tx.Save(&options[i]).Error; err != nil {
				return err
			}
		}
		group.Options = options
		return nil
	})
}

// DeleteExtrasGroup removes links, options and the group.
func (r *Repository) DeleteExtrasGroup(ctx context.Context, id uuid.UUID) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&models.ProductExtraLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.ExtraOption{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.ExtrasGroup{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CountExtrasGroups counts how many of ids exist.
func (r *Repository) CountExtrasGroups(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.DB(ctx).Model(&models.ExtrasGroup{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

// ReplaceProductExtras swaps the product's linked groups for groupIDs.
func (r *Repository) ReplaceProductExtras(ctx context.Context, productID uuid.UUID, groupIDs []uuid.UUID) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&models.ProductExtraLink{}).Error; err != nil {
			return err
		}
		if len(groupIDs) == 0 {
			return nil
		}
		links := make([]models.ProductExtraLink, len(groupIDs))
		for i, groupID := range groupIDs {
			links[i] = models.ProductExtraLink{ProductID: productID, GroupID: groupID}
		}
		return tx.Create(&links).Error
	})
}

// ProductFromModel maps a products row to the snapshot type.
func ProductFromModel(p models.Product) Product {
	out := Product{
		ID:            p.ID,
		CategoryID:    p.CategoryID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		CostPrice:     p.CostPrice,
		InStock:       p.InStock,
		Highlighted:   p.Highlighted,
		TrackStock:    p.TrackStock,
		StockQuantity: p.StockQuantity,
		Position:      p.Position,
	}
	if p.ImageURL != nil {
		out.ImageURL = *p.ImageURL
	}
	return out
}

// GroupFromModel maps a group row and its preloaded options.
func GroupFromModel(g models.ExtrasGroup) ExtrasGroup {
	out := ExtrasGroup{
		ID:           g.ID,
		Name:         g.Name,
		MinSelection: g.MinSelection,
		MaxSelection: g.MaxSelection,
		Options:      make([]ExtraOption, len(g.Options)),
	}
	for i, o := range g.Options {
		out.Options[i] = ExtraOption{ID: o.ID, GroupID: g.ID, Name: o.Name, Price: o.Price, MaxQuantity: o.MaxQuantity}
	}
	return out
}

func StoreConfigFromModel(row models.StoreConfig) StoreConfig {
	cfg := StoreConfig{
		Name:                 row.Name,
		WhatsApp:             row.WhatsApp,
		PixKey:               row.PixKey,
		CardDebitFeePercent:  row.CardDebitFeePercent,
		CardCreditFeePercent: row.CardCreditFeePercent,
	}
	if row.CoverURL != nil {
		cfg.CoverURL = *row.CoverURL
	}
	if row.LogoURL != nil {
		cfg.LogoURL = *row.LogoURL
	}
	return cfg
}

// HoursFromModel parses the stored "HH:MM" columns.
func HoursFromModel(row models.OpeningHour) (schedule.Hours, error) {
	if row.DayOfWeek < 0 || row.DayOfWeek > 6 {
		return schedule.Hours{}, fmt.Errorf("opening hours: invalid day_of_week %d", row.DayOfWeek)
	}
	h := schedule.Hours{DayOfWeek: time.Weekday(row.DayOfWeek), Closed: row.IsClosed}
	if row.OpenTime != nil && *row.OpenTime != "" {
		open, err := schedule.ParseTimeOfDay(*row.OpenTime)
		if err != nil {
			return schedule.Hours{}, fmt.Errorf("opening hours day %d: %w", row.DayOfWeek, err)
		}
		h.Open = &open
	}
	if row.CloseTime != nil && *row.CloseTime != "" {
		closeAt, err := schedule.ParseTimeOfDay(*row.CloseTime)
		if err != nil {
			return schedule.Hours{}, fmt.Errorf("opening hours day %d: %w", row.DayOfWeek, err)
		}
		h.Close = &closeAt
	}
	return h, nil
}
