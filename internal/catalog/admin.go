package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/validation"
)

// Invalidator drops cached snapshots after a write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type CategoryInput struct {
	Name     string `json:"name" validate:"required,max=80"`
	Icon     string `json:"icon"`
	Position int    `json:"position" validate:"gte=0"`
}

type ProductInput struct {
	CategoryID    *uuid.UUID    `json:"category_id"`
	Name          string        `json:"name" validate:"required,max=120"`
	Description   string        `json:"description" validate:"max=1000"`
	Price         money.Amount  `json:"price" validate:"gte=0"`
	CostPrice     *money.Amount `json:"cost_price" validate:"omitempty,gte=0"`
	ImageURL      *string       `json:"image_url" validate:"omitempty,url"`
	InStock       bool          `json:"in_stock"`
	Highlighted   bool          `json:"highlighted"`
	TrackStock    bool          `json:"track_stock"`
	StockQuantity int           `json:"stock_quantity" validate:"gte=0"`
	Position      int           `json:"position" validate:"gte=0"`
}

type ExtraOptionInput struct {
	ID          *uuid.UUID   `json:"id"`
	Name        string       `json:"name" validate:"required,max=80"`
	Price       money.Amount `json:"price" validate:"gte=0"`
	MaxQuantity int          `json:"max_quantity" validate:"gte=0"`
}

// ExtrasGroupInput replaces a group and its whole option list. Options are
// stored in the given order; a zero MaxQuantity means 1.
type ExtrasGroupInput struct {
	Name         string             `json:"name" validate:"required,max=80"`
	MinSelection int                `json:"min_selection" validate:"gte=0"`
	MaxSelection int                `json:"max_selection" validate:"gtefield=MinSelection"`
	Position     int                `json:"position" validate:"gte=0"`
	Options      []ExtraOptionInput `json:"options" validate:"dive"`
}

// AdminService backs the back-office catalog editor.
type AdminService struct {
	repo        *Repository
	invalidator Invalidator
	logg        *logger.Logger
}

func NewAdminService(repo *Repository, invalidator Invalidator, logg *logger.Logger) (*AdminService, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &AdminService{repo: repo, invalidator: invalidator, logg: logg}, nil
}

// SaveCategory creates a category when id is nil, otherwise updates it.
func (s *AdminService) SaveCategory(ctx context.Context, id *uuid.UUID, in CategoryInput) (Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return Category{}, err
	}

	row := &models.Category{}
	if id != nil {
		existing, err := s.repo.FindCategory(ctx, *id)
		if err != nil {
			return Category{}, notFoundOr(err, "category not found", "load category")
		}
		row = existing
	}

	taken, err := s.repo.CategoryNameTaken(ctx, in.Name, row.ID)
	if err != nil {
		return Category{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category name")
	}
	if taken {
		return Category{}, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
	}

	row.Name = in.Name
	row.Icon = enums.ParseCategoryIconOrDefault(in.Icon)
	row.Position = in.Position
	if err := s.repo.SaveCategory(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return Category{}, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return Category{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save category")
	}
	s.invalidate(ctx)
	return Category{ID: row.ID, Name: row.Name, Icon: row.Icon, Position: row.Position}, nil
}

func (s *AdminService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return notFoundOr(err, "category not found", "delete category")
	}
	s.invalidate(ctx)
	return nil
}

// SaveProduct creates a product when id is nil, otherwise updates it.
func (s *AdminService) SaveProduct(ctx context.Context, id *uuid.UUID, in ProductInput) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return Product{}, err
	}
	if in.CategoryID != nil {
		if _, err := s.repo.FindCategory(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist").WithDetails(map[string]string{"category_id": "is unknown"})
			}
			return Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
	}

	row := &models.Product{}
	if id != nil {
		existing, err := s.repo.FindProduct(ctx, *id)
		if err != nil {
			return Product{}, notFoundOr(err, "product not found", "load product")
		}
		row = existing
	}

	row.CategoryID = in.CategoryID
	row.Name = in.Name
	row.Description = in.Description
	row.Price = in.Price.Decimal
	row.CostPrice = nil
	if in.CostPrice != nil {
		cost := in.CostPrice.Decimal
		row.CostPrice = &cost
	}
	row.ImageURL = in.ImageURL
	row.InStock = in.InStock
	row.Highlighted = in.Highlighted
	row.TrackStock = in.TrackStock
	row.StockQuantity = in.StockQuantity
	row.Position = in.Position
	if err := s.repo.SaveProduct(ctx, row); err != nil {
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product")
	}

	s.logg.Info(s.logg.WithProductID(ctx, row.ID.String()), "catalog.product_saved")
	s.invalidate(ctx)
	return ProductFromModel(*row), nil
}

func (s *AdminService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return notFoundOr(err, "product not found", "delete product")
	}
	s.invalidate(ctx)
	return nil
}

// SaveExtrasGroup creates or replaces a group together with its options.
func (s *AdminService) SaveExtrasGroup(ctx context.Context, id *uuid.UUID, in ExtrasGroupInput) (ExtrasGroup, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return ExtrasGroup{}, err
	}

	row := &models.ExtrasGroup{}
	known := map[uuid.UUID]struct{}{}
	if id != nil {
		existing, err := s.repo.FindExtrasGroup(ctx, *id)
		if err != nil {
			return ExtrasGroup{}, notFoundOr(err, "extras group not found", "load extras group")
		}
		row = existing
		for _, opt := range existing.Options {
			known[opt.ID] = struct{}{}
		}
	}

	options := make([]models.ExtraOption, len(in.Options))
	for i, opt := range in.Options {
		maxQty := opt.MaxQuantity
		if maxQty == 0 {
			maxQty = 1
		}
		options[i] = models.ExtraOption{Name: strings.TrimSpace(opt.Name), Price: opt.Price.Decimal, MaxQuantity: maxQty}
		if opt.ID != nil {
			if _, ok := known[*opt.ID]; !ok {
				return ExtrasGroup{}, pkgerrors.New(pkgerrors.CodeValidation, "option does not belong to group").
					WithDetails(map[string]string{fmt.Sprintf("options[%d].id", i): "is unknown"})
			}
			options[i].ID = *opt.ID
		}
	}

	row.Name = in.Name
	row.MinSelection = in.MinSelection
	row.MaxSelection = in.MaxSelection
	row.Position = in.Position
	row.Options = options
	if err := s.repo.SaveExtrasGroup(ctx, row); err != nil {
		return ExtrasGroup{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save extras group")
	}
	s.invalidate(ctx)
	return GroupFromModel(*row), nil
}

func (s *AdminService) DeleteExtrasGroup(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteExtrasGroup(ctx, id); err != nil {
		return notFoundOr(err, "extras group not found", "delete extras group")
	}
	s.invalidate(ctx)
	return nil
}

// SetProductExtras replaces the groups linked to a product. Duplicates are ignored.
func (s *AdminService) SetProductExtras(ctx context.Context, productID uuid.UUID, groupIDs []uuid.UUID) error {
	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		return notFoundOr(err, "product not found", "load product")
	}

	seen := make(map[uuid.UUID]struct{}, len(groupIDs))
	unique := make([]uuid.UUID, 0, len(groupIDs))
	for _, id := range groupIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	count, err := s.repo.CountExtrasGroups(ctx, unique)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check extras groups")
	}
	if int(count) != len(unique) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown extras group").WithDetails(map[string]string{"group_ids": "contains unknown ids"})
	}

	if err := s.repo.ReplaceProductExtras(ctx, productID, unique); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace product extras")
	}
	s.invalidate(ctx)
	return nil
}

func (s *AdminService) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog.cache_invalidate_failed")
	}
}

func notFoundOr(err error, notFoundMsg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
