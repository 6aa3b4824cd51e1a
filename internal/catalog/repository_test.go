package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo/repotest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func newCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()
	return repotest.Open(t,
		&models.Category{},
		&models.Product{},
		&models.ExtrasGroup{},
		&models.ExtraOption{},
		&models.ProductExtraLink{},
		&models.StoreConfig{},
		&models.OpeningHour{},
		&models.DeliveryFee{},
	)
}

func strPtr(v string) *string { return &v }

func TestRepositoryLoadCatalog(t *testing.T) {
	db := newCatalogDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	drinks := models.Category{Name: "Drinks", Icon: enums.CategoryIconCupSoda, Position: 2}
	burgers := models.Category{Name: "Burgers", Icon: enums.CategoryIconSandwich, Position: 1}
	require.NoError(t, db.Create(&drinks).Error)
	require.NoError(t, db.Create(&burgers).Error)

	burger := models.Product{CategoryID: &burgers.ID, Name: "X-Burger", Price: decimal.RequireFromString("25.00"), InStock: true, ImageURL: strPtr("https://cdn.example/x.png"), Position: 1}
	soda := models.Product{CategoryID: &drinks.ID, Name: "Soda", Price: decimal.RequireFromString("6.50"), InStock: true, TrackStock: true, StockQuantity: 4}
	require.NoError(t, db.Create(&burger).Error)
	require.NoError(t, db.Create(&soda).Error)

	group := models.ExtrasGroup{Name: "Add-ons", MinSelection: 0, MaxSelection: 3, Options: []models.ExtraOption{
		{Name: "Cheese", Price: decimal.RequireFromString("2.00"), MaxQuantity: 2, Position: 1},
		{Name: "Bacon", Price: decimal.RequireFromString("3.50"), MaxQuantity: 1, Position: 0},
	}}
	require.NoError(t, db.Create(&group).Error)
	require.NoError(t, db.Create(&models.ProductExtraLink{ProductID: burger.ID, GroupID: group.ID}).Error)

	require.NoError(t, db.Create(&models.StoreConfig{
		ID:                   models.StoreConfigID,
		Name:                 "Lanchonete",
		CardCreditFeePercent: decimal.RequireFromString("4.99"),
		LogoURL:              strPtr("https://cdn.example/logo.png"),
	}).Error)
	require.NoError(t, db.Create(&models.OpeningHour{DayOfWeek: 1, OpenTime: strPtr("10:00"), CloseTime: strPtr("22:00")}).Error)
	require.NoError(t, db.Create(&models.OpeningHour{DayOfWeek: 0, IsClosed: true}).Error)
	require.NoError(t, db.Create(&models.DeliveryFee{Neighborhood: "Centro", Fee: decimal.RequireFromString("7.00"), IsActive: true}).Error)

	snapshot, err := repo.LoadCatalog(ctx)
	require.NoError(t, err)

	require.Len(t, snapshot.Categories, 2)
	assert.Equal(t, "Burgers", snapshot.Categories[0].Name)
	require.Len(t, snapshot.Products, 2)
	assert.Equal(t, "Soda", snapshot.Products[0].Name)

	loaded, ok := snapshot.Product(burger.ID)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example/x.png", loaded.ImageURL)
	assert.True(t, loaded.Price.Equal(decimal.RequireFromString("25")))

	groups := snapshot.GroupsForProduct(burger.ID)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Options, 2)
	assert.Equal(t, "Bacon", groups[0].Options[0].Name)
	assert.Equal(t, group.ID, groups[0].Options[0].GroupID)

	assert.Equal(t, "Lanchonete", snapshot.StoreConfig.Name)
	assert.Equal(t, "https://cdn.example/logo.png", snapshot.StoreConfig.LogoURL)
	assert.True(t, snapshot.StoreConfig.CardCreditFeePercent.Equal(decimal.RequireFromString("4.99")))

	require.Len(t, snapshot.Hours, 2)
	assert.Equal(t, time.Sunday, snapshot.Hours[0].DayOfWeek)
	assert.True(t, snapshot.Hours[0].Closed)
	require.NotNil(t, snapshot.Hours[1].Open)
	assert.Equal(t, "10:00", snapshot.Hours[1].Open.String())

	fee, ok := snapshot.ActiveDeliveryFee("centro")
	require.True(t, ok)
	assert.True(t, fee.Fee.Equal(decimal.RequireFromString("7")))
}

func TestRepositoryLoadCatalogWithoutStoreConfig(t *testing.T) {
	repo := NewRepository(newCatalogDB(t))

	snapshot, err := repo.LoadCatalog(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot.Products)
	assert.Equal(t, StoreConfig{}, snapshot.StoreConfig)
}

func TestHoursFromModelRejectsBadRows(t *testing.T) {
	_, err := HoursFromModel(models.OpeningHour{DayOfWeek: 7})
	require.Error(t, err)

	_, err = HoursFromModel(models.OpeningHour{DayOfWeek: 2, OpenTime: strPtr("25:00")})
	require.Error(t, err)

	h, err := HoursFromModel(models.OpeningHour{DayOfWeek: 3, OpenTime: strPtr(""), CloseTime: strPtr("23:30")})
	require.NoError(t, err)
	assert.Nil(t, h.Open)
	require.NotNil(t, h.Close)
	assert.Equal(t, "23:30", h.Close.String())
}

func TestRepositorySaveExtrasGroupReplacesOptions(t *testing.T) {
	db := newCatalogDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	group := &models.ExtrasGroup{Name: "Sauces", MaxSelection: 0, Options: []models.ExtraOption{
		{Name: "Garlic", Price: decimal.RequireFromString("1.00"), MaxQuantity: 1},
		{Name: "Pepper", Price: decimal.RequireFromString("1.00"), MaxQuantity: 1},
	}}
	require.NoError(t, repo.SaveExtrasGroup(ctx, group))
	assert.NotEqual(t, uuid.Nil, group.ID)

	stored, err := repo.FindExtrasGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.MaxSelection, "explicit zero must not fall back to the column default")
	require.Len(t, stored.Options, 2)
	garlicID := stored.Options[0].ID

	group.Options = []models.ExtraOption{
		{Name: "BBQ", Price: decimal.RequireFromString("2.00"), MaxQuantity: 2},
		{ID: garlicID, Name: "Garlic", Price: decimal.RequireFromString("1.25"), MaxQuantity: 1},
	}
	require.NoError(t, repo.SaveExtrasGroup(ctx, group))

	stored, err = repo.FindExtrasGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, stored.Options, 2)
	assert.Equal(t, "BBQ", stored.Options[0].Name)
	assert.Equal(t, garlicID, stored.Options[1].ID)
	assert.True(t, stored.Options[1].Price.Equal(decimal.RequireFromString("1.25")))
}

func TestRepositoryInsertsKeepExplicitZeroValues(t *testing.T) {
	db := newCatalogDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	paused := &models.Product{Name: "Seasonal Pie", Price: decimal.RequireFromString("12.00"), InStock: false}
	require.NoError(t, repo.SaveProduct(ctx, paused))

	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", paused.ID).Error)
	assert.False(t, stored.InStock)

	group := &models.ExtrasGroup{Name: "Dips", MaxSelection: 2}
	require.NoError(t, repo.SaveExtrasGroup(ctx, group))

	// options added after the group exists go through the upsert path
	group.Options = []models.ExtraOption{
		{Name: "Ketchup", Price: decimal.Zero, MaxQuantity: 3},
		{ID: uuid.New(), Name: "Mustard", Price: decimal.RequireFromString("0.50"), MaxQuantity: 2},
	}
	group.MaxSelection = 0
	require.NoError(t, repo.SaveExtrasGroup(ctx, group))

	loaded, err := repo.FindExtrasGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.MaxSelection)
	require.Len(t, loaded.Options, 2)
	assert.Equal(t, 3, loaded.Options[0].MaxQuantity)
	assert.True(t, loaded.Options[0].Price.IsZero())
	assert.Equal(t, "Mustard", loaded.Options[1].Name)
	assert.Equal(t, 1, loaded.Options[1].Position)
}
