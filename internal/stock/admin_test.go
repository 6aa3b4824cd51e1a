package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/repo/repotest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

func newTestAdmin(t *testing.T, threshold int) (*Admin, *countingInvalidator, *GormStore) {
	t.Helper()
	db := repotest.Open(t, &models.Product{})
	store := NewGormStore(db)
	ledger, err := NewLedger(store, threshold)
	require.NoError(t, err)
	inv := &countingInvalidator{}
	admin, err := NewAdmin(ledger, inv, nil)
	require.NoError(t, err)
	return admin, inv, store
}

func TestAdminSetQuantity(t *testing.T) {
	admin, inv, store := newTestAdmin(t, 3)
	db := store.DB(context.Background())
	soda := seedProduct(t, db, "Soda", true, 0)

	require.NoError(t, admin.SetQuantity(context.Background(), soda.ID, 12))
	assert.Equal(t, 12, stockOf(t, db, soda.ID))
	assert.Equal(t, 1, inv.calls)
}

func TestAdminSetQuantityErrors(t *testing.T) {
	admin, inv, _ := newTestAdmin(t, 3)
	ctx := context.Background()

	err := admin.SetQuantity(ctx, uuid.New(), -1)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	err = admin.SetQuantity(ctx, uuid.New(), 4)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	assert.Zero(t, inv.calls)
}

func TestAdminSetQuantityIgnoresInvalidateFailure(t *testing.T) {
	admin, inv, store := newTestAdmin(t, 3)
	inv.err = errors.New("redis down")
	soda := seedProduct(t, store.DB(context.Background()), "Soda", true, 0)

	require.NoError(t, admin.SetQuantity(context.Background(), soda.ID, 2))
	assert.Equal(t, 1, inv.calls)
}

func TestAdminLowStockReport(t *testing.T) {
	admin, _, store := newTestAdmin(t, 3)
	db := store.DB(context.Background())
	seedProduct(t, db, "Soda", true, 2)
	seedProduct(t, db, "Juice", true, 0)
	seedProduct(t, db, "Water", true, 8)
	seedProduct(t, db, "Burger", false, 0)

	report, err := admin.LowStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Threshold)
	require.Len(t, report.Items, 2)
	assert.Equal(t, "Juice", report.Items[0].Name)
	assert.Equal(t, "Soda", report.Items[1].Name)
	assert.Equal(t, 2, report.Items[1].StockQuantity)
}
