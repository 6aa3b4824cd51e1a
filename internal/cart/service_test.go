package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/extras"
	"github.com/angelmondragon/storefront-backend/internal/schedule"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubLoader struct {
	menu *catalog.Catalog
	err  error
}

func (s stubLoader) LoadCatalog(context.Context) (*catalog.Catalog, error) {
	return s.menu, s.err
}

type memorySessions struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

func newMemorySessions() *memorySessions {
	return &memorySessions{carts: map[string]*Cart{}}
}

func (m *memorySessions) Load(_ context.Context, sessionID string) (*Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[sessionID]; ok {
		clone := *c
		clone.Lines = append([]Line{}, c.Lines...)
		return &clone, nil
	}
	return New(sessionID), nil
}

func (m *memorySessions) Save(_ context.Context, c *Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[c.SessionID] = c
	return nil
}

func (m *memorySessions) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

type recordedRejections []string

func (r *recordedRejections) CartRejected(reason string) {
	*r = append(*r, reason)
}

func newTestService(t *testing.T, menu *catalog.Catalog, now time.Time) (Service, *memorySessions, *recordedRejections) {
	t.Helper()
	sessions := newMemorySessions()
	rejections := &recordedRejections{}
	svc, err := NewService(stubLoader{menu: menu}, sessions, schedule.FixedClock(now), rejections, nil)
	require.NoError(t, err)
	return svc, sessions, rejections
}

func TestServiceAddItemPersistsCart(t *testing.T) {
	f := newMenuFixture()
	svc, sessions, _ := newTestService(t, f.menu, noon)
	ctx := context.Background()

	view, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: f.burger.ID, Delta: 2, Selection: extras.Selection{f.wheat.ID: 1, f.bacon.ID: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, view.ItemCount)
	assert.True(t, view.Subtotal.Equal(decimal.RequireFromString("57.00")))
	require.Len(t, view.Lines, 1)
	assert.True(t, view.Lines[0].LineTotal.Equal(decimal.RequireFromString("57.00")))

	stored, err := sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.QuantityOf(f.burger.ID))

	got, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, view.Subtotal.String(), got.Subtotal.String())

	require.NoError(t, svc.Clear(ctx, "s1"))
	got, err = svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got.Lines)
}

func TestServiceAddItemStoreClosed(t *testing.T) {
	f := newMenuFixture()
	closedAt := time.Date(2026, time.October, 14, 8, 0, 0, 0, time.UTC)
	svc, sessions, rejections := newTestService(t, f.menu, closedAt)

	_, err := svc.AddItem(context.Background(), "s1", AddItemInput{ProductID: f.soda.ID, Delta: 1})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, map[string]string{"reason": ReasonStoreClosed}, pkgerrors.As(err).Details())
	assert.Equal(t, []string{ReasonStoreClosed}, []string(*rejections))
	assert.Empty(t, sessions.carts)
}

func TestServiceAddItemInvalidSelection(t *testing.T) {
	f := newMenuFixture()
	svc, _, rejections := newTestService(t, f.menu, noon)

	_, err := svc.AddItem(context.Background(), "s1", AddItemInput{ProductID: f.burger.ID, Delta: 1, Selection: extras.Selection{f.bacon.ID: 1}})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	violations, ok := details["violations"].([]extras.Violation)
	require.True(t, ok)
	require.Len(t, violations, 1)
	assert.Equal(t, extras.KindBelowMinimumSelection, violations[0].Kind)
	assert.Equal(t, f.bread.ID, *violations[0].GroupID)
	assert.Equal(t, []string{ReasonInvalidSelection}, []string(*rejections))
}

func TestServiceAddItemUnavailableProduct(t *testing.T) {
	f := newMenuFixture()
	f.soda.InStock = false
	menu := catalog.New(catalog.Catalog{Products: []catalog.Product{f.soda}, Hours: weekHours("10:00", "22:00")})
	svc, _, rejections := newTestService(t, menu, noon)

	_, err := svc.AddItem(context.Background(), "s1", AddItemInput{ProductID: f.soda.ID, Delta: 1})
	assert.Equal(t, pkgerrors.CodeAvailability, pkgerrors.CodeOf(err))
	assert.Equal(t, []string{ReasonUnavailable}, []string(*rejections))
}

func TestServiceAddItemErrors(t *testing.T) {
	f := newMenuFixture()
	svc, _, _ := newTestService(t, f.menu, noon)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: uuid.New(), Delta: 1})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = svc.AddItem(ctx, "s1", AddItemInput{ProductID: f.soda.ID})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.AddItem(ctx, "  ", AddItemInput{ProductID: f.soda.ID, Delta: 1})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.AddItem(ctx, "s1", AddItemInput{ProductID: f.soda.ID, Delta: MaxLineQuantity})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "s1", AddItemInput{ProductID: f.soda.ID, Delta: 1})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	failing, err := NewService(stubLoader{err: errors.New("db down")}, newMemorySessions(), schedule.FixedClock(noon), nil, nil)
	require.NoError(t, err)
	_, err = failing.AddItem(ctx, "s1", AddItemInput{ProductID: f.soda.ID, Delta: 1})
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, newMemorySessions(), schedule.FixedClock(noon), nil, nil)
	require.Error(t, err)
	_, err = NewService(stubLoader{}, nil, schedule.FixedClock(noon), nil, nil)
	require.Error(t, err)
	_, err = NewService(stubLoader{}, newMemorySessions(), nil, nil, nil)
	require.Error(t, err)
}
