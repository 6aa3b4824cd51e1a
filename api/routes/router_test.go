package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCart struct {
	sessions []string
}

func (s *stubCart) Get(_ context.Context, sessionID string) (*cart.View, error) {
	s.sessions = append(s.sessions, sessionID)
	return &cart.View{SessionID: sessionID}, nil
}

func (s *stubCart) AddItem(_ context.Context, sessionID string, _ cart.AddItemInput) (*cart.View, error) {
	return &cart.View{SessionID: sessionID}, nil
}

func (s *stubCart) Clear(context.Context, string) error {
	return nil
}

type stubCheckout struct {
	commits atomic.Int32
}

func (s *stubCheckout) Quote(context.Context, string, checkoutsvc.QuoteRequest) (*pricing.Quote, error) {
	return &pricing.Quote{}, nil
}

func (s *stubCheckout) CheckAndCommitOrder(context.Context, string, checkoutsvc.Request) (*orders.Detail, error) {
	n := s.commits.Add(1)
	return &orders.Detail{ID: uuid.New(), DailyNumber: int(n)}, nil
}

func (s *stubCheckout) CommitManualOrder(context.Context, checkoutsvc.ManualOrderRequest) (*orders.Detail, error) {
	n := s.commits.Add(1)
	return &orders.Detail{ID: uuid.New(), DailyNumber: int(n)}, nil
}

type stubOrders struct {
	orders.Service
	fetched uuid.UUID
}

func (s *stubOrders) Get(_ context.Context, id uuid.UUID) (*orders.Detail, error) {
	s.fetched = id
	return &orders.Detail{ID: id}, nil
}

func (s *stubOrders) List(context.Context, pagination.Params, orders.ListFilters) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

type fixture struct {
	router   http.Handler
	cart     *stubCart
	checkout *stubCheckout
	orders   *stubOrders
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"https://shop.example.com"}},
		Checkout: config.CheckoutConfig{
			IdempotencyTTL:  time.Hour,
			RateLimitWindow: time.Minute,
			RateLimitIP:     100,
			RateLimitPhone:  2,
		},
	}
	reg := prometheus.NewRegistry()
	metrics.NewCheckoutMetrics(reg).CartRejected("unknown_option")

	f := &fixture{cart: &stubCart{}, checkout: &stubCheckout{}, orders: &stubOrders{}}
	f.router = NewRouter(Deps{
		Config:   cfg,
		Logger:   logger.Nop(),
		DB:       stubPinger{},
		Redis:    redis.NewWithClient(raw),
		Gatherer: reg,
		Cart:     f.cart,
		Checkout: f.checkout,
		Orders:   f.orders,
	})
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func checkoutRequest(key, phone string) *http.Request {
	body := `{"customer_name":"Ana","phone":"` + phone + `","fulfillment":"pickup","payment_method":"pix"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.CartSessionHeader, "5f0c7b5e-3c55-4b55-9f7e-1d1f0f3f6a11")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestHealthRoutes(t *testing.T) {
	f := newFixture(t)

	resp := f.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = f.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestCartRouteMintsSession(t *testing.T) {
	f := newFixture(t)

	resp := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	session := resp.Header().Get(middleware.CartSessionHeader)
	require.NotEmpty(t, session)
	_, err := uuid.Parse(session)
	require.NoError(t, err)
	assert.Equal(t, []string{session}, f.cart.sessions)
}

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	f := newFixture(t)

	resp := f.do(checkoutRequest("", "11 99999-0000"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, f.checkout.commits.Load())
}

func TestCheckoutReplaysDuplicateSubmission(t *testing.T) {
	f := newFixture(t)

	first := f.do(checkoutRequest("order-1", "11 99999-0000"))
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := f.do(checkoutRequest("order-1", "11 99999-0000"))
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.EqualValues(t, 1, f.checkout.commits.Load())
}

func TestCheckoutRateLimitedPerPhone(t *testing.T) {
	f := newFixture(t)

	for i, key := range []string{"a", "b"} {
		resp := f.do(checkoutRequest(key, "(11) 99999-0000"))
		require.Equal(t, http.StatusCreated, resp.Code, "attempt %d", i)
	}
	resp := f.do(checkoutRequest("c", "11999990000"))
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.EqualValues(t, 2, f.checkout.commits.Load())
}

func TestAdminOrderDetailRoute(t *testing.T) {
	f := newFixture(t)
	orderID := uuid.New()

	resp := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders/"+orderID.String(), nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, orderID, f.orders.fetched)
}

func TestUnwiredServiceAnswersInternalError(t *testing.T) {
	f := newFixture(t)

	resp := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/admin/stock/low", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	resp := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `cart_rejections_total{reason="unknown_option"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/checkout", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	resp := f.do(req)

	assert.Equal(t, "https://shop.example.com", resp.Header().Get("Access-Control-Allow-Origin"))
}
