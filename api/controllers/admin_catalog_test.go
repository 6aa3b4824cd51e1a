package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type stubCatalogAdmin struct {
	savedCategory *uuid.UUID
	deleted       []uuid.UUID
	links         map[uuid.UUID][]uuid.UUID
	deleteErr     error
}

func (s *stubCatalogAdmin) SaveCategory(_ context.Context, id *uuid.UUID, in catalog.CategoryInput) (catalog.Category, error) {
	s.savedCategory = id
	out := catalog.Category{ID: uuid.New(), Name: in.Name, Position: in.Position}
	if id != nil {
		out.ID = *id
	}
	return out, nil
}

func (s *stubCatalogAdmin) DeleteCategory(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return s.deleteErr
}

func (s *stubCatalogAdmin) SaveProduct(_ context.Context, id *uuid.UUID, in catalog.ProductInput) (catalog.Product, error) {
	return catalog.Product{ID: uuid.New(), Name: in.Name, Price: in.Price.Decimal}, nil
}

func (s *stubCatalogAdmin) DeleteProduct(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return s.deleteErr
}

func (s *stubCatalogAdmin) SaveExtrasGroup(_ context.Context, id *uuid.UUID, in catalog.ExtrasGroupInput) (catalog.ExtrasGroup, error) {
	return catalog.ExtrasGroup{ID: uuid.New(), Name: in.Name}, nil
}

func (s *stubCatalogAdmin) DeleteExtrasGroup(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return s.deleteErr
}

func (s *stubCatalogAdmin) SetProductExtras(_ context.Context, productID uuid.UUID, groupIDs []uuid.UUID) error {
	if s.links == nil {
		s.links = map[uuid.UUID][]uuid.UUID{}
	}
	s.links[productID] = groupIDs
	return nil
}

func TestAdminSaveCategoryCreateAndUpdate(t *testing.T) {
	svc := &stubCatalogAdmin{}
	handler := AdminSaveCategory(svc, logger.Nop())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Burgers","position":1}`)))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Nil(t, svc.savedCategory)

	id := uuid.New()
	req := withURLParam(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"name":"Drinks"}`)), "categoryId", id.String())
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NotNil(t, svc.savedCategory)
	assert.Equal(t, id, *svc.savedCategory)

	var out catalog.Category
	decodeData(t, resp, &out)
	assert.Equal(t, "Drinks", out.Name)
}

func TestAdminSaveProductRejectsNegativePrice(t *testing.T) {
	resp := httptest.NewRecorder()
	body := `{"name":"Soda","price":"-1"}`
	AdminSaveProduct(&stubCatalogAdmin{}, logger.Nop()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeErrorCode(t, resp))
}

func TestAdminSaveProductAcceptsCommaDecimal(t *testing.T) {
	resp := httptest.NewRecorder()
	body := `{"name":"Soda","price":"R$ 1.234,50"}`
	AdminSaveProduct(&stubCatalogAdmin{}, logger.Nop()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var out catalog.Product
	decodeData(t, resp, &out)
	assert.Equal(t, "1234.5", out.Price.String())
}

func TestAdminSaveExtrasGroupRejectsMaxBelowMin(t *testing.T) {
	resp := httptest.NewRecorder()
	body := `{"name":"Sauces","min_selection":2,"max_selection":1}`
	AdminSaveExtrasGroup(&stubCatalogAdmin{}, logger.Nop()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminDeleteHandlers(t *testing.T) {
	svc := &stubCatalogAdmin{}
	id := uuid.New()

	for _, handler := range []http.HandlerFunc{
		AdminDeleteCategory(svc, logger.Nop()),
		AdminDeleteProduct(svc, logger.Nop()),
		AdminDeleteExtrasGroup(svc, logger.Nop()),
	} {
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		req = withURLParam(req, "categoryId", id.String())
		req = withURLParam(req, "productId", id.String())
		req = withURLParam(req, "groupId", id.String())
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusNoContent, resp.Code)
	}
	assert.Equal(t, []uuid.UUID{id, id, id}, svc.deleted)
}

func TestAdminDeleteMapsNotFound(t *testing.T) {
	svc := &stubCatalogAdmin{deleteErr: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/", nil), "productId", uuid.NewString())
	resp := httptest.NewRecorder()
	AdminDeleteProduct(svc, logger.Nop()).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAdminSetProductExtras(t *testing.T) {
	svc := &stubCatalogAdmin{}
	productID, groupA, groupB := uuid.New(), uuid.New(), uuid.New()
	body := `{"group_ids":["` + groupA.String() + `","` + groupB.String() + `"]}`
	req := withURLParam(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body)), "productId", productID.String())
	resp := httptest.NewRecorder()
	AdminSetProductExtras(svc, logger.Nop()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, []uuid.UUID{groupA, groupB}, svc.links[productID])
}

type failingLoader struct{}

func (failingLoader) LoadCatalog(context.Context) (*catalog.Catalog, error) {
	return nil, errors.New("db down")
}

func TestAdminCatalogLoaderFailure(t *testing.T) {
	resp := httptest.NewRecorder()
	AdminCatalog(failingLoader{}, logger.Nop()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
