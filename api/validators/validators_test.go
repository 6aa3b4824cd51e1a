package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type addItemBody struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Delta     int    `json:"delta" validate:"required"`
}

func TestDecodeJSONBody(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"product_id":"` + uuid.NewString() + `","delta":1}`},
		{name: "unknown field", body: `{"product_id":"` + uuid.NewString() + `","delta":1,"price":"0.01"}`, wantErr: true},
		{name: "malformed", body: `{"product_id":`, wantErr: true},
		{name: "missing delta", body: `{"product_id":"` + uuid.NewString() + `"}`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(tc.body))
			var dest addItemBody
			err := DecodeJSONBody(req, &dest)
			if tc.wantErr {
				if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders?limit=10&bad=x&big=500", nil)
	if got, err := ParseQueryInt(req, "limit", 25, 1, 100); err != nil || got != 10 {
		t.Fatalf("expected 10, got %d (%v)", got, err)
	}
	if got, err := ParseQueryInt(req, "missing", 25, 1, 100); err != nil || got != 25 {
		t.Fatalf("expected default 25, got %d (%v)", got, err)
	}
	if _, err := ParseQueryInt(req, "bad", 25, 1, 100); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for non-numeric, got %v", err)
	}
	if _, err := ParseQueryInt(req, "big", 25, 1, 100); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for out of range, got %v", err)
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("orderId", value)
		req := httptest.NewRequest(http.MethodGet, "/orders/"+value, nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	got, err := ParseUUIDParam(withParam(id.String()), "orderId")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}
	if _, err := ParseUUIDParam(withParam("not-a-uuid"), "orderId"); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseUUIDParam(withParam(""), "orderId"); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty param, got %v", err)
	}
}
