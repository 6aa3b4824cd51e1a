package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CatalogAdmin is the back-office catalog editor.
type CatalogAdmin interface {
	SaveCategory(ctx context.Context, id *uuid.UUID, in catalog.CategoryInput) (catalog.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	SaveProduct(ctx context.Context, id *uuid.UUID, in catalog.ProductInput) (catalog.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	SaveExtrasGroup(ctx context.Context, id *uuid.UUID, in catalog.ExtrasGroupInput) (catalog.ExtrasGroup, error)
	DeleteExtrasGroup(ctx context.Context, id uuid.UUID) error
	SetProductExtras(ctx context.Context, productID uuid.UUID, groupIDs []uuid.UUID) error
}

type productExtrasRequest struct {
	GroupIDs []uuid.UUID `json:"group_ids"`
}

// AdminCatalog returns the full snapshot, including cost prices and raw stock.
func AdminCatalog(loader catalog.Loader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if loader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog loader unavailable"))
			return
		}
		snapshot, err := loader.LoadCatalog(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog"))
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// AdminSaveCategory creates a category, or updates the one named by the route.
func AdminSaveCategory(svc CatalogAdmin, logg *logger.Logger) http.HandlerFunc {
	return saveHandler(svc == nil, "categoryId", logg, func(r *http.Request, id *uuid.UUID) (any, error) {
		var payload catalog.CategoryInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SaveCategory(r.Context(), id, payload)
	})
}

func AdminDeleteCategory(svc CatalogAdmin, logg *logger.Logger) http.HandlerFunc {
	return deleteHandler(svc == nil, "categoryId", logg, func(ctx context.Context, id uuid.UUID) error {
		return svc.DeleteCategory(ctx, id)
	})
}

func AdminSaveProduct(svc CatalogAdmin, logg *logger.Logger) http.HandlerFunc {
	return saveHandler(svc == nil, "productId", logg, func(r *http.Request, id *uuid.UUID) (any, error) {
		var payload catalog.ProductInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SaveProduct(r.Context(), id, payload)
	})
}

func AdminDeleteProduct(svc CatalogAdmin, logg *logger.Logger) http.HandlerFunc {
	return deleteHandler(svc == nil, "productId", logg, func(ctx context.Context, id uuid.UUID) error {
		return svc.DeleteProduct(ctx, id)
	})
}

func AdminSaveExtrasGroup(svc CatalogAdmin, logg *logger.Logger) http.HandlerFunc {
	return saveHandler(svc == nil, "groupId", logg, func(r *http.Request, id *uuid.UUID) (any, error) {
		var payload catalog.ExtrasGroupInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SaveExtrasGroup(r.Context(), id, payload)
	})
}

func AdminDeleteExtrasGroup(svc CatalogAdmin, logg *logger.Logger) http.HandlerFunc {
	return deleteHandler(svc == nil, "groupId", logg, func(ctx context.Context, id uuid.UUID) error {
		return svc.DeleteExtrasGroup(ctx, id)
	})
}

// AdminSetProductExtras replaces the extras groups linked to a product.
func AdminSetProductExtras(svc CatalogAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog admin unavailable"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload productExtrasRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetProductExtras(r.Context(), productID, payload.GroupIDs); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// saveHandler serves both POST (create, no route id) and PUT (update).
func saveHandler(missing bool, param string, logg *logger.Logger, save func(*http.Request, *uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if missing {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog admin unavailable"))
			return
		}

		var id *uuid.UUID
		status := http.StatusCreated
		if r.Method != http.MethodPost {
			parsed, err := validators.ParseUUIDParam(r, param)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			id = &parsed
			status = http.StatusOK
		}

		saved, err := save(r, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, saved)
	}
}

func deleteHandler(missing bool, param string, logg *logger.Logger, del func(context.Context, uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if missing {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog admin unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := del(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
