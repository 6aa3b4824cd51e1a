package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type catalogWarmer interface {
	Invalidate(ctx context.Context) error
	LoadCatalog(ctx context.Context) (*catalog.Catalog, error)
}

// NewCatalogWarmJob rebuilds the cached menu snapshot so the first storefront
// request after a quiet period does not pay for the full catalog query.
func NewCatalogWarmJob(logg *logger.Logger, cache catalogWarmer) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cache == nil {
		return nil, fmt.Errorf("catalog cache required")
	}
	return &catalogWarmJob{logg: logg, cache: cache}, nil
}

type catalogWarmJob struct {
	logg  *logger.Logger
	cache catalogWarmer
}

func (j *catalogWarmJob) Name() string { return "catalog_warm" }

func (j *catalogWarmJob) Run(ctx context.Context) error {
	if err := j.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	snapshot, err := j.cache.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("reload catalog: %w", err)
	}
	ctx = j.logg.WithFields(ctx, map[string]any{
		"products":      len(snapshot.Products),
		"extras_groups": len(snapshot.ExtrasGroups),
	})
	j.logg.Info(ctx, "catalog cache warmed")
	return nil
}
