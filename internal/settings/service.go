package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/schedule"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/validation"
)

// DefaultPollSeconds is how often the storefront re-checks the store status.
const DefaultPollSeconds = 30

type settingsReader interface {
	StoreConfig(ctx context.Context) (catalog.StoreConfig, error)
	OpeningHours(ctx context.Context) ([]schedule.Hours, error)
	DeliveryFees(ctx context.Context) ([]catalog.DeliveryFee, error)
}

type settingsWriter interface {
	SaveStoreConfig(ctx context.Context, cfg catalog.StoreConfig) error
	SaveHours(ctx context.Context, days []schedule.Hours) error
	ApplyFees(ctx context.Context, changes FeeChanges) error
}

// StoreConfigInput is the editable store profile.
type StoreConfigInput struct {
	Name                 string     `json:"name" validate:"required,max=120"`
	WhatsApp             string     `json:"whatsapp" validate:"max=32"`
	PixKey               string     `json:"pix_key" validate:"max=140"`
	CoverURL             string     `json:"cover_url" validate:"omitempty,url"`
	LogoURL              string     `json:"logo_url" validate:"omitempty,url"`
	CardDebitFeePercent  money.Rate `json:"card_debit_fee_percent" validate:"gte=0,lte=100"`
	CardCreditFeePercent money.Rate `json:"card_credit_fee_percent" validate:"gte=0,lte=100"`
}

// StoreStatus is what the storefront header polls.
type StoreStatus struct {
	Open        bool             `json:"open"`
	Today       *schedule.Window `json:"today"`
	PollSeconds int              `json:"poll_seconds"`
}

// Service exposes the back-office settings and the public store status.
type Service interface {
	GetStoreConfig(ctx context.Context) (catalog.StoreConfig, error)
	UpdateStoreConfig(ctx context.Context, input StoreConfigInput) (catalog.StoreConfig, error)
	Hours(ctx context.Context) ([]schedule.Hours, error)
	ApplyHours(ctx context.Context, draft HoursDraft) ([]schedule.Hours, error)
	Fees(ctx context.Context) ([]catalog.DeliveryFee, error)
	ApplyFees(ctx context.Context, draft FeesDraft) (FeeChanges, error)
	Status(ctx context.Context) (StoreStatus, error)
}

// Deps groups the settings collaborators. Invalidator and Logger are optional.
type Deps struct {
	Reader      settingsReader
	Writer      settingsWriter
	Loader      catalog.Loader
	Clock       schedule.Clock
	Invalidator catalog.Invalidator
	PollSeconds int
	Logger      *logger.Logger
}

type service struct {
	reader      settingsReader
	writer      settingsWriter
	loader      catalog.Loader
	clock       schedule.Clock
	invalidator catalog.Invalidator
	pollSeconds int
	logg        *logger.Logger
}

// NewService builds the settings service.
func NewService(deps Deps) (Service, error) {
	if deps.Reader == nil {
		return nil, fmt.Errorf("settings reader required")
	}
	if deps.Writer == nil {
		return nil, fmt.Errorf("settings writer required")
	}
	if deps.Loader == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if deps.Clock == nil {
		return nil, fmt.Errorf("clock required")
	}
	if deps.PollSeconds <= 0 {
		deps.PollSeconds = DefaultPollSeconds
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &service{
		reader:      deps.Reader,
		writer:      deps.Writer,
		loader:      deps.Loader,
		clock:       deps.Clock,
		invalidator: deps.Invalidator,
		pollSeconds: deps.PollSeconds,
		logg:        deps.Logger,
	}, nil
}

func (s *service) GetStoreConfig(ctx context.Context) (catalog.StoreConfig, error) {
	cfg, err := s.reader.StoreConfig(ctx)
	if err != nil {
		return catalog.StoreConfig{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store config")
	}
	return cfg, nil
}

func (s *service) UpdateStoreConfig(ctx context.Context, input StoreConfigInput) (catalog.StoreConfig, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return catalog.StoreConfig{}, err
	}
	cfg := catalog.StoreConfig{
		Name:                 input.Name,
		WhatsApp:             strings.TrimSpace(input.WhatsApp),
		PixKey:               strings.TrimSpace(input.PixKey),
		CoverURL:             input.CoverURL,
		LogoURL:              input.LogoURL,
		CardDebitFeePercent:  input.CardDebitFeePercent.Decimal,
		CardCreditFeePercent: input.CardCreditFeePercent.Decimal,
	}
	if err := s.writer.SaveStoreConfig(ctx, cfg); err != nil {
		return catalog.StoreConfig{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save store config")
	}
	s.invalidate(ctx, "settings.store_config_saved")
	return cfg, nil
}

func (s *service) Hours(ctx context.Context) ([]schedule.Hours, error) {
	hours, err := s.reader.OpeningHours(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load opening hours")
	}
	return hours, nil
}

// ApplyHours writes only the weekdays that changed and returns them.
func (s *service) ApplyHours(ctx context.Context, draft HoursDraft) ([]schedule.Hours, error) {
	current, err := s.Hours(ctx)
	if err != nil {
		return nil, err
	}
	changed, err := DiffHours(current, draft)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return []schedule.Hours{}, nil
	}
	if err := s.writer.SaveHours(ctx, changed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save opening hours")
	}
	s.invalidate(s.logg.WithField(ctx, "days_changed", len(changed)), "settings.hours_saved")
	return changed, nil
}

func (s *service) Fees(ctx context.Context) ([]catalog.DeliveryFee, error) {
	fees, err := s.reader.DeliveryFees(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery fees")
	}
	return fees, nil
}

// ApplyFees reconciles the stored fee table with draft and returns the change set.
func (s *service) ApplyFees(ctx context.Context, draft FeesDraft) (FeeChanges, error) {
	current, err := s.Fees(ctx)
	if err != nil {
		return FeeChanges{}, err
	}
	changes, err := DiffFees(current, draft)
	if err != nil {
		return FeeChanges{}, err
	}
	if changes.Empty() {
		return changes, nil
	}
	if err := s.writer.ApplyFees(ctx, changes); err != nil {
		return FeeChanges{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save delivery fees")
	}
	s.invalidate(s.logg.WithFields(ctx, map[string]any{
		"created": len(changes.Create),
		"updated": len(changes.Update),
		"deleted": len(changes.Delete),
	}), "settings.fees_saved")
	return changes, nil
}

// Status evaluates today's opening window against the cached snapshot.
func (s *service) Status(ctx context.Context) (StoreStatus, error) {
	menu, err := s.loader.LoadCatalog(ctx)
	if err != nil {
		return StoreStatus{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog")
	}
	status := schedule.Evaluate(menu.OpeningHours(), s.clock.Now())
	return StoreStatus{Open: status.Open, Today: status.Today, PollSeconds: s.pollSeconds}, nil
}

func (s *service) invalidate(ctx context.Context, event string) {
	s.logg.Info(ctx, event)
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "settings.cache_invalidate_failed")
	}
}
