package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domain "github.com/parcelforward/api/internal/domain"
	"github.com/parcelforward/api/internal/platform/config"
	pfirestore "github.com/parcelforward/api/internal/platform/firestore"
	"github.com/parcelforward/api/internal/repositories"
	firestoreRepo "github.com/parcelforward/api/internal/repositories/firestore"
	"github.com/parcelforward/api/internal/services"
)

// Services bundles the calculation services the surrounding quote and
// checkout layer relies upon.
type Services struct {
	Zones       *services.ZoneResolver
	Rates       *services.RateCalculator
	StorageFees *services.StorageFeeCalculator
}

// Container wires configuration, repositories, and the calculation services
// for runtime use. The surrounding HTTP layer owns request handling; this
// core only exposes assembled calculators.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies over the supplied
// registry. Production wiring passes a Firestore registry, while tests can
// supply in-memory repositories.
func NewContainer(cfg config.Config, reg repositories.Registry, logger *zap.Logger) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	svc, err := buildServices(cfg, reg, logger)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// NewFirestoreContainer assembles a container backed by Firestore using the
// supplied configuration.
func NewFirestoreContainer(cfg config.Config, logger *zap.Logger) (*Container, error) {
	provider := pfirestore.NewProvider(cfg.Firestore)
	reg, err := firestoreRepo.NewRegistry(provider)
	if err != nil {
		return nil, fmt.Errorf("build firestore registry: %w", err)
	}
	return NewContainer(cfg, reg, logger)
}

// Close releases repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(cfg config.Config, reg repositories.Registry, logger *zap.Logger) (Services, error) {
	zones, err := services.NewZoneResolver(services.ZoneResolverDeps{
		Zones:  reg.Zones(),
		Logger: logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build zone resolver: %w", err)
	}

	rates, err := services.NewRateCalculator(services.RateCalculatorDeps{
		Zones:      zones,
		Rates:      reg.Rates(),
		Warehouses: reg.Warehouses(),
		Packages:   reg.Packages(),
		Logger:     logger,
		Clock:      time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build rate calculator: %w", err)
	}

	storageFees, err := services.NewStorageFeeCalculator(services.StorageFeeCalculatorDeps{
		Pricing:  reg.StoragePricing(),
		Bins:     reg.Bins(),
		Packages: reg.Packages(),
		Fallback: domain.StoragePricing{
			FreeDays:           cfg.StorageDefault.FreeDays,
			DailyRateAfterFree: cfg.StorageDefault.DailyRate,
			Currency:           cfg.StorageDefault.Currency,
		},
		Logger: logger,
		Clock:  time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build storage fee calculator: %w", err)
	}

	return Services{
		Zones:       zones,
		Rates:       rates,
		StorageFees: storageFees,
	}, nil
}
