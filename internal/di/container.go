package di

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/veldpost/api/internal/platform/config"
	"github.com/veldpost/api/internal/platform/observability"
	"github.com/veldpost/api/internal/repositories"
	"github.com/veldpost/api/internal/services"
)

// Repositories bundles the persistence and messaging contracts the services
// rely upon. Production wiring provides Firestore and Pub/Sub implementations,
// tests supply stubs.
type Repositories struct {
	Profiles  services.ProfileRepository
	Config    services.ConfigRepository
	Orders    services.OrderRepository
	Health    repositories.HealthRepository
	Publisher services.ConsignmentPublisher
}

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Rates        *services.RateService
	Consignments *services.ConsignmentService
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories Repositories
	Services     Services
}

// NewContainer constructs the runtime dependencies.
func NewContainer(ctx context.Context, cfg config.Config, repos Repositories, logger *zap.Logger) (*Container, error) {
	if repos.Profiles == nil {
		return nil, errors.New("profile repository is required")
	}
	if repos.Config == nil {
		return nil, errors.New("config repository is required")
	}
	if repos.Orders == nil {
		return nil, errors.New("order repository is required")
	}

	log := serviceLogger(logger)

	rates, err := services.NewRateService(services.RateServiceDeps{
		Profiles: repos.Profiles,
		Config:   repos.Config,
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("build rate service: %w", err)
	}

	consignments, err := services.NewConsignmentService(services.ConsignmentServiceDeps{
		Orders:         repos.Orders,
		Profiles:       repos.Profiles,
		Config:         repos.Config,
		Publisher:      repos.Publisher,
		APIKey:         cfg.Carrier.APIKey,
		DefaultCarrier: cfg.Carrier.DefaultCarrier,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("build consignment service: %w", err)
	}

	return &Container{
		Config:       cfg,
		Repositories: repos,
		Services: Services{
			Rates:        rates,
			Consignments: consignments,
		},
	}, nil
}

// serviceLogger adapts the zap logger to the field-map callback the services
// use. A nil logger falls back to the context-scoped logger so request ids and
// trace fields survive.
func serviceLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(ctx context.Context, msg string, fields map[string]any) {
		log := logger
		if log == nil {
			log = observability.FromContext(ctx)
		}
		if log == nil {
			return
		}
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		log.Info(msg, zapFields...)
	}
}
