package repositories

import (
	"context"

	domain "github.com/veldpost/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Profiles() ProductProfileRepository
	CarrierConfig() CarrierConfigRepository
	Orders() OrderRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductProfileRepository loads shipping attribute profiles for catalog products.
type ProductProfileRepository interface {
	GetProfiles(ctx context.Context, productIDs []string) (map[string]domain.ProductShippingProfile, error)
}

// CarrierConfigRepository materialises the carrier configuration tree used by
// rate quoting and consignment conversion.
type CarrierConfigRepository interface {
	ConfigTree(ctx context.Context) (domain.ConfigTree, error)
}

// OrderRepository reads shipment orders and updates their workflow status.
type OrderRepository interface {
	GetOrder(ctx context.Context, orderID string) (domain.ShipmentOrder, error)
	SetOrderStatus(ctx context.Context, orderID string, status string) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
