package services

import (
	"context"

	domain "github.com/veldpost/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	PackageType             = domain.PackageType
	ProductShippingProfile  = domain.ProductShippingProfile
	LineItem                = domain.LineItem
	CarrierDefaults         = domain.CarrierDefaults
	ExplicitOptions         = domain.ExplicitOptions
	ResolvedShipmentOptions = domain.ResolvedShipmentOptions
	ShipmentOrder           = domain.ShipmentOrder
	DeliveryDetails         = domain.DeliveryDetails
	PickupLocation          = domain.PickupLocation
	Address                 = domain.Address
	Carrier                 = domain.Carrier
	ConfigTree              = domain.ConfigTree
	BaseRate                = domain.BaseRate
	RateCandidate           = domain.RateCandidate
	Consignment             = domain.Consignment
	CustomsItem             = domain.CustomsItem
)

// ProfileRepository loads product shipping profiles in one batch per order.
type ProfileRepository interface {
	// GetProfiles returns a profile for every requested product id. Products
	// without stored attributes map to a zero-value profile; absence of an
	// attribute is a valid state, never an error.
	GetProfiles(ctx context.Context, productIDs []string) (map[string]ProductShippingProfile, error)
}

// ConfigRepository provides the merchant's hierarchical settings snapshot.
type ConfigRepository interface {
	ConfigTree(ctx context.Context) (ConfigTree, error)
}

// OrderRepository exposes the order projection the decision components read
// and the status write-back used when consignment building fails.
type OrderRepository interface {
	GetOrder(ctx context.Context, orderID string) (ShipmentOrder, error)
	SetOrderStatus(ctx context.Context, orderID string, status string) error
}

// ConsignmentPublisher hands validated consignments to the asynchronous
// registration pipeline.
type ConsignmentPublisher interface {
	PublishConsignmentRegistered(ctx context.Context, consignment Consignment) (string, error)
}
