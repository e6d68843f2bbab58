package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/oklog/ulid/v2"

	domain "github.com/veldpost/api/internal/domain"
)

var (
	// ErrUnknownPackageType is returned when checkout supplies a package type
	// name outside the known table. This indicates version skew or corrupted
	// order data; conversion must fail rather than silently defaulting.
	ErrUnknownPackageType = errors.New("consignment: unknown package type")
	// ErrDigitalStampWeight is returned when a digital-stamp shipment's weight
	// cannot be determined from any source. Such a consignment cannot be
	// physically dispatched.
	ErrDigitalStampWeight = errors.New("consignment: digital stamp weight undetermined")
	// ErrConsignmentInvalid wraps builder validation failures, including bad
	// addresses and a missing carrier API key.
	ErrConsignmentInvalid = errors.New("consignment: validation failed")
	// ErrUnknownCarrier is returned when the requested carrier is not part of
	// the registry.
	ErrUnknownCarrier = errors.New("consignment: unknown carrier")
)

// OrderStatusNew is the status an order is forced back to when conversion
// fails, so the merchant can fix the data and retry.
const OrderStatusNew = "new"

const (
	countryOfOriginPath = "print/country_of_origin"
	explicitDefault     = "default"
)

// ConsignmentService converts a finalized order into a validated carrier
// consignment and hands it to the asynchronous registration pipeline.
type ConsignmentService struct {
	orders     OrderRepository
	profiles   ProfileRepository
	config     ConfigRepository
	classifier *PackageClassifier
	settings   *CarrierSettingsLoader
	resolver   *ShipmentOptionsResolver
	publisher  ConsignmentPublisher
	apiKey     string
	carrier    string
	logger     func(context.Context, string, map[string]any)
	newRef     func() string
}

// ConsignmentServiceDeps lists the collaborators required by NewConsignmentService.
type ConsignmentServiceDeps struct {
	Orders    OrderRepository
	Profiles  ProfileRepository
	Config    ConfigRepository
	Publisher ConsignmentPublisher
	// APIKey is the resolved carrier account key. Left empty it surfaces as a
	// consignment validation failure, never a panic.
	APIKey string
	// DefaultCarrier is the merchant-configured fallback when neither the
	// request nor the checkout choice names one. Empty falls back to postnl.
	DefaultCarrier string
	Logger         func(context.Context, string, map[string]any)
	NewRef         func() string
}

// NewConsignmentService constructs the conversion service.
func NewConsignmentService(deps ConsignmentServiceDeps) (*ConsignmentService, error) {
	if deps.Orders == nil {
		return nil, errors.New("consignment service: order repository is required")
	}
	if deps.Profiles == nil {
		return nil, errors.New("consignment service: profile repository is required")
	}
	if deps.Config == nil {
		return nil, errors.New("consignment service: config repository is required")
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}
	if deps.NewRef == nil {
		deps.NewRef = func() string { return ulid.Make().String() }
	}
	if strings.TrimSpace(deps.DefaultCarrier) == "" {
		deps.DefaultCarrier = domain.DefaultCarrierName
	}
	return &ConsignmentService{
		orders:     deps.Orders,
		profiles:   deps.Profiles,
		config:     deps.Config,
		classifier: NewPackageClassifier(),
		settings:   NewCarrierSettingsLoader(deps.Logger),
		resolver:   NewShipmentOptionsResolver(),
		publisher:  deps.Publisher,
		apiKey:     deps.APIKey,
		carrier:    strings.ToLower(strings.TrimSpace(deps.DefaultCarrier)),
		logger:     deps.Logger,
		newRef:     deps.NewRef,
	}, nil
}

// ConvertOrderCommand names the order plus the explicit option overrides
// chosen on the shipment form.
type ConvertOrderCommand struct {
	OrderID string
	Options ExplicitOptions
}

// ConvertOrderResult carries the validated consignment and, when publishing is
// wired, the pipeline message id.
type ConvertOrderResult struct {
	Consignment Consignment
	MessageID   string
}

// Convert builds the consignment for one order. The explicit package-type
// choice wins over classification; an age check always forces the ordinary
// package product. On validation failure the order is pushed back to status
// "new" so it can be retried after correction.
func (s *ConsignmentService) Convert(ctx context.Context, cmd ConvertOrderCommand) (ConvertOrderResult, error) {
	order, err := s.orders.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return ConvertOrderResult{}, fmt.Errorf("consignment: load order %s: %w", cmd.OrderID, err)
	}

	tree, err := s.config.ConfigTree(ctx)
	if err != nil {
		return ConvertOrderResult{}, fmt.Errorf("consignment: load configuration: %w", err)
	}

	carrier, err := s.resolveCarrier(cmd.Options, order)
	if err != nil {
		return ConvertOrderResult{}, err
	}

	items, profiles, err := s.classifiableItems(ctx, order)
	if err != nil {
		return ConvertOrderResult{}, err
	}

	defaults := s.settings.Load(ctx, tree, carrier)

	packageType, err := s.packageType(cmd.Options, order, items, defaults, carrier)
	if err != nil {
		return ConvertOrderResult{}, err
	}

	resolved := s.resolver.Resolve(ResolveOptionsInput{
		Order:    order,
		Profiles: profiles,
		Carrier:  carrier,
		Explicit: cmd.Options,
		Defaults: defaults,
		Tree:     tree,
	})
	if resolved.AgeCheck {
		packageType = domain.PackageTypePackage
	}

	weight, err := s.dispatchWeight(packageType, cmd.Options, order, defaults)
	if err != nil {
		return ConvertOrderResult{}, err
	}

	builder := domain.NewConsignmentBuilder(carrier.Name).
		WithAPIKey(s.apiKey).
		WithReference(s.newRef()).
		WithInvoice(order.IncrementID).
		WithPackageType(packageType).
		WithOptions(resolved).
		WithPhysicalWeight(weight)

	if order.ShippingAddress != nil {
		builder.WithRecipient(*order.ShippingAddress)
	}
	if order.Delivery != nil {
		builder.WithDeliveryDate(order.Delivery.Date)
		builder.WithPickup(order.Delivery.Pickup)
	}
	if delay := s.classifier.DropOffDelay(items); delay != nil {
		builder.WithDropOffDelay(*delay)
	}
	if !carrier.CoversCountry(order.DestinationCountry()) {
		builder.WithCustomsItems(s.customsItems(tree, order, profiles))
	}

	consignment, err := builder.Build()
	if err != nil {
		s.logger(ctx, "consignment validation failed", map[string]any{
			"order": order.IncrementID,
			"error": err.Error(),
		})
		if statusErr := s.orders.SetOrderStatus(ctx, order.ID, OrderStatusNew); statusErr != nil {
			s.logger(ctx, "order status reset failed", map[string]any{"order": order.ID, "error": statusErr.Error()})
		}
		return ConvertOrderResult{}, fmt.Errorf("%w: order %s: %w", ErrConsignmentInvalid, order.IncrementID, err)
	}

	result := ConvertOrderResult{Consignment: consignment}
	if s.publisher != nil {
		messageID, err := s.publisher.PublishConsignmentRegistered(ctx, consignment)
		if err != nil {
			return ConvertOrderResult{}, fmt.Errorf("consignment: publish order %s: %w", order.IncrementID, err)
		}
		result.MessageID = messageID
	}

	return result, nil
}

func (s *ConsignmentService) resolveCarrier(opts ExplicitOptions, order ShipmentOrder) (Carrier, error) {
	name := strings.TrimSpace(opts.Carrier)
	if name == "" || name == explicitDefault {
		if order.Delivery != nil && strings.TrimSpace(order.Delivery.Carrier) != "" {
			name = order.Delivery.Carrier
		} else {
			name = s.carrier
		}
	}
	carrier, ok := domain.CarrierByName(name)
	if !ok {
		return Carrier{}, fmt.Errorf("%w: %q", ErrUnknownCarrier, name)
	}
	return carrier, nil
}

// packageType applies the explicit choice when one was made; "default" and the
// empty string fall back to the checkout-recorded type and finally to fresh
// classification. Unknown names are a hard error.
func (s *ConsignmentService) packageType(opts ExplicitOptions, order ShipmentOrder, items []ClassifiableItem, defaults CarrierDefaults, carrier Carrier) (PackageType, error) {
	name := strings.TrimSpace(opts.PackageType)
	if (name == "" || name == explicitDefault) && order.Delivery != nil {
		name = strings.TrimSpace(order.Delivery.PackageType)
	}

	if name == "" || name == explicitDefault {
		return s.classifier.Classify(items, defaults, carrier, order.DestinationCountry()), nil
	}

	packageType, ok := domain.ParsePackageType(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPackageType, name)
	}
	return packageType, nil
}

// dispatchWeight determines the physical weight for digital-stamp shipments:
// explicit option, then the carrier's configured default, then the summed item
// weights. Zero from every source is a hard error.
func (s *ConsignmentService) dispatchWeight(packageType PackageType, opts ExplicitOptions, order ShipmentOrder, defaults CarrierDefaults) (int, error) {
	if packageType != domain.PackageTypeDigitalStamp {
		return 0, nil
	}

	if opts.DigitalStampWeight != nil && *opts.DigitalStampWeight > 0 {
		return *opts.DigitalStampWeight, nil
	}
	if defaults.DigitalStampDefaultWeightGrams > 0 {
		return defaults.DigitalStampDefaultWeightGrams, nil
	}

	total := 0.0
	for _, item := range order.Items {
		total += item.TotalWeightGrams()
	}
	if grams := int(math.Round(total)); grams > 0 {
		return grams, nil
	}

	return 0, fmt.Errorf("%w: order %s", ErrDigitalStampWeight, order.IncrementID)
}

// customsItems declares every order line for destinations outside the covered
// region. A product without a stored country of origin falls back to the
// merchant's configured default.
func (s *ConsignmentService) customsItems(tree ConfigTree, order ShipmentOrder, profiles map[string]ProductShippingProfile) []CustomsItem {
	fallbackCountry, _ := tree.Value(countryOfOriginPath)

	out := make([]CustomsItem, 0, len(order.Items))
	for _, item := range order.Items {
		profile := profiles[item.ProductID]

		origin := profile.CountryOfOrigin
		if origin == "" {
			origin = fallbackCountry
		}

		weight := int(math.Round(item.TotalWeightGrams()))
		if weight < 1 {
			weight = 1
		}

		out = append(out, CustomsItem{
			Description:     item.Name,
			Amount:          item.Quantity,
			WeightGrams:     weight,
			ItemValueCents:  int64(math.Round(item.UnitPrice * 100)),
			Classification:  profile.HSClassification,
			CountryOfOrigin: origin,
		})
	}
	return out
}

func (s *ConsignmentService) classifiableItems(ctx context.Context, order ShipmentOrder) ([]ClassifiableItem, map[string]ProductShippingProfile, error) {
	ids := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}

	profiles, err := s.profiles.GetProfiles(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("consignment: load product profiles: %w", err)
	}

	items := make([]ClassifiableItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ClassifiableItem{Item: item, Profile: profiles[item.ProductID]})
	}
	return items, profiles, nil
}
