package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/veldpost/api/internal/domain"
)

// ErrQuoteInvalidInput signals bad request data such as a missing base rate or
// destination country.
var ErrQuoteInvalidInput = errors.New("rate quote: invalid input")

const parentMethodsPath = "shipping_methods/methods"

// RateService is the checkout-facing quoting routine: it batches the attribute
// lookups, classifies the cart per carrier and delegates candidate pricing to
// the pure RateBuilder.
type RateService struct {
	profiles   ProfileRepository
	config     ConfigRepository
	classifier *PackageClassifier
	settings   *CarrierSettingsLoader
	builder    *RateBuilder
	logger     func(context.Context, string, map[string]any)
}

// RateServiceDeps lists the collaborators required by NewRateService.
type RateServiceDeps struct {
	Profiles   ProfileRepository
	Config     ConfigRepository
	Classifier *PackageClassifier
	Settings   *CarrierSettingsLoader
	Builder    *RateBuilder
	Logger     func(context.Context, string, map[string]any)
}

// NewRateService constructs the quoting service.
func NewRateService(deps RateServiceDeps) (*RateService, error) {
	if deps.Profiles == nil {
		return nil, errors.New("rate service: profile repository is required")
	}
	if deps.Config == nil {
		return nil, errors.New("rate service: config repository is required")
	}
	if deps.Classifier == nil {
		deps.Classifier = NewPackageClassifier()
	}
	if deps.Settings == nil {
		deps.Settings = NewCarrierSettingsLoader(deps.Logger)
	}
	if deps.Builder == nil {
		deps.Builder = NewRateBuilder()
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}
	return &RateService{
		profiles:   deps.Profiles,
		config:     deps.Config,
		classifier: deps.Classifier,
		settings:   deps.Settings,
		builder:    deps.Builder,
		logger:     deps.Logger,
	}, nil
}

// QuoteRatesCommand carries one base rate and the cart it applies to.
type QuoteRatesCommand struct {
	BaseRate           BaseRate
	DestinationCountry string
	Items              []LineItem
}

// QuoteRates returns every purchasable carrier candidate for the cart, in the
// builder's fixed enumeration order. A destination or parent method outside
// the configured gates yields an empty result, not an error.
func (s *RateService) QuoteRates(ctx context.Context, cmd QuoteRatesCommand) ([]RateCandidate, error) {
	if strings.TrimSpace(cmd.BaseRate.Method) == "" {
		return nil, fmt.Errorf("%w: base rate method is required", ErrQuoteInvalidInput)
	}
	if strings.TrimSpace(cmd.DestinationCountry) == "" {
		return nil, fmt.Errorf("%w: destination country is required", ErrQuoteInvalidInput)
	}

	tree, err := s.config.ConfigTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("rate quote: load configuration: %w", err)
	}

	if !s.parentMethodAllowed(tree, cmd.BaseRate.Carrier) {
		return nil, nil
	}

	items, err := s.classifiableItems(ctx, cmd.Items)
	if err != nil {
		return nil, err
	}

	if s.classifier.DeliveryOptionsDisabled(items) {
		s.logger(ctx, "delivery options disabled by product attribute", map[string]any{"items": len(items)})
		return nil, nil
	}

	var out []RateCandidate
	for _, carrier := range domain.Carriers() {
		if !carrier.QuotesCountry(cmd.DestinationCountry) {
			continue
		}
		if !tree.Bool(carrier.SettingsRoot + "delivery/active") {
			continue
		}

		defaults := s.settings.Load(ctx, tree, carrier)
		packageType := s.classifier.Classify(items, defaults, carrier, cmd.DestinationCountry)

		out = append(out, s.builder.Build(cmd.BaseRate, tree, carrier, packageType, defaults.PickupMailboxActive)...)
	}

	return out, nil
}

// parentMethodAllowed checks the incoming rate's carrier against the
// configured allow-list of parent shipping methods, preventing candidate
// duplication across unrelated carriers.
func (s *RateService) parentMethodAllowed(tree ConfigTree, parentCarrier string) bool {
	raw, _ := tree.Value(parentMethodsPath)
	for _, method := range strings.Split(raw, ",") {
		if method = strings.TrimSpace(method); method != "" && method == parentCarrier {
			return true
		}
	}
	return false
}

func (s *RateService) classifiableItems(ctx context.Context, items []LineItem) ([]ClassifiableItem, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	profiles, err := s.profiles.GetProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("rate quote: load product profiles: %w", err)
	}

	out := make([]ClassifiableItem, 0, len(items))
	for _, item := range items {
		out = append(out, ClassifiableItem{Item: item, Profile: profiles[item.ProductID]})
	}
	return out, nil
}
