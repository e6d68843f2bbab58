package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/veldpost/api/internal/domain"
)

type stubOrderRepository struct {
	order    ShipmentOrder
	orderErr error

	statusOrderID string
	statusValue   string
	statusCalls   int
	statusErr     error
}

func (s *stubOrderRepository) GetOrder(_ context.Context, orderID string) (ShipmentOrder, error) {
	if s.orderErr != nil {
		return ShipmentOrder{}, s.orderErr
	}
	if orderID != s.order.ID {
		return ShipmentOrder{}, errors.New("order not found")
	}
	return s.order, nil
}

func (s *stubOrderRepository) SetOrderStatus(_ context.Context, orderID, status string) error {
	s.statusCalls++
	s.statusOrderID = orderID
	s.statusValue = status
	return s.statusErr
}

type stubConsignmentPublisher struct {
	published []Consignment
	err       error
}

func (s *stubConsignmentPublisher) PublishConsignmentRegistered(_ context.Context, consignment Consignment) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.published = append(s.published, consignment)
	return "msg_1", nil
}

func convertFixture() (*stubOrderRepository, *stubProfileRepository, *stubConfigRepository, *stubConsignmentPublisher) {
	orders := &stubOrderRepository{
		order: ShipmentOrder{
			ID:          "order_1",
			IncrementID: "100000001",
			ShippingAddress: &Address{
				Recipient:  "J. Jansen",
				Street:     "Keizersgracht 1",
				City:       "Amsterdam",
				PostalCode: "1015AA",
				Country:    "NL",
			},
			Items: []LineItem{
				{ProductID: "p1", Name: "Blue Mug", Quantity: 2, UnitWeightGrams: 300, UnitPrice: 9.95},
			},
		},
	}
	profiles := &stubProfileRepository{}
	config := &stubConfigRepository{values: map[string]string{
		"postnl_settings/mailbox/active": "1",
		"postnl_settings/mailbox/weight": "2000",
	}}
	return orders, profiles, config, &stubConsignmentPublisher{}
}

func newConvertService(t *testing.T, orders *stubOrderRepository, profiles *stubProfileRepository, config *stubConfigRepository, publisher *stubConsignmentPublisher) *ConsignmentService {
	t.Helper()
	svc, err := NewConsignmentService(ConsignmentServiceDeps{
		Orders:    orders,
		Profiles:  profiles,
		Config:    config,
		Publisher: publisher,
		APIKey:    "key_123",
		NewRef:    func() string { return "ref_1" },
	})
	if err != nil {
		t.Fatalf("NewConsignmentService error: %v", err)
	}
	return svc
}

func TestConsignmentService_Convert_ClassifiesAndPublishes(t *testing.T) {
	orders, profiles, config, publisher := convertFixture()
	svc := newConvertService(t, orders, profiles, config, publisher)

	result, err := svc.Convert(context.Background(), ConvertOrderCommand{OrderID: "order_1"})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}

	if result.Consignment.PackageType != domain.PackageTypeMailbox {
		t.Fatalf("expected mailbox classification, got %s", result.Consignment.PackageType)
	}
	if result.Consignment.Carrier != "postnl" {
		t.Fatalf("expected default carrier postnl, got %q", result.Consignment.Carrier)
	}
	if result.Consignment.ReferenceID != "ref_1" {
		t.Fatalf("expected reference ref_1, got %q", result.Consignment.ReferenceID)
	}
	if result.Consignment.InvoiceNumber != "100000001" {
		t.Fatalf("expected invoice 100000001, got %q", result.Consignment.InvoiceNumber)
	}
	if len(result.Consignment.CustomsItems) != 0 {
		t.Fatal("expected no customs items for an EU destination")
	}
	if result.MessageID != "msg_1" {
		t.Fatalf("expected publish message id, got %q", result.MessageID)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected one published consignment, got %d", len(publisher.published))
	}
}

func TestConsignmentService_Convert_ExplicitPackageTypeWins(t *testing.T) {
	orders, profiles, config, publisher := convertFixture()
	svc := newConvertService(t, orders, profiles, config, publisher)

	result, err := svc.Convert(context.Background(), ConvertOrderCommand{
		OrderID: "order_1",
		Options: ExplicitOptions{PackageType: "package"},
	})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if result.Consignment.PackageType != domain.PackageTypePackage {
		t.Fatalf("expected explicit package type, got %s", result.Consignment.PackageType)
	}
}

func TestConsignmentService_Convert_UnknownPackageType(t *testing.T) {
	orders, profiles, config, publisher := convertFixture()
	svc := newConvertService(t, orders, profiles, config, publisher)

	_, err := svc.Convert(context.Background(), ConvertOrderCommand{
		OrderID: "order_1",
		Options: ExplicitOptions{PackageType: "pallet"},
	})
	if !errors.Is(err, ErrUnknownPackageType) {
		t.Fatalf("expected ErrUnknownPackageType, got %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatal("expected nothing published")
	}
}

func TestConsignmentService_Convert_AgeCheckForcesPackage(t *testing.T) {
	orders, profiles, config, publisher := convertFixture()
	profiles.profiles = map[string]ProductShippingProfile{
		"p1": {ProductID: "p1", AgeCheck: boolPtr(true)},
	}
	svc := newConvertService(t, orders, profiles, config, publisher)

	result, err := svc.Convert(context.Background(), ConvertOrderCommand{
		OrderID: "order_1",
		Options: ExplicitOptions{PackageType: "mailbox"},
	})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if !result.Consignment.Options.AgeCheck {
		t.Fatal("expected age check on")
	}
	if result.Consignment.PackageType != domain.PackageTypePackage {
		t.Fatalf("expected age check to force package, got %s", result.Consignment.PackageType)
	}
}

func TestConsignmentService_Convert_DigitalStampWeightChain(t *testing.T) {
	orders, profiles, config, publisher := convertFixture()
	config.values["postnl_settings/digital_stamp/active"] = "1"
	config.values["postnl_settings/digital_stamp/default_weight"] = "350"
	svc := newConvertService(t, orders, profiles, config, publisher)

	// Explicit weight wins over the configured default.
	result, err := svc.Convert(context.Background(), ConvertOrderCommand{
		OrderID: "order_1",
		Options: ExplicitOptions{PackageType: "digital_stamp", DigitalStampWeight: intPtr(120)},
	})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if result.Consignment.PhysicalWeightGrams != 120 {
		t.Fatalf("expected explicit weight 120, got %d", result.Consignment.PhysicalWeightGrams)
	}

	// Without an explicit weight the configured default applies.
	result, err = svc.Convert(context.Background(), ConvertOrderCommand{
		OrderID: "order_1",
		Options: ExplicitOptions{PackageType: "digital_stamp"},
	})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if result.Consignment.PhysicalWeightGrams != 350 {
		t.Fatalf("expected default weight 350, got %d", result.Consignment.PhysicalWeightGrams)
	}
}

func TestConsignmentService_Convert_DigitalStampFallsBackToItemWeight(t *testing.T) {
	orders, profiles, config, publisher := convertFixture()
	config.values["postnl_settings/digital_stamp/active"] = "1"
	svc := newConvertService(t, orders, profiles, config, publisher)

	result, err := svc.Convert(context.Background(), ConvertOrderCommand{
		OrderID: "order_1",
		Options: ExplicitOptions{PackageType: "digital_stamp"},
	})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if result.Consignment.PhysicalWeightGrams != 600 {
		t.Fatalf("expected summed item weight 600, got %d", result.Consignment.PhysicalWeightGrams)
	}
}

func TestConsignmentService_Convert_DigitalStampNoWeightAnywhere(t *testing.T) {
	orders, profiles, config, publisher := convertFixture()
	orders.order.Items = []LineItem{{ProductID: "p1", Name: "Sticker", Quantity: 1, UnitWeightGrams: 0}}
	svc := newConvertService(t, orders, profiles, config, publisher)

	_, err := svc.Convert(context.Background(), ConvertOrderCommand{
		OrderID: "order_1",
		Options: ExplicitOptions{PackageType: "digital_stamp"},
	})
	if !errors.Is(err, ErrDigitalStampWeight) {
		t.Fatalf("expected ErrDigitalStampWeight, got %v", err)
	}
}

func TestConsignmentService_Convert_CustomsItemsOutsideCoveredRegion(t *testing.T) {
	orders, profiles, config, publisher := convertFixture()
	orders.order.ShippingAddress = &Address{
		Recipient:  "J. Smith",
		Street:     "1 Main St",
		City:       "Boston",
		PostalCode: "02101",
		Country:    "US",
	}
	profiles.profiles = map[string]ProductShippingProfile{
		"p1": {ProductID: "p1", HSClassification: 691200, CountryOfOrigin: "DE"},
	}
	config.values["print/country_of_origin"] = "NL"
	svc := newConvertService(t, orders, profiles, config, publisher)

	result, err := svc.Convert(context.Background(), ConvertOrderCommand{OrderID: "order_1"})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}

	items := result.Consignment.CustomsItems
	if len(items) != 1 {
		t.Fatalf("expected one customs item, got %+v", items)
	}
	if items[0].Description != "Blue Mug" || items[0].Amount != 2 {
		t.Fatalf("unexpected customs line: %+v", items[0])
	}
	if items[0].WeightGrams != 600 {
		t.Fatalf("expected line weight 600, got %d", items[0].WeightGrams)
	}
	if items[0].ItemValueCents != 995 {
		t.Fatalf("expected unit value 995 cents, got %d", items[0].ItemValueCents)
	}
	if items[0].Classification != 691200 {
		t.Fatalf("expected HS code carried, got %d", items[0].Classification)
	}
	if items[0].CountryOfOrigin != "DE" {
		t.Fatalf("expected product origin DE, got %q", items[0].CountryOfOrigin)
	}
}

func TestConsignmentService_Convert_CustomsOriginFallback(t *testing.T) {
	orders, profiles, config, publisher := convertFixture()
	orders.order.ShippingAddress = &Address{
		Recipient:  "J. Smith",
		Street:     "1 Main St",
		City:       "Boston",
		PostalCode: "02101",
		Country:    "US",
	}
	config.values["print/country_of_origin"] = "NL"
	svc := newConvertService(t, orders, profiles, config, publisher)

	result, err := svc.Convert(context.Background(), ConvertOrderCommand{OrderID: "order_1"})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if got := result.Consignment.CustomsItems[0].CountryOfOrigin; got != "NL" {
		t.Fatalf("expected configured fallback origin NL, got %q", got)
	}
}

func TestConsignmentService_Convert_ValidationFailureResetsOrder(t *testing.T) {
	orders, profiles, config, publisher := convertFixture()
	orders.order.ShippingAddress = &Address{
		Recipient:  "J. Jansen",
		Street:     "Keizersgracht 1",
		City:       "Amsterdam",
		PostalCode: "123",
		Country:    "NL",
	}
	svc := newConvertService(t, orders, profiles, config, publisher)

	_, err := svc.Convert(context.Background(), ConvertOrderCommand{OrderID: "order_1"})
	if !errors.Is(err, ErrConsignmentInvalid) {
		t.Fatalf("expected ErrConsignmentInvalid, got %v", err)
	}

	if orders.statusCalls != 1 {
		t.Fatalf("expected one status reset, got %d", orders.statusCalls)
	}
	if orders.statusOrderID != "order_1" || orders.statusValue != OrderStatusNew {
		t.Fatalf("expected order_1 reset to %q, got %q=%q", OrderStatusNew, orders.statusOrderID, orders.statusValue)
	}
	if len(publisher.published) != 0 {
		t.Fatal("expected nothing published after validation failure")
	}
}

func TestConsignmentService_Convert_CarrierFromDeliveryDetails(t *testing.T) {
	orders, profiles, config, publisher := convertFixture()
	date := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	orders.order.Delivery = &DeliveryDetails{
		Carrier:     "dhlforyou",
		Date:        &date,
		PackageType: "package",
	}
	svc := newConvertService(t, orders, profiles, config, publisher)

	result, err := svc.Convert(context.Background(), ConvertOrderCommand{OrderID: "order_1"})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if result.Consignment.Carrier != "dhlforyou" {
		t.Fatalf("expected checkout carrier dhlforyou, got %q", result.Consignment.Carrier)
	}
	if result.Consignment.PackageType != domain.PackageTypePackage {
		t.Fatalf("expected checkout package type, got %s", result.Consignment.PackageType)
	}
	if result.Consignment.DeliveryDate == nil || !result.Consignment.DeliveryDate.Equal(date) {
		t.Fatalf("expected delivery date carried, got %v", result.Consignment.DeliveryDate)
	}
}

func TestConsignmentService_Convert_ConfiguredDefaultCarrier(t *testing.T) {
	orders, profiles, config, publisher := convertFixture()
	svc, err := NewConsignmentService(ConsignmentServiceDeps{
		Orders:         orders,
		Profiles:       profiles,
		Config:         config,
		Publisher:      publisher,
		APIKey:         "key_123",
		DefaultCarrier: "DHLForYou",
		NewRef:         func() string { return "ref_1" },
	})
	if err != nil {
		t.Fatalf("NewConsignmentService error: %v", err)
	}

	result, err := svc.Convert(context.Background(), ConvertOrderCommand{OrderID: "order_1"})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if result.Consignment.Carrier != "dhlforyou" {
		t.Fatalf("expected configured default carrier dhlforyou, got %q", result.Consignment.Carrier)
	}
}

func TestConsignmentService_Convert_UnknownCarrier(t *testing.T) {
	orders, profiles, config, publisher := convertFixture()
	svc := newConvertService(t, orders, profiles, config, publisher)

	_, err := svc.Convert(context.Background(), ConvertOrderCommand{
		OrderID: "order_1",
		Options: ExplicitOptions{Carrier: "fedex"},
	})
	if !errors.Is(err, ErrUnknownCarrier) {
		t.Fatalf("expected ErrUnknownCarrier, got %v", err)
	}
}

func TestConsignmentService_Convert_DropOffDelay(t *testing.T) {
	orders, profiles, config, publisher := convertFixture()
	profiles.profiles = map[string]ProductShippingProfile{
		"p1": {ProductID: "p1", DropOffDelayDays: intPtr(2)},
	}
	svc := newConvertService(t, orders, profiles, config, publisher)

	result, err := svc.Convert(context.Background(), ConvertOrderCommand{OrderID: "order_1"})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if result.Consignment.DropOffDelayDays != 2 {
		t.Fatalf("expected drop-off delay 2, got %d", result.Consignment.DropOffDelayDays)
	}
}
