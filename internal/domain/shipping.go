package domain

import "time"

// PackageType identifies the physical product a shipment is dispatched as.
type PackageType string

const (
	// PackageTypePackage is the ordinary parcel product.
	PackageTypePackage PackageType = "package"
	// PackageTypeMailbox is a parcel small enough for letterbox delivery.
	PackageTypeMailbox PackageType = "mailbox"
	// PackageTypeLetter is reachable through explicit configuration only, never
	// selected by classification.
	PackageTypeLetter PackageType = "letter"
	// PackageTypeDigitalStamp is the postage-stamp-rate postal product.
	PackageTypeDigitalStamp PackageType = "digital_stamp"
)

// packageTypeIDs maps package type names onto the carrier API identifiers.
var packageTypeIDs = map[PackageType]int{
	PackageTypePackage:      1,
	PackageTypeMailbox:      2,
	PackageTypeLetter:       3,
	PackageTypeDigitalStamp: 4,
}

// ID returns the carrier API identifier for the package type.
func (p PackageType) ID() (int, bool) {
	id, ok := packageTypeIDs[p]
	return id, ok
}

// ParsePackageType maps a package type name onto its enum value. The boolean is
// false for names outside the known table; callers treat that as a hard error
// rather than defaulting.
func ParsePackageType(name string) (PackageType, bool) {
	candidate := PackageType(name)
	if _, ok := packageTypeIDs[candidate]; !ok {
		return "", false
	}
	return candidate, true
}

// ProductShippingProfile is the per-product snapshot of shipping attributes.
// All fields are immutable for the duration of one classification.
type ProductShippingProfile struct {
	ProductID string
	// MailboxFit counts units fitting one mailbox package. Zero means "derive
	// from weight", -1 means "never fits".
	MailboxFit           int
	DigitalStampEligible bool
	// AgeCheck is tri-state: nil when the product does not state a preference.
	AgeCheck         *bool
	CheckoutDisabled bool
	// DropOffDelayDays is nil when the product configures no delay.
	DropOffDelayDays *int
	// HSClassification is the customs HS code, zero when unset.
	HSClassification int
	CountryOfOrigin  string
}

// LineItem is a read-only view of one order or cart line.
type LineItem struct {
	ProductID       string
	SKU             string
	Name            string
	Quantity        int
	UnitWeightGrams float64
	UnitPrice       float64
}

// TotalWeightGrams returns quantity times unit weight.
func (i LineItem) TotalWeightGrams() float64 {
	return i.UnitWeightGrams * float64(i.Quantity)
}

// CarrierDefaults is the per-carrier configuration snapshot used by the
// classifier and the option resolver. It is built fresh per call and read-only
// afterwards; nothing stores it across orders.
type CarrierDefaults struct {
	Carrier          string
	InsuranceAmount  int
	Signature        bool
	OnlyRecipient    bool
	SameDayDelivery  bool
	ReturnShipment   bool
	AgeCheckActive   bool
	LargeFormat      bool
	MailboxActive    bool
	DigitalStampActive bool
	PickupMailboxActive bool
	MaxMailboxWeightGrams      float64
	MaxDigitalStampWeightGrams float64
	// DigitalStampDefaultWeightGrams backs digital-stamp shipments whose weight
	// is not supplied explicitly; zero when unconfigured.
	DigitalStampDefaultWeightGrams int
}

// ExplicitOptions carries checkout-supplied overrides. Pointer fields are
// tri-state: nil means "unset", distinguishable from an explicit false.
type ExplicitOptions struct {
	Insurance          *int
	Signature          *bool
	OnlyRecipient      *bool
	SameDayDelivery    *bool
	Return             *bool
	AgeCheck           *bool
	LargeFormat        *bool
	PackageType        string
	Carrier            string
	DigitalStampWeight *int
}

// ResolvedShipmentOptions is the fully determined option set for one shipment.
// No tri-state values remain at this point.
type ResolvedShipmentOptions struct {
	Insurance        int
	OnlyRecipient    bool
	Signature        bool
	SameDayDelivery  bool
	Return           bool
	AgeCheck         bool
	LargeFormat      bool
	LabelDescription string
}

// PickupLocation records the checkout-selected pickup point.
type PickupLocation struct {
	LocationName    string
	LocationCode    string
	RetailNetworkID string
	Street          string
	Number          string
	PostalCode      string
	City            string
	Country         string
}

// DeliveryDetails is the delivery choice recorded at checkout, carried on the
// order as an opaque options bundle.
type DeliveryDetails struct {
	Carrier      string
	Date         *time.Time
	DeliveryType string
	PackageType  string
	Pickup       *PickupLocation
}

// ShipmentOrder is the order projection the decision components read.
type ShipmentOrder struct {
	ID              string
	IncrementID     string
	ShippingAddress *Address
	Items           []LineItem
	Delivery        *DeliveryDetails
}

// DestinationCountry returns the shipping address country code, empty when the
// order carries no address yet.
func (o ShipmentOrder) DestinationCountry() string {
	if o.ShippingAddress == nil {
		return ""
	}
	return o.ShippingAddress.Country
}

// Address is a postal address snapshot.
type Address struct {
	Recipient  string
	Company    string
	Street     string
	City       string
	PostalCode string
	Country    string
	Phone      string
	Email      string
}

// BaseRate is the parent shipping rate a carrier quote builds on.
type BaseRate struct {
	Carrier string
	Method  string
	Price   float64
}

// RateCandidate is one purchasable shipping method derived from a base rate.
// Method doubles as the stable identifier: the settings path with the trailing
// separator trimmed.
type RateCandidate struct {
	Method     string
	Title      string
	Price      float64
	BaseMethod string
}
