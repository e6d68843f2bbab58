package services

import (
	"strconv"
	"strings"
)

const labelDescriptionPath = "print/label_description"

// Placeholders recognised in the merchant's label description template.
const (
	placeholderOrderNumber  = "%order_nr%"
	placeholderDeliveryDate = "%delivery_date%"
	placeholderProductID    = "%product_id%"
	placeholderProductName  = "%product_name%"
	placeholderProductQty   = "%product_qty%"
)

const labelDeliveryDateLayout = "02-01-2006"

// ResolveOptionsInput bundles everything the resolver reads. The resolver
// itself keeps no state between calls.
type ResolveOptionsInput struct {
	Order    ShipmentOrder
	Profiles map[string]ProductShippingProfile
	Carrier  Carrier
	Explicit ExplicitOptions
	Defaults CarrierDefaults
	Tree     ConfigTree
}

// ShipmentOptionsResolver resolves every shipment option for one order using
// the precedence explicit override, then product attributes, then carrier
// defaults. The result contains no unset states.
type ShipmentOptionsResolver struct{}

// NewShipmentOptionsResolver constructs a resolver.
func NewShipmentOptionsResolver() *ShipmentOptionsResolver { return &ShipmentOptionsResolver{} }

// Resolve produces the fully determined option set for the order.
func (r *ShipmentOptionsResolver) Resolve(in ResolveOptionsInput) ResolvedShipmentOptions {
	return ResolvedShipmentOptions{
		Insurance:        intOption(in.Explicit.Insurance, in.Defaults.InsuranceAmount),
		Signature:        boolOption(in.Explicit.Signature, in.Defaults.Signature),
		OnlyRecipient:    boolOption(in.Explicit.OnlyRecipient, in.Defaults.OnlyRecipient),
		SameDayDelivery:  boolOption(in.Explicit.SameDayDelivery, in.Defaults.SameDayDelivery),
		Return:           boolOption(in.Explicit.Return, in.Defaults.ReturnShipment),
		AgeCheck:         r.ageCheck(in),
		LargeFormat:      r.largeFormat(in),
		LabelDescription: r.labelDescription(in),
	}
}

// ageCheck is special-cased twice: destinations outside the carrier's home
// country never get an age check, and an explicit false does not suppress a
// product-level or default age check (legal requirement beats checkout input).
func (r *ShipmentOptionsResolver) ageCheck(in ResolveOptionsInput) bool {
	if !strings.EqualFold(in.Order.DestinationCountry(), in.Carrier.HomeCountry) {
		return false
	}

	if in.Explicit.AgeCheck != nil && *in.Explicit.AgeCheck {
		return true
	}

	if fromProducts := ageCheckFromProducts(in.Order.Items, in.Profiles); fromProducts != nil {
		return *fromProducts
	}

	return in.Defaults.AgeCheckActive
}

// ageCheckFromProducts scans all order items: any product demanding an age
// check wins immediately; a product without a stored preference makes the
// whole answer unknown (nil) so the carrier default decides.
func ageCheckFromProducts(items []LineItem, profiles map[string]ProductShippingProfile) *bool {
	result := new(bool)

	for _, item := range items {
		profile, ok := profiles[item.ProductID]
		if !ok || profile.AgeCheck == nil {
			result = nil
			continue
		}
		if *profile.AgeCheck {
			t := true
			return &t
		}
	}

	return result
}

// largeFormat is unavailable outside the carrier's covered region regardless
// of overrides; inside it the explicit value wins over the carrier default.
// There is no product-level large-format attribute.
func (r *ShipmentOptionsResolver) largeFormat(in ResolveOptionsInput) bool {
	if !in.Carrier.CoversCountry(in.Order.DestinationCountry()) {
		return false
	}
	return boolOption(in.Explicit.LargeFormat, in.Defaults.LargeFormat)
}

// labelDescription renders the merchant's label template. An empty template
// yields an empty description; absent delivery dates or items degrade their
// placeholders to empty strings rather than failing.
func (r *ShipmentOptionsResolver) labelDescription(in ResolveOptionsInput) string {
	template, _ := in.Tree.Value(labelDescriptionPath)
	if strings.TrimSpace(template) == "" {
		return ""
	}

	deliveryDate := ""
	if in.Order.Delivery != nil && in.Order.Delivery.Date != nil {
		deliveryDate = in.Order.Delivery.Date.Format(labelDeliveryDateLayout)
	}

	productID, productName, productQty := "", "", ""
	if len(in.Order.Items) > 0 {
		first := in.Order.Items[0]
		productID = first.ProductID
		productName = first.Name
		productQty = strconv.Itoa(first.Quantity)
	}

	return strings.NewReplacer(
		placeholderOrderNumber, in.Order.IncrementID,
		placeholderDeliveryDate, deliveryDate,
		placeholderProductID, productID,
		placeholderProductName, productName,
		placeholderProductQty, productQty,
	).Replace(template)
}

func boolOption(explicit *bool, fallback bool) bool {
	if explicit != nil {
		return *explicit
	}
	return fallback
}

func intOption(explicit *int, fallback int) int {
	if explicit != nil {
		return *explicit
	}
	return fallback
}
