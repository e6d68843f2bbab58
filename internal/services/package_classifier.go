package services

import (
	"strings"

	domain "github.com/veldpost/api/internal/domain"
)

// mailboxSaturated marks the accumulated percentage as over capacity for the
// rest of the pass; once set it is never lowered.
const mailboxSaturated = 101

// ClassifiableItem joins one order line with its product shipping profile.
type ClassifiableItem struct {
	Item    LineItem
	Profile ProductShippingProfile
}

// PackageClassifier decides which physical package type an order qualifies
// for. It is stateless; every call operates only on its inputs.
type PackageClassifier struct{}

// NewPackageClassifier constructs a classifier.
func NewPackageClassifier() *PackageClassifier { return &PackageClassifier{} }

// Classify picks exactly one package type for the order. Age-checked orders
// always ship as an ordinary package; mailbox and digital stamp are available
// for the carrier's home country only.
func (c *PackageClassifier) Classify(items []ClassifiableItem, defaults CarrierDefaults, carrier Carrier, destinationCountry string) PackageType {
	if c.AgeCheckRequired(items, defaults) {
		return domain.PackageTypePackage
	}

	var totalWeight float64
	var mailboxPercentage float64
	digitalStamp := true

	for _, entry := range items {
		qty := entry.Item.Quantity
		weight := entry.Item.UnitWeightGrams

		if qty < 1 {
			continue
		}

		if weight > 0 {
			totalWeight += weight * float64(qty)
		}

		if digitalStamp && !entry.Profile.DigitalStampEligible {
			digitalStamp = false
		}

		if mailboxPercentage > 100 {
			continue
		}

		fit := entry.Profile.MailboxFit
		if fit == -1 {
			mailboxPercentage = mailboxSaturated
			continue
		}
		if fit == 0 && weight != 0 {
			// Derive an implicit fit count from the per-item weight.
			fit = int(defaults.MaxMailboxWeightGrams / weight)
		}
		if fit != 0 {
			mailboxPercentage += float64(qty) * 100 / float64(fit)
		}
	}

	domestic := strings.EqualFold(destinationCountry, carrier.HomeCountry)

	if digitalStamp && domestic && defaults.DigitalStampActive && totalWeight <= defaults.MaxDigitalStampWeightGrams {
		return domain.PackageTypeDigitalStamp
	}

	if domestic && defaults.MailboxActive && totalWeight <= defaults.MaxMailboxWeightGrams && mailboxPercentage <= 100 {
		return domain.PackageTypeMailbox
	}

	return domain.PackageTypePackage
}

// AgeCheckRequired reports whether any product demands an age check, falling
// back to the carrier's default flag when no product states one.
func (c *PackageClassifier) AgeCheckRequired(items []ClassifiableItem, defaults CarrierDefaults) bool {
	for _, entry := range items {
		if entry.Profile.AgeCheck != nil && *entry.Profile.AgeCheck {
			return true
		}
	}
	return defaults.AgeCheckActive
}

// DropOffDelay returns the highest configured per-product drop-off delay in
// days, or nil when no product configures a positive delay.
func (c *PackageClassifier) DropOffDelay(items []ClassifiableItem) *int {
	highest := 0
	for _, entry := range items {
		if entry.Profile.DropOffDelayDays != nil && *entry.Profile.DropOffDelayDays > highest {
			highest = *entry.Profile.DropOffDelayDays
		}
	}
	if highest <= 0 {
		return nil
	}
	return &highest
}

// DeliveryOptionsDisabled reports whether any product suppresses delivery
// options for the whole cart.
func (c *PackageClassifier) DeliveryOptionsDisabled(items []ClassifiableItem) bool {
	for _, entry := range items {
		if entry.Profile.CheckoutDisabled {
			return true
		}
	}
	return false
}
