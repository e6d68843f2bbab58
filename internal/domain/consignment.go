package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// CustomsItem declares one order line for destinations outside the covered
// region. ItemValueCents is the declared value in euro cents.
type CustomsItem struct {
	Description    string
	Amount         int
	WeightGrams    int
	ItemValueCents int64
	Classification int
	CountryOfOrigin string
}

// Consignment is the fully validated carrier registration request for one
// shipment. Values are only obtainable through ConsignmentBuilder.Build, after
// which they are immutable.
type Consignment struct {
	ReferenceID         string
	Carrier             string
	APIKey              string
	Recipient           Address
	PackageType         PackageType
	PackageTypeID       int
	DeliveryDate        *time.Time
	DropOffDelayDays    int
	Options             ResolvedShipmentOptions
	PhysicalWeightGrams int
	Pickup              *PickupLocation
	CustomsItems        []CustomsItem
	InvoiceNumber       string
}

// ConsignmentValidationError lists every problem found while building a
// consignment, so a merchant sees all of them at once instead of fixing one
// field per attempt.
type ConsignmentValidationError struct {
	problems []string
}

// Error implements the error interface.
func (e *ConsignmentValidationError) Error() string {
	return fmt.Sprintf("consignment validation failed: %s", strings.Join(e.problems, "; "))
}

// Problems returns a copy of the recorded validation problems.
func (e *ConsignmentValidationError) Problems() []string {
	out := make([]string, len(e.problems))
	copy(out, e.problems)
	return out
}

var (
	postalNL = regexp.MustCompile(`^[1-9][0-9]{3}[A-Z]{2}$`)
	postalBE = regexp.MustCompile(`^[1-9][0-9]{3}$`)
)

// ConsignmentBuilder accumulates consignment fields and validates them in one
// pass at Build time. Setter chains never panic mid-way; configuration
// problems such as a missing API key surface as a build failure.
type ConsignmentBuilder struct {
	c Consignment
}

// NewConsignmentBuilder starts an empty consignment for the named carrier.
func NewConsignmentBuilder(carrier string) *ConsignmentBuilder {
	return &ConsignmentBuilder{c: Consignment{Carrier: strings.ToLower(strings.TrimSpace(carrier))}}
}

// WithAPIKey records the carrier account key the consignment is registered under.
func (b *ConsignmentBuilder) WithAPIKey(key string) *ConsignmentBuilder {
	b.c.APIKey = strings.TrimSpace(key)
	return b
}

// WithReference records the merchant-side shipment reference.
func (b *ConsignmentBuilder) WithReference(ref string) *ConsignmentBuilder {
	b.c.ReferenceID = strings.TrimSpace(ref)
	return b
}

// WithRecipient records the delivery address. Postal code whitespace is
// stripped before validation.
func (b *ConsignmentBuilder) WithRecipient(addr Address) *ConsignmentBuilder {
	addr.PostalCode = strings.ToUpper(strings.Join(strings.Fields(addr.PostalCode), ""))
	addr.Country = strings.ToUpper(strings.TrimSpace(addr.Country))
	b.c.Recipient = addr
	return b
}

// WithPackageType records the decided package type.
func (b *ConsignmentBuilder) WithPackageType(pt PackageType) *ConsignmentBuilder {
	b.c.PackageType = pt
	b.c.PackageTypeID, _ = pt.ID()
	return b
}

// WithDeliveryDate records the requested delivery date, when one was chosen.
func (b *ConsignmentBuilder) WithDeliveryDate(date *time.Time) *ConsignmentBuilder {
	b.c.DeliveryDate = date
	return b
}

// WithDropOffDelay records extra days before carrier hand-off.
func (b *ConsignmentBuilder) WithDropOffDelay(days int) *ConsignmentBuilder {
	b.c.DropOffDelayDays = days
	return b
}

// WithOptions records the resolved shipment option set.
func (b *ConsignmentBuilder) WithOptions(opts ResolvedShipmentOptions) *ConsignmentBuilder {
	b.c.Options = opts
	return b
}

// WithPhysicalWeight records the dispatch weight in grams. Only digital-stamp
// consignments require it.
func (b *ConsignmentBuilder) WithPhysicalWeight(grams int) *ConsignmentBuilder {
	b.c.PhysicalWeightGrams = grams
	return b
}

// WithPickup records the selected pickup location. Pickup consignments never
// request a return shipment.
func (b *ConsignmentBuilder) WithPickup(loc *PickupLocation) *ConsignmentBuilder {
	b.c.Pickup = loc
	if loc != nil {
		b.c.Options.Return = false
	}
	return b
}

// WithCustomsItems records the customs declaration lines.
func (b *ConsignmentBuilder) WithCustomsItems(items []CustomsItem) *ConsignmentBuilder {
	b.c.CustomsItems = append([]CustomsItem(nil), items...)
	return b
}

// WithInvoice records the invoice (order increment) number.
func (b *ConsignmentBuilder) WithInvoice(number string) *ConsignmentBuilder {
	b.c.InvoiceNumber = strings.TrimSpace(number)
	return b
}

// Build validates the accumulated fields and returns the immutable consignment.
// On failure the returned error is a *ConsignmentValidationError naming every
// invalid field.
func (b *ConsignmentBuilder) Build() (Consignment, error) {
	var problems []string

	if b.c.Carrier == "" {
		problems = append(problems, "carrier is required")
	}
	if b.c.APIKey == "" {
		problems = append(problems, "carrier API key is not configured")
	}
	if b.c.PackageTypeID == 0 {
		problems = append(problems, fmt.Sprintf("unknown package type %q", string(b.c.PackageType)))
	}
	if b.c.PackageType == PackageTypeDigitalStamp && b.c.PhysicalWeightGrams <= 0 {
		problems = append(problems, "digital stamp consignment has no weight")
	}

	problems = append(problems, validateRecipient(b.c.Recipient)...)

	if len(problems) > 0 {
		return Consignment{}, &ConsignmentValidationError{problems: problems}
	}
	return b.c, nil
}

func validateRecipient(addr Address) []string {
	var problems []string
	if addr.Country == "" {
		problems = append(problems, "recipient country is required")
	}
	if strings.TrimSpace(addr.Street) == "" {
		problems = append(problems, "recipient street is required")
	}
	if strings.TrimSpace(addr.City) == "" {
		problems = append(problems, "recipient city is required")
	}
	switch addr.Country {
	case "NL":
		if !postalNL.MatchString(addr.PostalCode) {
			problems = append(problems, fmt.Sprintf("postal code %q is not a valid NL postal code", addr.PostalCode))
		}
	case "BE":
		if !postalBE.MatchString(addr.PostalCode) {
			problems = append(problems, fmt.Sprintf("postal code %q is not a valid BE postal code", addr.PostalCode))
		}
	default:
		if addr.PostalCode == "" {
			problems = append(problems, "recipient postal code is required")
		}
	}
	return problems
}
