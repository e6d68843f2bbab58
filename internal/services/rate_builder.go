package services

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	domain "github.com/veldpost/api/internal/domain"
)

// rateMethodTable is the fixed enumeration order of deliverable setting paths.
// Downstream selection logic picks the first usable candidate, so this order
// is a documented contract of the builder, not an implementation detail.
var rateMethodTable = []string{
	"pickup",
	"delivery",
	"delivery/signature",
	"delivery/only_recipient",
	"delivery/only_recipient/signature",
	"morning",
	"morning/only_recipient",
	"morning/only_recipient/signature",
	"evening",
	"evening/only_recipient",
	"evening/only_recipient/signature",
	"mailbox",
	"digital_stamp",
	"delivery/same_day_delivery",
	"delivery/only_recipient/same_day_delivery",
}

// RateBuilder turns a base shipping rate into priced candidates, one per
// active and relevant setting path. Pure: one pass over the fixed table, no
// retained state.
type RateBuilder struct {
	titler cases.Caser
}

// NewRateBuilder constructs a builder.
func NewRateBuilder() *RateBuilder {
	return &RateBuilder{titler: cases.Title(language.English)}
}

// Build enumerates the method table for one carrier and returns the candidates
// in table order. pickupMailboxActive additionally admits the pickup path for
// mailbox-classified orders.
func (b *RateBuilder) Build(base BaseRate, tree ConfigTree, carrier Carrier, packageType PackageType, pickupMailboxActive bool) []RateCandidate {
	root := carrier.SettingsRoot
	var out []RateCandidate

	for _, settingPath := range rateMethodTable {
		separator := nestedSeparator(settingPath)

		if !b.isRelevant(packageType, firstSegment(settingPath), pickupMailboxActive) {
			continue
		}
		if !b.isSettingActive(tree, root, settingPath, separator) {
			continue
		}

		// The trailing separator is part of the stored key convention; fee
		// lookups below rely on it.
		fullPath := root + settingPath + separator
		method := fullPath[:len(fullPath)-1]

		out = append(out, RateCandidate{
			Method:     method,
			Title:      b.title(settingPath),
			Price:      b.price(tree, fullPath, base.Price),
			BaseMethod: base.Method,
		})
	}

	return out
}

// nestedSeparator returns the key separator convention for the path: top-level
// settings groups use "/active", nested sub-options are stored as flat keys
// with "_active".
func nestedSeparator(settingPath string) string {
	if strings.Contains(settingPath, "/") {
		return "_"
	}
	return "/"
}

func firstSegment(settingPath string) string {
	if idx := strings.IndexByte(settingPath, '/'); idx >= 0 {
		return settingPath[:idx]
	}
	return settingPath
}

// isRelevant filters the table against the order's package type: letter yields
// nothing, digital stamp and mailbox yield only their own paths (mailbox also
// pickup when pickup-from-mailbox is on), everything else yields every path
// except the two special ones.
func (b *RateBuilder) isRelevant(packageType PackageType, segment string, pickupMailboxActive bool) bool {
	switch packageType {
	case domain.PackageTypeLetter:
		return false
	case domain.PackageTypeDigitalStamp:
		return segment == string(domain.PackageTypeDigitalStamp)
	case domain.PackageTypeMailbox:
		if segment == "pickup" {
			return pickupMailboxActive
		}
		return segment == string(domain.PackageTypeMailbox)
	default:
		return segment != string(domain.PackageTypeMailbox) && segment != string(domain.PackageTypeDigitalStamp)
	}
}

// isSettingActive requires the top-level segment's ".../active" flag plus a
// "delivery/<segment><separator>active" flag for every nested segment.
func (b *RateBuilder) isSettingActive(tree ConfigTree, root, settingPath, separator string) bool {
	parts := strings.Split(settingPath, "/")

	if !tree.Bool(root + parts[0] + "/active") {
		return false
	}

	for _, option := range parts[1:] {
		if !tree.Bool(root + "delivery/" + option + separator + "active") {
			return false
		}
	}

	return true
}

// price computes the candidate price from the base price and the configured
// fees along the path. The fee key conventions mirror the configuration
// schema exactly, including the asymmetric "_fee"/"fee" suffixes for the two
// sub-option slots of the only-recipient + signature combination.
func (b *RateBuilder) price(tree ConfigTree, fullPath string, basePrice float64) float64 {
	parts := strings.Split(fullPath, "/")
	fee := 0.0

	// Standard delivery with both only-recipient and signature selected: each
	// sub-option's own fee is charged.
	if len(parts) >= 4 && parts[1] == "delivery" {
		fee += tree.Float(fmt.Sprintf("%s/%s/%s_fee", parts[0], parts[1], parts[2]))
		fee += tree.Float(fmt.Sprintf("%s/%s/%sfee", parts[0], parts[1], parts[3]))
	}

	// Morning and evening delivery start from that delivery type's flat fee.
	// A signature on top borrows the standard delivery's signature fee: the
	// path is rerouted through "delivery" and the only-recipient segment is
	// dropped before the generic lookup.
	if parts[1] == "morning" || parts[1] == "evening" {
		fee = tree.Float(fmt.Sprintf("%s/%s/fee", parts[0], parts[1]))
		if len(parts) >= 4 {
			parts[1] = "delivery"
		}
		if len(parts) >= 3 {
			parts = append(parts[:2:2], parts[3:]...)
		}
	}

	fee += tree.Float(strings.Join(parts, "/") + "fee")

	// Mailbox and digital stamp are capped at the base rate, never above it.
	if parts[1] == string(domain.PackageTypeMailbox) || parts[1] == string(domain.PackageTypeDigitalStamp) {
		if fee < basePrice {
			return fee
		}
		return basePrice
	}

	return basePrice + fee
}

// title renders the human-readable method name from the setting path. Acts as
// the localisation hook; the method identifier stays the raw path.
func (b *RateBuilder) title(settingPath string) string {
	words := strings.NewReplacer("/", " ", "_", " ").Replace(settingPath)
	return b.titler.String(words)
}
