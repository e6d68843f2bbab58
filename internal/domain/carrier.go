package domain

import "strings"

// euCountries is the covered-region set for large-format and customs-free
// shipping. Destinations outside it ship with customs declarations.
var euCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "CZ": {}, "CY": {}, "DE": {}, "DK": {},
	"EE": {}, "ES": {}, "FI": {}, "FR": {}, "GR": {}, "HR": {}, "HU": {},
	"IE": {}, "IT": {}, "LT": {}, "LU": {}, "LV": {}, "MT": {}, "NL": {},
	"PL": {}, "PT": {}, "RO": {}, "SE": {}, "SI": {}, "SK": {},
}

// Carrier describes one carrier integration: where its settings live in the
// configuration tree and which destinations it serves.
type Carrier struct {
	Name string
	// SettingsRoot is the top-level configuration section for this carrier,
	// including the trailing slash (e.g. "postnl_settings/").
	SettingsRoot string
	// HomeCountry gates mailbox, digital-stamp and age-check availability.
	HomeCountry string
	// QuoteCountries lists destinations for which checkout rate candidates are
	// produced at all.
	QuoteCountries []string
}

// CoversCountry reports whether the destination falls inside the carrier's
// covered region (the EU); large format is only available inside it and
// shipments outside it need customs items.
func (c Carrier) CoversCountry(country string) bool {
	_, ok := euCountries[strings.ToUpper(strings.TrimSpace(country))]
	return ok
}

// QuotesCountry reports whether checkout quoting is enabled for the country.
func (c Carrier) QuotesCountry(country string) bool {
	needle := strings.ToUpper(strings.TrimSpace(country))
	for _, cc := range c.QuoteCountries {
		if cc == needle {
			return true
		}
	}
	return false
}

// DefaultCarrierName is the fallback carrier when neither the checkout choice
// nor the explicit options name one and the merchant configured none.
const DefaultCarrierName = "postnl"

// carriers is the fixed registry of supported carrier integrations. Order is
// the enumeration order used when building rate candidates.
var carriers = []Carrier{
	{
		Name:           "postnl",
		SettingsRoot:   "postnl_settings/",
		HomeCountry:    "NL",
		QuoteCountries: []string{"NL", "BE"},
	},
	{
		Name:           "dhlforyou",
		SettingsRoot:   "dhlforyou_settings/",
		HomeCountry:    "NL",
		QuoteCountries: []string{"NL", "BE"},
	},
}

// Carriers returns the registry in enumeration order.
func Carriers() []Carrier {
	out := make([]Carrier, len(carriers))
	copy(out, carriers)
	return out
}

// CarrierByName resolves a carrier by name, case-insensitively.
func CarrierByName(name string) (Carrier, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, c := range carriers {
		if c.Name == needle {
			return c, true
		}
	}
	return Carrier{}, false
}
