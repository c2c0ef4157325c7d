package locale

import (
	"strings"
)

const (
	DefaultTimezone = "UTC"
)

type Country struct {
	Code            string   // ISO 3166-1 alpha-2 country code (e.g., "IL", "US")
	Name            string   // Human-readable country name
	DefaultTimezone string   // IANA timezone identifier (e.g., "Asia/Jerusalem")
	TimeZones       []string // IANA zones and legacy aliases used in the country
}

var Countries = map[string]Country{
	"IL": {
		Code:            "IL",
		Name:            "Israel",
		DefaultTimezone: "Asia/Jerusalem",
		TimeZones:       []string{"Asia/Jerusalem", "Israel", "Asia/Tel_Aviv"},
	},
	"US": {
		Code:            "US",
		Name:            "United States",
		DefaultTimezone: "America/New_York",
		TimeZones:       []string{"America/New_York", "America/Chicago", "America/Denver", "America/Los_Angeles", "US/Eastern", "US/Central", "US/Pacific"},
	},
	"FR": {
		Code:            "FR",
		Name:            "France",
		DefaultTimezone: "Europe/Paris",
		TimeZones:       []string{"Europe/Paris"},
	},
	"GB": {
		Code:            "GB",
		Name:            "United Kingdom",
		DefaultTimezone: "Europe/London",
		TimeZones:       []string{"Europe/London", "GB"},
	},
	"DE": {
		Code:            "DE",
		Name:            "Germany",
		DefaultTimezone: "Europe/Berlin",
		TimeZones:       []string{"Europe/Berlin"},
	},
	"BE": {
		Code:            "BE",
		Name:            "Belgium",
		DefaultTimezone: "Europe/Brussels",
		TimeZones:       []string{"Europe/Brussels"},
	},
	"CH": {
		Code:            "CH",
		Name:            "Switzerland",
		DefaultTimezone: "Europe/Zurich",
		TimeZones:       []string{"Europe/Zurich"},
	},
	"CA": {
		Code:            "CA",
		Name:            "Canada",
		DefaultTimezone: "America/Toronto",
		TimeZones:       []string{"America/Toronto", "America/Vancouver", "America/Montreal"},
	},
}

// DetectRegion returns the country code a time zone belongs to.
func DetectRegion(tz string) (string, bool) {
	for code, country := range Countries {
		for _, z := range country.TimeZones {
			if strings.EqualFold(tz, z) {
				return code, true
			}
		}
	}
	return "", false
}

// PhoneRegions puts the region of tz in front of fallback, without duplicates.
// Local numbers of a provider's clients are then read in the provider's
// country first.
func PhoneRegions(tz string, fallback []string) []string {
	region, ok := DetectRegion(tz)
	if !ok {
		return fallback
	}

	regions := make([]string, 0, len(fallback)+1)
	regions = append(regions, region)
	for _, r := range fallback {
		if !strings.EqualFold(r, region) {
			regions = append(regions, r)
		}
	}
	return regions
}
