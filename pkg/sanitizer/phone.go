package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var DefaultRegions = []string{"IL", "US"}

// NormalizePhone formats phone as E.164. Numbers without a country prefix are
// parsed against regions in order, DefaultRegions when none are given. The
// first region producing a valid number wins; "" means no region did.
func NormalizePhone(phone string, regions ...string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}
	if len(regions) == 0 {
		regions = DefaultRegions
	}

	for _, region := range regions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsValidNumber(parsedNumber) {
			continue
		}
		return phonenumbers.Format(parsedNumber, phonenumbers.E164)
	}
	return ""
}
