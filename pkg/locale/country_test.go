package locale

import (
	"reflect"
	"testing"
)

func TestDetectRegion(t *testing.T) {
	tests := []struct {
		name   string
		tz     string
		want   string
		wantOK bool
	}{
		{name: "Israel", tz: "Asia/Jerusalem", want: "IL", wantOK: true},
		{name: "legacy alias", tz: "Israel", want: "IL", wantOK: true},
		{name: "case insensitive", tz: "europe/paris", want: "FR", wantOK: true},
		{name: "US west coast", tz: "America/Los_Angeles", want: "US", wantOK: true},
		{name: "unknown zone", tz: "Asia/Tokyo", wantOK: false},
		{name: "empty", tz: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectRegion(tt.tz)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("DetectRegion(%q) = %q, %v, want %q, %v", tt.tz, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPhoneRegions(t *testing.T) {
	tests := []struct {
		name     string
		tz       string
		fallback []string
		want     []string
	}{
		{name: "provider region first", tz: "Europe/Paris", fallback: []string{"IL", "US"}, want: []string{"FR", "IL", "US"}},
		{name: "no duplicate", tz: "Asia/Jerusalem", fallback: []string{"IL", "US"}, want: []string{"IL", "US"}},
		{name: "unknown zone keeps fallback", tz: "Asia/Tokyo", fallback: []string{"IL"}, want: []string{"IL"}},
		{name: "no fallback", tz: "Europe/London", fallback: nil, want: []string{"GB"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PhoneRegions(tt.tz, tt.fallback)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PhoneRegions(%q, %v) = %v, want %v", tt.tz, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestCountriesAreConsistent(t *testing.T) {
	for code, c := range Countries {
		if c.Code != code {
			t.Errorf("country %s has code %s", code, c.Code)
		}
		if got, ok := DetectRegion(c.DefaultTimezone); !ok || got != code {
			t.Errorf("default zone %s of %s detects %q", c.DefaultTimezone, code, got)
		}
	}
}
