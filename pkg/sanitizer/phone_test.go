package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid E.164 format",
			input: "+972541234567",
			want:  "+972541234567",
		},
		{
			name:  "with spaces",
			input: "+972 54 123 4567",
			want:  "+972541234567",
		},
		{
			name:  "with dashes",
			input: "+972-54-123-4567",
			want:  "+972541234567",
		},
		{
			name:  "with parentheses",
			input: "+1 (212) 555-1234",
			want:  "+12125551234",
		},
		{
			name:  "leading and trailing spaces",
			input: "  +972541234567  ",
			want:  "+972541234567",
		},
		{
			name:  "national format uses first region",
			input: "054-123-4567",
			want:  "+972541234567",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "not a number",
			input: "call me",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone_RegionOrder(t *testing.T) {
	national := "(212) 555-1234"

	if got := NormalizePhone(national, "US"); got != "+12125551234" {
		t.Errorf("NormalizePhone(%q, US) = %q, want +12125551234", national, got)
	}
	if got := NormalizePhone("+972541234567", "US"); got != "+972541234567" {
		t.Errorf("international prefix must override the region, got %q", got)
	}
}
