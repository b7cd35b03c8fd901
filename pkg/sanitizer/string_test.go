package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  Sam Storage  ", want: "Sam Storage"},
		{name: "multiple spaces between words", input: "Sam    Storage", want: "Sam Storage"},
		{name: "tabs and newlines", input: "Sam\t\nStorage", want: "Sam Storage"},
		{name: "empty string", input: "", want: ""},
		{name: "only whitespace", input: "   \t\n  ", want: ""},
		{name: "preserve special characters", input: " Café & Spa™ ", want: "Café & Spa™"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Sam@X.COM "); got != "sam@x.com" {
		t.Errorf("NormalizeEmail = %q, want %q", got, "sam@x.com")
	}
}

func TestNormalizeUnit(t *testing.T) {
	if got := NormalizeUnit("  12  b "); got != "12 B" {
		t.Errorf("NormalizeUnit = %q, want %q", got, "12 B")
	}
}

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"100", "100"},
		{" $1,200.50 ", "1200.50"},
		{"$ 50", "50"},
		{"", ""},
		{"abc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeAmount(tt.input); got != tt.want {
				t.Errorf("NormalizeAmount(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizers_Idempotent(t *testing.T) {
	inputs := []string{"  Sam   Storage ", " $1,000 ", " 12 b ", " A@B.com "}
	fns := map[string]Strategy{
		"name":   NormalizeName,
		"amount": NormalizeAmount,
		"unit":   NormalizeUnit,
		"email":  NormalizeEmail,
	}

	for name, fn := range fns {
		for _, in := range inputs {
			once := fn(in)
			if twice := fn(once); twice != once {
				t.Errorf("%s not idempotent for %q: %q then %q", name, in, once, twice)
			}
		}
	}
}
