package similarity

import "testing"

func TestNormalizeCaseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "2024-CV-001", want: "2024-CV-001"},
		{input: "2024 cv 001", want: "2024-CV-001"},
		{input: "2024/CV/001", want: "2024-CV-001"},
		{input: "No. 2024-CV-001", want: "NO-2024-CV-001"},
		{input: "  2024_cv_001  ", want: "2024-CV-001"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		if got := NormalizeCaseNumber(tt.input); got != tt.want {
			t.Errorf("NormalizeCaseNumber(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "2024-01-15", want: "2024-01-15"},
		{input: "January 15, 2024", want: "2024-01-15"},
		{input: "01/15/2024", want: "2024-01-15"},
		{input: "not a date at all", want: "not a date at all"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		if got := NormalizeDate(tt.input); got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAmountsMatch(t *testing.T) {
	tests := []struct {
		name      string
		a         string
		b         string
		tolerance float64
		want      bool
	}{
		{name: "identical", a: "1500.00", b: "1500.00", tolerance: 0, want: true},
		{name: "formatted vs plain", a: "$1,500.00", b: "1500", tolerance: 0.01, want: true},
		{name: "within tolerance", a: "100", b: "100.5", tolerance: 0.01, want: true},
		{name: "outside tolerance", a: "100", b: "150", tolerance: 0.01, want: false},
		{name: "malformed left", a: "about a hundred", b: "100", tolerance: 0.1, want: false},
		{name: "malformed right", a: "100", b: "", tolerance: 0.1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AmountsMatch(tt.a, tt.b, tt.tolerance); got != tt.want {
				t.Errorf("AmountsMatch(%q, %q, %v) = %v, want %v", tt.a, tt.b, tt.tolerance, got, tt.want)
			}
		})
	}
}

func TestLocationContains(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{name: "city contains shorter form", a: "New York City", b: "New York", want: true},
		{name: "containment is asymmetric", a: "New York", b: "New York City", want: false},
		{name: "equal", a: "Boston", b: "boston", want: true},
		{name: "partial token is not containment", a: "Newark", b: "New", want: false},
		{name: "unrelated", a: "Chicago", b: "Boston", want: false},
		{name: "empty", a: "", b: "Boston", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LocationContains(tt.a, tt.b); got != tt.want {
				t.Errorf("LocationContains(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
