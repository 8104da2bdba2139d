package similarity

import "testing"

func TestSorensenDice(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "both empty", a: "", b: "", want: 1.0},
		{name: "identical", a: "Acme Corporation", b: "Acme Corporation", want: 1.0},
		{name: "identical ignoring case", a: "acme", b: "ACME", want: 1.0},
		{name: "completely different", a: "abcd", b: "wxyz", want: 0.0},
		{name: "one empty", a: "acme", b: "", want: 0.0},
		{name: "single char vs word", a: "a", b: "acme", want: 0.0},
		{name: "night vs nacht", a: "night", b: "nacht", want: 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SorensenDice(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("SorensenDice(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSorensenDiceSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"John Smith", "Smith John"},
		{"Acme Corp", "Acme Corporation"},
		{"", "something"},
		{"2024-CV-001", "2024 CV 001"},
	}
	for _, p := range pairs {
		if SorensenDice(p[0], p[1]) != SorensenDice(p[1], p[0]) {
			t.Errorf("SorensenDice not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestTokenSortedSimilarity(t *testing.T) {
	got := TokenSortedSimilarity("Smith, John", "John Smith")
	if got != 1.0 {
		t.Errorf("word order must not matter, got %v", got)
	}

	if TokenSortedSimilarity("John Smith", "Jane Doe") > 0.5 {
		t.Error("unrelated names should score low")
	}
}

func TestInitialMatch(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{name: "abbreviated surname", a: "Dr. S", b: "Dr. Smith", want: true},
		{name: "abbreviated first name", a: "J. Smith", b: "John Smith", want: true},
		{name: "reversed arguments", a: "John Smith", b: "J. Smith", want: true},
		{name: "no shared full token", a: "J. S.", b: "John Smith", want: false},
		{name: "different initials", a: "M. Smith", b: "John Smith", want: false},
		{name: "token count mismatch", a: "John", b: "John Smith", want: false},
		{name: "both fully spelled", a: "John Smith", b: "John Smith", want: false},
		{name: "empty", a: "", b: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InitialMatch(tt.a, tt.b); got != tt.want {
				t.Errorf("InitialMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestExpandAbbreviations(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Acme Corp.", want: "Acme corporation"},
		{input: "Acme Corp", want: "Acme corporation"},
		{input: "Smith v. Jones", want: "Smith versus Jones"},
		{input: "Dept. of Justice", want: "department of Justice"},
		{input: "nothing to expand", want: "nothing to expand"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		if got := ExpandAbbreviations(tt.input); got != tt.want {
			t.Errorf("ExpandAbbreviations(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
