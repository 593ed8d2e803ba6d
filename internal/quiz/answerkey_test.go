package quiz

import "testing"

func TestResolveKey(t *testing.T) {
	options := []string{"Mercury", "Venus", "Earth", "Mars"}

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"upper letter", "A", "Mercury"},
		{"lower letter", "c", "Earth"},
		{"last option", "D", "Mars"},
		{"letter past range", "E", "E"},
		{"literal text", "Venus", "Venus"},
		{"multi char", "AB", "AB"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveKey(tt.value, options)
			if got != tt.want {
				t.Errorf("ResolveKey(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestResolveKeyNoOptions(t *testing.T) {
	if got := ResolveKey("A", nil); got != "A" {
		t.Errorf("ResolveKey with no options = %q, want %q", got, "A")
	}
}

func TestOptionKey(t *testing.T) {
	options := []string{"Mercury", "Venus", "Earth", "Mars"}

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"first", "Mercury", "A"},
		{"case insensitive", "earth", "C"},
		{"last", "Mars", "D"},
		{"unknown text passes through", "Pluto", "Pluto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OptionKey(tt.value, options)
			if got != tt.want {
				t.Errorf("OptionKey(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestResolveCorrect(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want string
	}{
		{
			name: "letter key",
			q:    Question{Correct: "B", Options: []string{"1", "2", "3", "4"}},
			want: "2",
		},
		{
			name: "literal text",
			q:    Question{Correct: "Paris", Options: []string{"London", "Paris"}},
			want: "Paris",
		},
		{
			name: "unmatched falls back to first option",
			q:    Question{Correct: "Rome", Options: []string{"London", "Paris"}},
			want: "London",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCorrect(&tt.q)
			if got != tt.want {
				t.Errorf("ResolveCorrect() = %q, want %q", got, tt.want)
			}
		})
	}
}
