package quiz

import (
	"fmt"
	"os"
	"strings"
)

// Remote answer values arrive as either literal option text or a
// single-letter key (A, B, C, D). These helpers convert between the two
// forms; comparisons always happen on option text.

// ResolveKey maps a single-letter option key to its option text by
// position (A → options[0], B → options[1], ...). Values that are not a
// single letter, or letters outside the option range, are returned
// unchanged.
func ResolveKey(value string, options []string) string {
	if len(value) != 1 || len(options) == 0 {
		return value
	}
	c := value[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	idx := int(c - 'A')
	if idx < 0 || idx >= len(options) {
		return value
	}
	return options[idx]
}

// OptionKey maps literal option text back to its letter key for a
// submission payload. When no option matches, the raw text is returned
// as-is; the server will reject it, but a positional guess would be
// worse.
func OptionKey(value string, options []string) string {
	for i, opt := range options {
		if strings.EqualFold(value, opt) {
			return string(rune('A' + i))
		}
	}
	return value
}

// ResolveCorrect returns the question's correct answer as literal option
// text. A correct answer that resolves to none of the options falls back
// to the first option with a logged warning rather than failing the
// whole load.
func ResolveCorrect(q *Question) string {
	correct := ResolveKey(q.Correct, q.Options)
	for _, opt := range q.Options {
		if strings.EqualFold(correct, opt) {
			return correct
		}
	}
	if len(q.Options) == 0 {
		return correct
	}
	fmt.Fprintf(os.Stderr, "warning: question %s: correct answer %q not among options, defaulting to first option\n", q.ID, q.Correct)
	return q.Options[0]
}
