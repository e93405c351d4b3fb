package interp

import (
	"regexp"

	"goyash.dev/goyash/pattern"
)

// patternMatches reports whether name matches the glob pat (a case
// pattern or the RHS of a "${var#pat}"-style trim), reusing the
// shared pattern package so case clauses and parameter-expansion
// trims agree on the same grammar.
func patternMatches(pat, name string) bool {
	expr, err := pattern.Regexp(pat, pattern.EntireString)
	if err != nil {
		return false
	}
	rx, err := regexp.Compile(expr)
	if err != nil {
		return false
	}
	return rx.MatchString(name)
}
