package origins

import (
	"strings"

	"github.com/brunoabdon/abdedge/internal/util"
)

// An Allowlist is an ordered set of compiled origin patterns.
// It is immutable after construction and therefore safe for concurrent use.
// The zero value allows no origin.
type Allowlist struct {
	any      bool
	patterns []Pattern
}

// AnyOrigin returns an Allowlist that matches every origin.
func AnyOrigin() Allowlist {
	return Allowlist{any: true}
}

// NewAllowlist returns an Allowlist made of patterns, in order.
// Duplicate patterns (after normalization) are discarded.
func NewAllowlist(patterns ...Pattern) Allowlist {
	var (
		seen = util.NewSortedSet()
		ps   = make([]Pattern, 0, len(patterns))
	)
	for _, p := range patterns {
		if seen.Contains(p.raw) {
			continue
		}
		seen.Add(p.raw)
		ps = append(ps, p)
	}
	return Allowlist{patterns: ps}
}

// AllowsAny reports whether a matches every origin.
func (a *Allowlist) AllowsAny() bool {
	return a.any
}

// IsEmpty reports whether a matches no origin at all.
func (a *Allowlist) IsEmpty() bool {
	return !a.any && len(a.patterns) == 0
}

// Patterns returns the normalized form of a's patterns, in order.
// If a matches every origin, it returns []string{"*"}.
func (a *Allowlist) Patterns() []string {
	if a.any {
		return []string{wildcard}
	}
	res := make([]string, len(a.patterns))
	for i := range a.patterns {
		res[i] = a.patterns[i].String()
	}
	return res
}

// Match reports whether the value of an Origin header is allowed by a.
// Some user agents send several space-separated origins in a single Origin
// header (e.g. after redirects); matching any one of them is sufficient.
// If a match is found, Match returns the matching element, which is the
// value a response's Access-Control-Allow-Origin header must echo.
// Elements longer than any valid origin are skipped without being examined.
func (a *Allowlist) Match(origin string) (string, bool) {
	for elem := range strings.FieldsSeq(origin) {
		if len(elem) > maxOriginLen {
			continue
		}
		if a.any {
			return elem, true
		}
		for i := range a.patterns {
			if a.patterns[i].Matches(elem) {
				return elem, true
			}
		}
	}
	return "", false
}
