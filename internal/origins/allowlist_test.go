package origins_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/brunoabdon/abdedge/internal/origins"
)

func mustParse(t *testing.T, raws ...string) []origins.Pattern {
	t.Helper()
	var ps []origins.Pattern
	for _, raw := range raws {
		p, err := origins.ParsePattern(raw)
		if err != nil {
			t.Fatalf("ParsePattern(%q): unexpected error %v", raw, err)
		}
		ps = append(ps, p)
	}
	return ps
}

func TestAllowlistMatch(t *testing.T) {
	cases := []struct {
		desc     string
		patterns []string
		any      bool
		origin   string
		want     string
		ok       bool
	}{
		{
			desc:     "exact match",
			patterns: []string{"https://app.example.com"},
			origin:   "https://app.example.com",
			want:     "https://app.example.com",
			ok:       true,
		}, {
			desc:     "no match",
			patterns: []string{"https://app.example.com"},
			origin:   "https://evil.com",
		}, {
			desc:     "empty origin",
			patterns: []string{"https://app.example.com"},
			origin:   "",
		}, {
			desc:     "whitespace-only origin",
			patterns: []string{"https://app.example.com"},
			origin:   "   ",
		}, {
			desc:     "second element of space-separated list matches",
			patterns: []string{"https://app.example.com"},
			origin:   "https://evil.com https://app.example.com",
			want:     "https://app.example.com",
			ok:       true,
		}, {
			desc:     "wildcard pattern matches nested subdomain",
			patterns: []string{"https://app.example.com", "https://*.example.org"},
			origin:   "https://a.b.example.org",
			want:     "https://a.b.example.org",
			ok:       true,
		}, {
			desc:   "any origin echoes first element",
			any:    true,
			origin: "https://foo.com https://bar.com",
			want:   "https://foo.com",
			ok:     true,
		}, {
			desc:   "any origin skips overlong element",
			any:    true,
			origin: "https://" + strings.Repeat("a", 400) + ".com https://bar.com",
			want:   "https://bar.com",
			ok:     true,
		}, {
			desc:   "any origin but no element",
			any:    true,
			origin: " ",
		},
	}
	for _, tc := range cases {
		f := func(t *testing.T) {
			var a origins.Allowlist
			if tc.any {
				a = origins.AnyOrigin()
			} else {
				a = origins.NewAllowlist(mustParse(t, tc.patterns...)...)
			}
			got, ok := a.Match(tc.origin)
			if got != tc.want || ok != tc.ok {
				const tmpl = "Match(%q): got %q, %t; want %q, %t"
				t.Errorf(tmpl, tc.origin, got, ok, tc.want, tc.ok)
			}
		}
		t.Run(tc.desc, f)
	}
}

func TestAllowlistPatterns(t *testing.T) {
	a := origins.NewAllowlist(mustParse(t,
		"https://b.example.com",
		"https://a.example.com",
		"https://B.example.com",
	)...)
	want := []string{"https://b.example.com", "https://a.example.com"}
	if got := a.Patterns(); !slices.Equal(got, want) {
		t.Errorf("got %q; want %q", got, want)
	}
	if a.AllowsAny() || a.IsEmpty() {
		t.Error("unexpected AllowsAny or IsEmpty")
	}
	anyOrigin := origins.AnyOrigin()
	if got := anyOrigin.Patterns(); !slices.Equal(got, []string{"*"}) {
		t.Errorf("got %q; want [*]", got)
	}
	var zero origins.Allowlist
	if !zero.IsEmpty() {
		t.Error("zero Allowlist should be empty")
	}
	if _, ok := zero.Match("https://example.com"); ok {
		t.Error("zero Allowlist should match nothing")
	}
}
