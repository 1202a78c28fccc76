package origins

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/brunoabdon/abdedge/cfgerrors"
	"github.com/brunoabdon/abdedge/internal/util"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

const (
	schemeHostSep = "://" // scheme-host separator
	hostPortSep   = ':'   // host-port separator
	labelSep      = '.'   // DNS-label separator

	wildcard    = "*" // marks an arbitrary (possibly empty) byte sequence
	wildcardSeq = wildcard + string(labelSep)
)

const (
	// maxHostLen is the maximum length of a host, which is dominated by
	// the maximum length of an (absolute) domain name (253);
	// see https://devblogs.microsoft.com/oldnewthing/20120412-00/?p=7873.
	maxHostLen = 253
	// maxSchemeLen is the maximum tolerated length for schemes.
	maxSchemeLen = 64
	// maxPortLen is the maximum length of a port's decimal representation.
	maxPortLen = len("65535")
	// maxOriginLen is the maximum length of an origin.
	maxOriginLen = maxSchemeLen + len(schemeHostSep) + maxHostLen + 1 + maxPortLen
	// maxPatternLen is the maximum length of an origin pattern.
	maxPatternLen = maxOriginLen
)

// A Pattern represents a compiled origin pattern.
// A pattern without any asterisk only matches the identical origin;
// each asterisk in a pattern matches an arbitrary (possibly empty) sequence
// of bytes, including dots, so that a single asterisk covers subdomains
// of any depth.
// The zero value does not correspond to a valid pattern.
type Pattern struct {
	raw string         // normalized pattern
	re  *regexp.Regexp // nil unless raw contains a wildcard
}

// ParsePattern validates str, normalizes it (byte-lowercasing its scheme and
// host and converting Unicode labels to their Punycode form), and compiles it.
// If it fails, it returns a non-nil error and the zero Pattern.
// Note that origin pattern "*" is handled elsewhere.
func ParsePattern(str string) (Pattern, error) {
	if len(str) == 0 || len(str) > maxPatternLen {
		return Pattern{}, invalidOriginPatternError(str)
	}
	if strings.EqualFold(str, "null") {
		// The null origin is shared by sandboxed iframes, local files,
		// redirects, etc.; allowing it amounts to allowing anyone.
		return Pattern{}, prohibitedOriginPatternError(str)
	}
	for i := 0; i < len(str); i++ {
		if b := str[i]; b <= ' ' || b == 0x7f || b == ',' {
			return Pattern{}, invalidOriginPatternError(str)
		}
	}
	normalized, ok := normalize(str)
	if !ok {
		return Pattern{}, invalidOriginPatternError(str)
	}
	p := Pattern{raw: normalized}
	if strings.Contains(normalized, wildcard) {
		// Escape every metacharacter (including dots), then let each
		// (now escaped) asterisk match any sequence. The resulting
		// expression is anchored at both ends.
		expr := strings.ReplaceAll(regexp.QuoteMeta(normalized), `\*`, ".*")
		re, err := regexp.Compile("^" + expr + "$")
		if err != nil {
			return Pattern{}, invalidOriginPatternError(str)
		}
		p.re = re
	}
	return p, nil
}

// normalize byte-lowercases the scheme (if any) and the host of pattern str
// and converts any of the host's non-ASCII labels to Punycode.
// The port (if any) is left untouched.
func normalize(str string) (string, bool) {
	scheme, rest, found := strings.Cut(str, schemeHostSep)
	if !found {
		scheme, rest = "", str
	} else if len(scheme) > maxSchemeLen {
		return "", false
	}
	if strings.ContainsAny(rest, "/?#@") {
		// no path, query, fragment, or userinfo
		return "", false
	}
	host, port := splitHostPort(rest)
	if host == "" || !isPortPattern(port) {
		return "", false
	}
	host, ok := toASCIIHost(host)
	if !ok || len(host) > maxHostLen {
		return "", false
	}
	var sb strings.Builder
	sb.Grow(len(str) + len(host))
	if found {
		sb.WriteString(util.ByteLowercase(scheme))
		sb.WriteString(schemeHostSep)
	}
	sb.WriteString(util.ByteLowercase(host))
	sb.WriteString(port)
	return sb.String(), true
}

// splitHostPort splits s into a host and a (possibly empty) port suffix
// that includes its leading colon.
// Bracketed IPv6 hosts are returned along with their brackets.
func splitHostPort(s string) (host, port string) {
	if strings.HasPrefix(s, "[") {
		if end := strings.IndexByte(s, ']'); end >= 0 {
			return s[:end+1], s[end+1:]
		}
		return s, ""
	}
	if i := strings.IndexByte(s, hostPortSep); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

// isPortPattern reports whether port is empty, or a colon followed by
// either a wildcard or at most maxPortLen decimal digits.
func isPortPattern(port string) bool {
	if port == "" {
		return true
	}
	digits := port[1:]
	if digits == wildcard {
		return true
	}
	if len(digits) == 0 || len(digits) > maxPortLen {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// toASCIIHost converts each non-ASCII label of host to its Punycode form.
// Labels containing a wildcard must be ASCII.
func toASCIIHost(host string) (string, bool) {
	if isASCII(host) {
		return host, true
	}
	labels := strings.Split(host, string(labelSep))
	for i, label := range labels {
		if isASCII(label) {
			continue
		}
		if strings.Contains(label, wildcard) {
			return "", false
		}
		ascii, err := idna.Lookup.ToASCII(label)
		if err != nil {
			return "", false
		}
		labels[i] = ascii
	}
	return strings.Join(labels, string(labelSep)), true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func prohibitedOriginPatternError(pattern string) error {
	return &cfgerrors.UnacceptableOriginPatternError{
		Value:  pattern,
		Reason: "prohibited",
	}
}

func invalidOriginPatternError(pattern string) error {
	return &cfgerrors.UnacceptableOriginPatternError{
		Value:  pattern,
		Reason: "invalid",
	}
}

// String returns p's normalized form.
func (p *Pattern) String() string {
	return p.raw
}

// HasWildcard reports whether p contains at least one asterisk.
func (p *Pattern) HasWildcard() bool {
	return p.re != nil
}

// Matches reports whether origin is encompassed by p.
func (p *Pattern) Matches(origin string) bool {
	if p.re == nil {
		return p.raw == origin
	}
	return p.re.MatchString(origin)
}

// HostIsEffectiveTLD reports whether p is of the form
//
//	[scheme://]*.<domain>[:port]
//
// where domain is an effective top-level domain (eTLD), also known as
// [public suffix].
//
// [public suffix]: https://publicsuffix.org/list/
func (p *Pattern) HostIsEffectiveTLD() bool {
	rest := p.raw
	if _, after, found := strings.Cut(rest, schemeHostSep); found {
		rest = after
	}
	host, _ := splitHostPort(rest)
	domain, found := strings.CutPrefix(host, wildcardSeq)
	if !found || domain == "" || strings.Contains(domain, wildcard) {
		return false
	}
	domain = strings.TrimSuffix(domain, string(labelSep))
	// We ignore the second (boolean) result because
	// it's false for some listed eTLDs (e.g. github.io).
	etld, _ := publicsuffix.PublicSuffix(domain)
	return etld == domain
}
