package cors

import (
	"errors"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/brunoabdon/abdedge/cfgerrors"
	"github.com/brunoabdon/abdedge/internal/headers"
	"github.com/brunoabdon/abdedge/internal/methods"
	"github.com/brunoabdon/abdedge/internal/origins"
	"github.com/brunoabdon/abdedge/internal/util"
)

// EnvAllowedOrigins is the name of the environment variable from which
// [ConfigFromEnv] reads the comma-separated list of allowed origins.
const EnvAllowedOrigins = "ABD_HTTP_ALLOWED_ORIGINS"

const (
	// DefaultMaxAgeInSeconds is the preflight-cache lifetime used when
	// Config.MaxAgeInSeconds is 0.
	DefaultMaxAgeInSeconds = 1800
	// MaxMaxAgeInSeconds is the largest max-age value that browsers honor
	// (Firefox caps it at 24h; Chromium and WebKit cap it even lower).
	MaxMaxAgeInSeconds = 86400
)

// DefaultMethods returns the methods allowed when Config.Methods is nil.
func DefaultMethods() []string {
	return []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodHead,
		http.MethodOptions,
		http.MethodDelete,
	}
}

// DefaultRequestHeaders returns the request-header names allowed when
// Config.RequestHeaders is nil.
func DefaultRequestHeaders() []string {
	return []string{
		"Accept",
		"Accept-Encoding",
		"Accept-Language",
		"Connection",
		"Content-Type",
		"Host",
		"Origin",
		"X-Abd-auth_token",
		"X-Requested-With",
	}
}

// A Config configures a [Middleware]. The mechanics of and interplay between
// this type's various fields are explained below.
// Attempts to use settings described as "prohibited" result in a failure
// to build the desired middleware.
//
// # Origins
//
// Origins configures a CORS middleware to allow access from any of the
// [Web origins] encompassed by the specified origin patterns:
//
//	Origins: []string{
//	  "https://example.com",
//	  "https://*.example.com",
//	},
//
// Omitting to specify at least one origin pattern is prohibited;
// so is specifying one or more invalid or prohibited origin pattern(s).
//
// A single asterisk denotes all origins:
//
//	Origins: []string{"*"},
//
// If it is present, all other origin patterns are discarded.
// Because credentials are always allowed, the middleware never sends the
// asterisk back; it echoes the request's origin instead.
//
// Every other asterisk in a pattern denotes an arbitrary (possibly empty)
// sequence of bytes, dots included. For instance, the pattern
//
//	https://*.example.com
//
// encompasses the following origins (among others):
//
//	https://foo.example.com
//	https://bar.foo.example.com
//
// but neither https://example.com nor https://evilexample.com.
// Patterns may omit the scheme, in which case they are matched against the
// value of the Origin header as is:
//
//	*.example.com // encompasses a.example.com and a.b.example.com
//
// Hosts are byte-lowercased, and Unicode hosts are converted to their
// Punycode form:
//
//	https://bücher.example // same as https://xn--bcher-kva.example
//
// Because the [null origin] is [fundamentally unsafe], it is prohibited.
// Patterns that contain whitespace, control characters, commas, a path,
// a query, a fragment, or userinfo are invalid.
//
// For security reasons, patterns that encompass all subdomains of a
// [public suffix] (e.g. https://*.com) are prohibited, unless
// DangerouslyTolerateSubdomainsOfPublicSuffixes is set.
//
// # Methods
//
// Methods lists the methods that preflight requests may ask for.
// If Methods is nil, [DefaultMethods] applies; a non-nil empty slice allows
// no method at all. Method names are case-sensitive and must be valid
// tokens. The full list is sent in the Access-Control-Allow-Methods header
// of every successful preflight response.
//
// # RequestHeaders
//
// RequestHeaders lists the request-header names that preflight requests may
// ask for. If RequestHeaders is nil, [DefaultRequestHeaders] applies.
// Header names are case-insensitive and must be valid field names.
// The full list is sent in the Access-Control-Allow-Headers header of every
// successful preflight response.
//
// # MaxAgeInSeconds
//
// MaxAgeInSeconds configures the Access-Control-Max-Age header of successful
// preflight responses. The zero value stands for
// [DefaultMaxAgeInSeconds]; negative values and values larger than
// [MaxMaxAgeInSeconds] are prohibited.
//
// # PreflightSuccessStatus
//
// PreflightSuccessStatus is the status of successful preflight responses.
// The zero value stands for 204; other values must be in the 2xx range.
//
// # PreflightFailureStatus
//
// By default, the middleware forwards preflight requests that ask for a
// disallowed method or header to the handler it wraps, without any CORS
// headers, so that the handler's default "no such route/method" status
// applies. Setting PreflightFailureStatus (to a value in the 4xx or 5xx
// range) makes the middleware answer such requests directly with that
// status instead.
//
// # DangerouslyTolerateSubdomainsOfPublicSuffixes
//
// DangerouslyTolerateSubdomainsOfPublicSuffixes enables you to allow all
// subdomains of some [public suffix]
// (also known as "effective top-level domain"),
// which is by default prohibited.
//
// Be aware that allowing all subdomains of a public suffix (e.g. com)
// is dangerous, because such domains are typically registrable by anyone,
// including attackers.
//
// [Web origins]: https://developer.mozilla.org/en-US/docs/Glossary/Origin
// [fundamentally unsafe]: https://portswigger.net/research/exploiting-cors-misconfigurations-for-bitcoins-and-bounties
// [null origin]: https://fetch.spec.whatwg.org/#append-a-request-origin-header
// [public suffix]: https://publicsuffix.org/
type Config struct {
	// Precludes comparability, unkeyed struct literals, and conversion to and
	// from third-party types.
	_ [0]func()

	Origins                                       []string
	Methods                                       []string
	RequestHeaders                                []string
	MaxAgeInSeconds                               int
	PreflightSuccessStatus                        int
	PreflightFailureStatus                        int
	DangerouslyTolerateSubdomainsOfPublicSuffixes bool
}

// ParseOrigins splits raw, a comma-separated list of origin patterns,
// into its elements. Elements are trimmed of surrounding whitespace and empty
// elements are ignored. If one element is "*", ParseOrigins returns
// []string{"*"}.
func ParseOrigins(raw string) []string {
	var res []string
	for elem := range strings.SplitSeq(raw, headers.ValueSep) {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			continue
		}
		if elem == headers.ValueWildcard {
			return []string{headers.ValueWildcard}
		}
		res = append(res, elem)
	}
	return res
}

// ConfigFromEnv returns a Config whose Origins field is populated from
// environment variable [EnvAllowedOrigins] by [ParseOrigins]; all other
// fields are left at their zero value. If the variable is not set at all,
// ConfigFromEnv returns a *[cfgerrors.MissingOriginsError].
// A variable that is set but lists no origin is reported by [NewMiddleware].
func ConfigFromEnv() (Config, error) {
	raw, found := os.LookupEnv(EnvAllowedOrigins)
	if !found {
		return Config{}, &cfgerrors.MissingOriginsError{EnvVar: EnvAllowedOrigins}
	}
	return Config{Origins: ParseOrigins(raw)}, nil
}

const (
	defaultSuccessStatus = http.StatusNoContent
	minSuccessStatus     = 200
	maxSuccessStatus     = 299
	minFailureStatus     = 400
	maxFailureStatus     = 599
)

type internalConfig struct {
	allowlist      origins.Allowlist
	allowedMethods util.SortedSet // case-sensitive
	allowedReqHdrs util.SortedSet // byte-lowercase
	methods        []string       // in configuration order, deduplicated
	reqHdrs        []string       // in configuration order, deduplicated
	maxAge         int
	successStatus  int
	failureStatus  int // 0 => forward failed preflights

	tolerateSubsOfPublicSuffixes bool

	// precomputed values of preflight response headers;
	// nil if the corresponding header must be omitted
	acam []string
	acah []string
	acma []string
}

func newInternalConfig(cfg *Config) (*internalConfig, error) {
	if cfg == nil {
		return nil, nil
	}
	icfg := internalConfig{
		tolerateSubsOfPublicSuffixes: cfg.DangerouslyTolerateSubdomainsOfPublicSuffixes,
	}

	// Accumulate errors in a slice so as to call errors.Join at most once.
	errs := icfg.validateOriginPatterns(cfg.Origins)
	errs = icfg.validateMethods(errs, cfg.Methods)
	errs = icfg.validateRequestHeaders(errs, cfg.RequestHeaders)
	errs = icfg.validateMaxAge(errs, cfg.MaxAgeInSeconds)
	errs = icfg.validateStatuses(errs, cfg.PreflightSuccessStatus, cfg.PreflightFailureStatus)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &icfg, nil
}

func (icfg *internalConfig) validateOriginPatterns(rawPatterns []string) []error {
	if len(rawPatterns) == 0 {
		err := &cfgerrors.UnacceptableOriginPatternError{
			Reason: "missing",
		}
		return []error{err}
	}
	var (
		ps             []origins.Pattern
		allowAnyOrigin bool
		errs           []error
	)
	for _, raw := range rawPatterns {
		if raw == headers.ValueWildcard {
			allowAnyOrigin = true
			continue
		}
		pattern, err := origins.ParsePattern(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !icfg.tolerateSubsOfPublicSuffixes && pattern.HostIsEffectiveTLD() {
			err := &cfgerrors.IncompatibleOriginPatternError{
				Value:  raw,
				Reason: "psl",
			}
			errs = append(errs, err)
			continue
		}
		ps = append(ps, pattern)
	}
	if allowAnyOrigin {
		// All other patterns are redundant.
		icfg.allowlist = origins.AnyOrigin()
	} else {
		icfg.allowlist = origins.NewAllowlist(ps...)
	}
	return errs
}

func (icfg *internalConfig) validateMethods(errs []error, names []string) []error {
	if names == nil {
		names = DefaultMethods()
	}
	for _, name := range names {
		if !methods.IsValid(name) {
			err := &cfgerrors.UnacceptableMethodError{
				Value:  name,
				Reason: "invalid",
			}
			errs = append(errs, err)
			continue
		}
		if icfg.allowedMethods.Contains(name) {
			continue
		}
		icfg.allowedMethods.Add(name)
		icfg.methods = append(icfg.methods, name)
	}
	if len(icfg.methods) > 0 {
		icfg.acam = []string{strings.Join(icfg.methods, headers.ValueSep)}
	}
	return errs
}

func (icfg *internalConfig) validateRequestHeaders(errs []error, names []string) []error {
	if names == nil {
		names = DefaultRequestHeaders()
	}
	for _, name := range names {
		if !headers.IsValid(name) {
			err := &cfgerrors.UnacceptableHeaderNameError{
				Value:  name,
				Reason: "invalid",
			}
			errs = append(errs, err)
			continue
		}
		// Fetch-compliant browsers byte-lowercase header names
		// before writing them to the ACRH header; see
		// https://fetch.spec.whatwg.org/#cors-unsafe-request-header-names,
		// step 6.
		normalized := util.ByteLowercase(name)
		if icfg.allowedReqHdrs.Contains(normalized) {
			continue
		}
		icfg.allowedReqHdrs.Add(normalized)
		icfg.reqHdrs = append(icfg.reqHdrs, name)
	}
	if len(icfg.reqHdrs) > 0 {
		// The elements of a header-field value may be separated simply by
		// commas; since whitespace is optional, let's not use any.
		icfg.acah = []string{strings.Join(icfg.reqHdrs, headers.ValueSep)}
	}
	return errs
}

func (icfg *internalConfig) validateMaxAge(errs []error, delta int) []error {
	if delta < 0 || MaxMaxAgeInSeconds < delta {
		err := &cfgerrors.MaxAgeOutOfBoundsError{
			Value:   delta,
			Default: DefaultMaxAgeInSeconds,
			Max:     MaxMaxAgeInSeconds,
		}
		return append(errs, err)
	}
	if delta == 0 {
		delta = DefaultMaxAgeInSeconds
	}
	icfg.maxAge = delta
	icfg.acma = []string{strconv.Itoa(delta)}
	return errs
}

func (icfg *internalConfig) validateStatuses(errs []error, success, failure int) []error {
	switch {
	case success == 0:
		icfg.successStatus = defaultSuccessStatus
	case success < minSuccessStatus || maxSuccessStatus < success:
		err := &cfgerrors.StatusOutOfBoundsError{
			Value: success,
			Kind:  "success",
			Min:   minSuccessStatus,
			Max:   maxSuccessStatus,
		}
		errs = append(errs, err)
	default:
		icfg.successStatus = success
	}
	if failure != 0 && (failure < minFailureStatus || maxFailureStatus < failure) {
		err := &cfgerrors.StatusOutOfBoundsError{
			Value: failure,
			Kind:  "failure",
			Min:   minFailureStatus,
			Max:   maxFailureStatus,
		}
		return append(errs, err)
	}
	icfg.failureStatus = failure
	return errs
}

// newConfig returns a Config equivalent to icfg.
func newConfig(icfg *internalConfig) *Config {
	if icfg == nil {
		return nil
	}
	cfg := Config{
		Origins:                icfg.allowlist.Patterns(),
		Methods:                slices.Clone(icfg.methods),
		RequestHeaders:         slices.Clone(icfg.reqHdrs),
		MaxAgeInSeconds:        icfg.maxAge,
		PreflightSuccessStatus: icfg.successStatus,
		PreflightFailureStatus: icfg.failureStatus,
		DangerouslyTolerateSubdomainsOfPublicSuffixes: icfg.tolerateSubsOfPublicSuffixes,
	}
	if cfg.Methods == nil {
		cfg.Methods = []string{}
	}
	if cfg.RequestHeaders == nil {
		cfg.RequestHeaders = []string{}
	}
	return &cfg
}
