package cors

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/brunoabdon/abdedge/internal/headers"
	"github.com/brunoabdon/abdedge/internal/methods"
)

// A Classification describes what kind of request, from the CORS protocol's
// perspective, a request is.
type Classification uint8

const (
	// NotCrossOrigin: the request carries no Origin header.
	NotCrossOrigin Classification = iota
	// Simple: a GET, HEAD or POST request without an
	// Access-Control-Request-Method header.
	Simple
	// Preflight: an OPTIONS request with an Access-Control-Request-Method
	// header.
	Preflight
	// NonSimpleActual: any other request carrying an Origin header.
	NonSimpleActual
)

func (c Classification) String() string {
	switch c {
	case NotCrossOrigin:
		return "not_cross_origin"
	case Simple:
		return "simple"
	case Preflight:
		return "preflight"
	case NonSimpleActual:
		return "non_simple_actual"
	default:
		return "unknown"
	}
}

// An Action is what a [Middleware] does with a request.
type Action uint8

const (
	// Pass: forward the request to the wrapped handler and add no header.
	Pass Action = iota
	// Decorate: add Access-Control-Allow-Origin,
	// Access-Control-Allow-Credentials and Vary to the response,
	// then forward the request to the wrapped handler.
	Decorate
	// Respond: answer a successful preflight request directly,
	// with the full set of CORS preflight headers and no body.
	Respond
	// Reject: a preflight request asked for a disallowed method or header;
	// no CORS header is added. The request is either forwarded to the
	// wrapped handler or answered with the configured failure status.
	Reject
)

func (a Action) String() string {
	switch a {
	case Pass:
		return "pass"
	case Decorate:
		return "decorate"
	case Respond:
		return "respond"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// A Decision is the outcome of [*Middleware.Evaluate].
type Decision struct {
	Classification Classification
	Action         Action
	// Origin is the allowed origin echoed in Access-Control-Allow-Origin;
	// it is empty unless Action is Decorate or Respond.
	Origin string
	// Status is the status of the response that the middleware writes
	// itself; it is 0 unless the middleware short-circuits the request.
	Status int
}

// An Observer is notified of every [Decision] a [Middleware] makes.
// Observers are called synchronously and must be safe for concurrent use.
type Observer interface {
	ObserveDecision(Decision)
}

// An Option customizes a [Middleware] built by [NewMiddleware].
type Option func(*Middleware)

// WithLogger makes the middleware log its decisions, at debug level,
// to logger. By default, the middleware uses [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(m *Middleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithObserver registers obs to be notified of every decision.
func WithObserver(obs Observer) Option {
	return func(m *Middleware) {
		m.observer = obs
	}
}

// A Middleware is a CORS middleware.
// Call its [*Middleware.Wrap] method to apply it to a [http.Handler].
//
// The zero value is ready to use but is a mere "passthrough" middleware,
// i.e. a middleware that simply delegates to the handler(s) it wraps.
// To obtain a proper CORS middleware, you should call [NewMiddleware]
// and pass it a valid [Config].
//
// A Middleware's configuration cannot change after it has been built;
// Middleware are therefore safe for concurrent use by multiple goroutines.
type Middleware struct {
	icfg     *internalConfig
	logger   *slog.Logger
	observer Observer
}

// NewMiddleware creates a CORS middleware that behaves in accordance with cfg.
// If cfg is invalid, it returns a nil [*Middleware] and some non-nil error.
// Otherwise, it returns a pointer to a CORS [Middleware] and a nil error.
//
// Mutating the fields of cfg after NewMiddleware has returned a functioning
// middleware does not alter the latter's behavior.
//
// If you need to programmatically handle the configuration errors constitutive
// of the resulting error, rely on package
// [github.com/brunoabdon/abdedge/cfgerrors].
func NewMiddleware(cfg Config, opts ...Option) (*Middleware, error) {
	icfg, err := newInternalConfig(&cfg)
	if err != nil {
		return nil, err
	}
	m := Middleware{
		icfg:   icfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.logger.LogAttrs(context.Background(), slog.LevelInfo, "cors middleware configured",
		slog.Any("origins", icfg.allowlist.Patterns()),
		slog.Any("methods", icfg.methods),
		slog.Any("request_headers", icfg.reqHdrs),
		slog.Int("max_age", icfg.maxAge),
	)
	return &m, nil
}

// Config returns a pointer to a deep copy of m's configuration;
// if m is a passthrough middleware, it simply returns nil.
// Defaults are made explicit in the result.
func (m *Middleware) Config() *Config {
	return newConfig(m.icfg)
}

// Evaluate classifies r and decides how m handles it.
// Evaluate never fails: malformed CORS request headers degrade to the most
// restrictive decision.
func (m *Middleware) Evaluate(r *http.Request) Decision {
	d, reason := m.evaluate(r)
	m.record(r, d, reason)
	return d
}

// evaluate is Evaluate without any side effect;
// it also returns a short human-readable reason for the decision.
func (m *Middleware) evaluate(r *http.Request) (Decision, string) {
	icfg := m.icfg
	// Fetch-compliant browsers send at most one Origin header;
	// see https://fetch.spec.whatwg.org/#http-network-or-cache-fetch
	// (step 12).
	origin, _, found := headers.First(r.Header, headers.Origin)
	if !found {
		// r is NOT a CORS request;
		// see https://fetch.spec.whatwg.org/#cors-request.
		return Decision{Classification: NotCrossOrigin}, "no origin"
	}
	// Fetch-compliant browsers send at most one ACRM header;
	// see https://fetch.spec.whatwg.org/#cors-preflight-fetch (step 3).
	acrm, _, hasACRM := headers.First(r.Header, headers.ACRM)
	d := Decision{Classification: classify(r.Method, hasACRM)}
	if icfg == nil {
		return d, "passthrough"
	}
	if headers.IsWebSocketUpgrade(r.Header) {
		// Upgrade responses must not carry extra headers.
		return d, "websocket upgrade"
	}
	matched, ok := icfg.allowlist.Match(origin)
	if !ok {
		// CORS is enforced by the browser; the request itself isn't refused.
		return d, "origin not allowed"
	}
	if d.Classification != Preflight {
		// Non-simple actual requests are treated like simple ones:
		// browsers only send them after a successful preflight.
		d.Action = Decorate
		d.Origin = matched
		return d, "origin allowed"
	}
	if !icfg.allowedMethods.Contains(acrm) {
		return icfg.reject(d), "method not allowed"
	}
	// Note: a missing ACRH header is vacuously allowed.
	if !headers.Check(icfg.allowedReqHdrs, r.Header[headers.ACRH]) {
		return icfg.reject(d), "request headers not allowed"
	}
	d.Action = Respond
	d.Origin = matched
	d.Status = icfg.successStatus
	return d, "preflight allowed"
}

func (icfg *internalConfig) reject(d Decision) Decision {
	d.Action = Reject
	d.Status = icfg.failureStatus
	return d
}

func classify(method string, hasACRM bool) Classification {
	switch {
	case methods.IsOptions(method) && hasACRM:
		return Preflight
	case methods.IsSimple(method) && !hasACRM:
		return Simple
	default:
		return NonSimpleActual
	}
}

func (m *Middleware) record(r *http.Request, d Decision, reason string) {
	if m.observer != nil {
		m.observer.ObserveDecision(d)
	}
	if m.logger == nil || d.Classification == NotCrossOrigin {
		return
	}
	ctx := r.Context()
	if !m.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	m.logger.LogAttrs(ctx, slog.LevelDebug, "cors decision",
		slog.String("method", r.Method),
		slog.String("origin", r.Header.Get(headers.Origin)),
		slog.String("classification", d.Classification.String()),
		slog.String("action", d.Action.String()),
		slog.String("reason", reason),
	)
}

// Wrap applies the CORS middleware to the specified handler.
func (m *Middleware) Wrap(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.icfg == nil { // passthrough middleware
			h.ServeHTTP(w, r)
			return
		}
		d := m.Evaluate(r)
		switch d.Action {
		case Decorate:
			m.icfg.decorate(w.Header(), d.Origin)
			h.ServeHTTP(w, r)
		case Respond:
			// Because h.ServeHTTP is not called in this branch, we can safely
			// rely, for performance, on some precomputed slices for setting
			// headers.
			m.icfg.respondToPreflight(w, d)
		case Reject:
			if d.Status != 0 {
				w.WriteHeader(d.Status)
				return
			}
			h.ServeHTTP(w, r)
		default:
			h.ServeHTTP(w, r)
		}
	})
}

func (icfg *internalConfig) decorate(resHdrs http.Header, origin string) {
	// It's tempting to rely (for performance) on some precomputed slices for
	// the response headers we add/set here, as we do in respondToPreflight.
	// However, doing so here is fraught with peril, because it would provide
	// the wrapped handler an undesirable affordance: mutation of those slices.
	// See https://github.com/rs/cors/issues/198.
	resHdrs.Set(headers.ACAO, origin)
	resHdrs.Set(headers.ACAC, headers.ValueTrue)
	// We must add rather than set a Vary header here, because outer
	// middleware may have already added/set a Vary header, which we wouldn't
	// want to clobber.
	resHdrs.Add(headers.Vary, headers.Origin)
}

func (icfg *internalConfig) respondToPreflight(w http.ResponseWriter, d Decision) {
	resHdrs := w.Header()
	resHdrs[headers.ACAO] = []string{d.Origin}
	resHdrs[headers.ACAC] = headers.TrueSgl
	if icfg.acma != nil {
		resHdrs[headers.ACMA] = icfg.acma
	}
	if icfg.acam != nil {
		resHdrs[headers.ACAM] = icfg.acam
	}
	if icfg.acah != nil {
		resHdrs[headers.ACAH] = icfg.acah
	}
	w.WriteHeader(d.Status)
}
