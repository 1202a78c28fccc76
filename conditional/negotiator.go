package conditional

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"

	"github.com/munnerz/goautoneg"
)

const (
	headerAccept        = "Accept"
	headerContentLength = "Content-Length"
	headerContentType   = "Content-Type"
	headerETag          = "ETag"
	headerVary          = "Vary"
)

// A Result is what [*Negotiator.Negotiate] produces.
type Result struct {
	Outcome Outcome
	ETag    ETag
	// ContentType is the negotiated media type.
	ContentType string
	// Type is the type that content negotiation considered: the element
	// type of a Collection, or the representation's own type.
	Type reflect.Type
	// Body holds the encoded representation; it is empty unless Outcome
	// is ProceedFresh.
	Body []byte
}

// Status returns the HTTP status matching r's outcome.
func (r *Result) Status() int {
	switch r.Outcome {
	case NotModified:
		return http.StatusNotModified
	case PreconditionFailed:
		return http.StatusPreconditionFailed
	default:
		return http.StatusOK
	}
}

// An Observer is notified of every [Outcome] a [Negotiator] produces.
// Observers are called synchronously and must be safe for concurrent use.
type Observer interface {
	ObserveOutcome(Outcome)
}

// An Option customizes a [Negotiator] built by [NewNegotiator].
type Option func(*Negotiator)

// WithLogger makes the negotiator log to logger.
// By default, it uses [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(n *Negotiator) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithObserver registers obs to be notified of every outcome.
func WithObserver(obs Observer) Option {
	return func(n *Negotiator) {
		n.observer = obs
	}
}

// WithCodecs replaces the negotiator's codecs. The first codec is the
// default one, used when the Accept header is absent or when no codec
// satisfies it. WithCodecs ignores an empty list.
func WithCodecs(codecs ...Codec) Option {
	return func(n *Negotiator) {
		if len(codecs) > 0 {
			n.codecs = codecs
		}
	}
}

// A Negotiator turns representations into conditionally-revalidated
// responses. It holds no per-request state and is safe for concurrent use.
type Negotiator struct {
	codecs   []Codec
	logger   *slog.Logger
	observer Observer
}

// NewNegotiator returns a Negotiator that encodes representations as JSON
// (the default) or YAML, unless [WithCodecs] says otherwise.
func NewNegotiator(opts ...Option) *Negotiator {
	n := Negotiator{
		codecs: []Codec{JSONCodec{}, YAMLCodec{}},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&n)
	}
	return &n
}

// Negotiate encodes rep with the codec that best satisfies accept, computes
// the entity tag of the result, and evaluates pre against it.
// It only fails if rep cannot be encoded.
func (n *Negotiator) Negotiate(rep any, accept string, pre Preconditions) (Result, error) {
	typ := negotiatedType(rep)
	codec, mediaType := n.choose(accept, typ)
	body, err := codec.Encode(rep)
	if err != nil {
		return Result{}, fmt.Errorf("conditional: encoding %T as %s: %w", rep, mediaType, err)
	}
	res := Result{
		ETag:        NewETag(body, accept),
		ContentType: mediaType,
		Type:        typ,
	}
	res.Outcome = pre.Evaluate(res.ETag)
	if res.Outcome == ProceedFresh {
		res.Body = body
	}
	if n.observer != nil {
		n.observer.ObserveOutcome(res.Outcome)
	}
	return res, nil
}

// choose returns the codec (and media type) that best satisfies accept
// among those that accept typ, falling back to the default codec.
func (n *Negotiator) choose(accept string, typ reflect.Type) (Codec, string) {
	def := n.codecs[0]
	if accept == "" {
		return def, def.MediaTypes()[0]
	}
	var (
		alternatives []string
		byMediaType  = make(map[string]Codec)
	)
	for _, c := range n.codecs {
		if rc, ok := c.(TypeRestrictedCodec); ok && !rc.Accepts(typ) {
			continue
		}
		for _, mt := range c.MediaTypes() {
			if _, dup := byMediaType[mt]; dup {
				continue
			}
			byMediaType[mt] = c
			alternatives = append(alternatives, mt)
		}
	}
	if mt := goautoneg.Negotiate(accept, alternatives); mt != "" {
		return byMediaType[mt], mt
	}
	return def, def.MediaTypes()[0]
}

// Respond negotiates rep against r's Accept and precondition headers and
// writes the result to w: 200 with the body, 304 without it, or 412.
// Encoding failures result in a 500.
func (n *Negotiator) Respond(w http.ResponseWriter, r *http.Request, rep any) {
	n.RespondStatus(w, r, rep, http.StatusOK)
}

// RespondStatus is like Respond, but uses status instead of 200 when the
// outcome is ProceedFresh.
func (n *Negotiator) RespondStatus(w http.ResponseWriter, r *http.Request, rep any, status int) {
	ctx := r.Context()
	pre := ParsePreconditions(r.Header, r.Method)
	res, err := n.Negotiate(rep, r.Header.Get(headerAccept), pre)
	if err != nil {
		n.logger.LogAttrs(ctx, slog.LevelError, "failed to encode representation",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	n.log(ctx, r, &res)
	WriteResultStatus(w, &res, cmp.Or(status, http.StatusOK))
}

func (n *Negotiator) log(ctx context.Context, r *http.Request, res *Result) {
	if !n.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	n.logger.LogAttrs(ctx, slog.LevelDebug, "conditional response",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("etag", res.ETag.String()),
		slog.String("outcome", res.Outcome.String()),
		slog.String("content_type", res.ContentType),
	)
}

// WriteResult writes res to w with the status matching its outcome.
func WriteResult(w http.ResponseWriter, res *Result) {
	WriteResultStatus(w, res, res.Status())
}

// WriteResultStatus writes res to w with the given status, which only
// applies if res's outcome is ProceedFresh.
func WriteResultStatus(w http.ResponseWriter, res *Result, status int) {
	h := w.Header()
	switch res.Outcome {
	case PreconditionFailed:
		w.WriteHeader(http.StatusPreconditionFailed)
		return
	case NotModified:
		h.Set(headerETag, res.ETag.String())
		h.Add(headerVary, headerAccept)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.Set(headerETag, res.ETag.String())
	h.Add(headerVary, headerAccept)
	h.Set(headerContentType, res.ContentType)
	h.Set(headerContentLength, strconv.Itoa(len(res.Body)))
	w.WriteHeader(status)
	w.Write(res.Body)
}
