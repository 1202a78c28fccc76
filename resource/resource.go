package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/brunoabdon/abdedge/conditional"
)

const (
	// MissingEntity is the body of 400 responses to write requests that
	// carry no entity.
	MissingEntity = "MISSING_ENTITY"
	// MalformedEntity is the body of 400 responses to write requests whose
	// entity cannot be decoded.
	MalformedEntity = "MALFORMED_ENTITY"

	maxEntityBytes = 1 << 20

	headerAccept      = "Accept"
	headerContentType = "Content-Type"
	headerLocation    = "Location"
)

// IntKey parses decimal integer keys.
func IntKey(s string) (int, error) {
	return strconv.Atoi(s)
}

// StringKey accepts any non-empty key as is.
func StringKey(s string) (string, error) {
	if s == "" {
		return "", errors.New("resource: empty key")
	}
	return s, nil
}

// An Option customizes a [Resource] built by [New].
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger makes the resource log to logger.
// By default, it uses [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// A Resource serves the entities of a store under a path prefix.
type Resource[K comparable, E any] struct {
	path       string
	store      ReadOnlyStore[K, E]
	parseKey   func(string) (K, error)
	negotiator *conditional.Negotiator
	logger     *slog.Logger
}

// New returns a Resource serving the entities of store under path.
// parseKey turns the last segment of entity URLs into a key; a parse
// failure yields 404. A nil negotiator means [conditional.NewNegotiator].
func New[K comparable, E any](
	path string,
	store ReadOnlyStore[K, E],
	parseKey func(string) (K, error),
	negotiator *conditional.Negotiator,
	opts ...Option,
) *Resource[K, E] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if negotiator == nil {
		negotiator = conditional.NewNegotiator(conditional.WithLogger(o.logger))
	}
	return &Resource[K, E]{
		path:       "/" + strings.Trim(path, "/"),
		store:      store,
		parseKey:   parseKey,
		negotiator: negotiator,
		logger:     o.logger,
	}
}

// Path returns the path prefix under which rs serves entities.
func (rs *Resource[K, E]) Path() string {
	return rs.path
}

// Register registers rs's routes on mux.
func (rs *Resource[K, E]) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+rs.path, rs.list)
	mux.HandleFunc("GET "+rs.path+"/{id}", rs.get)
	s, ok := rs.store.(Store[K, E])
	if !ok {
		return
	}
	mux.HandleFunc("POST "+rs.path, func(w http.ResponseWriter, r *http.Request) {
		rs.create(w, r, s)
	})
	mux.HandleFunc("POST "+rs.path+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		rs.update(w, r, s)
	})
	mux.HandleFunc("DELETE "+rs.path+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		rs.delete(w, r, s)
	})
}

func (rs *Resource[K, E]) list(w http.ResponseWriter, r *http.Request) {
	elems, err := rs.store.List(r.Context())
	if err != nil {
		rs.fail(w, r, err, false)
		return
	}
	rs.negotiator.Respond(w, r, conditional.List(elems))
}

func (rs *Resource[K, E]) get(w http.ResponseWriter, r *http.Request) {
	key, ok := rs.key(w, r)
	if !ok {
		return
	}
	e, err := rs.store.Find(r.Context(), key)
	if err != nil {
		rs.fail(w, r, err, false)
		return
	}
	rs.negotiator.Respond(w, r, e)
}

func (rs *Resource[K, E]) create(w http.ResponseWriter, r *http.Request, s Store[K, E]) {
	e, ok := rs.decode(w, r)
	if !ok {
		return
	}
	key, stored, err := s.Create(r.Context(), e)
	if err != nil {
		rs.fail(w, r, err, true)
		return
	}
	res, err := rs.negotiator.Negotiate(stored, r.Header.Get(headerAccept), conditional.Preconditions{})
	if err != nil {
		rs.fail(w, r, err, true)
		return
	}
	w.Header().Set(headerLocation, rs.path+"/"+url.PathEscape(fmt.Sprint(key)))
	conditional.WriteResultStatus(w, &res, http.StatusCreated)
}

func (rs *Resource[K, E]) update(w http.ResponseWriter, r *http.Request, s Store[K, E]) {
	key, ok := rs.key(w, r)
	if !ok {
		return
	}
	e, ok := rs.decode(w, r)
	if !ok {
		return
	}
	stored, err := s.Update(r.Context(), key, e)
	if err != nil {
		rs.fail(w, r, err, true)
		return
	}
	res, err := rs.negotiator.Negotiate(stored, r.Header.Get(headerAccept), conditional.Preconditions{})
	if err != nil {
		rs.fail(w, r, err, true)
		return
	}
	conditional.WriteResult(w, &res)
}

func (rs *Resource[K, E]) delete(w http.ResponseWriter, r *http.Request, s Store[K, E]) {
	key, ok := rs.key(w, r)
	if !ok {
		return
	}
	if err := s.Delete(r.Context(), key); err != nil {
		rs.fail(w, r, err, true)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rs *Resource[K, E]) key(w http.ResponseWriter, r *http.Request) (K, bool) {
	key, err := rs.parseKey(r.PathValue("id"))
	if err != nil {
		rs.logger.LogAttrs(r.Context(), slog.LevelDebug, "unparsable key",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		http.NotFound(w, r)
		return key, false
	}
	return key, true
}

// decode reads the request's entity, as YAML if the request says so and
// as JSON otherwise.
func (rs *Resource[K, E]) decode(w http.ResponseWriter, r *http.Request) (E, bool) {
	var (
		zero E
		e    *E
	)
	body := &readErrRecorder{r: http.MaxBytesReader(w, r.Body, maxEntityBytes)}
	err := decoderFor(r.Header.Get(headerContentType), body).Decode(&e)
	if errors.Is(err, io.EOF) || err == nil && e == nil {
		http.Error(w, MissingEntity, http.StatusBadRequest)
		return zero, false
	}
	if err != nil {
		rs.logger.LogAttrs(r.Context(), slog.LevelDebug, "malformed entity",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		// Some decoders flatten read errors into their own messages.
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.As(body.err, &tooLarge) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
			return zero, false
		}
		http.Error(w, MalformedEntity, http.StatusBadRequest)
		return zero, false
	}
	return *e, true
}

// readErrRecorder remembers the last non-EOF error of the reader it wraps.
type readErrRecorder struct {
	r   io.Reader
	err error
}

func (rec *readErrRecorder) Read(p []byte) (int, error) {
	n, err := rec.r.Read(p)
	if err != nil && err != io.EOF {
		rec.err = err
	}
	return n, err
}

type decoder interface {
	Decode(v any) error
}

func decoderFor(contentType string, body io.Reader) decoder {
	mt, _, _ := mime.ParseMediaType(contentType)
	if slices.Contains(conditional.YAMLCodec{}.MediaTypes(), mt) {
		return yaml.NewDecoder(body)
	}
	return json.NewDecoder(body)
}

// fail maps err to a response. Store refusals are conflicts for writes
// and bad requests for reads.
func (rs *Resource[K, E]) fail(w http.ResponseWriter, r *http.Request, err error, write bool) {
	ctx := r.Context()
	var se *StoreError
	switch {
	case errors.Is(err, ErrNotFound):
		rs.logger.LogAttrs(ctx, slog.LevelDebug, "entity not found",
			slog.String("path", r.URL.Path),
		)
		http.NotFound(w, r)
	case errors.As(err, &se):
		status := http.StatusBadRequest
		if write {
			status = http.StatusConflict
		}
		rs.logger.LogAttrs(ctx, slog.LevelDebug, "store refused operation",
			slog.String("op", se.Op),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		http.Error(w, se.Err.Error(), status)
	default:
		ref := uuid.NewString()
		rs.logger.LogAttrs(ctx, slog.LevelError, "request failed",
			slog.String("ref", ref),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		http.Error(w, "error: "+ref, http.StatusInternalServerError)
	}
}
