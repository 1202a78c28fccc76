package conditional

import "net/http"

const (
	headerIfMatch     = "If-Match"
	headerIfNoneMatch = "If-None-Match"
)

// An Outcome is the result of evaluating a request's preconditions
// against the entity tag of the current representation.
type Outcome uint8

const (
	// ProceedFresh: send the full representation along with its tag.
	ProceedFresh Outcome = iota
	// NotModified: the client's copy is current; send 304 with the tag
	// and an empty body.
	NotModified
	// PreconditionFailed: send 412 with an empty body.
	PreconditionFailed
)

func (o Outcome) String() string {
	switch o {
	case ProceedFresh:
		return "proceed_fresh"
	case NotModified:
		return "not_modified"
	case PreconditionFailed:
		return "precondition_failed"
	default:
		return "unknown"
	}
}

// Preconditions are the entity-tag preconditions of a request.
// The zero value holds no precondition.
type Preconditions struct {
	method      string
	ifMatch     tagList
	ifNoneMatch tagList
}

// ParsePreconditions captures the If-Match and If-None-Match headers of a
// request whose method is method. Malformed lists are tolerated but never
// match anything.
func ParsePreconditions(h http.Header, method string) Preconditions {
	return Preconditions{
		method:      method,
		ifMatch:     parseTagList(h[headerIfMatch]),
		ifNoneMatch: parseTagList(h[headerIfNoneMatch]),
	}
}

// IsZero reports whether p holds no precondition.
func (p Preconditions) IsZero() bool {
	return !p.ifMatch.present && !p.ifNoneMatch.present
}

// Evaluate compares p against the tag of the current representation,
// in the order prescribed by RFC 9110 §13.2.2. A current representation
// is assumed to exist.
func (p Preconditions) Evaluate(current ETag) Outcome {
	if p.ifMatch.present && !p.ifMatch.strongMatch(current) {
		return PreconditionFailed
	}
	if p.ifNoneMatch.present && p.ifNoneMatch.weakMatch(current) {
		switch p.method {
		case http.MethodGet, http.MethodHead:
			return NotModified
		default:
			return PreconditionFailed
		}
	}
	return ProceedFresh
}
