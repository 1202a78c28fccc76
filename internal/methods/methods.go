package methods

import (
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// IsValid reports whether name is a valid method, [per the Fetch standard].
//
// [per the Fetch standard]: https://fetch.spec.whatwg.org/#concept-method
func IsValid(name string) bool {
	// Note: the production is identical to that of header names.
	return httpguts.ValidHeaderFieldName(name)
}

// IsSimple reports whether name is one of the methods that browsers send
// cross-origin without a preflight (GET, HEAD and POST).
// The comparison is case-sensitive.
func IsSimple(name string) bool {
	switch name {
	case http.MethodGet, http.MethodHead, http.MethodPost:
		return true
	default:
		return false
	}
}

// IsOptions reports whether name denotes the OPTIONS method,
// regardless of case.
func IsOptions(name string) bool {
	return strings.EqualFold(name, http.MethodOptions)
}
