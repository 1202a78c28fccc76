package headers

import (
	"net/http"

	"golang.org/x/net/http/httpguts"
)

// header names in canonical format
const (
	// common request headers
	Origin     = "Origin"
	Connection = "Connection"
	Upgrade    = "Upgrade"

	// preflight-only request headers
	ACRM = "Access-Control-Request-Method"
	ACRH = "Access-Control-Request-Headers"

	// common response headers
	ACAO = "Access-Control-Allow-Origin"
	ACAC = "Access-Control-Allow-Credentials"

	// preflight-only response headers
	ACAM = "Access-Control-Allow-Methods"
	ACAH = "Access-Control-Allow-Headers"
	ACMA = "Access-Control-Max-Age"

	Vary = "Vary"
)

const (
	ValueTrue     = "true"
	ValueWildcard = "*"
	ValueSep      = ","
)

// tokens looked up (case-insensitively) in the Connection and Upgrade headers
const (
	tokenUpgrade   = "upgrade"
	tokenWebSocket = "websocket"
)

// TrueSgl is an effective constant wrapped in a (singleton) slice.
var TrueSgl = []string{ValueTrue}

// IsValid reports whether name is a valid header name,
// [per the Fetch standard].
//
// [per the Fetch standard]: https://fetch.spec.whatwg.org/#header-name
func IsValid(name string) bool {
	return httpguts.ValidHeaderFieldName(name)
}

// First, if k is present in hdrs, returns the value associated to k in hdrs,
// a singleton slice containing that value, and true;
// otherwise, First returns "", nil, false.
// Precondition: k is in canonical format (see [http.CanonicalHeaderKey]).
func First(hdrs http.Header, k string) (string, []string, bool) {
	v, found := hdrs[k]
	if !found || len(v) == 0 {
		return "", nil, false
	}
	return v[0], v[:1], true
}

// IsWebSocketUpgrade reports whether hdrs announce a WebSocket handshake,
// i.e. whether some Connection field line lists the "upgrade" token
// and some Upgrade field line lists the "websocket" token.
// Both tokens are matched case-insensitively.
func IsWebSocketUpgrade(hdrs http.Header) bool {
	return httpguts.HeaderValuesContainsToken(hdrs[Connection], tokenUpgrade) &&
		httpguts.HeaderValuesContainsToken(hdrs[Upgrade], tokenWebSocket)
}
