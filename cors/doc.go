/*
Package cors provides [net/http] middleware for
[Cross-Origin Resource Sharing (CORS)].

A [Middleware] is built once, at startup, from a [Config] and is immutable
afterwards. Its configuration is validated extensively; a process that fails
to build its CORS middleware must not serve traffic.

For every request, the middleware first classifies the request (see
[Classification]) and then decides (see [Decision]) whether to let it through
unchanged, to decorate its response with CORS headers, or to answer it
directly in the case of a [CORS-preflight request]. Denials never produce an
error status: the middleware simply omits all CORS headers and lets the
browser enforce the block.

Allowed origins are always echoed in the Access-Control-Allow-Origin header,
along with Access-Control-Allow-Credentials: true; the wildcard is never sent
back, since browsers reject it in credentialed responses.

Care is required for CORS middleware to work as intended:

  - Because [CORS-preflight request]s use [OPTIONS] as their method,
    you [SHOULD NOT] prevent OPTIONS requests from reaching your CORS
    middleware.
  - Because [CORS-preflight requests are not authenticated], authentication
    [SHOULD NOT] take place "ahead of" a CORS middleware.
    However, a CORS middleware [MAY] wrap an authentication middleware.
  - Intermediaries [SHOULD NOT] alter or augment the [CORS request headers]
    that are set by browsers. Intermediaries [MAY] add some
    [optional whitespace] around the elements of
    [Access-Control-Request-Headers], but within reason: this package's
    middleware is stricter in its handling of that field than required by
    [RFC 9110].
  - Multiple CORS middleware [MUST NOT] be stacked.

[Access-Control-Request-Headers]: https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers/Access-Control-Request-Headers
[CORS request headers]: https://developer.mozilla.org/en-US/docs/Web/HTTP/CORS#the_http_request_headers
[CORS-preflight request]: https://developer.mozilla.org/en-US/docs/Glossary/Preflight_request
[CORS-preflight requests are not authenticated]: https://fetch.spec.whatwg.org/#cors-protocol-and-credentials
[Cross-Origin Resource Sharing (CORS)]: https://developer.mozilla.org/en-US/docs/Web/HTTP/CORS
[MAY]: https://www.ietf.org/rfc/rfc2119.txt
[MUST NOT]: https://www.ietf.org/rfc/rfc2119.txt
[OPTIONS]: https://developer.mozilla.org/en-US/docs/Web/HTTP/Methods/OPTIONS
[RFC 9110]: https://www.rfc-editor.org/rfc/rfc9110.html#name-recipient-requirements
[SHOULD NOT]: https://www.ietf.org/rfc/rfc2119.txt
[optional whitespace]: https://httpwg.org/specs/rfc9110.html#whitespace
*/
package cors
