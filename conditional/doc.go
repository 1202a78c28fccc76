/*
Package conditional turns representations into cacheable,
conditionally-revalidated HTTP responses.

A [Negotiator] encodes a representation with the codec that best satisfies
the request's Accept header, derives a strong entity tag from the encoded
bytes and the Accept header (see [NewETag]), and evaluates the request's
If-Match and If-None-Match preconditions against that tag, following
RFC 9110 §13.2.2:

  - If-Match uses the strong comparison function; a mismatch yields
    412 Precondition Failed.
  - If-None-Match uses the weak comparison function; a match yields
    304 Not Modified for GET and HEAD, and 412 for other methods.
  - Otherwise, the full representation is sent along with its tag.

Tags are computed afresh for every request; nothing is cached.
Lists of representations are wrapped with [List] so that a single tag
covers the whole collection.
*/
package conditional
