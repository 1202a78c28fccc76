/*
Package cfgerrors provides functionalities for programmatically handling
configuration errors produced by package [github.com/brunoabdon/abdedge/cors].

A CORS middleware that fails to build must prevent the process from serving
traffic. Most programs simply log the (joined) error and exit; programs that
wish to report each configuration mistake separately (e.g. in a deployment
check) can iterate over them with [All] and switch on their concrete types.
*/
package cfgerrors

import (
	"fmt"
	"iter"
)

// A MissingOriginsError indicates that the environment variable from which
// allowed origins are read is not set at all.
//
// For more details, see [github.com/brunoabdon/abdedge/cors.ConfigFromEnv].
type MissingOriginsError struct {
	EnvVar string // name of the environment variable that was looked up
}

func (err *MissingOriginsError) Error() string {
	const tmpl = "cors: environment variable %s is not set"
	return fmt.Sprintf(tmpl, err.EnvVar)
}

// An UnacceptableOriginPatternError indicates an unacceptable origin pattern.
// The Reason field may take one of three values:
//   - "missing": no origin pattern was specified;
//   - "invalid": the origin pattern is syntactically invalid;
//   - "prohibited": the origin pattern is prohibited by this library.
//
// For more details, see [github.com/brunoabdon/abdedge/cors.Config.Origins].
type UnacceptableOriginPatternError struct {
	Value  string // the unacceptable value that was specified
	Reason string // missing | invalid | prohibited
}

func (err *UnacceptableOriginPatternError) Error() string {
	if err.Reason == "missing" {
		return "cors: at least one origin must be allowed"
	}
	const tmpl = "cors: %s origin pattern %q"
	return fmt.Sprintf(tmpl, err.Reason, err.Value)
}

// An IncompatibleOriginPatternError indicates an origin pattern that conflicts
// with other elements of the configuration. The only possible Reason is
// "psl": an origin pattern that encompasses arbitrary subdomains of a
// public suffix was specified without also setting
// [github.com/brunoabdon/abdedge/cors.Config.DangerouslyTolerateSubdomainsOfPublicSuffixes].
type IncompatibleOriginPatternError struct {
	Value  string // the offending origin pattern
	Reason string // psl
}

func (err *IncompatibleOriginPatternError) Error() string {
	if err.Reason == "psl" {
		const tmpl = "cors: for security reasons, origin patterns like %q that encompass subdomains of a public suffix are by default prohibited"
		return fmt.Sprintf(tmpl, err.Value)
	}
	// We never produce such errors.
	return "cors: unknown issue"
}

// An UnacceptableMethodError indicates a method name that isn't a valid
// HTTP token.
//
// For more details, see [github.com/brunoabdon/abdedge/cors.Config.Methods].
type UnacceptableMethodError struct {
	Value  string // the unacceptable value that was specified
	Reason string // invalid
}

func (err *UnacceptableMethodError) Error() string {
	const tmpl = "cors: %s method %q"
	return fmt.Sprintf(tmpl, err.Reason, err.Value)
}

// An UnacceptableHeaderNameError indicates an unacceptable request-header
// name.
//
// For more details, see [github.com/brunoabdon/abdedge/cors.Config.RequestHeaders].
type UnacceptableHeaderNameError struct {
	Value  string // the unacceptable value that was specified
	Reason string // invalid
}

func (err *UnacceptableHeaderNameError) Error() string {
	const tmpl = "cors: %s request-header name %q"
	return fmt.Sprintf(tmpl, err.Reason, err.Value)
}

// A MaxAgeOutOfBoundsError indicates a negative max-age value or one that
// exceeds what browsers honor.
//
// For more details, see [github.com/brunoabdon/abdedge/cors.Config.MaxAgeInSeconds].
type MaxAgeOutOfBoundsError struct {
	Value   int // the unacceptable value that was specified
	Default int // max-age value used if MaxAgeInSeconds is 0
	Max     int // maximum max-age value permitted by this library
}

func (err *MaxAgeOutOfBoundsError) Error() string {
	const tmpl = "cors: out-of-bounds max-age value %d (default: %d; max: %d)"
	return fmt.Sprintf(tmpl, err.Value, err.Default, err.Max)
}

// A StatusOutOfBoundsError indicates a preflight status code outside of the
// range permitted for its Kind.
// The Kind field may take one of two values:
//   - "success": [github.com/brunoabdon/abdedge/cors.Config.PreflightSuccessStatus];
//   - "failure": [github.com/brunoabdon/abdedge/cors.Config.PreflightFailureStatus].
type StatusOutOfBoundsError struct {
	Value int    // the unacceptable value that was specified
	Kind  string // success | failure
	Min   int
	Max   int
}

func (err *StatusOutOfBoundsError) Error() string {
	const tmpl = "cors: out-of-bounds preflight %s status %d (min: %d; max: %d)"
	return fmt.Sprintf(tmpl, err.Kind, err.Value, err.Min, err.Max)
}

// All returns an iterator over the CORS-configuration errors contained in
// err's error tree. The order is unspecified and may change from one release
// to the next. All only supports error values returned by
// [github.com/brunoabdon/abdedge/cors.NewMiddleware] and
// [github.com/brunoabdon/abdedge/cors.ConfigFromEnv]; it should not be called
// on any other error value.
func All(err error) iter.Seq[error] {
	return func(yield func(error) bool) {
		every(err, yield)
	}
}

func every(err error, f func(error) bool) bool {
	switch err := err.(type) {
	// Nowhere do we "wrap" errors; we only ever "join" them.
	case interface{ Unwrap() []error }:
		for _, err := range err.Unwrap() {
			if !every(err, f) {
				return false
			}
		}
		return true
	default:
		return f(err)
	}
}
