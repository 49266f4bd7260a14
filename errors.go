package rdapbootstrap

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrBadRequest covers malformed paths, unknown object types and
	// unparsable handles.
	ErrBadRequest = errors.New("bad request")

	// ErrRateLimited is returned when a client has no tokens left.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUpstreamUnavailable means a bootstrap document could not be fetched
	// and no cached copy exists.
	ErrUpstreamUnavailable = errors.New("bootstrap registry unavailable")

	// ErrNoMatch means no service in the registry covers the handle.
	ErrNoMatch = errors.New("no matching bootstrap service")
)

// Error is a user-visible outcome with an HTTP status. It wraps one of the
// sentinel errors above so callers can use errors.Is.
type Error struct {
	Code       int
	Title      string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Code, e.Title, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Title)
}

func (e *Error) Unwrap() error { return e.Err }

func badRequest(title string, err error) *Error {
	if err == nil {
		err = ErrBadRequest
	} else {
		err = fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return &Error{Code: http.StatusBadRequest, Title: title, Err: err}
}

func rateLimited(retryAfter time.Duration) *Error {
	return &Error{Code: http.StatusTooManyRequests, Title: "Rate Limit Exceeded", RetryAfter: retryAfter, Err: ErrRateLimited}
}

func notFound(title string) *Error {
	return &Error{Code: http.StatusNotFound, Title: title, Err: ErrNoMatch}
}

func upstreamUnavailable(err error) *Error {
	if !errors.Is(err, ErrUpstreamUnavailable) {
		err = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return &Error{Code: http.StatusGatewayTimeout, Title: "Unable to retrieve bootstrap file from IANA", Err: err}
}

// asError converts any error into an *Error, defaulting to 500.
func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var pe *ParseError
	switch {
	case errors.As(err, &pe):
		return badRequest(fmt.Sprintf("Bad Request: invalid format for %s query", pe.Kind), err)
	case errors.Is(err, ErrUpstreamUnavailable):
		return upstreamUnavailable(err)
	case errors.Is(err, ErrNoMatch):
		return notFound("Not Found")
	case errors.Is(err, ErrRateLimited):
		return rateLimited(0)
	}
	return &Error{Code: http.StatusInternalServerError, Title: "Internal Server Error", Err: err}
}
