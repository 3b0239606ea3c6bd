package upstream

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed upstream call.
type ErrorKind int

const (
	// KindTransport: the request never produced a response (DNS, refused, timeout).
	KindTransport ErrorKind = iota
	// KindResponse: non-2xx with a JSON message field.
	KindResponse
	// KindNoBody: non-2xx without a usable body.
	KindNoBody
	// KindUnauthorized: the bearer token was rejected (401).
	KindUnauthorized
	// KindDecode: 2xx whose body did not match the expected shape.
	KindDecode
	// KindForbidden: the token is fine but its role may not do this (403).
	KindForbidden
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindResponse:
		return "response"
	case KindNoBody:
		return "no_body"
	case KindUnauthorized:
		return "unauthorized"
	case KindDecode:
		return "decode"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

type APIError struct {
	Kind       ErrorKind
	Method     string
	Path       string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s %s: %s (status %d)", e.Method, e.Path, e.Kind, e.StatusCode)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err means the session's token is no longer accepted.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindUnauthorized
}

// IsForbidden reports whether upstream refused the call for the session's role.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindForbidden
}

// Message reduces err to the text shown to the user: the server's message when it sent one,
// the fallback otherwise.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
