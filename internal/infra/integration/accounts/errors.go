package accounts

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a gateway failure so callers can branch on "does not
// exist" vs "could not determine" without sniffing HTTP status codes.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota
	KindConflict
	KindTransient // network failure or 5xx; safe to retry idempotent calls
	KindFatal     // 4xx other than 404/409
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Op         string
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("accounts service: %s failed (%s, status %d): %s", e.Op, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("accounts service: %s failed (%s): %s", e.Op, e.Kind, e.Message)
}

// KindOf extracts the ErrorKind from err. Anything that is not an *APIError
// is reported as transient: the outcome of the remote call is unknown.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindTransient
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == 404:
		return KindNotFound
	case status == 409:
		return KindConflict
	case status >= 500:
		return KindTransient
	default:
		return KindFatal
	}
}
