package usecase

import (
	"errors"
	"fmt"
)

// ErrorKind tags a conversion failure so callers (and the HTTP layer) can
// branch on the kind instead of inspecting messages or status codes.
type ErrorKind int

const (
	KindLeadNotFound ErrorKind = iota
	KindAlreadyConverted
	KindValidation
	KindRemoteCreateFailure
	KindLocalCommitFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindLeadNotFound:
		return "LEAD_NOT_FOUND"
	case KindAlreadyConverted:
		return "ALREADY_CONVERTED"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindRemoteCreateFailure:
		return "REMOTE_CREATE_FAILURE"
	case KindLocalCommitFailure:
		return "LOCAL_COMMIT_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// ConversionError is the single error type the conversion saga returns. Err
// is always the root cause; compensation failures never replace it.
type ConversionError struct {
	Kind ErrorKind
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func conversionError(kind ErrorKind, err error) *ConversionError {
	return &ConversionError{Kind: kind, Err: err}
}

// KindOf reports the ErrorKind of err, or false if err did not come from the
// conversion saga.
func KindOf(err error) (ErrorKind, bool) {
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return convErr.Kind, true
	}
	return 0, false
}
