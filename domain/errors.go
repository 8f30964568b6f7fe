package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodePrecondition ErrorCode = "PRECONDITION_FAILED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrBatchNotFound      = NewError(ErrCodeNotFound, "batch not found")
	ErrFarmerNotFound     = NewError(ErrCodeNotFound, "farmer not found")
	ErrPrerequisiteNotMet = NewError(ErrCodePrecondition, "batch prerequisite not met")
	ErrDuplicateFarmerID  = NewError(ErrCodeConflict, "farmer already exists")
	ErrCollectionRejected = NewError(ErrCodeInvalid, "collection event rejected")
	ErrUnauthorized       = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrForbidden          = NewError(ErrCodeForbidden, "forbidden")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// Invalid returns an INVALID error carrying a caller-facing message.
func Invalid(message string) *Error {
	return WrapError(ErrCodeInvalid, message, nil)
}

// RejectionReason names the intake rule a collection event violated.
type RejectionReason string

const (
	ReasonSpeciesNotPermitted RejectionReason = "SPECIES_NOT_PERMITTED"
	ReasonOutsideGeoFence     RejectionReason = "OUTSIDE_GEO_FENCE"
)

// RejectionError is returned by intake validation. It unwraps to
// ErrCollectionRejected so transports classify it as invalid input.
type RejectionError struct {
	Reason  RejectionReason
	Species string
}

func (e *RejectionError) Error() string {
	if e == nil {
		return ""
	}
	switch e.Reason {
	case ReasonSpeciesNotPermitted:
		return fmt.Sprintf("Species %q is not a permitted species for collection.", e.Species)
	case ReasonOutsideGeoFence:
		return "Location is outside the permitted geo-fence for Lucknow."
	default:
		return string(e.Reason)
	}
}

func (e *RejectionError) Unwrap() error {
	return ErrCollectionRejected
}

// RejectionReasonOf extracts the intake rejection reason from err, if any.
func RejectionReasonOf(err error) (RejectionReason, bool) {
	var rErr *RejectionError
	if errors.As(err, &rErr) {
		return rErr.Reason, true
	}
	return "", false
}
