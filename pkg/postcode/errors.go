package postcode

import (
	"errors"
	"fmt"
)

// ValidationError reports caller input that fails a precondition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return "invalid input: " + e.Message
}

// NewValidationError creates a ValidationError for the named field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError reports a failed call to the address API, either a transport
// failure or a non-zero error code in the response body.
type UpstreamError struct {
	Service    string // search, detail or english
	Code       string // upstream errorCode, empty for transport failures
	StatusCode int    // HTTP status, 0 when no response was received
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	var msg string
	switch {
	case e.Code != "":
		msg = fmt.Sprintf("%s API error %s: %s", e.Service, e.Code, e.Message)
	case e.StatusCode != 0:
		msg = fmt.Sprintf("%s API error (%d): %s", e.Service, e.StatusCode, e.Message)
	default:
		msg = fmt.Sprintf("%s API error: %s", e.Service, e.Message)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpstream reports whether err is or wraps an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
