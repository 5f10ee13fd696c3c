package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/postcodemcp/pkg/postcode"
)

// APIError represents a failure surfaced to the caller, with information to
// help them recover.
type APIError struct {
	Service     string // "Juso search", "Juso detail", "Validation", ...
	StatusCode  int    // HTTP status code, 0 when no response was received
	Code        string // Juso errorCode when the API reported one
	Message     string
	Recoverable bool
	Guidance    string
}

// Error implements the error interface and provides a formatted error message.
func (e *APIError) Error() string {
	head := e.Service + " error"
	if e.Code != "" {
		head = fmt.Sprintf("%s error %s", e.Service, e.Code)
	} else if e.StatusCode != 0 {
		head = fmt.Sprintf("%s error (%d)", e.Service, e.StatusCode)
	}
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", head, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", head, e.Message)
}

// Common error guidance messages
const (
	// Juso guidance
	GuidanceJusoKey       = "The Juso confirmation key was rejected or has expired. Check JUSO_ROAD_KEY and the key's validity period."
	GuidanceJusoKeyword   = "Provide a more specific address: include the city or district and the road name with building number."
	GuidanceJusoTooMany   = "The query matched too many addresses. Add the city, district or road name to narrow it down."
	GuidanceJusoCharacter = "Remove special characters and SQL keywords from the query and try again."
	GuidanceJusoSystem    = "The address service reported an internal error. This is likely temporary, please try again later."
	GuidanceJusoGeneral   = "Check the address wording and try again."

	// Generic guidance
	GuidanceGeneral      = "Please try again later or modify your request parameters."
	GuidanceNetworkError = "Check your internet connection and try again."
	GuidanceTimeout      = "The address service did not answer in time. Try again in a few seconds."
	GuidanceDataError    = "The data received was incomplete or malformed. Try different search parameters."
	GuidanceValidation   = "Please correct the parameters and try again."
)

// jusoGuidance maps the Juso API's documented error codes to guidance.
var jusoGuidance = map[string]string{
	"E0001": GuidanceJusoKey,
	"E0014": GuidanceJusoKey,
	"E0005": GuidanceJusoKeyword,
	"E0006": GuidanceJusoKeyword,
	"E0008": GuidanceJusoKeyword,
	"E0009": GuidanceJusoKeyword,
	"E0010": GuidanceJusoKeyword,
	"E0011": GuidanceJusoTooMany,
	"E0015": GuidanceJusoTooMany,
	"E0012": GuidanceJusoCharacter,
	"E0013": GuidanceJusoCharacter,
	"-999":  GuidanceJusoSystem,
}

// NewAPIError creates a new APIError with appropriate guidance based on status code.
func NewAPIError(service string, statusCode int, message, guidance string) *APIError {
	if guidance == "" {
		switch statusCode {
		case http.StatusTooManyRequests:
			guidance = "Rate limit exceeded. Please try again in a few moments."
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			guidance = GuidanceTimeout
		case http.StatusBadRequest:
			guidance = "The request was invalid. Check your parameters and try again."
		case http.StatusInternalServerError, http.StatusBadGateway:
			guidance = "The server encountered an error. This is likely temporary, please try again later."
		case http.StatusServiceUnavailable:
			guidance = "The service is temporarily unavailable. Please try again later."
		default:
			guidance = GuidanceGeneral
		}
	}

	return &APIError{
		Service:     service,
		StatusCode:  statusCode,
		Message:     message,
		Recoverable: statusCode != http.StatusBadRequest,
		Guidance:    guidance,
	}
}

// FromError classifies a domain error into an APIError.
func FromError(err error) *APIError {
	var ve *postcode.ValidationError
	var ue *postcode.UpstreamError

	switch {
	case errors.As(err, &ve):
		return &APIError{
			Service:     "Validation",
			StatusCode:  http.StatusBadRequest,
			Message:     ve.Error(),
			Recoverable: true,
			Guidance:    GuidanceValidation,
		}

	case errors.As(err, &ue):
		service := "Juso " + ue.Service
		if ue.Code != "" {
			guidance, ok := jusoGuidance[ue.Code]
			if !ok {
				guidance = GuidanceJusoGeneral
			}
			return &APIError{
				Service:     service,
				Code:        ue.Code,
				Message:     ue.Message,
				Recoverable: ue.Code != "E0001" && ue.Code != "E0014",
				Guidance:    guidance,
			}
		}
		// A 2xx status here means the body could not be decoded.
		if ue.StatusCode >= 200 && ue.StatusCode < 300 {
			return NewAPIError(service, ue.StatusCode, ue.Message, GuidanceDataError)
		}
		if ue.StatusCode != 0 {
			return NewAPIError(service, ue.StatusCode, ue.Message, "")
		}
		guidance := GuidanceNetworkError
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			guidance = GuidanceTimeout
		}
		return &APIError{
			Service:     service,
			Message:     ue.Message,
			Recoverable: true,
			Guidance:    guidance,
		}
	}

	return &APIError{
		Service:     "Internal",
		Message:     err.Error(),
		Recoverable: false,
		Guidance:    GuidanceGeneral,
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// ErrorWithGuidance returns a properly formatted error response with user guidance.
func ErrorWithGuidance(err *APIError) *mcp.CallToolResult {
	message := err.Message
	if err.Code != "" {
		message = fmt.Sprintf("%s (%s)", err.Message, err.Code)
	}
	errorText := fmt.Sprintf("Error: %s\n\nGuidance: %s", message, err.Guidance)
	return mcp.NewToolResultError(errorText)
}
