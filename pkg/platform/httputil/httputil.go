package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/requestcontext"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding error cannot change the status.
	_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // see above
}

// WriteError translates a domain error into its HTTP status and stable error
// code. Anything that is not a domain error is reported as internal_error
// without leaking its message.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), ErrorResponse{
			Error:            DomainCodeToHTTPCode(domainErr.Code),
			ErrorDescription: domainErr.Message,
		})
		return
	}
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound, dErrors.CodeUnknownAirline, dErrors.CodeUnknownCandidate:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeConflict, dErrors.CodeInvariantViolation, dErrors.CodeNoCreditsAvailable:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotAuthorized, dErrors.CodeNotOwner:
		return http.StatusForbidden
	case dErrors.CodeSystemNotOperational:
		return http.StatusServiceUnavailable
	case dErrors.CodeTransferFailed:
		return http.StatusBadGateway
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode returns the error string placed in the JSON body.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case "":
		return string(dErrors.CodeInternal)
	default:
		return string(code)
	}
}

// RequireCaller extracts the authenticated caller address placed in the
// context by the auth middleware.
func RequireCaller(ctx context.Context, logger *slog.Logger) (domain.Address, error) {
	caller, ok := requestcontext.Caller(ctx)
	if !ok {
		if logger != nil {
			logger.ErrorContext(ctx, "caller missing from context despite auth middleware",
				"request_id", requestcontext.RequestID(ctx))
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return caller, nil
}
