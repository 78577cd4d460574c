package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebook/internal/repository"
	"ridebook/internal/service"
)

// ErrorResponse represents an error response. Code is a stable
// machine-readable identifier; Error is a human-readable message.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError maps a service/repository error onto an HTTP status and a
// stable code. Internal error text is never exposed for 5xx responses.
func respondError(c *gin.Context, err error) {
	status, code := classifyError(err)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "internal server error"
		if status == http.StatusBadGateway {
			message = "upstream service failed"
		}
		_ = c.Error(err)
	}

	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// classifyError maps error kinds to (HTTP status, machine code).
func classifyError(err error) (int, string) {
	switch {
	// Validation errors - Bad Request.
	case errors.Is(err, service.ErrPickupDropoffRequired),
		errors.Is(err, service.ErrMissingCallbackFields),
		errors.Is(err, service.ErrMissingSignupFields),
		errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest, "validation_error"

	// Signature mismatch is a client-side integrity failure.
	case errors.Is(err, service.ErrSignatureMismatch):
		return http.StatusBadRequest, "signature_mismatch"

	// Authentication failures.
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "unauthorized"

	// Not found errors.
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrNoPaymentForRide):
		return http.StatusNotFound, "not_found"

	// Forbidden: identity does not own the resource.
	case errors.Is(err, service.ErrDriverInactive),
		errors.Is(err, service.ErrNotRideDriver),
		errors.Is(err, service.ErrNotRideOwner):
		return http.StatusForbidden, "forbidden"

	// Conflict: illegal state transition or duplicate operation.
	case errors.Is(err, service.ErrRideNotPendingPayment),
		errors.Is(err, service.ErrRideAlreadyAssigned),
		errors.Is(err, service.ErrRideNotAccepted),
		errors.Is(err, service.ErrRideNotInProgress),
		errors.Is(err, service.ErrRideNotCancellable),
		errors.Is(err, service.ErrNoDriverAssigned),
		errors.Is(err, service.ErrNoPaidPayment),
		errors.Is(err, service.ErrPaymentAlreadyRefunded),
		errors.Is(err, service.ErrPaymentNotPaid),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "conflict"

	// External collaborators: geocoding, routing, payment gateway.
	case errors.Is(err, service.ErrGeocoding),
		errors.Is(err, service.ErrNoRoute),
		errors.Is(err, service.ErrExternalService):
		return http.StatusBadGateway, "external_service_error"

	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
