package httpx

import (
	"errors"
	"net/http"

	"github.com/ardhi-erp/ardhi/internal/shared"
)

// RespondError maps the domain error taxonomy to HTTP responses.
func RespondError(w http.ResponseWriter, err error) {
	var (
		validation *shared.ValidationError
		conflict   *shared.ConflictError
		permission *shared.PermissionError
		constraint *shared.ConstraintViolation
		upstream   *shared.UpstreamError
	)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &validation):
		Problem(w, http.StatusBadRequest, "Validation Failed", validation.Error())
	case errors.As(err, &conflict):
		Problem(w, http.StatusConflict, "Already Processed", conflict.Error())
	case errors.As(err, &constraint):
		Problem(w, http.StatusConflict, "Constraint Violated", constraint.Error())
	case errors.As(err, &permission):
		Problem(w, http.StatusForbidden, "Permission Denied", permission.Error())
	case errors.As(err, &upstream):
		Problem(w, http.StatusServiceUnavailable, "Storage Unavailable", "temporary failure, retry the request")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
