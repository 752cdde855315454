package httpx

import (
	"errors"
	"net/http"

	"github.com/jehnsen/admin-suite/internal/api"
	"github.com/jehnsen/admin-suite/internal/validation"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

// Sentinel errors handlers wrap their own failures with.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("conflict")
	// ErrUnauthenticated marks a request without a usable bearer token.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// RespondError maps err onto a status and the error envelope.
func RespondError(w http.ResponseWriter, err error) {
	status, body := Classify(err)
	JSON(w, status, body)
}

// Classify returns the status and envelope RespondError would send.
func Classify(err error) (int, ErrorBody) {
	var failure *validation.Failure
	if errors.As(err, &failure) {
		field, msg := failure.Fields.First()
		if field == "" {
			msg = "The given data was invalid."
		}
		return http.StatusUnprocessableEntity, ErrorBody{Message: msg, Errors: failure.Fields}
	}

	var backend *api.Error
	if errors.As(err, &backend) {
		status := backend.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		return status, ErrorBody{Message: backend.Message, Errors: backend.FieldErrors()}
	}

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorBody{Message: "Unauthenticated."}
	case errors.Is(err, workflow.ErrReasonRequired):
		return http.StatusUnprocessableEntity, ErrorBody{
			Message: "A reason is required.",
			Errors:  map[string]string{"reason": "A reason is required."},
		}
	case errors.Is(err, workflow.ErrForbiddenAction):
		return http.StatusForbidden, ErrorBody{Message: err.Error()}
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrPRNotApproved),
		errors.Is(err, ErrConflict):
		return http.StatusConflict, ErrorBody{Message: err.Error()}
	case errors.Is(err, workflow.ErrQuotationNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrorBody{Message: err.Error()}
	case errors.Is(err, workflow.ErrUnknownKind),
		errors.Is(err, workflow.ErrUnknownAction),
		errors.Is(err, workflow.ErrUnknownStatus),
		errors.Is(err, workflow.ErrUnknownRole),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, ErrorBody{Message: err.Error()}
	}
	return http.StatusInternalServerError, ErrorBody{Message: api.DefaultErrorMessage}
}
