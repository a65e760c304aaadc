// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/brandstock/internal/shared"
)

type errorStatus struct {
	kind   error
	status int
	title  string
}

// statusTable maps error kinds to HTTP status codes; the first match wins.
var statusTable = []errorStatus{
	{shared.ErrUnauthenticated, http.StatusUnauthorized, "Unauthorized"},
	{shared.ErrPermissionDenied, http.StatusForbidden, "Forbidden"},
	{shared.ErrCrossBrandActor, http.StatusForbidden, "Forbidden"},
	{shared.ErrNotFound, http.StatusNotFound, "Not Found"},
	{shared.ErrImmutable, http.StatusMethodNotAllowed, "Method Not Allowed"},
	{shared.ErrDuplicate, http.StatusConflict, "Duplicate"},
	{shared.ErrConcurrencyConflict, http.StatusConflict, "Conflict"},
	{shared.ErrInsufficientStock, http.StatusUnprocessableEntity, "Insufficient Stock"},
	{shared.ErrCrossBrandMismatch, http.StatusBadRequest, "Validation Failed"},
	{shared.ErrOverReservation, http.StatusBadRequest, "Validation Failed"},
	{shared.ErrMissingParameter, http.StatusBadRequest, "Missing Parameter"},
	{shared.ErrValidation, http.StatusBadRequest, "Validation Failed"},
}

// StatusFor returns the HTTP status and title for err.
func StatusFor(err error) (int, string) {
	for _, e := range statusTable {
		if errors.Is(err, e.kind) {
			return e.status, e.title
		}
	}
	return http.StatusInternalServerError, "Internal Error"
}

// RespondError maps domain errors to HTTP responses using RFC7807.
// Field errors carry their field and code as problem extensions.
func RespondError(w http.ResponseWriter, err error) {
	status, title := StatusFor(err)
	if status == http.StatusInternalServerError {
		Problem(w, status, title, "")
		return
	}
	detail := ProblemDetail{Title: title, Status: status, Detail: err.Error()}
	if fe, ok := shared.AsFieldError(err); ok {
		detail.Detail = fe.Message
		detail.Field = fe.Field
		detail.Code = fe.Code
	}
	WriteProblem(w, detail)
}
