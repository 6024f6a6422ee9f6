package http

import (
	"context"
	"errors"
	"net/http"

	"salarydash/internal/core"
	"salarydash/internal/export"
	applog "salarydash/internal/log"
	"salarydash/internal/ports"
	"salarydash/internal/services"
)

var badRequestErrors = []error{
	errInvalidBody,
	core.ErrInvalidDate,
	core.ErrInvalidDay,
	core.ErrInvalidMonth,
	core.ErrInvalidYear,
	core.ErrInvalidAmount,
	core.ErrNegativeAmount,
	core.ErrInvalidUser,
	core.ErrInvalidCategory,
	core.ErrEmptyCategory,
	core.ErrEmptyName,
	core.ErrInvalidEmail,
	core.ErrInvalidPhone,
	core.ErrTooLong,
	services.ErrNoExpenses,
	services.ErrTooManyExpenses,
	services.ErrMismatchedUserID,
	export.ErrUnknownFormat,
}

// writeError maps err onto a status code and writes the error envelope.
// Unexpected errors are logged with operation and answered with a generic
// message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, component, operation string, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, core.ErrInvalidRecord):
		applog.LogError(ctx, "Stored record failed validation", err, applog.ErrorTypeInvalidRecord, component, operation, nil)
		InternalServerError("Invalid record: " + err.Error()).Write(w)
		return
	case errors.Is(err, services.ErrInvalidCSV), errors.Is(err, ports.ErrUnknownCategory):
		UnprocessableEntityError(err.Error()).Write(w)
		return
	case errors.Is(err, ports.ErrNotFound):
		NotFoundError(err.Error()).Write(w)
		return
	case errors.Is(err, ports.ErrDuplicate):
		ConflictError(err.Error()).Write(w)
		return
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		ErrorResponse(http.StatusRequestEntityTooLarge, "Request body too large").Write(w)
		return
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			BadRequestError(err.Error()).Write(w)
			return
		}
	}

	errorType := applog.ErrorTypeDatabase
	if component == applog.ComponentExport {
		errorType = applog.ErrorTypeInternal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		errorType = applog.ErrorTypeTimeout
	}
	applog.LogError(ctx, "Request failed", err, errorType, component, operation, nil)
	InternalServerError("Internal server error").Write(w)
}
