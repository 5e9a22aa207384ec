package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edugrid/gradecore-backend/internal/apperr"
)

// FromError maps a service error onto the HTTP surface. Unknown errors
// become opaque 500s so internals never leak to clients.
func FromError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		Fail(c, http.StatusInternalServerError, ErrInternal)
		return
	}

	switch appErr.Kind {
	case apperr.KindValidation:
		FailWithViolations(c, http.StatusUnprocessableEntity, ErrValidation, appErr.Violations)
	case apperr.KindNotFound:
		Fail(c, http.StatusNotFound, ErrNotFound)
	case apperr.KindInvalidState:
		Fail(c, http.StatusConflict, ErrInvalidState)
	case apperr.KindOutOfWindow:
		Fail(c, http.StatusForbidden, ErrExamNotAvailable)
	case apperr.KindAttemptLimit:
		Fail(c, http.StatusForbidden, ErrAttemptLimit)
	case apperr.KindAlreadySubmitted:
		Fail(c, http.StatusConflict, ErrAlreadySubmitted)
	case apperr.KindInvalidScore:
		Fail(c, http.StatusUnprocessableEntity, ErrInvalidScore)
	default:
		Fail(c, http.StatusInternalServerError, ErrInternal)
	}
}
