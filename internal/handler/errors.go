package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"messagely/internal/middleware"
	apperrors "messagely/pkg/errors"
)

// writeError maps an application error code onto the HTTP status the
// boundary contract requires: 409 conflict, 404 not found, 401
// unauthenticated, 403 forbidden, 503 transient storage failure. Anything
// unrecognized is a 500 with a generic body so internals never leak.
func writeError(c echo.Context, err error) error {
	var ae *apperrors.AppError
	if !stderrors.As(err, &ae) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	status := http.StatusInternalServerError
	switch ae.Code {
	case apperrors.CodeAlreadyExists:
		status = http.StatusConflict
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeUnauthenticated:
		status = http.StatusUnauthorized
	case apperrors.CodePermissionDenied:
		status = http.StatusForbidden
	case apperrors.CodeUnavailable:
		status = http.StatusServiceUnavailable
	case apperrors.CodeInvalidArgument:
		status = http.StatusBadRequest
	}
	return c.JSON(status, echo.Map{"error": ae.Message})
}

// caller returns the authenticated username stored by the JWT middleware.
func caller(c echo.Context) (string, bool) {
	v, ok := c.Get(middleware.UsernameKey).(string)
	return v, ok && v != ""
}
