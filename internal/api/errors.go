package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"user-management-app/internal/apperror"
)

type errorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorHandler writes every failure as {message} with the status code of
// its apperror kind. echo's own HTTP errors keep their code.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := apperror.StatusCode(err)
	resp := errorResponse{Message: err.Error()}

	var he *echo.HTTPError
	var appErr *apperror.Error
	switch {
	case errors.As(err, &he):
		code = he.Code
		resp.Message = fmt.Sprint(he.Message)
	case errors.As(err, &appErr):
		resp.Fields = appErr.Fields
	}

	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, resp)
	}
	if writeErr != nil {
		log.Error().Err(writeErr).Msg("failed to write error response")
	}
}
