// Package response renders every API outcome into the uniform JSON envelope:
//
//	success:    {"success": true,  "message": ..., "data": ...}
//	validation: {"success": false, "message": ..., "errors": {"field": ["..."]}}
//	other:      {"success": false, "message": ...}
//
// Handlers return errors; ErrorHandler is installed as echo's HTTPErrorHandler
// so the failure envelopes are produced in exactly one place.
package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicemr/api/internal/platform/apierror"
)

// Success is the success envelope.
type Success struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Failure is the envelope for every non-2xx outcome.
type Failure struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func OK(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Success{Success: true, Message: message, Data: data})
}

func Created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, Success{Success: true, Message: message, Data: data})
}

// Render maps err onto a status code and failure envelope. Internal errors
// never carry their cause to the client.
func Render(err error) (int, Failure) {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if apiErr.Kind == apierror.KindInternal {
			msg = "Internal server error"
		}
		return apiErr.Kind.Status(), Failure{Message: msg, Errors: apiErr.Fields}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return renderHTTPError(httpErr)
	}

	return http.StatusInternalServerError, Failure{Message: "Internal server error"}
}

func renderHTTPError(he *echo.HTTPError) (int, Failure) {
	code := he.Code
	switch code {
	case http.StatusUnauthorized:
		return code, Failure{Message: "Unauthenticated"}
	case http.StatusNotFound:
		return code, Failure{Message: "Not found"}
	case http.StatusInternalServerError:
		return code, Failure{Message: "Internal server error"}
	}
	msg, ok := he.Message.(string)
	if !ok || msg == "" {
		msg = http.StatusText(code)
	}
	return code, Failure{Message: msg}
}

// ErrorHandler returns an echo.HTTPErrorHandler that writes the failure
// envelope and logs server-side failures with the request id.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := Render(err)
		rid, _ := c.Get("request_id").(string)

		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		} else if status == http.StatusForbidden {
			logger.Debug().
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Str("reason", body.Message).
				Msg("access denied")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Str("request_id", rid).Msg("write error response")
		}
	}
}
