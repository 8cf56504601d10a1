package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csnedu/appointments/core"
)

// internalError logs err with the logged in student, if any.
func internalError(ctx echo.Context, logger core.Logger, err error, msg string) {
	args := []interface{}{errors.Wrap(err, msg)}
	if st, ok := getContextStudent(ctx); ok {
		args = append(args, st)
	}
	args = append(args, map[string]interface{}{"method": ctx.Request().Method, "path": ctx.Request().URL.Path})
	logger.Error(msg, args...)
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler rendering errors as HTML pages.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, renderer *templateRenderer, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = core.InternalErrorMessage
			internalError(ctx, logger, err, http.StatusText(code))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}

		// Send response
		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else {
			err = renderer.page(ctx, code, "error", page{Title: http.StatusText(code), Messages: []string{message}})
			if err != nil {
				err = ctx.String(code, message)
			}
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
