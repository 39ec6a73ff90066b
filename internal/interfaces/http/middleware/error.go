package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorHandlingOption options for error handling
type ErrorHandlingOption struct {
	Handler func(c echo.Context, traceID string, err error)
	Logger  *zap.Logger
}

// ErrorHandling renders errors returned by handlers, echo.HTTPError keeps its own code
// **DO NOT return error anymore**
func ErrorHandling(options ...*ErrorHandlingOption) echo.MiddlewareFunc {
	custom := &ErrorHandlingOption{
		Handler: func(c echo.Context, traceID string, err error) {
			c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"code":     http.StatusInternalServerError,
				"title":    http.StatusText(http.StatusInternalServerError),
				"trace_id": traceID,
			})
		},
	}
	if len(options) > 0 {
		option := options[0]
		if option.Handler != nil {
			custom.Handler = option.Handler
		}
		if option.Logger != nil {
			custom.Logger = option.Logger
		}
	}
	handler := custom.Handler
	logger := custom.Logger
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}
			if he, ok := err.(*echo.HTTPError); ok {
				return he
			}

			traceID := c.Response().Header().Get(echo.HeaderXRequestID)
			if logger != nil {
				logger.Error(err.Error(),
					zap.String("url.path", c.Request().RequestURI),
					zap.String("http.request.method", c.Request().Method),
					zap.Strings("route.params.name", c.ParamNames()),
					zap.Strings("route.params.value", c.ParamValues()),
					zap.String("trace.id", traceID),
				)
			}
			if !c.Response().Committed {
				handler(c, traceID, err)
			}
			return nil
		}
	}
}
