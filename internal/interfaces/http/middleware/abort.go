package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
)

// AbortRequestOption .
type AbortRequestOption struct {
	Timeout time.Duration
	Skipper echo_middleware.Skipper
}

// AbortRequest cancels the request context once Timeout elapsed, websocket upgrades are never aborted
func AbortRequest(option *AbortRequestOption) echo.MiddlewareFunc {
	skipper := option.Skipper
	if skipper == nil {
		skipper = IsWebsocketUpgrade
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if option.Timeout <= 0 || skipper(c) {
				return next(c)
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), option.Timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// IsWebsocketUpgrade .
func IsWebsocketUpgrade(c echo.Context) bool {
	return strings.EqualFold(c.Request().Header.Get(echo.HeaderUpgrade), "websocket")
}
