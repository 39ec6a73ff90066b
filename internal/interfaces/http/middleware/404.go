package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// NoRouteMatched renders unmatched paths and methods with the standard error body
func NoRouteMatched() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			he, ok := err.(*echo.HTTPError)
			if !ok || (he.Code != http.StatusNotFound && he.Code != http.StatusMethodNotAllowed) {
				return err
			}
			return c.JSON(he.Code, map[string]interface{}{
				"code":     he.Code,
				"title":    http.StatusText(he.Code),
				"trace_id": c.Response().Header().Get(echo.HeaderXRequestID),
			})
		}
	}
}
