package middleware

import (
	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
)

// CORS allow credentialed requests from the given front-end origins
func CORS(allowedOrigins []string) echo.MiddlewareFunc {
	return echo_middleware.CORSWithConfig(echo_middleware.CORSConfig{
		AllowOrigins:     allowedOrigins,
		AllowHeaders:     []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "X-CSRF-Token", "Authorization"},
		AllowCredentials: true,
	})
}
