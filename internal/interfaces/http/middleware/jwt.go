package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/learn-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learn-gateway/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// ValidateTokenOption ...
type ValidateTokenOption struct {
	InBlackList func(ctx context.Context, token string) (bool, error)
}

func blacklistOf(options []*ValidateTokenOption) func(ctx context.Context, token string) (bool, error) {
	if len(options) > 0 && options[0].InBlackList != nil {
		return options[0].InBlackList
	}
	return func(context.Context, string) (bool, error) { return false, nil }
}

// VerifyToken requires a valid, not revoked JWT
func VerifyToken(ju *auth.JWTUtil, options ...*ValidateTokenOption) echo.MiddlewareFunc {
	inBlacklist := blacklistOf(options)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := ju.ExtractToken(c)
			if err != nil {
				return c.NoContent(http.StatusUnauthorized)
			}

			if ok, err := inBlacklist(c.Request().Context(), tokenStr); err != nil {
				return err
			} else if ok {
				return c.NoContent(http.StatusUnauthorized)
			}

			claims, err := ju.Validate(tokenStr)
			if err == nil {
				ju.SetContextLearner(c, tokenStr, claims)
				return next(c)
			}
			return c.NoContent(http.StatusUnauthorized)
		}
	}
}

// OptionalToken binds the learner when a valid token is presented, anything else continues anonymously
func OptionalToken(ju *auth.JWTUtil, options ...*ValidateTokenOption) echo.MiddlewareFunc {
	inBlacklist := blacklistOf(options)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := ju.ExtractToken(c)
			if err != nil {
				return next(c)
			}

			ctx := c.Request().Context()
			revoked, err := inBlacklist(ctx, tokenStr)
			if err != nil {
				logging.ExtractLoggerFromContext(ctx).Warn("failed to check token blacklist", zap.Error(err))
				return next(c)
			}
			if revoked {
				return next(c)
			}
			if claims, err := ju.Validate(tokenStr); err == nil {
				ju.SetContextLearner(c, tokenStr, claims)
			}
			return next(c)
		}
	}
}
