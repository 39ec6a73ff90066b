package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/learn-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learn-gateway/internal/infrastructure/driver"
)

// BlacklistKey kv key marking a revoked token
func BlacklistKey(token string) string {
	return "blacklist:" + token
}

// SessionHandler .
type SessionHandler struct {
	jwtUtil *auth.JWTUtil
	kvStore driver.KeyValueDB
}

// NewSessionHandler .
func NewSessionHandler(JWTUtil *auth.JWTUtil, KVStore driver.KeyValueDB) *SessionHandler {
	return &SessionHandler{JWTUtil, KVStore}
}

// HandleSignOut revokes the presented token until it expires and clears the cookie
func (sh *SessionHandler) HandleSignOut(c echo.Context) (err error) {
	ju := sh.jwtUtil

	tokenStr, err := ju.ExtractToken(c)
	if err != nil {
		return c.NoContent(http.StatusNoContent)
	}
	claims, err := ju.Validate(tokenStr)
	if err != nil {
		return c.NoContent(http.StatusUnauthorized)
	}
	if err := sh.kvStore.SetEX(c.Request().Context(), BlacklistKey(tokenStr), claims.UID, claims.TimeRemaining()); err != nil {
		return err
	}
	ju.ClearClientToken(c)
	return c.NoContent(http.StatusNoContent)
}
