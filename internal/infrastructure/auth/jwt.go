package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pot-code/learn-gateway/internal/learner"
)

// ErrNoToken request carries neither the token cookie nor a bearer header
var ErrNoToken = errors.New("no token presented")

// learnerContextKey key of the verified learner in echo context
const learnerContextKey = "learner"

// AppTokenClaims claims issued by the upstream API for a learner
type AppTokenClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`

	jwt.StandardClaims
}

// TimeRemaining remaining time before the token get expired
func (tk *AppTokenClaims) TimeRemaining() time.Duration {
	exp := time.Unix(tk.ExpiresAt, 0)
	now := time.Now()

	if exp.Before(now) {
		return 0
	}
	return exp.Sub(now)
}

// JWTUtil .
type JWTUtil struct {
	secret    []byte
	tokenName string
	method    jwt.SigningMethod
}

// NewJWTUtil create a JWTUtil instance
func NewJWTUtil(method, secret, tokenName string) *JWTUtil {
	var signMethod jwt.SigningMethod
	switch method {
	case "HS512":
		signMethod = jwt.SigningMethodHS512
	default:
		signMethod = jwt.SigningMethodHS256
	}
	return &JWTUtil{
		method:    signMethod,
		secret:    []byte(secret),
		tokenName: tokenName,
	}
}

// Sign sign token
func (ju *JWTUtil) Sign(claims *AppTokenClaims) (string, error) {
	token := jwt.NewWithClaims(ju.method, claims)
	return token.SignedString(ju.secret)
}

// Validate validate token string with secret and return AppTokenClaims
func (ju *JWTUtil) Validate(tokenStr string) (*AppTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AppTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != ju.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return ju.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims := token.Claims.(*AppTokenClaims)
	if claims.UID == "" {
		return nil, errors.New("token has no uid claim")
	}
	return claims, nil
}

// ExtractToken get token string from the token cookie, falling back to the Authorization header
func (ju *JWTUtil) ExtractToken(c echo.Context) (string, error) {
	if cookie, err := c.Cookie(ju.tokenName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(header[len("Bearer "):]); token != "" {
			return token, nil
		}
	}
	return "", ErrNoToken
}

// ClearClientToken expire the token cookie
func (ju *JWTUtil) ClearClientToken(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     ju.tokenName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// SetContextLearner bind the verified learner to the request
func (ju *JWTUtil) SetContextLearner(c echo.Context, tokenStr string, claims *AppTokenClaims) {
	c.Set(learnerContextKey, &learner.Learner{
		ID:    claims.UID,
		Email: claims.Email,
		Name:  claims.Name,
		Token: tokenStr,
	})
}

// GetContextLearner get the learner bound to the request, anonymous if none
func (ju *JWTUtil) GetContextLearner(c echo.Context) *learner.Learner {
	if v, ok := c.Get(learnerContextKey).(*learner.Learner); ok && v != nil {
		return v
	}
	return learner.Anonymous()
}
