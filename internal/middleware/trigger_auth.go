package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"google.golang.org/api/idtoken"
)

// ContextKeyCaller is where the authenticated caller subject is stored on the echo context
const ContextKeyCaller = "triggerCaller"

// TokenVerifier checks a bearer token and returns the caller it identifies
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// JWTVerifier accepts HMAC-signed JWTs issued with a shared secret
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a new JWTVerifier
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates token
func (v *JWTVerifier) Verify(_ context.Context, token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// OIDCVerifier accepts Google-signed ID tokens, as attached by Cloud Run and Eventarc push deliveries
type OIDCVerifier struct {
	validator *idtoken.Validator
	audience  string
}

// NewOIDCVerifier creates a new OIDCVerifier for audience
func NewOIDCVerifier(ctx context.Context, audience string) (*OIDCVerifier, error) {
	validator, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("create id token validator: %w", err)
	}
	return &OIDCVerifier{validator: validator, audience: audience}, nil
}

// Verify validates token against the configured audience
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (string, error) {
	payload, err := v.validator.Validate(ctx, token, v.audience)
	if err != nil {
		return "", err
	}
	if email, ok := payload.Claims["email"].(string); ok && email != "" {
		return email, nil
	}
	return payload.Subject, nil
}

// TriggerAuthMiddleware rejects trigger deliveries without a valid bearer token.
// A nil verifier lets every request through.
func TriggerAuthMiddleware(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if verifier == nil {
			return next
		}
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			// Expecting "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			caller, err := verifier.Verify(c.Request().Context(), parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token").SetInternal(err)
			}

			c.Set(ContextKeyCaller, caller)
			return next(c)
		}
	}
}
