package server

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"

	"chatgate/internal/core"
)

// StaticKeyVerifier implements core.TokenVerifier against a single
// pre-shared key. It stands in for the external credential system in
// deployments without one.
type StaticKeyVerifier struct {
	key string
}

// NewStaticKeyVerifier creates a verifier for the given key.
func NewStaticKeyVerifier(key string) *StaticKeyVerifier {
	return &StaticKeyVerifier{key: key}
}

// Verify accepts exactly the configured key and maps it to an operator
// identity.
func (v *StaticKeyVerifier) Verify(_ context.Context, token string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(token), []byte(v.key)) != 1 {
		return "", core.NewAuthenticationError("invalid credential")
	}
	return "operator", nil
}

// AuthMiddleware creates an Echo middleware that hands the bearer token to
// the verifier and attaches the resulting user identity to the request
// context. Paths in skipPaths bypass authentication.
func AuthMiddleware(verifier core.TokenVerifier, skipPaths []string) echo.MiddlewareFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip[c.Path()] || skip[c.Request().URL.Path] {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return handleError(c, core.NewAuthenticationError("missing authorization header"))
			}

			const prefix = "Bearer "
			if !strings.HasPrefix(authHeader, prefix) {
				return handleError(c, core.NewAuthenticationError("invalid authorization header format, expected 'Bearer <token>'"))
			}

			userID, err := verifier.Verify(c.Request().Context(), strings.TrimPrefix(authHeader, prefix))
			if err != nil {
				return handleError(c, err)
			}

			ctx := core.WithUserID(c.Request().Context(), userID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
