package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/service"
	"github.com/iliyamo/audiobook-library/internal/utils"
)

// Authenticator resolves a bearer token to the current user record.
// *service.AuthService implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.User, utils.Claims, error)
}

// Authenticate returns an Echo middleware that requires a valid Bearer
// token.  The user is re-read from the store on every request and
// attached under "user", the verified claims under "claims".  A missing,
// malformed, expired or revoked token, or a subject that no longer
// exists, all end in the same 401.
func Authenticate(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return service.ErrUnauthorized
			}
			u, claims, err := auth.Authenticate(c.Request().Context(), raw)
			if err != nil {
				return err
			}
			setIdentity(c, u, claims)
			return next(c)
		}
	}
}

// OptionalAuth attaches the user when a valid token is present and lets
// every request through.  Catalog routes use it so that admins see
// unpublished books while anonymous callers are still served.
func OptionalAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := bearerToken(c); ok {
				if u, claims, err := auth.Authenticate(c.Request().Context(), raw); err == nil {
					setIdentity(c, u, claims)
				}
			}
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(h[7:])
	return raw, raw != ""
}
