package middleware

// identity.go holds the context keys and accessors shared by the
// middleware and the handlers.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/utils"
)

const (
	userKey   = "user"
	claimsKey = "claims"
)

func setIdentity(c echo.Context, u model.User, claims utils.Claims) {
	u.PasswordHash = ""
	c.Set(userKey, u)
	c.Set(claimsKey, claims)
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userKey).(model.User)
	return u, ok
}

// CurrentClaims returns the verified token claims, if any.
func CurrentClaims(c echo.Context) (utils.Claims, bool) {
	cl, ok := c.Get(claimsKey).(utils.Claims)
	return cl, ok
}

// userID is the rate limiter's view of the caller: the user id, or "anon".
func userID(c echo.Context) string {
	if u, ok := CurrentUser(c); ok && u.ID != "" {
		return u.ID
	}
	return "anon"
}
