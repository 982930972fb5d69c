package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/service"
)

// RequireRole returns a middleware that lets through only users holding
// one of roles.  It must run after Authenticate: without a user it
// answers 401, with a user of another role 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return service.ErrUnauthorized
			}
			if !allowed[u.Role] {
				return service.ErrForbidden
			}
			return next(c)
		}
	}
}
