package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/audiobook-library/internal/service"
)

// EntitlementChecker answers whether a user currently holds an active
// subscription.  *service.EntitlementService implements it.
type EntitlementChecker interface {
	HasActiveSubscription(ctx context.Context, userID string) (bool, error)
}

// RequireEntitlement gates premium content.  Callers without an active
// subscription get service.ErrSubscriptionRequired, which the error
// handler renders as 403 with requiresSubscription set.
func RequireEntitlement(ent EntitlementChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return service.ErrUnauthorized
			}
			active, err := ent.HasActiveSubscription(c.Request().Context(), u.ID)
			if err != nil {
				return err
			}
			if !active {
				return service.ErrSubscriptionRequired
			}
			return next(c)
		}
	}
}
