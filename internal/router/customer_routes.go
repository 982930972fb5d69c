package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/audiobook-library/internal/handler"
)

// RegisterMember registers the per-user library and subscription
// endpoints.  All routes require a valid token; any role may use them.
func RegisterMember(e *echo.Echo, lib *handler.LibraryHandler, subs *handler.SubscriptionHandler, authMW echo.MiddlewareFunc) {
	l := e.Group("/library", authMW)
	l.GET("", lib.List)
	l.POST("/add", lib.Add)
	l.GET("/check/:bookId", lib.Check)
	l.DELETE("/:bookId", lib.Remove)

	s := e.Group("/subscriptions", authMW)
	s.GET("/current", subs.Current)
	s.GET("/history", subs.History)
	s.POST("", subs.Subscribe)
	s.PUT("/cancel/:id", subs.Cancel)
	s.GET("/check-access/:bookId", subs.CheckAccess)
}
