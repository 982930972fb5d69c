package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/audiobook-library/internal/handler"
	"github.com/iliyamo/audiobook-library/internal/middleware"
	"github.com/iliyamo/audiobook-library/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /admin.  The two
// checks are separate stages: no valid token is 401, a valid token without
// the ADMIN role is 403.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, authMW echo.MiddlewareFunc) {
	g := e.Group(
		"/admin",
		authMW,
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Books ----
	g.GET("/books", a.ListBooks)
	g.POST("/books", a.CreateBook)
	g.PUT("/books/:id", a.UpdateBook)
	g.PATCH("/books/:id", a.UpdateBook)
	g.DELETE("/books/:id", a.DeleteBook)

	// ---- Dashboard ----
	g.GET("/statistics", a.Statistics)
	g.GET("/users", a.Users)
}
