package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/audiobook-library/internal/handler"
	"github.com/iliyamo/audiobook-library/internal/middleware"
)

// Deps is everything the routes need.  RateLimit may be nil.
type Deps struct {
	Auth          *handler.AuthHandler
	Books         *handler.BookHandler
	Library       *handler.LibraryHandler
	Subscriptions *handler.SubscriptionHandler
	Admin         *handler.AdminHandler

	Authenticator middleware.Authenticator
	Entitlement   middleware.EntitlementChecker
	RateLimit     echo.MiddlewareFunc
	DB            handler.Pinger
}

// Register wires every route group onto e.
func Register(e *echo.Echo, d Deps) {
	authMW := middleware.Authenticate(d.Authenticator)
	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, authMW, d.RateLimit)
	RegisterPublic(e, d.Books, middleware.OptionalAuth(d.Authenticator), authMW, middleware.RequireEntitlement(d.Entitlement))
	RegisterMember(e, d.Library, d.Subscriptions, authMW)
	RegisterAdmin(e, d.Admin, authMW)
}

// RegisterRoutes registers the probes, which need no authentication.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterAuth registers the /auth routes.  Register and login sit behind
// the rate limiter when one is given; logout and profile need a token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authMW, limiter echo.MiddlewareFunc) {
	g := e.Group("/auth")
	var open []echo.MiddlewareFunc
	if limiter != nil {
		open = append(open, limiter)
	}
	g.POST("/register", a.Register, open...)
	g.POST("/login", a.Login, open...)
	g.POST("/logout", a.Logout, authMW)
	g.GET("/profile", a.Profile, authMW)
}

// RegisterPublic registers the catalog.  A token is optional: admins who
// present one also see unpublished books.  The full audio reference
// requires a token and an active subscription.
func RegisterPublic(e *echo.Echo, b *handler.BookHandler, optional, authMW, entitled echo.MiddlewareFunc) {
	g := e.Group("/books", optional)
	g.GET("", b.List)
	g.GET("/trending", b.Trending)
	g.GET("/new-releases", b.NewReleases)
	g.GET("/search", b.Search)
	g.GET("/category/:category", b.ByCategory)
	g.GET("/:id", b.Get)

	e.GET("/books/:id/audio", b.Audio, authMW, entitled)
}
