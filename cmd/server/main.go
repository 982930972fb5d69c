package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/audiobook-library/internal/config"
	"github.com/iliyamo/audiobook-library/internal/database"
	"github.com/iliyamo/audiobook-library/internal/handler"
	"github.com/iliyamo/audiobook-library/internal/middleware"
	"github.com/iliyamo/audiobook-library/internal/queue"
	"github.com/iliyamo/audiobook-library/internal/repository"
	"github.com/iliyamo/audiobook-library/internal/router"
	"github.com/iliyamo/audiobook-library/internal/service"
	"github.com/iliyamo/audiobook-library/internal/utils"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	level := slog.LevelInfo
	if cfg.IsDev() {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database())
	if err != nil {
		log.Error("database: open failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Error("database: migrate failed", "err", err)
		os.Exit(1)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable: rate limiting and token revocation disabled")
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		pub := service.NewAMQPPublisher(cfg.RabbitMQURL)
		defer pub.Close()
		events = pub
		go func() {
			if err := queue.StartAuditConsumer(ctx, cfg.RabbitMQURL, cfg.AuditLog, log); err != nil {
				log.Error("audit consumer stopped", "err", err)
			}
		}()
	}

	// ---- Repositories ----
	users := repository.NewUserRepo(db)
	books := repository.NewBookRepo(db)
	subs := repository.NewSubscriptionRepo(db)
	library := repository.NewLibraryRepo(db)
	revoked := repository.NewRevocationStore(rdb, "revoked")

	// ---- Services ----
	clock := service.Clock(time.Now)
	hasher := utils.NewPasswordHasher(cfg.BcryptCost)
	tokens := utils.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)
	ent := service.NewEntitlementService(subs, books, events, clock, log)
	auth := service.NewAuthService(users, hasher, tokens, revoked, library, ent, clock)
	catalog := service.NewCatalogService(books)
	lib := service.NewLibraryService(library, books, clock)
	admin := service.NewAdminService(books, users, subs, clock)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(log, cfg.IsDev())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: corsOrigins(cfg.CORSOrigins),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info("request",
				"method", v.Method, "uri", v.URI, "status", v.Status,
				"latency", v.Latency, "request_id", v.RequestID)
			return nil
		},
	}))

	router.Register(e, router.Deps{
		Auth:          handler.NewAuthHandler(auth),
		Books:         handler.NewBookHandler(catalog, ent),
		Library:       handler.NewLibraryHandler(lib, ent),
		Subscriptions: handler.NewSubscriptionHandler(ent),
		Admin:         handler.NewAdminHandler(admin),
		Authenticator: auth,
		Entitlement:   ent,
		RateLimit:     middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		DB:            db,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}

func corsOrigins(list []string) []string {
	if len(list) == 0 {
		return []string{"*"}
	}
	return list
}
