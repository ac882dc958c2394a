package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"courtbook/internal/app"
	"courtbook/internal/config"
	"courtbook/internal/jobs"
	"courtbook/internal/middleware"
	"courtbook/internal/modules/admin"
	"courtbook/internal/modules/auth"
	"courtbook/internal/modules/booking"
	"courtbook/internal/modules/live"
	"courtbook/internal/pkg/clock"
	jwtsvc "courtbook/internal/pkg/jwt"
	"courtbook/internal/pkg/logger"
	"courtbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("open stores", zap.Error(err))
	}
	defer stores.Close()

	clk := clock.System{}
	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	validator, err := booking.NewValidator(cfg.Policy(), clk)
	if err != nil {
		zlog.Fatal("booking policy", zap.Error(err))
	}

	hub := live.NewHub(zlog.Named("live"))
	defer hub.Close()

	bookingService := booking.NewService(stores.Bookings, validator, cfg.Pricing(), hub, clk, zlog.Named("booking"))
	bookingHandler := booking.NewHandler(bookingService)

	authService := auth.NewService(stores.Users, j, zlog.Named("auth"))
	authHandler := auth.NewHandler(authService)

	adminService := admin.NewService(stores.Users, bookingService, zlog.Named("admin")).WithViewers(hub)
	adminHandler := admin.NewHandler(adminService, bookingService)

	liveHandler := live.NewHandler(hub, j, stores.Users, cfg.AllowedOrigins(), zlog.Named("live"))

	completion := jobs.NewCompletionJob(stores.Bookings, validator.Today, clk, hub, cfg.CompletionSchedule, zlog.Named("jobs"))
	if err := completion.Start(); err != nil {
		zlog.Fatal("completion job", zap.Error(err))
	}
	defer completion.Stop()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitBurst, zlog.Named("ratelimit"))
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	limiter.StartCleanup(sweepCtx, time.Minute, 10*time.Minute)

	r := gin.New()
	r.Use(
		middleware.Recovery(zlog),
		middleware.RequestLogger(zlog.Named("http")),
		middleware.CORS(cfg.AllowedOrigins()),
		limiter.Middleware(),
	)

	r.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := stores.Ping(pingCtx); err != nil {
			response.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error())
			return
		}
		response.Success(c, http.StatusOK, gin.H{
			"status":         "ok",
			"store":          cfg.StoreDriver,
			"online_viewers": hub.GetOnlineCount(),
		})
	})

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)
		liveHandler.RegisterRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j), middleware.LoadIdentity(stores.Users, zlog))
		{
			authHandler.RegisterProtectedRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
		}

		adminGroup := v1.Group("/admin")
		adminGroup.Use(middleware.JWTAuth(j), middleware.LoadIdentity(stores.Users, zlog), middleware.AdminOnly())
		{
			adminHandler.RegisterRoutes(adminGroup)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
