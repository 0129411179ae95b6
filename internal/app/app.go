package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/carebridge/telehealth-api/internal/config"
	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/internal/handler"
	"github.com/carebridge/telehealth-api/internal/mailer"
	"github.com/carebridge/telehealth-api/internal/repository"
	"github.com/carebridge/telehealth-api/internal/service"
	"github.com/carebridge/telehealth-api/internal/utils"
	"github.com/carebridge/telehealth-api/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra   Infrastructure
	config  *config.Config
	router  *gin.Engine
	server  *http.Server
	sweeper *TokenSweeper
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry.Duration,
	)

	cipher, err := utils.NewValueCipher(cfg.Security.EncryptionKeyBytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create value cipher: %w", err)
	}

	blacklist := service.NewTokenBlacklistService(infra.Redis())
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)
	audit := service.NewAuditRecorder(repos.Audit, infra.Logger())
	mail := mailer.NewMailer(cfg.SMTP)

	authService := service.NewAuthService(
		repos.User,
		repos.Token,
		repos.Profile,
		audit,
		jwtManager,
		blacklist,
		mail,
		infra.Logger(),
		cfg.Security.BCryptCost,
		cfg.Security.OTPExpiry.Duration,
		cfg.JWT.RefreshTokenExpiry.Duration,
	)

	metricService := service.NewMetricService(repos.Metric, cipher, infra.Logger())

	authHandler := handler.NewAuthHandler(authService)
	metricHandler := handler.NewMetricHandler(metricService)

	router := gin.Default()
	router.Use(otelgin.Middleware("telehealth-api"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))
	router.Use(handler.RateLimitMiddleware(
		rateLimiter, "global",
		cfg.Security.GlobalRateLimit, cfg.Security.GlobalRateWindow.Duration,
		handler.IPBasedKey,
	))

	setupRoutes(router, cfg, authHandler, metricHandler, authService, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:   infra,
		config:  cfg,
		router:  router,
		server:  srv,
		sweeper: NewTokenSweeper(repos.Token, infra.Logger(), cfg.Security.TokenSweep.Duration),
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	metricHandler *handler.MetricHandler,
	authService service.AuthService,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	authLimit := handler.RateLimitMiddleware(
		rateLimiter, "auth",
		cfg.Security.AuthRateLimit, cfg.Security.AuthRateWindow.Duration,
		handler.IPBasedKey,
	)
	otpLimit := handler.RateLimitMiddleware(
		rateLimiter, "otp",
		cfg.Security.OTPRateLimit, cfg.Security.OTPRateWindow.Duration,
		handler.IPBasedKey,
	)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authLimit, otpLimit, authHandler.Signup)
			auth.POST("/verify-otp", otpLimit, authHandler.VerifyOTP)
			auth.POST("/login", authLimit, authHandler.Login)
			auth.POST("/refresh-token", authHandler.Refresh)
			auth.POST("/logout", handler.AuthMiddleware(authService), authHandler.Logout)
			auth.GET("/me", handler.AuthMiddleware(authService), authHandler.Me)
			auth.GET("/users",
				handler.AuthMiddleware(authService),
				handler.RequireRoles(domain.RoleAdmin),
				authHandler.ListUsers,
			)
		}

		metrics := api.Group("/metrics", handler.AuthMiddleware(authService))
		{
			metrics.POST("", handler.RequireRoles(domain.RolePatient), metricHandler.Log)
			metrics.GET("", handler.RequireRoles(domain.RolePatient), metricHandler.History)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go a.sweeper.Run(ctx)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
