package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/foyerhq/foyer-server/internal/config"
	"github.com/foyerhq/foyer-server/internal/database"
	"github.com/foyerhq/foyer-server/internal/handler"
	"github.com/foyerhq/foyer-server/internal/jobs"
	"github.com/foyerhq/foyer-server/internal/middleware"
	"github.com/foyerhq/foyer-server/internal/redis"
	"github.com/foyerhq/foyer-server/internal/repository"
	"github.com/foyerhq/foyer-server/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	requestRepo := repository.NewAccessRequestRepository(db.DB)
	codeRepo := repository.NewAccessCodeRepository(db.DB)
	userRepo := repository.NewUserRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	magicLinkRepo := repository.NewMagicLinkRepository(db.DB)

	mailer := service.NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailFromAddress, cfg.EmailFromName, cfg.BaseURL)
	captcha := service.NewCaptchaVerifier(cfg.CaptchaSecret, cfg.CaptchaVerifyURL)
	limiter := service.NewRateLimiter(redisClient.Client)
	tokenBridge := service.NewTokenBridge(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)

	requestService := service.NewAccessRequestService(requestRepo, userRepo)
	codeService := service.NewAccessCodeService(codeRepo)
	signupService := service.NewSignupService(db, codeRepo, userRepo)
	invitationService := service.NewInvitationService(requestRepo, codeRepo, codeService, mailer, cfg.InviteTTL())
	adminService := service.NewAdminService(requestRepo, codeRepo, userRepo)
	authService := service.NewAuthService(
		userRepo, sessionRepo, magicLinkRepo, mailer, tokenBridge,
		cfg.SessionSecret, cfg.BaseURL, cfg.MagicLinkTTL(),
	)

	sessionMiddleware := middleware.NewSessionMiddleware(authService)
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)
	validateCodeLimit := middleware.NewIPRateLimitMiddleware(
		limiter, config.ValidateCodeLimit, config.ValidateCodeWindow, "validate",
	)
	loginLimit := middleware.NewIPRateLimitMiddleware(
		limiter, config.LoginLimit, config.LoginWindow, "login",
	)

	accessHandler := handler.NewAccessHandler(
		requestService, codeService, signupService, authService, captcha, limiter, isProduction,
	)
	authHandler := handler.NewAuthHandler(authService, sessionMiddleware, isProduction)
	adminHandler := handler.NewAdminHandler(
		requestService, invitationService, codeService, adminService, sessionMiddleware,
	)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware.Handler)

		r.Mount("/", accessHandler.Routes(validateCodeLimit.Handler))
		r.Mount("/auth", authHandler.Routes(loginLimit.Handler))
		r.Mount("/admin", adminHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(sessionRepo, magicLinkRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
