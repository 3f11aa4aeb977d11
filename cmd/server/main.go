package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/notes-service/config"
	"github.com/ErlanBelekov/notes-service/internal/email"
	"github.com/ErlanBelekov/notes-service/internal/health"
	"github.com/ErlanBelekov/notes-service/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/notes-service/internal/infrastructure/redis"
	ctxlog "github.com/ErlanBelekov/notes-service/internal/log"
	"github.com/ErlanBelekov/notes-service/internal/metrics"
	"github.com/ErlanBelekov/notes-service/internal/otp"
	"github.com/ErlanBelekov/notes-service/internal/password"
	httptransport "github.com/ErlanBelekov/notes-service/internal/transport/http"
	"github.com/ErlanBelekov/notes-service/internal/transport/http/handler"
	"github.com/ErlanBelekov/notes-service/internal/token"
	"github.com/ErlanBelekov/notes-service/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if cfg.MigrateOnStart {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			stop()
			log.Fatalf("migrate: %v", err)
		}
		logger.Info("migrations applied")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	// Without REDIS_URL sessions are stateless and logout only clears the cookie.
	var epochs usecase.EpochStore
	if cfg.RedisURL != "" {
		store, err := redis.NewEpochStore(ctx, cfg.RedisURL)
		if err != nil {
			stop()
			log.Fatalf("redis: %v", err)
		}
		defer store.Close()
		checker.Add("redis", store)
		epochs = store
	} else {
		logger.Warn("REDIS_URL not set, session revocation disabled")
	}

	identityRepo := postgres.NewIdentityRepository(pool)
	notebookRepo := postgres.NewNotebookRepository(pool)
	noteRepo := postgres.NewNoteRepository(pool)

	hasher := password.NewHasher(bcrypt.DefaultCost)
	tokens := token.NewService([]byte(cfg.JWTSecret), cfg.SessionTTL, token.WithRecoveryTTL(cfg.RecoveryTokenTTL))
	mailer := email.NewDispatcher(email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger), logger)

	authUsecase := usecase.NewAuthUsecase(identityRepo, hasher, tokens, epochs, logger)
	recoveryUsecase := usecase.NewRecoveryUsecase(
		identityRepo, hasher, tokens, otp.NewGenerator(), mailer, epochs, logger,
		usecase.WithOTPTTL(cfg.OTPTTL),
	)
	notebookUsecase := usecase.NewNotebookUsecase(notebookRepo, noteRepo, logger)
	noteUsecase := usecase.NewNoteUsecase(noteRepo, notebookUsecase, identityRepo, logger)

	handlers := httptransport.Handlers{
		Auth: handler.NewAuthHandler(authUsecase, recoveryUsecase, handler.CookieConfig{
			Name:   cfg.SessionCookieName,
			Secure: cfg.CookieSecure,
			TTL:    cfg.SessionTTL,
		}, logger),
		Notebooks: handler.NewNotebookHandler(notebookUsecase, noteUsecase, logger),
		Notes:     handler.NewNoteHandler(noteUsecase, logger),
	}

	router := httptransport.NewRouter(logger, httptransport.RouterConfig{
		CookieName:    cfg.SessionCookieName,
		SecureCookies: cfg.CookieSecure,
		LoginPath:     cfg.LoginPath,
		CORSOrigins:   cfg.CORSOrigins,
	}, authUsecase, handlers)

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	// In-flight recovery emails finish before the process exits.
	mailer.Wait()
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
