package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/attestly/certify-backend/internal/adapter/postgres"
	"github.com/attestly/certify-backend/internal/adapter/postgres/account"
	"github.com/attestly/certify-backend/internal/adapter/postgres/application"
	"github.com/attestly/certify-backend/internal/adapter/postgres/audit"
	"github.com/attestly/certify-backend/internal/adapter/postgres/certificate"
	"github.com/attestly/certify-backend/internal/adapter/postgres/decision"
	"github.com/attestly/certify-backend/internal/adapter/postgres/notification"
	"github.com/attestly/certify-backend/internal/adapter/postgres/reviewentry"
	"github.com/attestly/certify-backend/internal/adapter/postgres/standard"
	"github.com/attestly/certify-backend/internal/auth"
	"github.com/attestly/certify-backend/internal/config"
	"github.com/attestly/certify-backend/internal/service/catalog"
	"github.com/attestly/certify-backend/internal/service/certnum"
	"github.com/attestly/certify-backend/internal/service/outbox"
	"github.com/attestly/certify-backend/internal/service/workflow"
	"github.com/attestly/certify-backend/internal/transport/middleware"
	"github.com/attestly/certify-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects to
// the database, wires repositories into services, and serves HTTP until the
// context is cancelled or a termination signal arrives.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	applicationRepo := application.New(pool)
	certificateRepo := certificate.New(pool)
	reviewEntryRepo := reviewentry.New(pool)
	decisionRepo := decision.New(pool)
	standardRepo := standard.New(pool)
	accountRepo := account.New(pool)
	notificationRepo := notification.New(pool)
	auditRepo := audit.New(pool)
	txManager := postgres.NewTxManager(pool)

	numbers := certnum.NewGenerator(
		certificateRepo,
		certificateRepo,
		cfg.Certificate.NumberPrefix,
		cfg.Certificate.VerificationCodeLength,
		cfg.Certificate.MaxCodeAttempts,
	)

	workflowSvc := workflow.NewService(
		logger,
		applicationRepo,
		certificateRepo,
		reviewEntryRepo,
		decisionRepo,
		standardRepo,
		accountRepo,
		notificationRepo,
		auditRepo,
		numbers,
		txManager,
	)
	catalogSvc := catalog.NewService(logger, standardRepo)
	outboxSvc := outbox.NewService(logger, notificationRepo)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)

	mux := rest.NewRouter(rest.Handlers{
		Applications: rest.NewApplicationHandler(workflowSvc, logger),
		Certificates: rest.NewCertificateHandler(workflowSvc, logger),
		Standards:    rest.NewStandardHandler(catalogSvc, logger),
		Outbox:       rest.NewOutboxHandler(outboxSvc, logger),
		Health:       rest.NewHealthHandler(pool, BuildVersion()),
	})

	handler := middleware.Chain(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
		middleware.Auth(jwtManager),
	)(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("stopped")
	return nil
}
