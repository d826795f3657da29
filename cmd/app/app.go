package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Injamhossan/contest-arena/internal/api"
	"github.com/Injamhossan/contest-arena/internal/config"
	"github.com/Injamhossan/contest-arena/internal/db"
	"github.com/Injamhossan/contest-arena/internal/logger"
	"github.com/Injamhossan/contest-arena/internal/pkg/identity"
	"github.com/Injamhossan/contest-arena/internal/pkg/processor"
	"github.com/Injamhossan/contest-arena/internal/repository"
	"github.com/Injamhossan/contest-arena/internal/scheduler"
	"github.com/Injamhossan/contest-arena/internal/service"
)

const shutdownTimeout = 10 * time.Second

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer zap.L().Sync() //nolint:errcheck

	var postgresDB *gorm.DB
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL, conf.Postgres.Migrate)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	verifier, err := newIdentityVerifier(conf.Identity)
	if err != nil {
		return fmt.Errorf("failed to initialize identity verifier -> %w", err)
	}

	s := api.NewServer(conf, repository.NewStore(postgresDB), newProcessor(conf), verifier)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go s.RunEvents(ctx)

	if conf.Housekeeping.Enabled {
		sched, err := scheduler.New(conf.Housekeeping.Interval, s.Housekeeping)
		if err != nil {
			return fmt.Errorf("failed to initialize scheduler -> %w", err)
		}
		sched.Start()
		defer func() {
			if err := sched.Shutdown(); err != nil {
				zap.L().Error("scheduler shutdown", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + conf.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
	case <-ctx.Done():
		zap.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err = srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown the server -> %w", err)
		}
	}

	return nil
}

func newProcessor(conf *config.AppConfig) processor.Processor {
	if conf.Payment.Processor == "stripe" {
		return processor.NewStripe(conf.Stripe.SecretKey)
	}

	zap.L().Warn("using the mock payment processor", zap.Bool("auto_settle", conf.Payment.MockSettle))
	return processor.NewMock(conf.Payment.MockSettle)
}

// newIdentityVerifier returns a nil interface, not a typed nil, when no
// identity provider is configured.
func newIdentityVerifier(conf *config.IdentityConfig) (service.IdentityVerifier, error) {
	if conf == nil || (conf.HMACSecret == "" && conf.RSAPublicKey == "") {
		zap.L().Info("identity provider not configured, /auth/session is disabled")
		return nil, nil
	}

	v, err := identity.NewVerifier(conf.Issuer, conf.Audience, conf.HMACSecret, conf.RSAPublicKey)
	if err != nil {
		return nil, err
	}

	return v, nil
}
