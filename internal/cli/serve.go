package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	invoiceApplication "github.com/rcarvalho-pb/billing_system-go/internal/application/invoice"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/event"
	"github.com/rcarvalho-pb/billing_system-go/internal/infra/clock"
	"github.com/rcarvalho-pb/billing_system-go/internal/infra/config"
	"github.com/rcarvalho-pb/billing_system-go/internal/infra/guid"
	"github.com/rcarvalho-pb/billing_system-go/internal/infra/logging"
	"github.com/rcarvalho-pb/billing_system-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/billing_system-go/internal/infrastructure/eventbus"
	httpapi "github.com/rcarvalho-pb/billing_system-go/internal/infrastructure/http"
	"github.com/rcarvalho-pb/billing_system-go/internal/infrastructure/outbox"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the outbox dispatcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply migrations before serving")
	return cmd
}

func serve(parent context.Context, cfg config.Config, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logging.NewZapLogger(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer s.Close()

	if migrate {
		if err := s.Migrate(ctx); err != nil {
			return err
		}
	}

	counters := &metrics.Counters{}
	service := &invoiceApplication.Service{
		Repo:    s,
		Clock:   clock.System{},
		GUIDs:   guid.UUIDGenerator{},
		Logger:  logger,
		Metrics: counters,
	}

	bus := eventbus.NewInMemoryBus()
	for _, typ := range []event.Type{event.InvoiceCreated, event.TransactionScheduled, event.TransactionCanceled} {
		bus.Subscribe(typ, logPublished(logger))
	}

	dispatcher := &outbox.Dispatcher{
		Repo:         s,
		EventBus:     bus,
		Logger:       logger,
		PollInterval: cfg.Outbox.PollInterval,
		MaxBackoff:   cfg.Outbox.MaxBackoff,
		BatchSize:    cfg.Outbox.BatchSize,
	}

	if cfg.Log.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var limiter *httpapi.RateLimiter
	if cfg.HTTP.RateLimit.RPS > 0 {
		limiter = httpapi.NewRateLimiter(cfg.HTTP.RateLimit.RPS, cfg.HTTP.RateLimit.Burst)
	}

	server := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(httpapi.RouterConfig{
			Handler: &httpapi.InvoiceHandler{Service: service, Logger: logger},
			Metrics: counters,
			Logger:  logger,
			Limiter: limiter,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", map[string]any{
			"addr":   cfg.HTTP.Addr,
			"driver": cfg.Database.Driver,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("http shutdown failed", map[string]any{"error": shutdownErr})
	}

	wg.Wait()
	logger.Info("server stopped", nil)
	return err
}

func logPublished(logger logging.Logger) eventbus.HandlerFunc {
	return func(evt event.Event) error {
		logger.Info("event published", map[string]any{
			"type":        evt.Type,
			"occurred-at": evt.OccurredAt,
		})
		return nil
	}
}
