package cli

import (
	"context"
	"fmt"

	"github.com/rcarvalho-pb/billing_system-go/internal/domain/invoice"
	"github.com/rcarvalho-pb/billing_system-go/internal/infra/config"
	"github.com/rcarvalho-pb/billing_system-go/internal/infrastructure/outbox"
	"github.com/rcarvalho-pb/billing_system-go/internal/infrastructure/persistence/mongodb"
	"github.com/rcarvalho-pb/billing_system-go/internal/infrastructure/persistence/sqldb"
)

// store is what every configured backend offers.
type store interface {
	invoice.Repository
	outbox.Repository
	Migrate(ctx context.Context) error
	Close() error
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, config.DriverPostgres:
		s, err := sqldb.Open(ctx, cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", cfg.Driver, err)
		}
		return s, nil
	case config.DriverMongo:
		s, err := mongodb.Open(ctx, cfg.DSN, cfg.Name)
		if err != nil {
			return nil, fmt.Errorf("opening mongodb store: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}
