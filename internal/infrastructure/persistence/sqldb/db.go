package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type dialect struct {
	name string
	// forUpdate is appended to reads that precede a write in a unit.
	forUpdate  string
	migrations []string
	positional bool
}

var (
	sqliteDialect = dialect{
		name:       "sqlite",
		migrations: sqliteMigrations,
	}
	postgresDialect = dialect{
		name:       "postgres",
		forUpdate:  " FOR UPDATE",
		migrations: postgresMigrations,
		positional: true,
	}
)

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return sqliteDialect, nil
	case "postgres":
		return postgresDialect, nil
	}
	return dialect{}, fmt.Errorf("sqldb: unsupported driver %q", driver)
}

// rebind turns ? placeholders into $1..$n for drivers that need it.
func (d dialect) rebind(query string) string {
	if !d.positional {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects with driver "sqlite3" or "postgres".
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	store, err := New(db, driver)
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// New wraps an open handle. SQLite handles are limited to a single
// connection so atomic units never interleave.
func New(db *sql.DB, driver string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	if d.name == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	return &Store{db: db, dialect: d}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqldb: migrate: %w", err)
		}
	}
	return nil
}
