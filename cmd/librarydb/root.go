package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // database/sql driver "postgres"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AntonStoeckl/library-lending-go/library/postgresengine"
)

const (
	envPrefix = "LIBRARY"

	keyDatabaseURL = "database-url"
	keyAdapter     = "adapter"
	keyLogLevel    = "log-level"

	adapterPGXPool = "pgx.pool"
	adapterSQLDB   = "sql.db"
	adapterSQLXDB  = "sqlx.db"
)

var (
	ErrMissingDatabaseURL  = errors.New("no database url configured, set --database-url or LIBRARY_DATABASE_URL")
	ErrUnsupportedAdapter  = errors.New("unsupported adapter, use one of pgx.pool, sql.db, sqlx.db")
	ErrResetNotConfirmed   = errors.New("reset drops all books, cards and borrows, confirm with --yes")
	ErrUnsupportedLogLevel = errors.New("unsupported log level")
)

type cli struct {
	settings *viper.Viper
	stdout   io.Writer
	stderr   io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{settings: viper.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "librarydb",
		Short:         "Administer a PostgreSQL library store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String(keyDatabaseURL, "", "PostgreSQL connection URL (env LIBRARY_DATABASE_URL)")
	root.PersistentFlags().String(keyAdapter, adapterPGXPool, "database adapter: pgx.pool, sql.db or sqlx.db (env LIBRARY_ADAPTER)")
	root.PersistentFlags().String(keyLogLevel, "warn", "log level: debug, info, warn or error (env LIBRARY_LOG_LEVEL)")

	for _, key := range []string{keyDatabaseURL, keyAdapter, keyLogLevel} {
		_ = c.settings.BindPFlag(key, root.PersistentFlags().Lookup(key))
	}

	c.settings.SetEnvPrefix(envPrefix)
	c.settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.settings.AutomaticEnv()

	root.AddCommand(
		c.migrateCommand(),
		c.resetCommand(),
		c.cardsCommand(),
		c.booksCommand(),
	)

	return root
}

// withService connects with the configured adapter, runs fn and closes the connection afterwards.
func (c *cli) withService(ctx context.Context, fn func(service postgresengine.Service) error) error {
	logger, err := c.logger()
	if err != nil {
		return err
	}

	dsn := c.settings.GetString(keyDatabaseURL)
	if dsn == "" {
		return ErrMissingDatabaseURL
	}

	service, closeFn, err := c.connect(ctx, dsn, postgresengine.WithLogger(logger))
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(service)
}

func (c *cli) connect(
	ctx context.Context,
	dsn string,
	options ...postgresengine.Option,
) (postgresengine.Service, func(), error) {

	switch adapter := c.settings.GetString(keyAdapter); adapter {
	case adapterPGXPool:
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return postgresengine.Service{}, nil, fmt.Errorf("connect with %s: %w", adapter, err)
		}

		service, err := postgresengine.NewServiceFromPGXPool(pool, options...)
		if err != nil {
			pool.Close()
			return postgresengine.Service{}, nil, err
		}

		return service, pool.Close, nil

	case adapterSQLDB:
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return postgresengine.Service{}, nil, fmt.Errorf("connect with %s: %w", adapter, err)
		}

		service, err := postgresengine.NewServiceFromSQLDB(db, options...)
		if err != nil {
			_ = db.Close()
			return postgresengine.Service{}, nil, err
		}

		return service, func() { _ = db.Close() }, nil

	case adapterSQLXDB:
		db, err := sqlx.Open("postgres", dsn)
		if err != nil {
			return postgresengine.Service{}, nil, fmt.Errorf("connect with %s: %w", adapter, err)
		}

		service, err := postgresengine.NewServiceFromSQLX(db, options...)
		if err != nil {
			_ = db.Close()
			return postgresengine.Service{}, nil, err
		}

		return service, func() { _ = db.Close() }, nil

	default:
		return postgresengine.Service{}, nil, fmt.Errorf("%w: %q", ErrUnsupportedAdapter, adapter)
	}
}

func (c *cli) logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.settings.GetString(keyLogLevel))); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLogLevel, c.settings.GetString(keyLogLevel))
	}

	return slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level})), nil
}
