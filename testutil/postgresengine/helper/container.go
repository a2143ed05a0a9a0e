package helper

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	containerImage    = "postgres:17-alpine"
	containerDatabase = "library"
	containerUser     = "test"
	containerPassword = "test"
)

// StartPostgresContainer starts a throwaway PostgreSQL server and returns its DSN and a function that stops it.
func StartPostgresContainer(ctx context.Context) (string, func(), error) {
	pgContainer, err := postgres.Run(ctx,
		containerImage,
		postgres.WithDatabase(containerDatabase),
		postgres.WithUsername(containerUser),
		postgres.WithPassword(containerPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return "", nil, err
	}

	terminate := func() {
		_ = pgContainer.Terminate(context.Background())
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return "", nil, err
	}

	return dsn, terminate, nil
}
