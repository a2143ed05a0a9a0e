package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/library/postgresengine"
	"github.com/AntonStoeckl/library-lending-go/testutil/postgresengine/config"
	"github.com/AntonStoeckl/library-lending-go/testutil/postgresengine/helper"
)

// Engine type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

// Wrapper abstracts over the different adapter types.
type Wrapper interface {
	GetService() postgresengine.Service
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool    *pgxpool.Pool
	replica *pgxpool.Pool
	service postgresengine.Service
}

func (e *PGXPoolWrapper) GetService() postgresengine.Service {
	return e.service
}

func (e *PGXPoolWrapper) Close() {
	e.pool.Close()

	if e.replica != nil {
		e.replica.Close()
	}
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db      *sql.DB
	service postgresengine.Service
}

func (e *SQLDBWrapper) GetService() postgresengine.Service {
	return e.service
}

func (e *SQLDBWrapper) Close() {
	_ = e.db.Close()
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db      *sqlx.DB
	service postgresengine.Service
}

func (e *SQLXWrapper) GetService() postgresengine.Service {
	return e.service
}

func (e *SQLXWrapper) Close() {
	_ = e.db.Close()
}

// RunWithDatabase runs the tests of a package against the configured test database,
// or against a PostgreSQL container if none is configured. The schema is created before the tests run.
// Use it from TestMain: os.Exit(postgreswrapper.RunWithDatabase(m)).
func RunWithDatabase(m *testing.M) int {
	ctx := context.Background()

	if !config.HasPostgresTestDSN() {
		dsn, terminate, err := helper.StartPostgresContainer(ctx)
		if err != nil {
			log.Printf("failed to start postgres container: %v", err)
			return 1
		}
		defer terminate()

		config.UsePostgresTestDSN(dsn)
	}

	wrapper, err := createWrapper(nil)
	if err != nil {
		log.Printf("failed to create library store: %v", err)
		return 1
	}

	schemaErr := wrapper.GetService().EnsureSchema(ctx)
	wrapper.Close()

	if schemaErr != nil {
		log.Printf("failed to create schema: %v", schemaErr)
		return 1
	}

	return m.Run()
}

// CreateWrapperWithTestConfig creates the wrapper for the configured adapter type with the given options.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	wrapper, err := createWrapper(options)
	assert.NoError(t, err, "error creating library store")

	return wrapper
}

// TryCreateServiceWithOptions tries to create a Service with the given options and returns the error (for testing error cases).
func TryCreateServiceWithOptions(t testing.TB, options ...postgresengine.Option) error {
	wrapper, err := createWrapper(options)
	if err != nil {
		return err
	}

	wrapper.Close()

	return nil
}

// CreatePGXPoolWrapperWithReplica creates a pgx based wrapper whose reads under eventual consistency go to the replica DSN.
// Without LIBRARY_TEST_REPLICA_DATABASE_URL the replica pool connects to the primary database.
func CreatePGXPoolWrapperWithReplica(t testing.TB, options ...postgresengine.Option) Wrapper {
	ctx := context.Background()

	primary, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolTestConfig())
	assert.NoError(t, err, "error connecting to DB pool in test setup")

	replica, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolReplicaTestConfig())
	assert.NoError(t, err, "error connecting to replica DB pool in test setup")

	service, err := postgresengine.NewServiceFromPGXPoolWithReplica(primary, replica, options...)
	assert.NoError(t, err, "error creating library store")

	return &PGXPoolWrapper{pool: primary, replica: replica, service: service}
}

// CleanUp drops and recreates all tables of the wrapped store.
func CleanUp(t testing.TB, wrapper Wrapper) {
	err := wrapper.GetService().ResetSchema(context.Background())
	assert.NoError(t, err, "error cleaning up the library tables")
}

func createWrapper(options []postgresengine.Option) (Wrapper, error) {
	adapterType := strings.ToLower(config.AdapterType())

	switch adapterType {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolTestConfig())
		if err != nil {
			return nil, err
		}

		service, err := postgresengine.NewServiceFromPGXPool(connPool, options...)
		if err != nil {
			connPool.Close()
			return nil, err
		}

		return &PGXPoolWrapper{pool: connPool, service: service}, nil

	case typeSQLDB:
		db := config.PostgresSQLDBTestConfig()

		service, err := postgresengine.NewServiceFromSQLDB(db, options...)
		if err != nil {
			_ = db.Close()
			return nil, err
		}

		return &SQLDBWrapper{db: db, service: service}, nil

	case typeSQLXDB:
		db := config.PostgresSQLXTestConfig()

		service, err := postgresengine.NewServiceFromSQLX(db, options...)
		if err != nil {
			_ = db.Close()
			return nil, err
		}

		return &SQLXWrapper{db: db, service: service}, nil

	default:
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterType))
	}
}
