package config

import (
	"github.com/spf13/viper"
)

const (
	envPrefix           = "LIBRARY_TEST"
	keyDatabaseURL      = "database_url"
	keyReplicaURL       = "replica_database_url"
	keyAdapterType      = "adapter_type"
	envAdapterTypeShort = "ADAPTER_TYPE"
)

var settings = newSettings()

func newSettings() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault(keyDatabaseURL, "")
	v.SetDefault(keyReplicaURL, "")
	_ = v.BindEnv(keyAdapterType, envPrefix+"_ADAPTER_TYPE", envAdapterTypeShort)

	return v
}

// PostgresTestDSN returns the DSN of the test database, empty if none is configured yet.
func PostgresTestDSN() string {
	return settings.GetString(keyDatabaseURL)
}

// PostgresReplicaTestDSN returns the DSN of the replica test database, falling back to the primary one.
func PostgresReplicaTestDSN() string {
	if dsn := settings.GetString(keyReplicaURL); dsn != "" {
		return dsn
	}

	return PostgresTestDSN()
}

// HasPostgresTestDSN reports whether a test database was configured via the environment or UsePostgresTestDSN.
func HasPostgresTestDSN() bool {
	return PostgresTestDSN() != ""
}

// UsePostgresTestDSN overrides the test database DSN, e.g. with the one of a started container.
func UsePostgresTestDSN(dsn string) {
	settings.Set(keyDatabaseURL, dsn)
}

// AdapterType returns the adapter the tests run against: "pgx.pool" (default), "sql.db" or "sqlx.db".
// It is read from LIBRARY_TEST_ADAPTER_TYPE or ADAPTER_TYPE.
func AdapterType() string {
	return settings.GetString(keyAdapterType)
}
