package config

import "context"

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

// Config holds all configuration for the repository module.
type Config struct {
	// DBURL is the MongoDB connection URI.
	DBURL string

	// DBName is the database holding the tig_* collections.
	DBName string

	// Run schema provisioning (collections + indexes) on startup.
	MigrateAtStart bool

	// BatchSize is the cursor batch size for streaming reads.
	BatchSize int

	// AutoCreateUsers makes node writes upsert the owning user row, so
	// data can be written for accounts that were never explicitly added.
	AutoCreateUsers bool

	// DB pool
	DBMaxOpenConns int
	DBMaxIdleConns int

	// MetricsLabels is a comma-separated list of key=value pairs added as
	// constant labels to all Prometheus metrics. Values support ${VAR}
	// expansion.
	MetricsLabels string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DBName:         "tigase",
		MigrateAtStart: true,
		BatchSize:      100,
		DBMaxOpenConns: 25,
		DBMaxIdleConns: 5,
	}
}
