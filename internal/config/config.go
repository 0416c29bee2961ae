// Package config provides configuration structures and validation for the
// application. It handles environment-based configuration for all major
// components: the wallet server, the reader agent, and the notification worker.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration with settings for all
// components. Each binary loads the same structure and uses the sections it
// needs; every section is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Kafka       KafkaConfig
	Pairing     PairingConfig
	Ephemeral   EphemeralConfig
	Reader      ReaderConfig
	WorkerPool  WorkerPoolConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
	ReaderAPIKey    string        // Shared key presented by reader devices
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	NotificationTopic string
	NumPartitions     int // Number of partitions for topics
	ReplicationFactor int // Replication factor for topics
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	DLQTopic          string // Topic for Dead Letter Queue
}

// PairingConfig contains pairing code issuance configuration
type PairingConfig struct {
	MinTTL      time.Duration // Lower clamp for requested code lifetimes
	MaxTTL      time.Duration // Upper clamp for requested code lifetimes
	DefaultTTL  time.Duration // Used when the caller supplies no TTL
	CodeLength  int           // Digits in a generated code
	MaxAttempts int           // Collision retries before giving up
}

// EphemeralConfig contains per-reader ephemeral state configuration
type EphemeralConfig struct {
	DefaultTTL time.Duration // Lifetime of pending checkout / auto-pair entries
}

// ReaderConfig contains reader agent configuration
type ReaderConfig struct {
	ServerURL      string        // Scan submission endpoint of the wallet server
	APIKey         string        // Shared reader key
	Name           string        // Logical reader name reported with each scan
	QueueDir       string        // Directory backing the durable delivery queue
	SubmitTimeout  time.Duration // Bound on each synchronous send attempt
	SweepInterval  time.Duration // Period of the queue retry sweep
	SweepWorkers   int           // Concurrent retries per sweep
	DebounceWindow time.Duration // Window for suppressing duplicate taps
	DefaultProduct string        // Product label when none is configured
	DefaultAmount  int64         // Fallback charge in cents, 0 disables
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// validate performs comprehensive validation of all configuration values,
// ensuring they meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate PostgreSQL config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate MongoDB config
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MinPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate Kafka config
	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.NotificationTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_NOTIFICATION_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}

	// Validate Pairing config
	if c.Pairing.MinTTL <= 0 {
		validationErrors = append(validationErrors, "PAIRING_MIN_TTL must be greater than 0")
	}
	if c.Pairing.MaxTTL < c.Pairing.MinTTL {
		validationErrors = append(validationErrors, "PAIRING_MAX_TTL must not be less than PAIRING_MIN_TTL")
	}
	if c.Pairing.DefaultTTL <= 0 {
		validationErrors = append(validationErrors, "PAIRING_DEFAULT_TTL must be greater than 0")
	}
	if c.Pairing.CodeLength <= 0 {
		validationErrors = append(validationErrors, "PAIRING_CODE_LENGTH must be greater than 0")
	}
	if c.Pairing.MaxAttempts <= 0 {
		validationErrors = append(validationErrors, "PAIRING_MAX_ATTEMPTS must be greater than 0")
	}

	// Validate Ephemeral config
	if c.Ephemeral.DefaultTTL <= 0 {
		validationErrors = append(validationErrors, "EPHEMERAL_DEFAULT_TTL must be greater than 0")
	}

	// Validate Reader config
	if c.Reader.SubmitTimeout <= 0 {
		validationErrors = append(validationErrors, "READER_SUBMIT_TIMEOUT must be greater than 0")
	}
	if c.Reader.SweepInterval <= 0 {
		validationErrors = append(validationErrors, "READER_SWEEP_INTERVAL must be greater than 0")
	}
	if c.Reader.SweepWorkers <= 0 {
		validationErrors = append(validationErrors, "READER_SWEEP_WORKERS must be greater than 0")
	}
	if c.Reader.DebounceWindow <= 0 {
		validationErrors = append(validationErrors, "READER_DEBOUNCE_WINDOW must be greater than 0")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
