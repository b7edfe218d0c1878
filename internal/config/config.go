// Package config provides configuration structures and validation for the application.
// It handles environment-based configuration for all major components including
// server settings, database connections, message queues, and operational parameters.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration with settings for all
// components. Each field represents a major subsystem's configuration and is
// validated during application startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Auth        AuthConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Outbox      OutboxConfig
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
}

// AuthConfig contains bearer-token verification settings
type AuthConfig struct {
	JWTSecret string // HMAC secret shared with the identity provider
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	LedgerEventsTopic string
	NumPartitions     int // Number of partitions for topics
	ReplicationFactor int // Replication factor for topics
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for Dead Letter Queue
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

// RedisConfig contains Redis configuration for the idempotency cache
type RedisConfig struct {
	URL            string
	IdempotencyTTL time.Duration
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int // Maximum number of retry attempts for outbox messages
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// Process names passed to LoadConfig. Validation is scoped to the
// subsystems each process actually starts, so the API does not demand
// Kafka settings and the auditor does not demand HTTP server settings.
const (
	ProcessAPI     = "api"
	ProcessAuditor = "auditor"
)

// validateFor checks the configuration a process depends on. An unknown
// process name validates everything.
func (c *Config) validateFor(process string) error {
	var validationErrors []string

	// PostgreSQL backs both processes
	validationErrors = append(validationErrors, c.validatePostgres()...)

	switch process {
	case ProcessAPI:
		validationErrors = append(validationErrors, c.validateServer()...)
		validationErrors = append(validationErrors, c.validateAuth()...)
		validationErrors = append(validationErrors, c.validateRedis()...)
		// The API reads the audit archive, so it needs MongoDB too
		validationErrors = append(validationErrors, c.validateMongo()...)
	case ProcessAuditor:
		validationErrors = append(validationErrors, c.validateKafka()...)
		validationErrors = append(validationErrors, c.validateMongo()...)
		validationErrors = append(validationErrors, c.validateOutbox()...)
		validationErrors = append(validationErrors, c.validateWorkerPool()...)
	default:
		validationErrors = append(validationErrors, c.validateServer()...)
		validationErrors = append(validationErrors, c.validateAuth()...)
		validationErrors = append(validationErrors, c.validateRedis()...)
		validationErrors = append(validationErrors, c.validateKafka()...)
		validationErrors = append(validationErrors, c.validateMongo()...)
		validationErrors = append(validationErrors, c.validateOutbox()...)
		validationErrors = append(validationErrors, c.validateWorkerPool()...)
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}

func (c *Config) validateServer() []string {
	var errs []string
	if c.Server.Port <= 0 {
		errs = append(errs, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		errs = append(errs, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}
	return errs
}

func (c *Config) validateAuth() []string {
	var errs []string
	if c.Auth.JWTSecret == "" {
		errs = append(errs, "AUTH_JWT_SECRET is required")
	}
	return errs
}

func (c *Config) validateKafka() []string {
	var errs []string
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, "KAFKA_BROKERS is required")
	}
	if c.Kafka.LedgerEventsTopic == "" {
		errs = append(errs, "KAFKA_LEDGER_EVENTS_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		errs = append(errs, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		errs = append(errs, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		errs = append(errs, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		errs = append(errs, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if c.Kafka.DLQTopic == "" {
		errs = append(errs, "KAFKA_DLQ_TOPIC is required")
	}
	return errs
}

func (c *Config) validatePostgres() []string {
	var errs []string
	if c.Postgres.URL == "" {
		errs = append(errs, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		errs = append(errs, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		errs = append(errs, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		errs = append(errs, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		errs = append(errs, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}
	return errs
}

func (c *Config) validateMongo() []string {
	var errs []string
	if c.MongoDB.URI == "" {
		errs = append(errs, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		errs = append(errs, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		errs = append(errs, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		errs = append(errs, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MinPoolSize <= 0 {
		errs = append(errs, "MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		errs = append(errs, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}
	return errs
}

func (c *Config) validateRedis() []string {
	var errs []string
	if c.Redis.URL == "" {
		errs = append(errs, "REDIS_URL is required")
	}
	if c.Redis.IdempotencyTTL <= 0 {
		errs = append(errs, "REDIS_IDEMPOTENCY_TTL must be greater than 0")
	}
	return errs
}

func (c *Config) validateOutbox() []string {
	var errs []string
	if c.Outbox.PollingInterval <= 0 {
		errs = append(errs, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		errs = append(errs, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		errs = append(errs, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}
	return errs
}

func (c *Config) validateWorkerPool() []string {
	var errs []string
	if c.WorkerPool.Size <= 0 {
		errs = append(errs, "WORKER_POOL_SIZE must be greater than 0")
	}
	return errs
}
