package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the service
type Config struct {
	// Server configuration
	HTTPPort int    `env:"DAGFORGE_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"DAGFORGE_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Storage backend: "memory" or "redis"
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`

	// Redis configuration
	Redis RedisConfig

	// Task runner configuration
	Runner RunnerConfig

	// Worker configuration
	Workers WorkerConfig

	// Resolver configuration
	Resolver ResolverConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// RunnerConfig holds task runner configuration
type RunnerConfig struct {
	Kind string `env:"RUNNER_KIND" envDefault:"shell"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	PoolSize            int           `env:"WORKER_POOL_SIZE" envDefault:"5"`
	QueueSize           int           `env:"WORKER_QUEUE_SIZE" envDefault:"64"`
	HealthCheckInterval time.Duration `env:"WORKER_HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// ResolverConfig holds per-execution task scheduling configuration
type ResolverConfig struct {
	MaxTaskConcurrency int `env:"RESOLVER_MAX_TASK_CONCURRENCY" envDefault:"4"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ExecutionTimeout time.Duration `env:"TIMEOUT_EXECUTION" envDefault:"3600s"` // 1 hour
	TaskTimeout      time.Duration `env:"TIMEOUT_TASK" envDefault:"300s"`       // 5 minutes
	ShutdownTimeout  time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	// Validate storage backend
	if c.StorageBackend != "memory" && c.StorageBackend != "redis" {
		return fmt.Errorf("unsupported storage backend: %s (must be 'memory' or 'redis')", c.StorageBackend)
	}
	if c.StorageBackend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	// Validate runner config
	if c.Runner.Kind != "shell" && c.Runner.Kind != "noop" {
		return fmt.Errorf("unsupported runner kind: %s (must be 'shell' or 'noop')", c.Runner.Kind)
	}

	// Validate worker config
	if c.Workers.PoolSize < 1 {
		return fmt.Errorf("worker pool size must be at least 1")
	}
	if c.Workers.QueueSize < 1 {
		return fmt.Errorf("worker queue size must be at least 1")
	}

	// Validate resolver config
	if c.Resolver.MaxTaskConcurrency < 1 {
		return fmt.Errorf("max task concurrency must be at least 1")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
