package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.GRPCPort != 9090 {
		t.Errorf("GRPCPort = %d, want 9090", cfg.GRPCPort)
	}
	if cfg.StorageBackend != "memory" {
		t.Errorf("StorageBackend = %s, want memory", cfg.StorageBackend)
	}
	if cfg.Runner.Kind != "shell" {
		t.Errorf("Runner.Kind = %s, want shell", cfg.Runner.Kind)
	}
	if cfg.Workers.PoolSize != 5 {
		t.Errorf("Workers.PoolSize = %d, want 5", cfg.Workers.PoolSize)
	}
	if cfg.Resolver.MaxTaskConcurrency != 4 {
		t.Errorf("Resolver.MaxTaskConcurrency = %d, want 4", cfg.Resolver.MaxTaskConcurrency)
	}
	if cfg.Timeouts.ExecutionTimeout != time.Hour {
		t.Errorf("ExecutionTimeout = %s, want 1h", cfg.Timeouts.ExecutionTimeout)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DAGFORGE_HTTP_PORT", "9999")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("RUNNER_KIND", "noop")
	t.Setenv("RESOLVER_MAX_TASK_CONCURRENCY", "16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTPPort != 9999 {
		t.Errorf("HTTPPort = %d, want 9999", cfg.HTTPPort)
	}
	if cfg.StorageBackend != "redis" {
		t.Errorf("StorageBackend = %s, want redis", cfg.StorageBackend)
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Errorf("Redis.Addr = %s, want redis.internal:6379", cfg.Redis.Addr)
	}
	if cfg.Runner.Kind != "noop" {
		t.Errorf("Runner.Kind = %s, want noop", cfg.Runner.Kind)
	}
	if cfg.Resolver.MaxTaskConcurrency != 16 {
		t.Errorf("MaxTaskConcurrency = %d, want 16", cfg.Resolver.MaxTaskConcurrency)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:       8080,
			GRPCPort:       9090,
			LogLevel:       "info",
			StorageBackend: "memory",
			Redis:          RedisConfig{Addr: "localhost:6379"},
			Runner:         RunnerConfig{Kind: "shell"},
			Workers:        WorkerConfig{PoolSize: 5, QueueSize: 64},
			Resolver:       ResolverConfig{MaxTaskConcurrency: 4},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad http port", func(c *Config) { c.HTTPPort = 0 }, true},
		{"bad grpc port", func(c *Config) { c.GRPCPort = 70000 }, true},
		{"bad backend", func(c *Config) { c.StorageBackend = "etcd" }, true},
		{"redis without addr", func(c *Config) { c.StorageBackend = "redis"; c.Redis.Addr = "" }, true},
		{"bad runner", func(c *Config) { c.Runner.Kind = "docker" }, true},
		{"zero pool", func(c *Config) { c.Workers.PoolSize = 0 }, true},
		{"zero queue", func(c *Config) { c.Workers.QueueSize = 0 }, true},
		{"zero concurrency", func(c *Config) { c.Resolver.MaxTaskConcurrency = 0 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddrs(t *testing.T) {
	cfg := &Config{HTTPPort: 8080, GRPCPort: 9090}
	if got := cfg.GetHTTPAddr(); got != ":8080" {
		t.Errorf("GetHTTPAddr = %s, want :8080", got)
	}
	if got := cfg.GetGRPCAddr(); got != ":9090" {
		t.Errorf("GetGRPCAddr = %s, want :9090", got)
	}
}
