package config

import (
	"fmt"

	"postrelay/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errs []error

	if err := validateServer(cfg.Server); err != nil {
		errs = append(errs, err)
	}

	if err := validateDeduplication(cfg.Deduplication); err != nil {
		errs = append(errs, err)
	}

	if err := validateStream(cfg.Stream); err != nil {
		errs = append(errs, err)
	}

	if err := validateIngest(cfg.Ingest); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateDeduplication(cfg DeduplicationConfig) error {
	switch cfg.Backend {
	case "", "redis", "memory":
	default:
		return &ValidationError{
			Field:   "deduplication.backend",
			Message: fmt.Sprintf("backend must be 'redis' or 'memory', got %q", cfg.Backend),
		}
	}

	switch cfg.OnRedisError {
	case "", constants.FallbackAllow, constants.FallbackDeny:
	default:
		return &ValidationError{
			Field:   "deduplication.on_redis_error",
			Message: fmt.Sprintf("on_redis_error must be 'allow' or 'deny', got %q", cfg.OnRedisError),
		}
	}

	if cfg.MaxKeysPerProfile < 0 {
		return &ValidationError{
			Field:   "deduplication.max_keys_per_profile",
			Message: "max_keys_per_profile must not be negative",
		}
	}

	return nil
}

func validateStream(cfg StreamConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return &ValidationError{
			Field:   "stream.kafka.brokers",
			Message: "at least one broker is required when the stream is enabled",
		}
	}

	return nil
}

func validateIngest(cfg IngestConfig) error {
	if cfg.DefaultRateLimitRPS < 0 {
		return &ValidationError{
			Field:   "ingest.default_rate_limit_rps",
			Message: "default_rate_limit_rps must not be negative",
		}
	}

	if cfg.DefaultDedupTTLSec < 0 {
		return &ValidationError{
			Field:   "ingest.default_dedup_ttl_sec",
			Message: "default_dedup_ttl_sec must not be negative",
		}
	}

	return nil
}
