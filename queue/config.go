package queue

import (
	"errors"
	"runtime"
	"time"
)

// Config holds worker pool configuration.
type Config struct {
	// PoolSize is the number of concurrent workers.
	// Default: runtime.NumCPU() / 2, minimum 1.
	PoolSize int

	// BatchSize is the maximum number of items claimed per pass.
	// Default: 25
	BatchSize int

	// MaxAttempts is the ceiling on processing attempts per item.
	// Items at or above the ceiling are never retried. Default: 5
	MaxAttempts int

	// RateLimitPerMinute caps embedding API calls across the whole pool.
	// Default: 60
	RateLimitPerMinute int

	// BaseRetryDelay is the backoff base for failed items: a failed item
	// waits BaseRetryDelay × 2^attempts before the retry pass picks it up.
	// Default: 1 minute
	BaseRetryDelay time.Duration

	// MaxRetryDelay caps the exponential backoff. Default: 1 hour
	MaxRetryDelay time.Duration

	// ClaimTimeout is how long a processing claim may sit before the
	// operator-invoked ReclaimStale pass returns it to pending.
	// Default: 15 minutes
	ClaimTimeout time.Duration

	// PollInterval is how long the daemon sleeps when a pass finds no
	// work. Default: 5 seconds
	PollInterval time.Duration
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	return Config{
		PoolSize:           poolSize,
		BatchSize:          25,
		MaxAttempts:        5,
		RateLimitPerMinute: 60,
		BaseRetryDelay:     time.Minute,
		MaxRetryDelay:      time.Hour,
		ClaimTimeout:       15 * time.Minute,
		PollInterval:       5 * time.Second,
	}
}

// Validate checks the configuration, filling zero fields with defaults.
func (c *Config) Validate() error {
	defaults := DefaultConfig()
	if c.PoolSize == 0 {
		c.PoolSize = defaults.PoolSize
	}
	if c.BatchSize == 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = defaults.RateLimitPerMinute
	}
	if c.BaseRetryDelay == 0 {
		c.BaseRetryDelay = defaults.BaseRetryDelay
	}
	if c.MaxRetryDelay == 0 {
		c.MaxRetryDelay = defaults.MaxRetryDelay
	}
	if c.ClaimTimeout == 0 {
		c.ClaimTimeout = defaults.ClaimTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaults.PollInterval
	}

	if c.PoolSize < 0 || c.BatchSize < 0 || c.MaxAttempts < 0 || c.RateLimitPerMinute < 0 {
		return errors.New("queue config: negative values not allowed")
	}
	if c.MaxRetryDelay < c.BaseRetryDelay {
		return errors.New("queue config: MaxRetryDelay must be >= BaseRetryDelay")
	}
	return nil
}
