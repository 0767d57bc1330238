package p2p

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/srediag/nip2p-go/pkg/poll"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvLibrary      = "NIP2P_LIBRARY"
	EnvFlushTimeout = "NIP2P_FLUSH_TIMEOUT"
)

// DefaultFlushTimeout is the drain budget used when flushing streams on shutdown.
const DefaultFlushTimeout = 250 * time.Millisecond

// Config holds the tunables shared by streams and registries.
type Config struct {
	// LibraryPath is the native driver library to load. Empty selects the
	// platform default.
	LibraryPath string
	// FlushTimeout bounds FlushAndDisable calls issued by Registry.DestroyAll.
	FlushTimeout time.Duration
	// FlushingTimeout and FlushingInterval drive EnsureFlushingSoon.
	FlushingTimeout  time.Duration
	FlushingInterval time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		FlushTimeout:     DefaultFlushTimeout,
		FlushingTimeout:  poll.DefaultTimeout,
		FlushingInterval: poll.DefaultInterval,
	}
}

// ConfigFromEnv returns DefaultConfig overridden by NIP2P_* environment variables.
func ConfigFromEnv() (*Config, error) {
	c := DefaultConfig()
	if v := strings.TrimSpace(os.Getenv(EnvLibrary)); v != "" {
		c.LibraryPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFlushTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvFlushTimeout, err)
		}
		c.FlushTimeout = d
	}
	if err := VerifyConfig(c); err != nil {
		return nil, err
	}
	return c, nil
}

// VerifyConfig checks that c holds usable values.
func VerifyConfig(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.FlushTimeout < 0 || c.FlushTimeout/time.Millisecond > math.MaxInt32 {
		return fmt.Errorf("flush timeout %v out of range [0, %dms]", c.FlushTimeout, math.MaxInt32)
	}
	if c.FlushingTimeout < 0 {
		return fmt.Errorf("flushing timeout %v must not be negative", c.FlushingTimeout)
	}
	if c.FlushingInterval <= 0 {
		return fmt.Errorf("flushing poll interval %v must be positive", c.FlushingInterval)
	}
	return nil
}

// msec converts d to the driver's millisecond timeout, rounding up and
// clamping to int32. Negative durations map to -1 (wait forever).
func msec(d time.Duration) int32 {
	if d < 0 {
		return -1
	}
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(ms)
}
