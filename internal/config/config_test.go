package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvIntDefault(t *testing.T) {
	t.Setenv("TEST_INT", "7")
	assert.Equal(t, 7, envIntDefault("TEST_INT", 3))
	assert.Equal(t, 3, envIntDefault("TEST_INT_UNSET", 3))

	t.Setenv("TEST_INT_BAD", "seven")
	assert.Equal(t, 3, envIntDefault("TEST_INT_BAD", 3))
}

func TestEnvMillis(t *testing.T) {
	t.Setenv("TEST_MS", "2500")
	assert.Equal(t, 2500*time.Millisecond, envMillis("TEST_MS", 5000))
	assert.Equal(t, 5*time.Second, envMillis("TEST_MS_UNSET", 5000))

	// Non-positive values fall back to the default; the engine must
	// never run with a zero transaction timeout.
	t.Setenv("TEST_MS_ZERO", "0")
	assert.Equal(t, 5*time.Second, envMillis("TEST_MS_ZERO", 5000))
}

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 30, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, time.Second, cfg.RefillInterval)
	assert.GreaterOrEqual(t, cfg.TTL, 5*cfg.RefillInterval)
}

func TestLoadRateLimitConfigClampsBadValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-4")
	t.Setenv("RATE_LIMIT_TTL", "1ms")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.GreaterOrEqual(t, cfg.TTL, 5*cfg.RefillInterval)
}

func TestParseMethods(t *testing.T) {
	m := parseMethods("get, head ,POST")
	assert.True(t, m["GET"])
	assert.True(t, m["HEAD"])
	assert.True(t, m["POST"])
	assert.False(t, m["DELETE"])
	assert.Empty(t, parseMethods(""))
}
