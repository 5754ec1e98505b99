package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("MOZALERT_TEST_STR", "from-env")
	assert.Equal(t, "from-env", getEnvString("MOZALERT_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", getEnvString("MOZALERT_TEST_STR_UNSET", "fallback"))
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		def      bool
		expected bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"false", true, false},
		{"0", true, false},
		{"no", true, false},
		{"garbage", true, true},
		{"garbage", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("MOZALERT_TEST_BOOL", tt.value)
			assert.Equal(t, tt.expected, getEnvBool("MOZALERT_TEST_BOOL", tt.def))
		})
	}
	assert.True(t, getEnvBool("MOZALERT_TEST_BOOL_UNSET", true))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("MOZALERT_TEST_INT", "12")
	assert.Equal(t, 12, getEnvInt("MOZALERT_TEST_INT", 4))
	t.Setenv("MOZALERT_TEST_INT", "not-a-number")
	assert.Equal(t, 4, getEnvInt("MOZALERT_TEST_INT", 4))
	assert.Equal(t, 4, getEnvInt("MOZALERT_TEST_INT_UNSET", 4))
}

func TestParseDefaultCheckTimeout(t *testing.T) {
	log := zap.NewNop().Sugar()

	c := &Config{DefaultCheckTimeout: "90s"}
	assert.Equal(t, 90*time.Second, c.ParseDefaultCheckTimeout(log))

	c = &Config{DefaultCheckTimeout: "nonsense"}
	assert.Equal(t, 5*time.Minute, c.ParseDefaultCheckTimeout(log))

	c = &Config{}
	assert.Equal(t, 5*time.Minute, c.ParseDefaultCheckTimeout(log))
}

func TestParseMonitorInterval(t *testing.T) {
	log := zap.NewNop().Sugar()

	c := &Config{MonitorInterval: "10m"}
	assert.Equal(t, 10*time.Minute, c.ParseMonitorInterval(log))

	c = &Config{}
	assert.Equal(t, 5*time.Minute, c.ParseMonitorInterval(log))
}
