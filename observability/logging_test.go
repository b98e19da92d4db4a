package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JockeTS/mazerunner/appconfig"
)

func TestNewLogger_JSON(t *testing.T) {
	logger, err := NewLogger(appconfig.LoggingConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(-1), "debug should be disabled at info level")
}

func TestNewLogger_Console(t *testing.T) {
	logger, err := NewLogger(appconfig.LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(appconfig.LoggingConfig{Level: "trace", Format: "json"})
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	_, err := NewLogger(appconfig.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNewLogger_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := NewLogger(appconfig.LoggingConfig{Level: level, Format: "json"})
		require.NoError(t, err, "level %q should be valid", level)
		assert.NotNil(t, logger)
	}
}
