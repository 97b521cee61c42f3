package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetLoggingState(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		Init(Config{Format: "json", Output: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})
}

func readJSONLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	line := strings.TrimSpace(buf.String())
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	require.NotEmpty(t, line, "expected log output")

	var event map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &event))
	return event
}

func TestInitJSONFormatSetsLevelAndComponent(t *testing.T) {
	resetLoggingState(t)

	var buf bytes.Buffer
	logger := Init(Config{Format: "json", Level: "debug", Component: "store", Output: &buf})

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	logger.Debug().Str("op", "login").Msg("committed")
	event := readJSONLine(t, &buf)
	assert.Equal(t, "store", event["component"])
	assert.Equal(t, "login", event["op"])
	assert.Equal(t, "debug", event["level"])
}

func TestInitLevelFiltersEvents(t *testing.T) {
	resetLoggingState(t)

	var buf bytes.Buffer
	logger := Init(Config{Format: "json", Level: "warn", Output: &buf})

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestAutoFormatWritesJSONWithoutTerminal(t *testing.T) {
	resetLoggingState(t)

	// A buffer is never a terminal, so auto stays JSON.
	var buf bytes.Buffer
	logger := Init(Config{Format: "auto", Output: &buf})
	logger.Info().Msg("plain")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))

	buf.Reset()
	logger = Init(Config{Format: "console", Output: &buf})
	logger.Info().Msg("pretty")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))
	assert.Contains(t, buf.String(), "pretty")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":         zerolog.InfoLevel,
		"DEBUG":    zerolog.DebugLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
