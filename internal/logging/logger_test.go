package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
		{"disabled", zerolog.Disabled},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Info().Str("board", "7").Msg("joined")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "joined", entry["message"])
	assert.Equal(t, "7", entry["board"])
	assert.Equal(t, "info", entry["level"])
}

func TestInitRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "error", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	Error().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestSlogHandlerForwardsAttrs(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	slogger := NewSlogLogger().With("service", "hub").WithGroup("event")
	slogger.Warn("service restarted", slog.Int("attempt", 2))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "service restarted", entry["message"])
	assert.Equal(t, "hub", entry["service"])
	assert.EqualValues(t, 2, entry["event.attempt"])
}

func TestWriterEmitsMessage(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	_, err := Writer().Write([]byte("200 | GET /health\n"))
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "200 | GET /health", entry["message"])
	assert.Equal(t, "http", entry["component"])
}
