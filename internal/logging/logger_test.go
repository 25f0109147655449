package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/beacondash/internal/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logging.ParseLevel(tt.in))
		})
	}
}

func TestNewLogger_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := logging.ComponentLogger(logging.NewLogger(logging.Config{Level: "debug", Format: logging.FormatJSON}, &buf), "tavern")
	l.Debug().Str(logging.FieldItemID, "42").Msg("fetched")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tavern", entry[logging.FieldComponent])
	assert.Equal(t, "42", entry[logging.FieldItemID])
	assert.Equal(t, "fetched", entry["message"])
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewLogger(logging.Config{Level: "warn"}, &buf)
	l.Info().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestNewLoggerWithPath_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "beacondash.log")
	res := logging.NewLoggerWithPath(logging.Config{Output: logging.OutputFile, File: path}, true)
	t.Cleanup(func() { _ = res.Close() })

	assert.True(t, res.UsingFile)
	assert.False(t, res.FallbackUsed)
	assert.Equal(t, path, res.FilePath)
	assert.FileExists(t, path)
}

func TestNewLoggerWithPath_FallbackDiscardsUnderTUI(t *testing.T) {
	res := logging.NewLoggerWithPath(logging.Config{Output: logging.OutputFile}, true)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, zerolog.Disabled, res.Logger.GetLevel())
}

func TestFromContext(t *testing.T) {
	t.Run("empty context is disabled", func(t *testing.T) {
		assert.Equal(t, zerolog.Disabled, logging.FromContext(context.Background()).GetLevel())
	})

	t.Run("stored logger is returned", func(t *testing.T) {
		var buf bytes.Buffer
		l := logging.NewLogger(logging.Config{Level: "info"}, &buf)
		ctx := l.WithContext(context.Background())
		logging.FromContext(ctx).Info().Msg("hello")
		assert.Contains(t, buf.String(), "hello")
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, logging.TraceIDFromContext(ctx))

	id := logging.GetOrGenerateTraceID(ctx)
	_, err := ulid.Parse(id)
	require.NoError(t, err)

	ctx = logging.ContextWithTraceID(ctx, id)
	assert.Equal(t, id, logging.GetOrGenerateTraceID(ctx))
}
