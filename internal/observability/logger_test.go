package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "info", Format: "json", Output: &buf, ServiceName: "brochure-api"})

	ctx := ContextWithRequestID(context.Background(), "req-42")
	log.WithContext(ctx).WithOperation("structure").Info().
		Int("size", 12).
		Summary("pdf_summary", strings.Repeat("a", 400)).
		Msg("structure.request")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "brochure-api", entry["service"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "structure", entry["operation"])
	assert.Equal(t, "structure.request", entry["message"])
	assert.Len(t, entry["pdf_summary"], SummaryLimit)
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Output: &buf})

	log.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	log.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "short", Summarize("short"))
	long := strings.Repeat("é", SummaryLimit+5)
	assert.Equal(t, SummaryLimit, len([]rune(Summarize(long))))
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}
