package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorSummarizesOnStop(t *testing.T) {
	var buf bytes.Buffer
	agg := NewAggregator(slog.New(slog.NewJSONHandler(&buf, nil)), 60)
	agg.Start()

	agg.Record(CompEngine, "search", slog.String("scope", "all-windows"))
	agg.Record(CompEngine, "search", slog.String("scope", "current-window"))
	agg.Record(CompEngine, "search")
	agg.Stop()

	var r map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &r))
	assert.Equal(t, "event_summary", r["msg"])
	assert.Equal(t, "search", r["event"])
	assert.EqualValues(t, 3, r["count"])
	assert.Equal(t, "current-window", r["scope"])
}

func TestAggregatorNilLogger(t *testing.T) {
	agg := NewAggregator(nil, 1)
	agg.Start()
	agg.Record(CompSnapshot, "reload")
	agg.Stop()
	agg.Stop()
}

func TestAggregatorEmptyFlushWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	agg := NewAggregator(slog.New(slog.NewJSONHandler(&buf, nil)), 60)
	agg.Start()
	agg.Stop()
	assert.Zero(t, buf.Len())
}
