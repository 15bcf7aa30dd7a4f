package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRecords(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var r map[string]any
		if json.Unmarshal(sc.Bytes(), &r) == nil {
			records = append(records, r)
		}
	}
	return records
}

func initTemp(t *testing.T, cfg Config) string {
	t.Helper()
	Shutdown()
	cfg.LogDir = t.TempDir()
	cfg.Debug = true
	Init(cfg)
	t.Cleanup(Shutdown)
	return filepath.Join(cfg.LogDir, LogFileName)
}

func TestInitWritesJSON(t *testing.T) {
	path := initTemp(t, Config{})
	Logger().Info("search_executed", "terms", 2)

	records := readRecords(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, "search_executed", records[0]["msg"])
	assert.EqualValues(t, 2, records[0]["terms"])
}

func TestInitWithoutDirDiscards(t *testing.T) {
	Shutdown()
	Init(Config{})
	defer Shutdown()

	require.NotNil(t, Logger())
	Logger().Info("nowhere")
	Aggregate(CompEngine, "search")
}

func TestLoggerBeforeInit(t *testing.T) {
	Shutdown()
	require.NotNil(t, Logger())
	ForComponent(CompQuery).Info("ignored")
}

func TestForComponentCreatedBeforeInit(t *testing.T) {
	Shutdown()
	early := ForComponent(CompCommand).With(slog.String("command", "freeze"))

	path := initTemp(t, Config{})
	early.Warn("discard_failed", slog.Int("tab_id", 7))

	records := readRecords(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, CompCommand, records[0]["component"])
	assert.Equal(t, "freeze", records[0]["command"])
	assert.EqualValues(t, 7, records[0]["tab_id"])
}

func TestForComponentWithGroup(t *testing.T) {
	path := initTemp(t, Config{})
	ForComponent(CompWeb).WithGroup("req").Info("handled", slog.String("path", "/api/search"))

	records := readRecords(t, path)
	require.Len(t, records, 1)
	req, ok := records[0]["req"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/api/search", req["path"])
}

func TestLevelFiltering(t *testing.T) {
	path := initTemp(t, Config{Level: "warn"})
	Logger().Info("dropped")
	Logger().Warn("kept")

	records := readRecords(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0]["msg"])
}

func TestTextFormat(t *testing.T) {
	path := initTemp(t, Config{Format: "text"})
	Logger().Info("plain_text")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=plain_text")
}

func TestDumpRingBuffer(t *testing.T) {
	initTemp(t, Config{})
	Logger().Info("remember_me")

	dump := filepath.Join(t.TempDir(), "crash.log")
	require.NoError(t, DumpRingBuffer(dump))
	data, err := os.ReadFile(dump)
	require.NoError(t, err)
	assert.Contains(t, string(data), "remember_me")
}
