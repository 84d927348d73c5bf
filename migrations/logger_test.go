package migrations

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateLogger_TrimsTrailingNewline(t *testing.T) {
	var buf bytes.Buffer
	l := &migrateLogger{logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	l.Printf("Finished %v (read %v, ran %v)\n", "1/u init", "2ms", "5ms")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Finished 1/u init (read 2ms, ran 5ms)", entry["msg"])
	assert.Equal(t, "migrate", entry["component"])
}

func TestMigrateLogger_KeepsInnerNewlines(t *testing.T) {
	var buf bytes.Buffer
	l := &migrateLogger{logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	l.Printf("line one\nline two")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "line one\nline two", entry["msg"])
}
