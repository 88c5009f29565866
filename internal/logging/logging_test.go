package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdoutLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := &StdoutLogger{component: "scanner", out: &buf}

	l.Info("scan finished", Field{Key: "cookies", Value: 12}, Field{Key: "err", Value: errors.New("boom")})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "scan finished", entry["msg"])
	assert.Equal(t, "scanner", entry["component"])
	fields := entry["fields"].(map[string]any)
	assert.EqualValues(t, 12, fields["cookies"])
	assert.Equal(t, "boom", fields["err"])
}

func TestStdoutLogger_WithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	root := &StdoutLogger{component: "root", out: &buf}

	child := root.With(Field{Key: "component", Value: "history"}, Field{Key: "store", Value: "sqlite"})
	child.Warn("evicted")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "history", entry["component"])
	assert.Equal(t, "sqlite", entry["fields"].(map[string]any)["store"])
}

func TestZerologLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.WarnLevel)
	l := NewZerologFrom(zl)

	l.Info("hidden")
	l.Warn("shown", Field{Key: "count", Value: 3})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"count":3`)
}

func TestZerologLogger_WithAddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologFrom(zerolog.New(&buf)).With(Field{Key: "component", Value: "auditor"})

	l.Error("failed", Field{Key: "error", Value: errors.New("disk full")})

	assert.Contains(t, buf.String(), `"component":"auditor"`)
	assert.Contains(t, buf.String(), `"error":"disk full"`)
}

func TestZerologLogger_WithReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	root := newZerolog(zerolog.New(&buf), "crumb", nil, nil)
	l := root.With(Field{Key: "component", Value: "auditor"}, Field{Key: "run", Value: 1}).
		With(Field{Key: "component", Value: "memory_store"}, Field{Key: "run", Value: 2})

	l.Info("saved")
	root.Info("root")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, 1, strings.Count(lines[0], `"component"`))
	assert.Contains(t, lines[0], `"component":"memory_store"`)
	assert.Equal(t, 1, strings.Count(lines[0], `"run"`))
	assert.Contains(t, lines[0], `"run":2`)
	assert.Contains(t, lines[1], `"component":"crumb"`)
}

func TestNewZerologLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "crumb.log")

	l, err := NewZerologLogger("test", Options{Level: "debug", Format: FormatJSON, FilePath: path, NoConsole: true})
	require.NoError(t, err)
	l.Debug("to file")
	require.NoError(t, l.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"level":"debug"`)
	assert.Contains(t, string(content), `"component":"test"`)
}

func TestNewZerologLogger_Errors(t *testing.T) {
	_, err := NewZerologLogger("x", Options{Level: "loud"})
	assert.Error(t, err)

	_, err = NewZerologLogger("x", Options{NoConsole: true})
	assert.Error(t, err)
}
