package telemetry

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetLevel("info")
	})
	return &buf
}

func TestInfoWritesJSONLine(t *testing.T) {
	buf := captureLogs(t)

	Info("processing.status", map[string]any{
		"document_id":       "doc-1",
		"status_transition": "pending->text_extracted",
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "processing.status", entry["msg"])
	assert.Equal(t, "doc-1", entry["document_id"])
	assert.Equal(t, "pending->text_extracted", entry["status_transition"])
	assert.NotEmpty(t, entry["ts"])
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	buf := captureLogs(t)

	Debug("noisy", nil)
	assert.Empty(t, buf.String())

	SetLevel("debug")
	Debug("noisy", nil)
	assert.True(t, strings.Contains(buf.String(), `"msg":"noisy"`))
}

func TestSetLevelIgnoresUnknown(t *testing.T) {
	buf := captureLogs(t)
	SetLevel("chatty")

	Warn("still.info.level", map[string]any{"k": 1})
	assert.Contains(t, buf.String(), `"level":"warning"`)
}
