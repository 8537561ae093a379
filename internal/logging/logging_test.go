package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, time.UTC).With("upload")

	log.Info("image_uploaded", map[string]any{"key": "u1/1.jpg"})
	log.Error("upload_failed", map[string]any{"error": errors.New("boom")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "image_uploaded", first["event"])
	assert.Equal(t, "upload", first["component"])
	assert.Equal(t, "u1/1.jpg", first["key"])
	assert.NotEmpty(t, first["ts"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "error", second["level"])
	assert.Equal(t, "boom", second["error"])
}

func TestLogger_WithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(&buf, nil)
	_ = parent.With("child")

	parent.Warn("something", nil)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, ok := entry["component"]
	assert.False(t, ok)
	assert.Equal(t, "warn", entry["level"])
}
