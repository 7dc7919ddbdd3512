package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/onestep/internal/observability"
)

func TestLoggerFromContextAddsIDs(t *testing.T) {
	var buf bytes.Buffer
	observability.Init(&buf, "debug", "json")
	t.Cleanup(func() { observability.Init(os.Stdout, "info", "json") })

	ctx := observability.WithRequestID(context.Background(), "req-1")
	ctx = observability.WithSessionID(ctx, "sess-1")
	observability.LoggerFromContext(ctx).Debug("turn done", "mode", "start")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "sess-1", line["session_id"])
	assert.Equal(t, "start", line["mode"])
	assert.Equal(t, "req-1", observability.RequestIDFromContext(ctx))
}

func TestInitRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	observability.Init(&buf, "warn", "text")
	t.Cleanup(func() { observability.Init(os.Stdout, "info", "json") })

	observability.Logger().Info("hidden")
	assert.Empty(t, buf.String())

	observability.Logger().Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}
