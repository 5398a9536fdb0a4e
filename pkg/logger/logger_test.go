package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/nyxwave/fleetmesh/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactHandlerMasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, nil)
	l := slog.New(logger.NewRedactHandler(base))

	l.Info("login", "token", "abc123", "device_id", "pig5")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "***", decoded["token"])
	assert.Equal(t, "pig5", decoded["device_id"])
}

func TestSamplingHandlerAlwaysPassesWarnAndAbove(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, nil)
	l := slog.New(logger.NewSamplingHandler(base, 0))

	l.Warn("degraded")
	assert.NotEmpty(t, buf.String())
}

func TestAsyncHandlerDeliversRecords(t *testing.T) {
	var buf syncBuffer
	base := slog.NewJSONHandler(&buf, nil)
	h := logger.NewAsyncHandler(base, 8, false)
	l := slog.New(h)

	l.InfoContext(context.Background(), "hello")

	assert.Eventually(t, func() bool { return buf.Len() > 0 }, time.Second, 5*time.Millisecond, "async handler should flush eventually")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}
