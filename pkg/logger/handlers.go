package logger

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
)

// AsyncHandler buffers records in a channel and drains them on a single
// background goroutine, so hot paths (broker consume loops, heartbeat
// ticks) never block on the underlying writer.
type AsyncHandler struct {
	next       slog.Handler
	records    chan asyncItem
	dropOnFull bool
	closeOnce  sync.Once
}

// asyncItem carries a record together with the handler (including any
// attrs/groups bound via WithAttrs/WithGroup) and context it was logged with.
type asyncItem struct {
	h   slog.Handler
	ctx context.Context
	r   slog.Record
}

// NewAsyncHandler wraps next with a buffered, single-writer async queue.
// When dropOnFull is true, records are discarded instead of blocking the
// caller once the buffer is full; otherwise the caller blocks.
func NewAsyncHandler(next slog.Handler, bufferSize int, dropOnFull bool) *AsyncHandler {
	h := &AsyncHandler{
		next:       next,
		records:    make(chan asyncItem, bufferSize),
		dropOnFull: dropOnFull,
	}
	go h.drain()
	return h
}

func (h *AsyncHandler) drain() {
	for it := range h.records {
		_ = it.h.Handle(it.ctx, it.r)
	}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	it := asyncItem{h: h.next, ctx: ctx, r: r}
	if h.dropOnFull {
		select {
		case h.records <- it:
		default:
			// buffer full: drop rather than stall the publisher/consumer loop.
		}
		return nil
	}
	h.records <- it
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), records: h.records, dropOnFull: h.dropOnFull}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), records: h.records, dropOnFull: h.dropOnFull}
}

// redactedKeys are attribute keys whose values are masked before logging.
var redactedKeys = map[string]struct{}{
	"password": {}, "token": {}, "secret": {}, "authorization": {},
}

// RedactHandler masks attribute values whose key looks like it carries a
// credential. It is intentionally conservative: it matches on key name only.
type RedactHandler struct {
	next slog.Handler
}

func NewRedactHandler(next slog.Handler) *RedactHandler {
	return &RedactHandler{next: next}
}

func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	nr := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		nr.AddAttrs(redactAttr(a))
		return true
	})
	return h.next.Handle(ctx, nr)
}

func redactAttr(a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for sensitive := range redactedKeys {
		if strings.Contains(key, sensitive) {
			return slog.String(a.Key, "***")
		}
	}
	return a
}

func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactHandler{next: h.next.WithAttrs(redacted)}
}

func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{next: h.next.WithGroup(name)}
}

// SamplingHandler drops a fraction of records below the configured rate.
// Errors and warnings always pass through; only INFO/DEBUG are sampled.
type SamplingHandler struct {
	next slog.Handler
	rate float64
}

func NewSamplingHandler(next slog.Handler, rate float64) *SamplingHandler {
	return &SamplingHandler{next: next, rate: rate}
}

func (h *SamplingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SamplingHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn || rand.Float64() < h.rate {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *SamplingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SamplingHandler{next: h.next.WithAttrs(attrs), rate: h.rate}
}

func (h *SamplingHandler) WithGroup(name string) slog.Handler {
	return &SamplingHandler{next: h.next.WithGroup(name), rate: h.rate}
}
