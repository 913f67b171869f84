package logging

import (
	"context"
	"log/slog"
	"maps"
	"time"
)

// LogCallback is called for each entry written to the buffer. The API
// uses it to stream logs as they happen.
type LogCallback func(entry LogEntry)

// BufferHandler records entries in a RingBuffer. Group names become
// dot-joined attribute keys.
type BufferHandler struct {
	buffer   *RingBuffer
	level    slog.Leveler
	callback LogCallback

	module string
	bound  map[string]any
	prefix string
}

// NewBufferHandler creates a handler that writes to buffer and then calls
// callback, which may be nil.
func NewBufferHandler(buffer *RingBuffer, level slog.Leveler, callback LogCallback) *BufferHandler {
	return &BufferHandler{buffer: buffer, level: level, callback: callback, module: Identifier}
}

func (h *BufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *BufferHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		Timestamp: r.Time,
		Level:     levelName(r.Level),
		Module:    h.module,
		Message:   r.Message,
	}
	if len(h.bound) > 0 || r.NumAttrs() > 0 {
		attrs := maps.Clone(h.bound)
		if attrs == nil {
			attrs = make(map[string]any, r.NumAttrs())
		}
		r.Attrs(func(a slog.Attr) bool {
			storeAttr(attrs, h.prefix, a)
			return true
		})
		if len(attrs) > 0 {
			entry.Attributes = attrs
		}
	}

	h.buffer.Write(entry)
	if h.callback != nil {
		h.callback(entry)
	}
	return nil
}

func (h *BufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.bound = maps.Clone(h.bound)
	for _, a := range attrs {
		// The module tag set by GetLogger is a field of its own.
		if a.Key == "module" && h.prefix == "" {
			clone.module = a.Value.String()
			continue
		}
		if clone.bound == nil {
			clone.bound = make(map[string]any)
		}
		storeAttr(clone.bound, h.prefix, a)
	}
	return &clone
}

func (h *BufferHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func storeAttr(attrs map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := prefix + a.Key

	switch a.Value.Kind() {
	case slog.KindGroup:
		inner := prefix
		if a.Key != "" {
			inner = key + "."
		}
		for _, ga := range a.Value.Group() {
			storeAttr(attrs, inner, ga)
		}
	case slog.KindTime:
		attrs[key] = a.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		attrs[key] = a.Value.Duration().String()
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			attrs[key] = err.Error()
		} else {
			attrs[key] = a.Value.Any()
		}
	default:
		attrs[key] = a.Value.Any()
	}
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
