// Package trace tags capture and OCR work with trace and span ids and hands
// out slog loggers carrying them. Ids cross process boundaries as HTTP
// headers and gRPC metadata under TraceIDKey and SpanIDKey.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

const (
	TraceIDKey = "x-trace-id"
	SpanIDKey  = "x-span-id"
)

type ctxKey struct{}

// Context identifies one span within a trace.
type Context struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
}

// New starts a trace of its own.
func New() Context {
	return Context{TraceID: randomHex(16), SpanID: randomHex(8)}
}

// Continue joins a trace started elsewhere, parented to the caller's span.
// Without a trace id it starts a new trace.
func Continue(traceID, callerSpanID string) Context {
	if traceID == "" {
		return New()
	}
	return Context{TraceID: traceID, SpanID: randomHex(8), ParentSpanID: callerSpanID}
}

func (c Context) child() Context { return Continue(c.TraceID, c.SpanID) }

func (c Context) logArgs() []any {
	args := []any{"trace_id", c.TraceID, "span_id", c.SpanID}
	if c.ParentSpanID != "" {
		args = append(args, "parent_span_id", c.ParentSpanID)
	}
	return args
}

func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}

func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// EnsureContext returns ctx's trace, attaching a new one if it has none.
func EnsureContext(ctx context.Context) (context.Context, Context) {
	if tc, ok := FromContext(ctx); ok {
		return ctx, tc
	}
	tc := New()
	return WithContext(ctx, tc), tc
}

// randomHex returns n random bytes hex-encoded: 16 for a trace id, 8 for a
// span id.
func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Logger returns the default logger tagged with ctx's trace ids.
func Logger(ctx context.Context) *slog.Logger {
	tc, ok := FromContext(ctx)
	if !ok {
		return slog.Default()
	}
	return slog.Default().With(tc.logArgs()...)
}

// Span times one operation. End logs it at debug level together with any
// attributes set along the way.
type Span struct {
	name  string
	tc    Context
	start time.Time

	mu    sync.Mutex
	attrs []slog.Attr
}

// StartSpan opens a span under ctx's trace, or under a new trace if ctx has
// none.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	tc := New()
	if parent, ok := FromContext(ctx); ok && parent.TraceID != "" {
		tc = parent.child()
	}
	return WithContext(ctx, tc), &Span{name: name, tc: tc, start: time.Now()}
}

// SetAttr records key on the span, replacing an earlier value.
func (s *Span) SetAttr(key string, val any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.attrs {
		if s.attrs[i].Key == key {
			s.attrs[i].Value = slog.AnyValue(val)
			return
		}
	}
	s.attrs = append(s.attrs, slog.Any(key, val))
}

func (s *Span) End() {
	s.mu.Lock()
	attrs := append([]slog.Attr{
		slog.String("span", s.name),
		slog.Duration("elapsed", time.Since(s.start)),
	}, s.attrs...)
	s.mu.Unlock()
	slog.Default().With(s.tc.logArgs()...).LogAttrs(context.Background(), slog.LevelDebug, "span finished", attrs...)
}
