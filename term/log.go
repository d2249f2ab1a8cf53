package term

import (
	"context"
	"fmt"
	"log/slog"
)

// slogTerm wraps a Term as a slog.LogValuer to not render term strings
// unless they definitely need to be logged
func slogTerm(t *Term) slog.LogValuer {
	return termLogValuer{t}
}

type termLogValuer struct{ *Term }

func (l termLogValuer) LogValue() slog.Value {
	if l.Term == nil {
		return slog.StringValue("nil")
	}
	return slog.GroupValue(
		slog.String("str", Show(l.Term)),
		slog.String("kind", l.kind.String()),
		slog.String("id", fmt.Sprint(l.id)),
	)
}

// SlogHandler is a slog.Handler capable of lazy-printing terms
func SlogHandler(underlying slog.Handler) slog.Handler {
	if _, ok := underlying.(*termLogHandler); ok {
		return underlying
	}
	return &termLogHandler{underlying: underlying}
}

type termLogHandler struct {
	underlying slog.Handler
}

func (l *termLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return l.underlying.Enabled(ctx, level)
}

func (l *termLogHandler) Handle(ctx context.Context, record slog.Record) error {
	newRecord := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	// for each attr, add it wrapped in slogTerm if it is an Any and then a *Term
	record.Attrs(func(attr slog.Attr) bool {
		newRecord.AddAttrs(wrapAttr(attr))
		return true
	})
	return l.underlying.Handle(ctx, newRecord)
}

func wrapAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindAny {
		if t, ok := attr.Value.Any().(*Term); ok {
			attr.Value = slog.AnyValue(slogTerm(t))
		}
	}
	return attr
}

func (l *termLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	wrapped := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		wrapped[i] = wrapAttr(attr)
	}
	return SlogHandler(l.underlying.WithAttrs(wrapped))
}

func (l *termLogHandler) WithGroup(name string) slog.Handler {
	return SlogHandler(l.underlying.WithGroup(name))
}
