package logging

import (
	"context"
	"fmt"
	"log/slog"
)

type ctxKey string

const (
	slogFields  ctxKey = "slog_fields"
	PackageName string = "package"
)

// ContextHandler copies attributes stored with AppendCtx into every record.
type ContextHandler struct {
	slog.Handler
}

func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(slogFields).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	if err := h.Handler.Handle(ctx, r); err != nil {
		return fmt.Errorf("handle log record %q: %w", r.Message, err)
	}
	return nil
}

func (h ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h ContextHandler) WithGroup(name string) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithGroup(name)}
}

// AppendCtx returns a copy of parent carrying attr for ContextHandler.
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	prev, _ := parent.Value(slogFields).([]slog.Attr)
	v := make([]slog.Attr, 0, len(prev)+1)
	v = append(v, prev...)
	v = append(v, attr)
	return context.WithValue(parent, slogFields, v)
}

// PackageCtx is AppendCtx on a background context with a "package" attribute.
func PackageCtx(packageName string) context.Context {
	return AppendCtx(context.Background(), slog.String(PackageName, packageName))
}

// For returns a logger whose records carry the "package" attribute even when
// logged without a context.
func For(base *slog.Logger, packageName string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With(slog.String(PackageName, packageName))
}
