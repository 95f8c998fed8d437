package security

import (
	"context"
	"log/slog"
)

// RedactingHandler is a slog.Handler decorator that scrubs every string
// the daemon logs. Command lines, tool output snippets, and error text all
// pass through log attributes at some point, so redaction happens here
// once instead of at each call site.
type RedactingHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

var _ slog.Handler = (*RedactingHandler)(nil)

// NewRedactingHandler wraps inner so that redactor is applied to the
// message and to every string-valued attribute before records reach it.
func NewRedactingHandler(inner slog.Handler, redactor *Redactor) *RedactingHandler {
	return &RedactingHandler{inner: inner, redactor: redactor}
}

// Enabled delegates to the inner handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle rebuilds the record with scrubbed message and attributes, then
// delegates to the inner handler.
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, h.redactor.Redact(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(h.scrub(a))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

// WithAttrs scrubs the attributes before folding them into the inner
// handler, so values bound once via Logger.With stay redacted on every
// subsequent record.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = h.scrub(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(clean), redactor: h.redactor}
}

// WithGroup delegates grouping to the inner handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}

// scrub redacts an attribute, descending into groups. Resolve runs first
// so LogValuer, error, and Stringer values are scrubbed in their final
// textual form.
func (h *RedactingHandler) scrub(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(h.redactor.Redact(a.Value.String()))
	case slog.KindGroup:
		members := a.Value.Group()
		clean := make([]slog.Attr, len(members))
		for i, m := range members {
			clean[i] = h.scrub(m)
		}
		a.Value = slog.GroupValue(clean...)
	case slog.KindAny:
		// Errors and other opaque values log as their string form; swap
		// the value for that form when redaction changes it.
		text := a.Value.String()
		if scrubbed := h.redactor.Redact(text); scrubbed != text {
			a.Value = slog.StringValue(scrubbed)
		}
	}
	return a
}
