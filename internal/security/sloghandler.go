package security

import (
	"context"
	"log/slog"
	"regexp"
)

// secretAttrPattern matches attribute and group names whose values are
// secrets as a whole: "token", "cookie", "ltoken_v2", "bot_token",
// "authorization". Such values are replaced entirely, whatever they look like.
var secretAttrPattern = regexp.MustCompile(`(?i)^(l?token(_v2)?|cookie(_token)?(_v2)?|ltmid_v2|secret|password|passwd|authorization|credential|api_key)$|_(token|secret|password|cookie)$`)

// RedactingHandler wraps a slog.Handler and scrubs secrets from the message
// and every attribute before passing the record on.
//
// String values go through the Redactor (cookie patterns, bot tokens,
// registered account tokens). Values under a secret-named key or group
// ("token", "cookie", "bot_token", a WithGroup("cookie") logger) are
// replaced wholesale.
type RedactingHandler struct {
	inner    slog.Handler
	redactor *Redactor

	// secretGroup is set once the handler is inside a secret-named group.
	secretGroup bool
}

var _ slog.Handler = (*RedactingHandler)(nil)

// NewRedactingHandler creates a handler that wraps inner and redacts with
// redactor.
func NewRedactingHandler(inner slog.Handler, redactor *Redactor) *RedactingHandler {
	return &RedactingHandler{
		inner:    inner,
		redactor: redactor,
	}
}

// Enabled delegates to the inner handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle redacts the message and attributes, then delegates.
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, h.redactor.Redact(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a, h.secretGroup))
		return true
	})
	return h.inner.Handle(ctx, out)
}

// WithAttrs redacts attrs once and folds them into the inner handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a, h.secretGroup)
	}
	return &RedactingHandler{
		inner:       h.inner.WithAttrs(redacted),
		redactor:    h.redactor,
		secretGroup: h.secretGroup,
	}
}

// WithGroup returns a handler nested in name. Everything logged under a
// secret-named group is masked.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{
		inner:       h.inner.WithGroup(name),
		redactor:    h.redactor,
		secretGroup: h.secretGroup || secretAttrPattern.MatchString(name),
	}
}

func (h *RedactingHandler) redactAttr(a slog.Attr, masked bool) slog.Attr {
	// Resolve LogValuers so their final representation is what gets checked.
	a.Value = a.Value.Resolve()
	masked = masked || secretAttrPattern.MatchString(a.Key)

	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			redacted[i] = h.redactAttr(ga, masked)
		}
		a.Value = slog.GroupValue(redacted...)
	case slog.KindString:
		a.Value = slog.StringValue(h.redactString(a.Value.String(), masked))
	case slog.KindAny:
		// Errors, structs and byte slices: redact their printed form.
		s := a.Value.String()
		if r := h.redactString(s, masked); r != s {
			a.Value = slog.StringValue(r)
		}
	}
	return a
}

func (h *RedactingHandler) redactString(s string, masked bool) string {
	if masked && s != "" {
		return RedactPlaceholder
	}
	return h.redactor.Redact(s)
}
