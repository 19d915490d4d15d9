package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options defines parameters for logger creation.
type Options struct {
	Env          string
	ConsoleLevel string // default info
	FileLevel    string // default debug
	File         string
	App          string
	// Console receives the colored output; stdout when nil.
	Console io.Writer
	// Redact adds attribute keys to SensitiveKeys.
	Redact []string
}

// SensitiveKeys are attribute keys whose values never reach a log sink.
var SensitiveKeys = []string{"token", "secret", "api_key", "phone", "phone_number", "verification_code", "code"}

const redacted = "[REDACTED]"

var closers sync.Map

// New builds a logger writing colored text to the console and, when File is
// set, rotating JSON to disk. Both sinks redact sensitive attributes.
func New(o Options) *slog.Logger {
	console := o.Console
	if console == nil {
		console = os.Stdout
	}
	timeFormat := time.RFC3339
	if o.Env == "dev" {
		timeFormat = time.Kitchen
	}
	keys := append(append([]string{}, SensitiveKeys...), o.Redact...)

	sinks := []slog.Handler{
		NewRedactingHandler(tint.NewHandler(console, &tint.Options{
			Level:      parseLevel(o.ConsoleLevel, slog.LevelInfo),
			TimeFormat: timeFormat,
		}), keys),
	}

	var closer func() error
	if o.File != "" {
		w := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		closer = w.Close
		sinks = append(sinks, NewRedactingHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: parseLevel(o.FileLevel, slog.LevelDebug),
		}), keys))
	}

	var h slog.Handler = sinks[0]
	if len(sinks) > 1 {
		h = NewMultiHandler(sinks...)
	}
	l := slog.New(h).With(slog.String("app", o.App), slog.String("env", o.Env))
	if closer != nil {
		closers.Store(l, closer)
	}
	return l
}

// Close releases the log file behind l, if any. Call it on shutdown.
func Close(l *slog.Logger) error {
	if c, ok := closers.LoadAndDelete(l); ok {
		return c.(func() error)()
	}
	return nil
}

// parseLevel accepts debug, info, warn and error in any case.
func parseLevel(s string, def slog.Level) slog.Level {
	if s == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return def
	}
	return l
}

// RedactingHandler masks sensitive attributes, including those nested in
// groups. Values that look like bearer tokens or phone numbers are masked
// whatever their key.
type RedactingHandler struct {
	inner slog.Handler
	keys  map[string]struct{}
}

// NewRedactingHandler wraps inner; keys match case-insensitively.
func NewRedactingHandler(inner slog.Handler, keys []string) *RedactingHandler {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[strings.ToLower(k)] = struct{}{}
	}
	return &RedactingHandler{inner: inner, keys: m}
}

func (h *RedactingHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.inner.Enabled(ctx, l)
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.scrub(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = h.scrub(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(clean), keys: h.keys}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name), keys: h.keys}
}

func (h *RedactingHandler) scrub(a slog.Attr) slog.Attr {
	if _, ok := h.keys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		clean := make([]any, len(group))
		for i, g := range group {
			clean[i] = h.scrub(g)
		}
		return slog.Group(a.Key, clean...)
	case slog.KindString:
		s := v.String()
		if looksLikeToken(s) {
			return slog.String(a.Key, redacted)
		}
		if looksLikePhone(s) {
			return slog.String(a.Key, MaskPhone(s))
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

func looksLikeToken(s string) bool {
	return len(s) > 12 && (strings.Contains(s, "sk-") || strings.Contains(strings.ToLower(s), "token"))
}

// looksLikePhone matches E.164 numbers and bare national numbers of
// 10 or 11 digits starting with 0.
func looksLikePhone(s string) bool {
	digits := s
	switch {
	case strings.HasPrefix(s, "+"):
		digits = s[1:]
		if len(digits) < 10 || len(digits) > 15 {
			return false
		}
	case strings.HasPrefix(s, "0"):
		if len(digits) != 10 && len(digits) != 11 {
			return false
		}
	default:
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MaskPhone keeps the last four digits of a phone number.
func MaskPhone(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// MultiHandler fans records out to several handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range h.handlers {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle delivers r to every enabled handler; one failing sink does not
// starve the others.
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range h.handlers {
		if s.Enabled(ctx, r.Level) {
			errs = append(errs, s.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	return h.each(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (h *MultiHandler) each(f func(slog.Handler) slog.Handler) *MultiHandler {
	out := make([]slog.Handler, len(h.handlers))
	for i, s := range h.handlers {
		out[i] = f(s)
	}
	return &MultiHandler{handlers: out}
}
