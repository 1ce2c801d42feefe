// Package logger builds the slog loggers used by the CLI and the HTTP
// server. Every handler redacts credentials and document text.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Redacted replaces sensitive attribute values.
const Redacted = "[REDACTED]"

// Format selects the output encoding.
type Format string

const (
	FormatAuto   Format = ""
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
)

var isTerminal = term.IsTerminal

var sensitiveKeyParts = []string{
	"key",
	"token",
	"secret",
	"password",
	"authorization",
	"prompt",
	"text",
	"content",
}

var sensitiveValues = []*regexp.Regexp{
	regexp.MustCompile(`\bsk-(?:ant-|proj-)?[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{10,}`),
	regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/-]+=*`),
}

// Redact is a slog ReplaceAttr function that hides credentials and text.
func Redact(_ []string, a slog.Attr) slog.Attr {
	if sensitive(a) {
		return slog.String(a.Key, Redacted)
	}
	return a
}

func sensitive(a slog.Attr) bool {
	key := strings.ToLower(a.Key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		return false
	}
	value := a.Value.String()
	if value == "" {
		return false
	}
	for _, re := range sensitiveValues {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// ParseLevel maps a level name to a slog level. Unknown names are Info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New creates a redacting logger. FormatAuto writes the pretty format to a
// terminal and JSON otherwise.
func New(w io.Writer, level slog.Level, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: Redact}

	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isTerminal(int(f.Fd()))
	}
	if format == FormatAuto {
		format = FormatJSON
		if tty {
			format = FormatPretty
		}
	}

	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(NewPrettyHandler(w, opts, tty))
}

// PrettyHandler writes one human-readable line per record:
// "15:04:05 INFO  message key=value".
type PrettyHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	opts   slog.HandlerOptions
	attrs  []slog.Attr
	groups []string
	color  bool
}

// NewPrettyHandler creates a PrettyHandler. color enables ANSI level colors.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions, color bool) *PrettyHandler {
	h := &PrettyHandler{mu: &sync.Mutex{}, w: w, color: color}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

// Enabled implements slog.Handler.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}
	return level >= threshold
}

var levelColors = map[slog.Level]string{
	slog.LevelDebug: "\033[90m",
	slog.LevelInfo:  "\033[32m",
	slog.LevelWarn:  "\033[33m",
	slog.LevelError: "\033[31m",
}

// Handle implements slog.Handler.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	level := r.Level.String()
	if h.color {
		level = levelColors[r.Level] + fmt.Sprintf("%-5s", level) + "\033[0m"
	} else {
		level = fmt.Sprintf("%-5s", level)
	}
	fmt.Fprintf(&b, "%s %s %s", r.Time.Format("15:04:05"), level, r.Message)

	for _, a := range h.attrs {
		h.writeAttr(&b, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&b, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *PrettyHandler) writeAttr(b *strings.Builder, a slog.Attr) {
	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(h.groups, a)
	}
	if a.Key == "" {
		return
	}
	key := a.Key
	if len(h.groups) > 0 {
		key = strings.Join(h.groups, ".") + "." + key
	}
	if h.color {
		fmt.Fprintf(b, " \033[90m%s=\033[0m%v", key, a.Value)
		return
	}
	fmt.Fprintf(b, " %s=%v", key, a.Value)
}

// WithAttrs implements slog.Handler.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = append(h2.attrs[:len(h2.attrs):len(h2.attrs)], attrs...)
	return &h2
}

// WithGroup implements slog.Handler.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(h2.groups[:len(h2.groups):len(h2.groups)], name)
	return &h2
}

// Verify PrettyHandler implements slog.Handler
var _ slog.Handler = (*PrettyHandler)(nil)
