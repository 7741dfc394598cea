package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/labstack/gommon/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"salarydash/internal/config"
)

// Setup builds the process logger and installs it as the slog default.
// "auto" picks coloured text on a terminal and JSON everywhere else.
func Setup(cfg config.LoggingConfig) *slog.Logger {
	var out io.Writer = os.Stdout
	var palette *color.Color
	format := strings.ToLower(cfg.Format)
	if format == "auto" || format == "" {
		format = "json"
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			format = "text"
			// colorable translates the ANSI sequences for Windows consoles
			out = colorable.NewColorableStdout()
			palette = color.New()
			palette.Enable()
		}
	}

	logger := newLogger(out, format, cfg.Level, palette)
	slog.SetDefault(logger)
	return logger
}

// New creates a logger writing to w without colour.
func New(w io.Writer, format, level string) *slog.Logger {
	return newLogger(w, format, level, nil)
}

func newLogger(w io.Writer, format, level string, palette *color.Color) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch {
	case format == "text" && palette != nil:
		handler = newColorHandler(w, opts, palette)
	case format == "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// colorHandler renders each record with the text handler and paints the
// whole line by level. Escape sequences cannot go through the text handler
// itself since it quotes control characters.
type colorHandler struct {
	text    slog.Handler
	buf     *bytes.Buffer
	mu      *sync.Mutex
	out     io.Writer
	palette *color.Color
}

func newColorHandler(w io.Writer, opts *slog.HandlerOptions, palette *color.Color) *colorHandler {
	buf := new(bytes.Buffer)
	return &colorHandler{
		text:    slog.NewTextHandler(buf, opts),
		buf:     buf,
		mu:      new(sync.Mutex),
		out:     w,
		palette: palette,
	}
}

func (h *colorHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.text.Enabled(ctx, lvl)
}

func (h *colorHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.text.Handle(ctx, r); err != nil {
		return err
	}
	line := strings.TrimSuffix(h.buf.String(), "\n")
	_, err := io.WriteString(h.out, h.paint(r.Level, line)+"\n")
	return err
}

func (h *colorHandler) paint(lvl slog.Level, s string) string {
	switch {
	case lvl >= slog.LevelError:
		return h.palette.Red(s)
	case lvl >= slog.LevelWarn:
		return h.palette.Yellow(s)
	case lvl >= slog.LevelInfo:
		return h.palette.Green(s)
	default:
		return h.palette.Grey(s)
	}
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.text = h.text.WithAttrs(attrs)
	return &c
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.text = h.text.WithGroup(name)
	return &c
}

// ParseLevel converts string log level to slog.Level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
