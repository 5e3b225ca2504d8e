package logs

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Alijeyrad/odonto_backend/config"
	"github.com/Alijeyrad/odonto_backend/pkg/constants"
)

// New builds the process logger. Stdout and the rotated file share one
// handler; Loki gets its own. Every record is tagged with the service
// identity and, when logged with a request context, its request and trace
// ids.
func New(cfg *config.Config) *slog.Logger {
	out := cfg.Logging.Output
	level := parseLevel(cfg.Logging.Level)
	dev := strings.EqualFold(cfg.Server.Environment, constants.EnvDevelopment)

	var writers []io.Writer
	if out.Stdout || (!out.File.Enabled && !out.Loki.Enabled) {
		writers = append(writers, os.Stdout)
	}
	if out.File.Enabled {
		writers = append(writers, &lumberjack.Logger{
			Filename:   out.File.Path,
			MaxSize:    out.File.MaxSizeMB,
			MaxBackups: out.File.MaxBackups,
			MaxAge:     out.File.MaxAgeDays,
			Compress:   out.File.Compress,
		})
	}

	var handlers []slog.Handler
	if len(writers) > 0 {
		w := io.MultiWriter(writers...)
		opts := &slog.HandlerOptions{Level: level, AddSource: dev}
		if dev && !strings.EqualFold(cfg.Logging.Format, "json") {
			handlers = append(handlers, slog.NewTextHandler(w, opts))
		} else {
			handlers = append(handlers, slog.NewJSONHandler(w, opts))
		}
	}
	if out.Loki.Enabled {
		lh, err := newLokiHandler(cfg, level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loki logging disabled: %v\n", err)
		} else {
			handlers = append(handlers, lh)
		}
	}
	if len(handlers) == 0 {
		handlers = append(handlers, slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}

	var h slog.Handler = &multiHandler{handlers: handlers}
	if len(handlers) == 1 {
		h = handlers[0]
	}

	return slog.New(&contextHandler{next: h}).With(
		slog.String("service", cfg.Observability.ServiceName),
		slog.String("version", cfg.Observability.ServiceVersion),
		slog.String("env", cfg.Server.Environment),
	)
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
