// Package logging configura o logger estruturado do processo.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converte "debug", "info", "warn" ou "error". Outros valores viram info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New cria um logger em texto no nível pedido
func New(w io.Writer, level string) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h)
}

// Init instala o logger como padrão do processo, escrevendo em stderr
func Init(level string) *slog.Logger {
	logger := New(os.Stderr, level)
	slog.SetDefault(logger)
	return logger
}
