package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("ignorado")
	logger.Warn("falha na fonte", "marketplace", "ebay")

	out := buf.String()
	if strings.Contains(out, "ignorado") {
		t.Error("info não deveria aparecer no nível warn")
	}
	if !strings.Contains(out, "marketplace=ebay") {
		t.Errorf("saída sem o campo marketplace: %q", out)
	}
}
