package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

const sampleToken = "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw9"

func capture(t *testing.T) (*slog.Logger, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	handler := NewMaskingHandler(slog.NewTextHandler(&buf, nil))
	return slog.New(handler), &buf
}

func TestMaskingHandler_SensitiveKeys(t *testing.T) {
	log, buf := capture(t)

	log.Info("config loaded",
		slog.String("token", sampleToken),
		slog.String("password", "hunter2"),
		slog.String("dsn", "postgres://bot:hunter2@db/afisha"),
		slog.String("city", "Moscow"),
	)

	out := buf.String()
	if strings.Contains(out, sampleToken) || strings.Contains(out, "hunter2") {
		t.Fatalf("secret leaked into log output: %s", out)
	}
	if !strings.Contains(out, "city=Moscow") {
		t.Fatalf("non-sensitive attribute was mangled: %s", out)
	}
}

func TestMaskingHandler_TokenInsideValue(t *testing.T) {
	log, buf := capture(t)

	// telebot errors quote the full API URL, token included.
	log.Error("poll failed",
		slog.String("error", "Get \"https://api.telegram.org/bot"+sampleToken+"/getUpdates\": timeout"))

	out := buf.String()
	if strings.Contains(out, sampleToken) {
		t.Fatalf("bot token leaked through a free-form value: %s", out)
	}
	if !strings.Contains(out, "api.telegram.org") {
		t.Fatalf("masking destroyed the surrounding value: %s", out)
	}
}

func TestMaskingHandler_WithAttrs(t *testing.T) {
	log, buf := capture(t)

	log.With(slog.String("bot_token", sampleToken)).Info("started")

	if strings.Contains(buf.String(), sampleToken) {
		t.Fatalf("pre-bound attribute leaked: %s", buf.String())
	}
}
