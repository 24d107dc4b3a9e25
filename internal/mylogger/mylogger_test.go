package mylogger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestLoggerRenamesKeysAndAddsContext(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, LevelInfo)

	log.Action("tick").Info("rider moved", "ticks", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec["message"] != "rider moved" {
		t.Errorf("message = %v", rec["message"])
	}
	if _, ok := rec["timestamp"]; !ok {
		t.Error("missing timestamp")
	}
	if rec["action"] != "tick" {
		t.Errorf("action = %v", rec["action"])
	}
	if rec["run_id"] == "" || rec["run_id"] == nil {
		t.Error("missing run_id")
	}
}

func TestLoggerErrorCarriesStack(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, LevelDebug)

	log.Error("routing failed", errors.New("boom"))

	var rec struct {
		Message string `json:"message"`
		Error   struct {
			Msg     string       `json:"msg"`
			Message *string      `json:"message"`
			Stack   []stackFrame `json:"stack"`
		} `json:"error"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec.Message != "routing failed" {
		t.Errorf("message = %q", rec.Message)
	}
	if rec.Error.Msg != "boom" {
		t.Errorf("error.msg = %q", rec.Error.Msg)
	}
	if rec.Error.Message != nil {
		t.Errorf("nested msg renamed to error.message = %q", *rec.Error.Message)
	}
	if len(rec.Error.Stack) == 0 {
		t.Error("expected stack frames")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, LevelWarn)

	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	log.Warn("shown")
	if buf.Len() == 0 {
		t.Fatal("warn should be written")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in).Level(); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
