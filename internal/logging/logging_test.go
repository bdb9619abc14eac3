package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := newLogger(&buf, Options{Level: "warn"})
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "k=v") {
		t.Errorf("output = %q", out)
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postboard.log")
	var buf bytes.Buffer
	logger, closer, err := newLogger(&buf, Options{File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Info("to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") || !strings.Contains(buf.String(), "to file") {
		t.Errorf("file = %q, console = %q", data, buf.String())
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	if _, _, err := newLogger(&bytes.Buffer{}, Options{Level: "loud"}); err == nil {
		t.Error("newLogger succeeded, want error")
	}
}
