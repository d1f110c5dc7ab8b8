package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	log := New(INFO, tmpDir, 100)
	log.SetConsoleOutput(false)
	defer log.Close()

	log.Error("error message")
	log.Warn("warn message")
	log.Info("info message")
	log.Debug("debug message") // Should not appear
	log.Trace("trace message") // Should not appear

	buffer := log.GetBuffer()
	if len(buffer) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(buffer))
	}
	if buffer[0].Level != ERROR || buffer[0].Message != "error message" {
		t.Errorf("first entry should be ERROR, got %v", buffer[0])
	}
	if buffer[2].Level != INFO || buffer[2].Message != "info message" {
		t.Errorf("third entry should be INFO, got %v", buffer[2])
	}
}

func TestContextPairs(t *testing.T) {
	t.Parallel()

	log := New(INFO, t.TempDir(), 100)
	log.SetConsoleOutput(false)
	defer log.Close()

	log.Info("dispatched label", "device", "net:10.0.0.5:9100", "serial", 105)

	buffer := log.GetBuffer()
	if len(buffer) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(buffer))
	}
	entry := buffer[0]
	if entry.Context["device"] != "net:10.0.0.5:9100" {
		t.Errorf("expected device context, got %v", entry.Context["device"])
	}
	if entry.Context["serial"] != 105 {
		t.Errorf("expected serial=105, got %v", entry.Context["serial"])
	}
}

func TestSetLevel(t *testing.T) {
	t.Parallel()

	log := New(INFO, t.TempDir(), 100)
	log.SetConsoleOutput(false)
	defer log.Close()

	log.Debug("debug1") // Filtered at INFO

	log.SetLevel(DEBUG)
	log.Debug("debug2")

	buffer := log.GetBuffer()
	if len(buffer) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(buffer))
	}
	if buffer[0].Message != "debug2" {
		t.Errorf("expected debug2, got %q", buffer[0].Message)
	}
}

func TestBufferBound(t *testing.T) {
	t.Parallel()

	log := New(INFO, t.TempDir(), 3)
	log.SetConsoleOutput(false)
	defer log.Close()

	log.Info("one")
	log.Info("two")
	log.Info("three")
	log.Info("four")

	buffer := log.GetBuffer()
	if len(buffer) != 3 {
		t.Fatalf("expected buffer capped at 3, got %d", len(buffer))
	}
	if buffer[0].Message != "two" || buffer[2].Message != "four" {
		t.Errorf("oldest entry should be dropped, got %q..%q", buffer[0].Message, buffer[2].Message)
	}
}

func TestGetBufferFiltered(t *testing.T) {
	t.Parallel()

	log := New(DEBUG, t.TempDir(), 100)
	log.SetConsoleOutput(false)
	defer log.Close()

	log.Error("bad")
	log.Info("fine")
	log.Debug("noise")

	warnOrWorse := log.GetBufferFiltered(WARN)
	if len(warnOrWorse) != 1 || warnOrWorse[0].Message != "bad" {
		t.Errorf("expected only the error entry, got %v", warnOrWorse)
	}
}

func TestWarnRateLimited(t *testing.T) {
	t.Parallel()

	log := New(WARN, t.TempDir(), 100)
	log.SetConsoleOutput(false)
	defer log.Close()

	log.WarnRateLimited("printer-offline", 100*time.Millisecond, "printer offline")
	log.WarnRateLimited("printer-offline", 100*time.Millisecond, "printer offline")
	log.WarnRateLimited("printer-offline", 100*time.Millisecond, "printer offline")

	if got := len(log.GetBuffer()); got != 1 {
		t.Fatalf("expected 1 entry within interval, got %d", got)
	}

	time.Sleep(120 * time.Millisecond)
	log.WarnRateLimited("printer-offline", 100*time.Millisecond, "printer offline")

	if got := len(log.GetBuffer()); got != 2 {
		t.Errorf("expected 2 entries after interval elapsed, got %d", got)
	}
}

func TestWritesToFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	log := New(INFO, tmpDir, 100)
	log.SetConsoleOutput(false)

	log.Info("persisted line", "shift", "abc")
	log.Close()

	data, err := os.ReadFile(filepath.Join(tmpDir, "engine.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "[INFO] persisted line") {
		t.Errorf("log file missing entry, got %q", content)
	}
	if !strings.Contains(content, "shift=abc") {
		t.Errorf("log file missing context, got %q", content)
	}
}

func TestLevelRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"ERROR", "WARN", "INFO", "DEBUG", "TRACE"} {
		if got := LevelToString(LevelFromString(name)); got != name {
			t.Errorf("level %s round-tripped to %s", name, got)
		}
	}
	if LevelFromString("bogus") != INFO {
		t.Errorf("unknown level should default to INFO")
	}
}
