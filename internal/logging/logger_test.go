package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"error":   ERROR,
		"fatal":   FATAL,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestLoggerFiles(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "pvde.log")
	auditPath := filepath.Join(dir, "audit.log")

	l, err := NewLogger("info", logPath, auditPath)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	l.Debug("hidden %d", 1)
	l.Info("puzzle solved in %d squarings", 2048)
	l.Warn("verification rejected")
	l.Audit("decrypt", map[string]interface{}{"ok": true})
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	logData, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	logText := string(logData)
	if strings.Contains(logText, "hidden") {
		t.Fatalf("debug message written at info level: %s", logText)
	}
	if !strings.Contains(logText, "2048 squarings") || !strings.Contains(logText, "verification rejected") {
		t.Fatalf("missing messages in log: %s", logText)
	}

	auditData, err := os.ReadFile(auditPath)
	if err != nil {
		t.Fatal(err)
	}
	auditText := string(auditData)
	if strings.Contains(auditText, "squarings") {
		t.Fatalf("info message leaked into audit log: %s", auditText)
	}
	if !strings.Contains(auditText, "verification rejected") || !strings.Contains(auditText, `"audit":"decrypt"`) {
		t.Fatalf("audit log incomplete: %s", auditText)
	}
}

func TestComponentFollowsDefault(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "pvde.log")
	l, err := NewLogger("debug", logPath, "")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	SetDefault(l)

	c := Component("timelock")
	c.Debug().Msg("solving")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"component":"timelock"`) {
		t.Fatalf("component field missing: %s", data)
	}
}
