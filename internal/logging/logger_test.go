package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jordanella.com/scrollshot/internal/events"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LogLevelDebug, false},
		{" INFO ", LogLevelInfo, false},
		{"warning", LogLevelWarn, false},
		{"Error", LogLevelError, false},
		{"verbose", LogLevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q): unexpected error state: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q): expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

func TestLoggerFiltersAndFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{component: "Test", minLevel: LogLevelWarn, formatter: &TextFormatter{}}
	logger.AddOutput(&buf)

	logger.Info("hidden")
	logger.WarnWithContext("frame skipped", map[string]interface{}{"z": 1, "a": 2})
	logger.Error("capture failed", errors.New("device lost"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info message should be filtered at WARN level")
	}
	if !strings.Contains(out, "WARN [Test] frame skipped | a=2 z=1") {
		t.Errorf("Expected sorted context in warning line, got %q", out)
	}
	if !strings.Contains(out, "error=device lost") {
		t.Errorf("Expected error text in output, got %q", out)
	}
}

func TestDefaultsApplyToNewLoggers(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLevel(LogLevelDebug)
	SetDefaultOutputs(&buf)
	defer func() {
		SetDefaultLevel(LogLevelInfo)
		SetDefaultOutputs(os.Stdout)
	}()

	NewLogger("Session").Debug("selecting region")
	if !strings.Contains(buf.String(), "DEBUG [Session] selecting region") {
		t.Errorf("Expected debug line on default output, got %q", buf.String())
	}
}

func TestErrorReporter(t *testing.T) {
	er := NewErrorReporter()
	er.SetLogger(&Logger{component: "ErrorReporter", minLevel: LogLevelFatal, formatter: &TextFormatter{}})

	er.ReportError(ErrorCategoryMatching, ErrorSeverityHigh, "session", "No overlap", errors.New("no match"), nil)
	er.ReportError(ErrorCategoryCapture, ErrorSeverityCritical, "session", "Capture failed", errors.New("denied"), nil)

	if er.Count() != 2 {
		t.Fatalf("Expected 2 reports, got %d", er.Count())
	}

	recent := er.GetRecentErrors(1)
	if len(recent) != 1 || recent[0].Category != ErrorCategoryCapture || recent[0].Recoverable {
		t.Errorf("Unexpected most recent report: %+v", recent)
	}
	if all := er.GetRecentErrors(10); len(all) != 2 || all[0].Category != ErrorCategoryMatching {
		t.Errorf("Expected both reports oldest first, got %+v", all)
	}
}

func TestEventLoggerWritesFile(t *testing.T) {
	bus := events.NewEventBus(8)
	el, err := NewEventLogger(bus, t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create event logger: %v", err)
	}

	bus.Publish(events.NewSessionStartedEvent("abc", "0,0 10x10"))
	bus.Publish(events.NewSessionFailedEvent("abc", 2, errors.New("no overlap"), true))
	bus.Stop()

	path := el.Path()
	if err := el.Close(); err != nil {
		t.Fatalf("Failed to close event logger: %v", err)
	}
	if filepath.Ext(path) != ".log" {
		t.Errorf("Expected .log file, got %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "Event: session.started") {
		t.Errorf("Missing started event in %q", content)
	}
	if !strings.Contains(content, "WARN [EventLogger] Event: session.failed") {
		t.Errorf("Expected failed event at WARN, got %q", content)
	}
}
