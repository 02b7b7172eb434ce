package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	SetOutput(&stdout, &stderr)
	t.Cleanup(func() { SetOutput(os.Stdout, os.Stderr) })
	return &stdout, &stderr
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARNING, "WARNING"},
		{ERROR, "ERROR"},
		{PROGRESS, "PROGRESS"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		result := tt.level.String()
		if result != tt.expected {
			t.Errorf("Expected level string '%s', got '%s'", tt.expected, result)
		}
	}
}

func TestSetLevel(t *testing.T) {
	originalLevel := currentLevel
	defer func() { currentLevel = originalLevel }()

	SetLevel(WARNING)
	if currentLevel != WARNING {
		t.Errorf("Expected current level WARNING, got %v", currentLevel)
	}

	SetLevel(DEBUG)
	if currentLevel != DEBUG {
		t.Errorf("Expected current level DEBUG, got %v", currentLevel)
	}
}

func TestSetVerbose(t *testing.T) {
	originalLevel := currentLevel
	originalVerbose := verbose
	defer func() {
		currentLevel = originalLevel
		verbose = originalVerbose
	}()

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("Expected verbose to be true")
	}
	if currentLevel != DEBUG {
		t.Errorf("Expected current level DEBUG when verbose, got %v", currentLevel)
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("Expected verbose to be false")
	}
}

func TestShouldLog(t *testing.T) {
	originalLevel := currentLevel
	defer func() { currentLevel = originalLevel }()

	SetLevel(WARNING)

	if shouldLog(DEBUG) {
		t.Error("DEBUG should not log when level is WARNING")
	}
	if shouldLog(INFO) {
		t.Error("INFO should not log when level is WARNING")
	}
	if !shouldLog(WARNING) {
		t.Error("WARNING should log when level is WARNING")
	}
	if !shouldLog(ERROR) {
		t.Error("ERROR should log when level is WARNING")
	}
	if !shouldLog(PROGRESS) {
		t.Error("PROGRESS should always log")
	}
}

func TestFormatMessage(t *testing.T) {
	message := formatMessage(INFO, "Kruskal-Wallis on %d criteria", 4)

	if !strings.Contains(message, "INFO") {
		t.Error("Expected message to contain INFO level")
	}
	if !strings.Contains(message, "Kruskal-Wallis on 4 criteria") {
		t.Error("Expected message to contain formatted text")
	}
	if parts := strings.Split(message, " - "); len(parts) < 2 {
		t.Error("Expected message to have timestamp - level : message format")
	}
}

func TestFormatMessageWithoutArgsKeepsPercent(t *testing.T) {
	message := formatMessage(INFO, "95% CI")
	if !strings.Contains(message, "95% CI") {
		t.Errorf("Expected literal percent sign to survive, got %q", message)
	}
}

func TestLogLevelColors(t *testing.T) {
	for _, level := range []LogLevel{DEBUG, INFO, WARNING, ERROR, PROGRESS} {
		c := level.Color()
		if !strings.HasPrefix(c, "\033[") {
			t.Errorf("Expected ANSI color code for level %s", level.String())
		}
	}
}

func TestOutputRouting(t *testing.T) {
	originalLevel := currentLevel
	defer func() { currentLevel = originalLevel }()
	stdout, stderr := captureOutput(t)

	SetLevel(INFO)
	Debug("hidden %s", "debug")
	Info("loaded %d ratings", 12)
	Warning("dropped %d cells", 3)
	Error("failed: %s", "boom")

	if strings.Contains(stdout.String(), "hidden debug") {
		t.Error("Debug output should be suppressed at INFO level")
	}
	if !strings.Contains(stdout.String(), "loaded 12 ratings") {
		t.Errorf("Expected info line on stdout, got %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "dropped 3 cells") {
		t.Errorf("Expected warning line on stdout, got %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "boom") {
		t.Error("Errors must not be written to stdout")
	}
	if !strings.Contains(stderr.String(), "failed: boom") {
		t.Errorf("Expected error line on stderr, got %q", stderr.String())
	}
}

func TestSuccessAndHeader(t *testing.T) {
	originalLevel := currentLevel
	defer func() { currentLevel = originalLevel }()
	stdout, _ := captureOutput(t)

	SetLevel(INFO)
	Success("exported %d tables", 11)
	Header("Reliability")

	out := stdout.String()
	if !strings.Contains(out, "exported 11 tables") {
		t.Errorf("Expected success message, got %q", out)
	}
	if !strings.Contains(out, "Reliability") {
		t.Errorf("Expected header, got %q", out)
	}
}

func TestProgressRewritesLine(t *testing.T) {
	stdout, _ := captureOutput(t)

	Progress("50% done")
	if !strings.HasPrefix(stdout.String(), "\r\033[K") {
		t.Errorf("Expected carriage return and clear-line prefix, got %q", stdout.String())
	}
	if strings.HasSuffix(stdout.String(), "\n") {
		t.Error("Progress must not end the line")
	}
}

func TestClearProgress(t *testing.T) {
	stdout, _ := captureOutput(t)

	ClearProgress()
	if stdout.String() != "\r\033[K" {
		t.Errorf("Expected only the clear-line sequence, got %q", stdout.String())
	}
}

func TestDebugHelpers(t *testing.T) {
	originalLevel := currentLevel
	defer func() { currentLevel = originalLevel }()
	stdout, _ := captureOutput(t)

	SetLevel(DEBUG)
	DebugSystem()
	DebugConfig(map[string]interface{}{"draws": 10000})

	if !strings.Contains(stdout.String(), "Go version") {
		t.Error("Expected system information in debug output")
	}
	if !strings.Contains(stdout.String(), "draws:10000") {
		t.Errorf("Expected configuration dump, got %q", stdout.String())
	}
}

func BenchmarkFormatMessage(b *testing.B) {
	for i := 0; i < b.N; i++ {
		formatMessage(INFO, "Test message %d", i)
	}
}
