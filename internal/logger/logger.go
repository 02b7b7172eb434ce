package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Raw ANSI codes for output that is assembled by hand, such as the progress line.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
	ColorBold   = "\033[1m"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	PROGRESS
)

var (
	mu           sync.Mutex
	currentLevel           = INFO
	verbose                = false
	out          io.Writer = os.Stdout
	errOut       io.Writer = os.Stderr

	colorError   = color.New(color.FgRed, color.Bold)
	colorSuccess = color.New(color.FgGreen, color.Bold)
	colorWarning = color.New(color.FgYellow, color.Bold)
	colorInfo    = color.New(color.FgCyan, color.Bold)
	colorDebug   = color.New(color.FgHiBlack)
	colorHeader  = color.New(color.FgMagenta, color.Bold, color.Underline)
	colorKey     = color.New(color.FgBlue)
)

// SetLevel sets the global log level
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
}

// SetVerbose enables verbose logging (DEBUG level)
func SetVerbose(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = enabled
	if enabled {
		currentLevel = DEBUG
	}
}

func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput redirects regular and error output. A nil writer keeps the current one.
func SetOutput(stdout, stderr io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if stdout != nil {
		out = stdout
	}
	if stderr != nil {
		errOut = stderr
	}
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case PROGRESS:
		return "PROGRESS"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) Color() string {
	switch l {
	case DEBUG:
		return ColorGray
	case INFO:
		return ColorBlue
	case WARNING:
		return ColorYellow
	case ERROR:
		return ColorRed
	case PROGRESS:
		return ColorCyan
	default:
		return ColorReset
	}
}

func (l LogLevel) GetColorFunc() *color.Color {
	switch l {
	case DEBUG:
		return colorDebug
	case INFO:
		return colorInfo
	case WARNING:
		return colorWarning
	case ERROR:
		return colorError
	case PROGRESS:
		return colorInfo
	default:
		return color.New(color.Reset)
	}
}

// formatMessage creates a formatted log message with timestamp and level
func formatMessage(level LogLevel, message string, args ...interface{}) string {
	timestamp := colorKey.Sprintf("%s", time.Now().Format("15:04"))
	levelStr := level.GetColorFunc().Sprintf("%s", level.String())

	var formattedMsg string
	if level == PROGRESS || len(args) == 0 {
		formattedMsg = message
	} else {
		formattedMsg = fmt.Sprintf(message, args...)
	}

	return fmt.Sprintf("%s - %s : %s", timestamp, levelStr, formattedMsg)
}

func shouldLog(level LogLevel) bool {
	if level == PROGRESS {
		return true
	}
	mu.Lock()
	defer mu.Unlock()
	return level >= currentLevel
}

func writeLine(w *io.Writer, line string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(*w, line)
}

// Debug logs a debug message (only visible with --verbose)
func Debug(message string, args ...interface{}) {
	if shouldLog(DEBUG) {
		writeLine(&out, formatMessage(DEBUG, message, args...))
	}
}

func Info(message string, args ...interface{}) {
	if shouldLog(INFO) {
		writeLine(&out, formatMessage(INFO, message, args...))
	}
}

func Warning(message string, args ...interface{}) {
	if shouldLog(WARNING) {
		writeLine(&out, formatMessage(WARNING, message, args...))
	}
}

func Error(message string, args ...interface{}) {
	if shouldLog(ERROR) {
		writeLine(&errOut, formatMessage(ERROR, message, args...))
	}
}

// Success logs an info-level message with the message body in green.
func Success(message string, args ...interface{}) {
	if shouldLog(INFO) {
		msg := message
		if len(args) > 0 {
			msg = fmt.Sprintf(message, args...)
		}
		writeLine(&out, formatMessage(INFO, colorSuccess.Sprint(msg)))
	}
}

// Header logs a section title.
func Header(message string, args ...interface{}) {
	if shouldLog(INFO) {
		msg := message
		if len(args) > 0 {
			msg = fmt.Sprintf(message, args...)
		}
		writeLine(&out, formatMessage(INFO, colorHeader.Sprint(msg)))
	}
}

// DebugSystem logs system information (only in verbose mode)
func DebugSystem() {
	if !shouldLog(DEBUG) {
		return
	}

	Debug("System information:")
	Debug("  OS: %s", runtime.GOOS)
	Debug("  Architecture: %s", runtime.GOARCH)
	Debug("  Go version: %s", runtime.Version())
	Debug("  CPU count: %d", runtime.NumCPU())
}

// DebugConfig logs configuration details (only in verbose mode)
func DebugConfig(config interface{}) {
	if !shouldLog(DEBUG) {
		return
	}

	Debug("Configuration loaded:")
	Debug("  %+v", config)
}

// Progress rewrites the current terminal line; the message is printed as is.
func Progress(message string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprint(out, "\r\033[K"+formatMessage(PROGRESS, message))
}

// ClearProgress erases the line left by Progress.
func ClearProgress() {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprint(out, "\r\033[K")
}
