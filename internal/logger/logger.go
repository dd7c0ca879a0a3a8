package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var levelColors = map[Level]string{
	DEBUG: "\033[36m", // Cyan
	INFO:  "\033[32m", // Green
	WARN:  "\033[33m", // Yellow
	ERROR: "\033[31m", // Red
	FATAL: "\033[35m", // Magenta
}

const colorReset = "\033[0m"

// Logger writes levelled messages to a console writer and, optionally, to a
// log file. The file never receives colour codes.
type Logger struct {
	mu          sync.Mutex
	level       Level
	output      io.Writer
	colorEnable bool
	file        *os.File
	filePath    string
	exit        func(int)
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the default logger with the specified level.
// Messages go to stderr so that stdout stays free for LCOV output.
func Init(levelStr string) {
	once.Do(func() {
		defaultLogger = &Logger{
			level:       ParseLevel(levelStr),
			output:      os.Stderr,
			colorEnable: true,
			exit:        os.Exit,
		}
	})
}

func get() *Logger {
	if defaultLogger == nil {
		Init("info")
	}
	return defaultLogger
}

// InitWithFile initializes the default logger and additionally writes every
// message to a timestamped file inside dir.
func InitWithFile(levelStr, dir string) error {
	Init(levelStr)
	l := get()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(dir, time.Now().Format("2006-01-02_15-04-05_MST")+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
	}
	l.level = ParseLevel(levelStr)
	l.file = f
	l.filePath = path
	return nil
}

// GetLogFilePath returns the path of the current log file, or "".
func GetLogFilePath() string {
	l := get()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filePath
}

// Close closes the log file, if any.
func Close() error {
	if defaultLogger == nil {
		return nil
	}
	l := defaultLogger
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// SetLevel sets the logging level for the default logger.
func SetLevel(levelStr string) {
	if defaultLogger == nil {
		Init(levelStr)
		return
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = ParseLevel(levelStr)
}

// SetOutput sets the console destination for the default logger.
func SetOutput(w io.Writer) {
	l := get()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// SetColorEnable enables or disables color output.
func SetColorEnable(enable bool) {
	l := get()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.colorEnable = enable
}

// ParseLevel converts a string to a Level. Unknown names map to INFO.
func ParseLevel(levelStr string) Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// ValidLevel reports whether levelStr names a known level.
func ValidLevel(levelStr string) bool {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR", "FATAL":
		return true
	}
	return false
}

// log writes a log message if the level is sufficient.
func (l *Logger) log(level Level, format string, args ...interface{}) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	message := fmt.Sprintf(format, args...)
	levelName := levelNames[level]

	plain := fmt.Sprintf("[%s] %s", levelName, message)
	console := plain
	if l.colorEnable {
		console = fmt.Sprintf("%s[%s]%s %s", levelColors[level], levelName, colorReset, message)
	}

	log.New(l.output, "", log.LstdFlags).Println(console)
	if l.file != nil {
		log.New(l.file, "", log.LstdFlags).Println(plain)
	}

	if level == FATAL {
		if l.file != nil {
			l.file.Close()
			l.file = nil
		}
		l.exit(1)
	}
}

// Debug logs a debug message.
func Debug(format string, args ...interface{}) {
	get().log(DEBUG, format, args...)
}

// Info logs an info message.
func Info(format string, args ...interface{}) {
	get().log(INFO, format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	get().log(WARN, format, args...)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	get().log(ERROR, format, args...)
}

// Fatal logs a fatal message and exits the program.
func Fatal(format string, args ...interface{}) {
	get().log(FATAL, format, args...)
}
