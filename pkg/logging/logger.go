package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileMaxSizeMB  = 20
	logFileMaxBackups = 5
	logFileMaxAgeDays = 14
)

// Logger provides structured logging for browsercmd components.
// All components of one process share a single rotating log file in
// ~/.browsercmd/logs/, each entry tagged with the component name.
type Logger struct {
	component string
	sugar     *zap.SugaredLogger
	logPath   string
}

var (
	// Global process ID for the current execution
	processID     string
	processIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	// initOnce ensures directory initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error

	coreMu     sync.Mutex
	sharedCore zapcore.Core
	sharedPath string

	level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
)

func getProcessID() string {
	processIDOnce.Do(func() {
		processID = uuid.New().String()
	})
	return processID
}

func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir != "" {
			initErr = os.MkdirAll(logDir, 0750)
			return
		}

		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get home directory: %w", err)
			return
		}

		logDir = filepath.Join(homeDir, ".browsercmd", "logs")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// fileCore returns the process-wide file core, creating it on first use.
func fileCore() (zapcore.Core, string) {
	coreMu.Lock()
	defer coreMu.Unlock()

	if sharedCore != nil {
		return sharedCore, sharedPath
	}

	sharedPath = filepath.Join(logDir, fmt.Sprintf("%s-browsercmd.log", getProcessID()))
	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   sharedPath,
		MaxSize:    logFileMaxSizeMB,
		MaxBackups: logFileMaxBackups,
		MaxAge:     logFileMaxAgeDays,
	})

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	sharedCore = zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), writer, level)
	return sharedCore, sharedPath
}

// NewLogger creates a new logger for a specific component.
// The logger writes to ~/.browsercmd/logs/<process-id>-browsercmd.log.
//
// If the log directory cannot be created it returns a fallback logger that
// writes to stderr along with the error, so callers can detect fallback mode.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	core, path := fileCore()
	return &Logger{
		component: component,
		sugar:     zap.New(core).Named(component).Sugar(),
		logPath:   path,
	}, nil
}

func newFallbackLogger(component string, err error) *Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), level)

	l := &Logger{
		component: component,
		sugar:     zap.New(core).Named(component).Sugar(),
	}
	l.Warnf("failed to initialize file logging, falling back to stderr: %v", err)
	return l
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{component: "nop", sugar: zap.NewNop().Sugar()}
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// With returns a child logger carrying the given key/value pairs on every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		component: l.component,
		sugar:     l.sugar.With(keysAndValues...),
		logPath:   l.logPath,
	}
}

// Component returns the component name.
func (l *Logger) Component() string {
	return l.component
}

// LogPath returns the path to the log file, empty in fallback mode.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// SetLevel changes the minimum level for every logger in the process.
// Accepted values are zap level names ("debug", "info", "warn", "error").
func SetLevel(name string) error {
	return level.UnmarshalText([]byte(name))
}

// GetProcessID returns the ID shared by all loggers in this process.
func GetProcessID() string {
	return getProcessID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
