package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"camfusion/internal/config"
)

// Fields are structured values attached to a log entry.
type Fields = logrus.Fields

// Logger provides leveled logging (info/warning/error) to rotating files and stdout/stderr.
type Logger struct {
	log    *logrus.Logger
	logDir string
}

// NewLogger creates a Logger writing to the console and to one rotating file
// per level under the configured log directory.
func NewLogger(cfg *config.Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	l := &Logger{log: newBase(os.Stdout, false), logDir: cfg.LogDirectory}
	l.log.SetLevel(level)
	l.log.AddHook(newLevelFileHook(cfg.LogDirectory))
	return l, nil
}

// NewConsole creates a Logger that only writes to w, without colors or files.
func NewConsole(w io.Writer) *Logger {
	return &Logger{log: newBase(w, true)}
}

func newBase(w io.Writer, noColors bool) *logrus.Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetReportCaller(true)
	base.SetFormatter(newFormatter(noColors))
	return base
}

func newFormatter(noColors bool) *formatter.Formatter {
	return &formatter.Formatter{
		NoColors:        noColors,
		TimestampFormat: "2006-01-02 15:04:05",
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			f = callerOf(f)
			s := strings.Split(f.Function, ".")
			return fmt.Sprintf(" [%s:%d][%s()]", filepath.Base(f.File), f.Line, s[len(s)-1])
		},
	}
}

var wrapperPrefix = reflect.TypeOf(Logger{}).PkgPath() + ".(*Logger)."

// callerOf replaces f, which logrus sets to the Logger method that logged,
// with the frame that called that method. Formatting runs on the logging
// goroutine, so the wrapper is still on the stack. Entries logged through
// WithFields already point at the right frame and are returned as is.
func callerOf(f *runtime.Frame) *runtime.Frame {
	if !strings.HasPrefix(f.Function, wrapperPrefix) {
		return f
	}

	pcs := make([]uintptr, 64)
	frames := runtime.CallersFrames(pcs[:runtime.Callers(2, pcs)])
	afterWrapper := false
	for {
		frame, more := frames.Next()
		if strings.HasPrefix(frame.Function, wrapperPrefix) {
			afterWrapper = true
		} else if afterWrapper {
			return &frame
		}
		if !more {
			return f
		}
	}
}

// Level files written under the log directory.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// LevelFiles lists every file CleanLogs may be asked to truncate.
var LevelFiles = []string{InfoFile, WarningFile, ErrorFile}

// levelFileHook copies entries into info.log, warning.log or error.log.
type levelFileHook struct {
	files     map[logrus.Level]io.Writer
	formatter logrus.Formatter
}

func newLevelFileHook(dir string) *levelFileHook {
	rotating := func(name string) io.Writer {
		return &lumberjack.Logger{
			Filename:   filepath.Join(dir, name),
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			LocalTime:  true,
		}
	}
	info := rotating(InfoFile)
	warning := rotating(WarningFile)
	errs := rotating(ErrorFile)

	return &levelFileHook{
		files: map[logrus.Level]io.Writer{
			logrus.TraceLevel: info,
			logrus.DebugLevel: info,
			logrus.InfoLevel:  info,
			logrus.WarnLevel:  warning,
			logrus.ErrorLevel: errs,
			logrus.FatalLevel: errs,
			logrus.PanicLevel: errs,
		},
		formatter: newFormatter(true),
	}
}

func (h *levelFileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *levelFileHook) Fire(entry *logrus.Entry) error {
	w, ok := h.files[entry.Level]
	if !ok {
		return nil
	}
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = w.Write(line)
	return err
}

// Debug writes a formatted debug-level log entry.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.log.Debugf(format, v...)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.log.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.log.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.log.Errorf(format, v...)
}

// WithFields returns an entry carrying fields, for structured logs.
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.log.WithFields(fields)
}

// SetLevel changes the minimum level written.
func (l *Logger) SetLevel(level logrus.Level) {
	l.log.SetLevel(level)
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	if l.logDir == "" {
		return nil
	}
	filePath := filepath.Join(l.logDir, fileName)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to truncate %s: %w", fileName, err)
	}
	defer file.Close()

	l.Info("Log file %s has been cleared.", fileName)
	return nil
}
