package common

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// --------------------------------------------------------------------------
// Line formatter (keeps the "LEVEL | module | message" layout)
// --------------------------------------------------------------------------

// lineFormatter implements logrus.Formatter
type lineFormatter struct{}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	module, _ := e.Data["module"].(string)
	b.WriteString(e.Time.Format("2006/01/02 15:04:05"))
	b.WriteString(fmt.Sprintf(" %-5s | %-15s | %s", levelString(e.Level), module, e.Message))

	// append the remaining fields in a stable order
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k != "module" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(" %s=%v", k, e.Data[k]))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelString(level logrus.Level) string {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return "DEBUG"
	case logrus.InfoLevel:
		return "INFO"
	case logrus.WarnLevel:
		return "WARN"
	default:
		return "ERROR"
	}
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// file rotation defaults
const (
	logFileMaxSizeMB  = 128
	logFileMaxBackups = 5
	logFileMaxAgeDays = 16
)

// NewLogger creates the logger of one invocation. Without a log file it writes
// to stderr. The returned closer releases the log file and must be called
// before the process exits.
func NewLogger(config HelperConfig, stderr io.Writer) (*logrus.Logger, io.Closer, error) {
	level, err := ParseLogLevel(config.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	if stderr == nil {
		stderr = os.Stderr
	}

	l := logrus.New()
	l.SetFormatter(&lineFormatter{})
	l.SetLevel(level)

	var closer io.Closer = nopCloser{}
	if config.LogFile != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
			MaxAge:     logFileMaxAgeDays,
		}
		l.SetOutput(fileWriter)
		closer = fileWriter
	} else {
		l.SetOutput(stderr)
	}

	return l, closer, nil
}

// CreateLogger returns the logger of one component
func CreateLogger(base *logrus.Logger, module string) *logrus.Entry {
	if base == nil {
		base = logrus.New()
		base.SetOutput(io.Discard)
	}
	return base.WithField("module", module)
}

// ParseLogLevel converts a string level to logrus.Level
func ParseLogLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warning", "warn", "":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.WarnLevel, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
