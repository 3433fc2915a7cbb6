package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]logrus.Level{
		"":        logrus.WarnLevel,
		"debug":   logrus.DebugLevel,
		"INFO":    logrus.InfoLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestLoggerWritesModuleLines(t *testing.T) {
	var stderr bytes.Buffer
	l, closer, err := NewLogger(HelperConfig{LogLevel: "info"}, &stderr)
	require.NoError(t, err)
	defer closer.Close()

	log := CreateLogger(l, "store")
	log.WithField("path", "a/b").WithField("key", "azE=").Info("key written")
	log.Debug("hidden")

	out := stderr.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "INFO  | store           | key written key=azE= path=a/b")
}

func TestLoggerFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "helper.log")
	var stderr bytes.Buffer
	l, closer, err := NewLogger(HelperConfig{LogLevel: "warn", LogFile: file}, &stderr)
	require.NoError(t, err)

	CreateLogger(l, "cmd").Warn("to the file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to the file")
	assert.Zero(t, stderr.Len())
}

func TestCreateLoggerWithoutBase(t *testing.T) {
	log := CreateLogger(nil, "db")
	assert.NotPanics(t, func() { log.Error("dropped") })
}

func TestMetrics(t *testing.T) {
	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.AddScanned("lsk", 1)
		nilMetrics.IncError("lsk", "IOError")
		nilMetrics.ObserveCommand("lsk", time.Now())
	})

	m := NewMetrics()
	m.AddScanned("search", 12)
	m.AddReturned("search", 3)
	m.IncError("get", "KeyNotFound")
	m.ObserveCommand("search", time.Now())

	var buf bytes.Buffer
	m.WritePrometheus(&buf)

	out := buf.String()
	assert.Contains(t, out, `bolthelper_entries_scanned_total{op="search"} 12`)
	assert.Contains(t, out, `bolthelper_items_returned_total{op="search"} 3`)
	assert.Contains(t, out, `bolthelper_errors_total{command="get",code="KeyNotFound"} 1`)
	assert.Contains(t, out, `bolthelper_command_duration_seconds_count{command="search"} 1`)
}

func TestHelperConfigString(t *testing.T) {
	c := HelperConfig{DBPath: "app.db", Timeout: 5 * time.Second, LogLevel: "warn"}
	s := c.String()
	assert.Contains(t, s, "app.db")
	assert.Contains(t, s, "5s")
	assert.Contains(t, s, "LOGGING")
}
