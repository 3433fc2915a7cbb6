package util

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ValentinKolb/bolthelper/lib/codec"
	"github.com/ValentinKolb/bolthelper/lib/common"
	"github.com/ValentinKolb/bolthelper/lib/db"
	"github.com/ValentinKolb/bolthelper/lib/db/bucketpath"
	"github.com/ValentinKolb/bolthelper/lib/store"
	"github.com/ValentinKolb/bolthelper/lib/store/bstore"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (BOLTHELPER_<flag>)
	EnvPrefix = "bolthelper"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Invocation environment
// --------------------------------------------------------------------------

// Env is the request scoped state of one helper invocation. It is created by
// the dispatcher, handed to every command constructor and torn down by Close.
type Env struct {
	Viper   *viper.Viper
	Stdout  io.Writer
	Stderr  io.Writer
	Config  common.HelperConfig
	Metrics *common.Metrics

	// Logger is nil until Load succeeded
	Logger *logrus.Logger
	Log    *logrus.Entry

	logCloser io.Closer
}

// NewEnv creates the environment of one invocation
func NewEnv(stdout, stderr io.Writer) *Env {
	return &Env{
		Viper:   viper.New(),
		Stdout:  stdout,
		Stderr:  stderr,
		Metrics: common.NewMetrics(),
		Log:     common.CreateLogger(nil, "cmd"),
	}
}

// SetupGlobalFlags adds the flags shared by all commands
func SetupGlobalFlags(cmd *cobra.Command) {
	key := "db"
	cmd.PersistentFlags().String(key, "", WrapString("Path of the bolt database file (required by all store commands)"))

	key = "timeout"
	cmd.PersistentFlags().Duration(key, db.DefaultLockTimeout, WrapString("How long to wait for the file lock of the database (0 waits forever)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("The level at which logs will be output (debug, info, warn, error)"))

	key = "log-file"
	cmd.PersistentFlags().String(key, "", WrapString("Write logs to this rotating file instead of stderr"))

	key = "metrics-out"
	cmd.PersistentFlags().String(key, "", WrapString("Write the metrics of this invocation in Prometheus text format to this file"))

	key = "pretty"
	cmd.PersistentFlags().Bool(key, false, WrapString("Indent the JSON result"))
}

// InitConfig loads the env files and wires viper to the environment
func (e *Env) InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	e.Viper.SetEnvPrefix(EnvPrefix)
	e.Viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	e.Viper.AutomaticEnv() // read in environment variables that match
}

// Load binds the flags of the executing command and builds the helper
// configuration, the logger and the component log entry from them.
func (e *Env) Load(cmd *cobra.Command) error {
	if err := e.Viper.BindPFlags(cmd.Flags()); err != nil {
		return store.Wrap(store.RetCInvalidArgument, err, "failed to bind flags")
	}

	e.Config = common.HelperConfig{
		DBPath:     e.Viper.GetString("db"),
		Timeout:    e.Viper.GetDuration("timeout"),
		LogLevel:   e.Viper.GetString("log-level"),
		LogFile:    e.Viper.GetString("log-file"),
		MetricsOut: e.Viper.GetString("metrics-out"),
		Pretty:     e.Viper.GetBool("pretty"),
	}
	if e.Config.Timeout < 0 {
		return store.Errorf(store.RetCInvalidArgument, "timeout must not be negative, got %s", e.Config.Timeout)
	}

	logger, closer, err := common.NewLogger(e.Config, e.Stderr)
	if err != nil {
		return store.Wrap(store.RetCInvalidArgument, err, "")
	}
	e.Logger = logger
	e.logCloser = closer
	e.Log = common.CreateLogger(logger, "cmd")

	e.Log.Debugf("effective configuration:%s", e.Config.String())
	return nil
}

// Close writes the metrics file if one is configured and releases the log
// file. It is called once, after the command finished.
func (e *Env) Close() error {
	var err error
	if e.Config.MetricsOut != "" {
		err = WriteFileAtomic(e.Config.MetricsOut, func(w io.Writer) error {
			e.Metrics.WritePrometheus(w)
			return nil
		})
		if err != nil {
			e.Log.WithError(err).Warn("failed to write metrics")
		}
	}
	if e.logCloser != nil {
		_ = e.logCloser.Close()
	}
	return err
}

// --------------------------------------------------------------------------
// Store access and output
// --------------------------------------------------------------------------

// RunWithStore opens the store in mode, runs fn and closes the store again
// before the result of fn is written to stdout. The store is closed on every
// path.
func (e *Env) RunWithStore(mode db.Mode, fn func(s store.IStore) (any, error)) error {
	if e.Config.DBPath == "" {
		return store.NewError(store.RetCInvalidArgument, "required flag \"db\" not set")
	}

	s, err := bstore.NewBoltStore(e.Config.DBPath, bstore.Options{
		Mode:    mode,
		Timeout: e.Config.Timeout,
		Logger:  e.Logger,
		Metrics: e.Metrics,
	})
	if err != nil {
		return err
	}

	result, err := fn(s)
	closeErr := s.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}
	return e.WriteResult(result)
}

// WriteResult writes v as the single JSON document of the invocation
func (e *Env) WriteResult(v any) error {
	if err := codec.NewJSONSerializer(e.Config.Pretty).Encode(e.Stdout, v); err != nil {
		return store.Wrap(store.RetCIOError, err, "failed to write result")
	}
	return nil
}

// WriteFileAtomic writes a file through fn. The content goes to a temporary
// file in the target directory which is renamed into place only after fn
// succeeded, so path either keeps its old content or holds the complete new
// one.
func WriteFileAtomic(path string, fn func(w io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return store.Wrap(store.RetCIOError, err, "failed to create output file")
	}
	tmp := f.Name()
	committed := false
	defer func() {
		if !committed {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	// keep the mode of a replaced file, os.CreateTemp uses 0600
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := f.Chmod(mode); err != nil {
		return store.Wrap(store.RetCIOError, err, "failed to create output file")
	}

	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return store.Wrap(store.RetCIOError, err, "failed to write output file")
	}
	if err := f.Sync(); err != nil {
		return store.Wrap(store.RetCIOError, err, "failed to write output file")
	}
	if err := f.Close(); err != nil {
		return store.Wrap(store.RetCIOError, err, "failed to write output file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return store.Wrap(store.RetCIOError, err, "failed to move output file into place")
	}
	committed = true
	return nil
}

// --------------------------------------------------------------------------
// Flag helpers
// --------------------------------------------------------------------------

// Require fails with InvalidArgument unless every named flag was given on the
// command line or through its BOLTHELPER_<FLAG> variable
func (e *Env) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if !e.Viper.IsSet(name) {
			missing = append(missing, strconv.Quote(name))
		}
	}
	if len(missing) > 0 {
		return store.Errorf(store.RetCInvalidArgument, "required flag(s) %s not set", strings.Join(missing, ", "))
	}
	return nil
}

// String returns a flag value, the flag taking precedence over the environment
func (e *Env) String(name string) string {
	return e.Viper.GetString(name)
}

// Bool returns a boolean flag value
func (e *Env) Bool(name string) bool {
	return e.Viper.GetBool(name)
}

// Int returns an integer flag value. Values that are no integer fail with
// InvalidArgument.
func (e *Env) Int(name string) (int, error) {
	v, err := cast.ToIntE(e.Viper.Get(name))
	if err != nil {
		return 0, store.Wrap(store.RetCInvalidArgument, err, "--"+name)
	}
	return v, nil
}

// Path parses a bucket path flag
func (e *Env) Path(name string) (store.Path, error) {
	p, err := bucketpath.Parse(e.String(name))
	if err != nil {
		return nil, store.Wrap(store.RetCInvalidArgument, err, "--"+name)
	}
	return p, nil
}

// Bytes decodes a base64 flag. An empty value yields nil.
func (e *Env) Bytes(name string) ([]byte, error) {
	b, err := codec.DecodeOptional(e.String(name))
	if err != nil {
		return nil, store.Wrap(store.RetCInvalidArgument, err, "--"+name+" is not valid base64")
	}
	return b, nil
}

// Key decodes a base64 key flag that must be present and not empty
func (e *Env) Key(name string) ([]byte, error) {
	key, err := e.Bytes(name)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, store.Errorf(store.RetCInvalidArgument, "--%s must not be empty", name)
	}
	return key, nil
}

// RequirePositive rejects zero and negative numeric flags
func RequirePositive(name string, v int) error {
	if v <= 0 {
		return store.Errorf(store.RetCInvalidArgument, "--%s must be positive, got %d", name, v)
	}
	return nil
}
