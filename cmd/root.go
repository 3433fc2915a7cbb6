package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ValentinKolb/bolthelper/cmd/query"
	"github.com/ValentinKolb/bolthelper/cmd/util"
	"github.com/ValentinKolb/bolthelper/cmd/write"
	"github.com/ValentinKolb/bolthelper/lib/codec"
	"github.com/ValentinKolb/bolthelper/lib/store"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"

	// Protocol is bumped on incompatible changes of the JSON results
	Protocol = 1
)

// newRootCommand builds the command tree of one invocation
func newRootCommand(env *util.Env) *cobra.Command {
	root := &cobra.Command{
		Use:   "bolthelper",
		Short: "inspect and edit bolt database files",
		Long: fmt.Sprintf(`bolthelper (v%s)

Helper process for browsing and editing bbolt database files. Every
invocation runs one command against one file and prints exactly one JSON
document to stdout. Errors are reported on stderr with a non-zero exit code.

Keys, values and prefixes are base64 encoded, bucket paths are bucket names
joined with '/'. Every flag can also be set as BOLTHELPER_<FLAG>
(e.g. BOLTHELPER_TIMEOUT=2s).`, Version),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return env.Load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return store.NewError(store.RetCInvalidArgument, "a command is required, see --help")
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version and protocol number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.WriteResult(codec.VersionResult{Version: Version, Protocol: Protocol})
		},
	}

	util.SetupGlobalFlags(root)
	root.AddCommand(query.Commands(env)...)
	root.AddCommand(write.NewCommand(env))
	root.AddCommand(versionCmd)
	return root
}

// Run executes one invocation and returns its exit code. stdout receives the
// JSON result and nothing else; logs, help and errors go to stderr.
func Run(args []string, stdout, stderr io.Writer) int {
	start := time.Now()
	env := util.NewEnv(stdout, stderr)
	env.InitConfig()

	root := newRootCommand(env)
	root.SetArgs(normalizeArgs(root, args))
	root.SetOut(stderr)
	root.SetErr(stderr)

	cmd, err := root.ExecuteC()
	name := root.Name()
	if cmd != nil {
		name = cmd.Name()
	}
	env.Metrics.ObserveCommand(name, start)

	exitCode := 0
	if err != nil {
		se := asError(err)
		env.Metrics.IncError(name, se.Code.String())
		env.Log.WithError(err).Debug("command failed")
		fmt.Fprintf(stderr, "error: %s\n", strings.ReplaceAll(se.Error(), "\n", " "))
		exitCode = se.Code.ExitCode()
	}

	if err := env.Close(); err != nil && exitCode == 0 {
		fmt.Fprintf(stderr, "error: %s\n", asError(err).Error())
		exitCode = asError(err).Code.ExitCode()
	}
	return exitCode
}

// asError maps any error of an invocation into the taxonomy. Errors that do not
// come from the store layer are flag or argument errors raised by cobra.
func asError(err error) *store.Error {
	var se *store.Error
	if errors.As(err, &se) {
		return se
	}
	return store.Wrap(store.RetCInvalidArgument, err, "")
}

// normalizeArgs rewrites single dash long flags ("-case-sensitive") to the
// double dash form pflag expects. Only flags known to the addressed command
// are rewritten, and flag values are never touched.
func normalizeArgs(root *cobra.Command, args []string) []string {
	target, _, err := root.Find(args)
	if err != nil || target == nil {
		target = root
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if len(arg) < 2 || arg[0] != '-' {
			out = append(out, arg)
			continue
		}

		doubleDash := strings.HasPrefix(arg, "--")
		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		f := target.Flag(name)
		if f == nil {
			out = append(out, arg)
			continue
		}
		if !doubleDash {
			arg = "-" + arg
		}
		out = append(out, arg)

		// the next token is this flag's value
		if !hasValue && f.Value.Type() != "bool" && i+1 < len(args) {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// Execute runs the helper with the process arguments and exits with its code.
// This is called by main.main().
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}
