// Package cmd implements the command-line interface of bolthelper, the helper
// process an IDE plugin runs to browse and edit bbolt database files. Every
// invocation executes exactly one command against one file.
//
// The package is organized into several subpackages:
//
//   - query: read-only commands (meta, lsb, lsk, get, search, export, stats)
//   - write: the write command with its four operations
//   - util: the per-invocation environment, flag helpers and result output (internal use)
//
// Output contract: on success exactly one JSON document is written to stdout.
// On failure a single line "error: <code>: <message>" is written to stderr and
// the process exits with the code of the error:
//
//	0 success          4 NotABucket      8 StoreLocked
//	1 Unknown          5 NotAKey         9 IOError
//	2 InvalidArgument  6 KeyNotFound
//	3 PathNotFound     7 AlreadyExists
//
// See bolthelper --help for a list of all commands.
package cmd
