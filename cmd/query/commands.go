package query

import (
	"io"

	"github.com/ValentinKolb/bolthelper/cmd/util"
	"github.com/ValentinKolb/bolthelper/lib/codec"
	"github.com/ValentinKolb/bolthelper/lib/db"
	"github.com/ValentinKolb/bolthelper/lib/store"
	"github.com/spf13/cobra"
)

const (
	defaultListLimit   = 100
	defaultSearchLimit = 100
	defaultHeadBytes   = 65536
)

func newMetaCmd(env *util.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "meta",
		Short: "Print metadata of the database file",
		Long:  `Opens the database read-only and prints its metadata. Doubles as a probe whether the file exists and is a valid bolt database.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.RunWithStore(db.ModeReadOnly, func(s store.IStore) (any, error) {
				info, err := s.Info()
				if err != nil {
					return nil, err
				}
				return store.InfoEnvelope(info), nil
			})
		},
	}
}

func newLsbCmd(env *util.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsb",
		Short: "List the sub-buckets of a bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := env.Require("path"); err != nil {
				return err
			}
			path, err := env.Path("path")
			if err != nil {
				return err
			}
			return env.RunWithStore(db.ModeReadOnly, func(s store.IStore) (any, error) {
				names, err := s.ListBuckets(path)
				if err != nil {
					return nil, err
				}
				return store.BucketListEnvelope(names), nil
			})
		},
	}

	cmd.Flags().String("path", "", util.WrapString("Bucket path, names joined with '/' (empty for the root, required)"))
	return cmd
}

func newLskCmd(env *util.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsk",
		Short: "List one page of the entries of a bucket",
		Long:  `Lists the keys and sub-buckets of a bucket in the native key order. If the page is full, nextAfterKey holds the last returned key; pass it as --after-key to fetch the next page.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := env.Require("path"); err != nil {
				return err
			}
			path, err := env.Path("path")
			if err != nil {
				return err
			}
			prefix, err := env.Bytes("prefix")
			if err != nil {
				return err
			}
			afterKey, err := env.Bytes("after-key")
			if err != nil {
				return err
			}
			limit, err := env.Int("limit")
			if err != nil {
				return err
			}
			if err := util.RequirePositive("limit", limit); err != nil {
				return err
			}

			return env.RunWithStore(db.ModeReadOnly, func(s store.IStore) (any, error) {
				page, err := s.List(path, store.ListOptions{Prefix: prefix, AfterKey: afterKey, Limit: limit})
				if err != nil {
					return nil, err
				}
				return page.Envelope(), nil
			})
		},
	}

	cmd.Flags().String("path", "", util.WrapString("Bucket path, names joined with '/' (empty for the root, required)"))
	cmd.Flags().String("prefix", "", util.WrapString("Only list keys starting with this prefix (base64)"))
	cmd.Flags().String("after-key", "", util.WrapString("Resume after this key (base64), usually the nextAfterKey of the previous page"))
	cmd.Flags().Int("limit", defaultListLimit, util.WrapString("Maximum number of entries per page"))
	return cmd
}

func newGetCmd(env *util.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Read the value of a key",
		Long:  `Reads a value. Mode head returns the first --n bytes together with the total size, mode save writes the full value to --out.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := env.Require("path", "key", "mode"); err != nil {
				return err
			}
			path, err := env.Path("path")
			if err != nil {
				return err
			}
			key, err := env.Key("key")
			if err != nil {
				return err
			}
			n, err := env.Int("n")
			if err != nil {
				return err
			}
			mode := env.String("mode")
			out := env.String("out")

			switch mode {
			case codec.ModeHead:
				if n < 0 {
					return store.Errorf(store.RetCInvalidArgument, "--n must not be negative, got %d", n)
				}
				return env.RunWithStore(db.ModeReadOnly, func(s store.IStore) (any, error) {
					head, err := s.Head(path, key, n)
					if err != nil {
						return nil, err
					}
					return codec.HeadResult{
						Mode:            codec.ModeHead,
						TotalSize:       head.TotalSize,
						ValueHeadBase64: codec.EncodeBytes(head.Value),
					}, nil
				})

			case codec.ModeSave:
				if out == "" {
					return store.NewError(store.RetCInvalidArgument, "--out is required in save mode")
				}
				return env.RunWithStore(db.ModeReadOnly, func(s store.IStore) (any, error) {
					size := 0
					err := util.WriteFileAtomic(out, func(w io.Writer) error {
						var err error
						size, err = s.Save(path, key, w)
						return err
					})
					if err != nil {
						return nil, err
					}
					return codec.SaveResult{Mode: codec.ModeSave, TotalSize: size, Out: out}, nil
				})

			default:
				return store.Errorf(store.RetCInvalidArgument, "--mode must be %q or %q, got %q", codec.ModeHead, codec.ModeSave, mode)
			}
		},
	}

	cmd.Flags().String("path", "", util.WrapString("Path of the bucket holding the key (required)"))
	cmd.Flags().String("key", "", util.WrapString("The key (base64, required)"))
	cmd.Flags().String("mode", "", util.WrapString("head: return the leading bytes, save: write the full value to --out (required)"))
	cmd.Flags().Int("n", defaultHeadBytes, util.WrapString("Number of leading bytes returned in head mode"))
	cmd.Flags().String("out", "", util.WrapString("Target file in save mode"))
	return cmd
}

func newSearchCmd(env *util.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search key and bucket names in the bucket tree",
		Long:  `Walks the bucket tree depth first in native key order and returns every entry whose name contains the query. Matching stops after --limit matches; limited is set if there were more.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := env.Require("query", "limit"); err != nil {
				return err
			}
			query := env.String("query")
			if query == "" {
				return store.NewError(store.RetCInvalidArgument, "--query must not be empty")
			}
			limit, err := env.Int("limit")
			if err != nil {
				return err
			}
			if err := util.RequirePositive("limit", limit); err != nil {
				return err
			}
			caseSensitive := env.Bool("case-sensitive")
			values := env.Bool("values")
			root, err := env.Path("path")
			if err != nil {
				return err
			}

			return env.RunWithStore(db.ModeReadOnly, func(s store.IStore) (any, error) {
				result, err := s.Search(store.SearchOptions{
					Query:         query,
					Limit:         limit,
					CaseSensitive: caseSensitive,
					Values:        values,
					Root:          root,
				})
				if err != nil {
					return nil, err
				}
				return result.Envelope(), nil
			})
		},
	}

	cmd.Flags().String("query", "", util.WrapString("Substring to look for (required)"))
	cmd.Flags().Int("limit", defaultSearchLimit, util.WrapString("Maximum number of matches (required)"))
	cmd.Flags().Bool("case-sensitive", false, util.WrapString("Match case sensitively (default: Unicode case folding)"))
	cmd.Flags().Bool("values", false, util.WrapString("Also match the value bytes of keys"))
	cmd.Flags().String("path", "", util.WrapString("Only search below this bucket"))
	return cmd
}

func newExportCmd(env *util.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a bucket tree to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := env.Require("out"); err != nil {
				return err
			}
			out := env.String("out")
			if out == "" {
				return store.NewError(store.RetCInvalidArgument, "--out must not be empty")
			}
			path, err := env.Path("path")
			if err != nil {
				return err
			}
			prefix, err := env.Bytes("prefix")
			if err != nil {
				return err
			}

			return env.RunWithStore(db.ModeReadOnly, func(s store.IStore) (any, error) {
				var summary store.ExportSummary
				err := util.WriteFileAtomic(out, func(w io.Writer) error {
					var err error
					summary, err = s.Export(path, prefix, w)
					return err
				})
				if err != nil {
					return nil, err
				}
				return codec.ExportResult{Out: out, Buckets: summary.Buckets, Keys: summary.Keys, Bytes: summary.Bytes}, nil
			})
		},
	}

	cmd.Flags().String("out", "", util.WrapString("Target file of the export (required)"))
	cmd.Flags().String("path", "", util.WrapString("Bucket to export (default: the root)"))
	cmd.Flags().String("prefix", "", util.WrapString("Only export top level entries starting with this prefix (base64)"))
	return cmd
}

func newStatsCmd(env *util.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise the entries of a bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := env.Require("path"); err != nil {
				return err
			}
			path, err := env.Path("path")
			if err != nil {
				return err
			}
			return env.RunWithStore(db.ModeReadOnly, func(s store.IStore) (any, error) {
				stats, err := s.Stats(path)
				if err != nil {
					return nil, err
				}
				return stats.Envelope(path), nil
			})
		},
	}

	cmd.Flags().String("path", "", util.WrapString("Bucket path, names joined with '/' (empty for the root, required)"))
	return cmd
}
