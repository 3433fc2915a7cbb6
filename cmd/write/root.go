package write

import (
	"github.com/ValentinKolb/bolthelper/cmd/util"
	"github.com/ValentinKolb/bolthelper/lib/codec"
	"github.com/ValentinKolb/bolthelper/lib/db"
	"github.com/ValentinKolb/bolthelper/lib/store"
	"github.com/spf13/cobra"
)

// write operations
const (
	OpCreateBucket = "create-bucket"
	OpPut          = "put"
	OpDeleteKey    = "delete-key"
	OpDeleteBucket = "delete-bucket"
)

// request is a fully validated write operation
type request struct {
	op    string
	path  store.Path
	key   []byte
	value []byte
}

// NewCommand returns the write command. It is the only command that opens the
// store read-write.
func NewCommand(env *util.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Apply one mutation in a single transaction",
		Long: `Applies one of create-bucket, put, delete-key or delete-bucket inside a single write transaction.
Either the whole operation is committed or the file stays untouched.

  create-bucket --path a/b            creates the empty bucket b in a
  put           --path a --key K --value V
  delete-key    --path a --key K      succeeds if K is absent
  delete-bucket --path a/b            removes b and everything below it`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := parseRequest(env)
			if err != nil {
				return err
			}
			return env.RunWithStore(db.ModeReadWrite, func(s store.IStore) (any, error) {
				if err := apply(s, req); err != nil {
					return nil, err
				}
				ack := codec.WriteAck{OK: true, Op: req.op, Path: req.path.String()}
				if req.key != nil {
					ack.KeyBase64 = codec.EncodeBytes(req.key)
				}
				return ack, nil
			})
		},
	}

	cmd.Flags().String("op", "", util.WrapString("The operation (create-bucket, put, delete-key, delete-bucket, required)"))
	cmd.Flags().String("path", "", util.WrapString("Bucket path, names joined with '/' (required)"))
	cmd.Flags().String("key", "", util.WrapString("The key (base64, put and delete-key only)"))
	cmd.Flags().String("value", "", util.WrapString("The value (base64, put only)"))
	return cmd
}

// parseRequest validates the flags of a write before the store is touched
func parseRequest(env *util.Env) (request, error) {
	if err := env.Require("op", "path"); err != nil {
		return request{}, err
	}
	op := env.String("op")
	path, err := env.Path("path")
	if err != nil {
		return request{}, err
	}
	req := request{op: op, path: path}

	switch op {
	case OpCreateBucket, OpDeleteBucket:
		if path.IsRoot() {
			return request{}, store.Errorf(store.RetCInvalidArgument, "%s needs a bucket path, got the root", op)
		}
	case OpPut:
		if req.key, err = env.Key("key"); err != nil {
			return request{}, err
		}
		if !env.Viper.IsSet("value") {
			return request{}, store.NewError(store.RetCInvalidArgument, "--value is required by put")
		}
		if req.value, err = env.Bytes("value"); err != nil {
			return request{}, err
		}
	case OpDeleteKey:
		if req.key, err = env.Key("key"); err != nil {
			return request{}, err
		}
	default:
		return request{}, store.Errorf(store.RetCInvalidArgument, "unknown op %q", op)
	}
	return req, nil
}

func apply(s store.IStore, req request) error {
	switch req.op {
	case OpCreateBucket:
		return s.CreateBucket(req.path)
	case OpPut:
		return s.Put(req.path, req.key, req.value)
	case OpDeleteKey:
		return s.DeleteKey(req.path, req.key)
	default:
		return s.DeleteBucket(req.path)
	}
}
