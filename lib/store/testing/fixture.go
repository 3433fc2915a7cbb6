package testing

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

// Tree describes the contents of a bucket. string and []byte values are keys,
// Tree values are nested buckets. At the root only Tree values are allowed.
type Tree map[string]any

// Build creates a new bolt file in a temporary directory, fills it with tree
// and returns its path. The file is closed again, so any store may open it.
func Build(t testing.TB, tree Tree) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	Populate(t, path, tree)
	return path
}

// Populate adds tree to the bolt file at path, creating the file if needed.
func Populate(t testing.TB, path string, tree Tree) {
	t.Helper()
	bdb, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	defer bdb.Close()

	err = bdb.Update(func(tx *bbolt.Tx) error {
		for name, content := range tree {
			sub, ok := content.(Tree)
			if !ok {
				return fmt.Errorf("root entry %q must be a Tree", name)
			}
			b, err := tx.CreateBucketIfNotExists([]byte(name))
			if err != nil {
				return err
			}
			if err := fill(b, sub); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func fill(b *bbolt.Bucket, tree Tree) error {
	for name, content := range tree {
		switch c := content.(type) {
		case Tree:
			sub, err := b.CreateBucketIfNotExists([]byte(name))
			if err != nil {
				return err
			}
			if err := fill(sub, c); err != nil {
				return err
			}
		case string:
			if err := b.Put([]byte(name), []byte(c)); err != nil {
				return err
			}
		case []byte:
			if err := b.Put([]byte(name), c); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported fixture value %T for %q", content, name)
		}
	}
	return nil
}

// NumberedKeys returns a Tree with n keys "<prefix>000".."<prefix>n-1" whose
// values equal their keys.
func NumberedKeys(prefix string, n int) Tree {
	tree := Tree{}
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("%s%03d", prefix, i)
		tree[k] = k
	}
	return tree
}
