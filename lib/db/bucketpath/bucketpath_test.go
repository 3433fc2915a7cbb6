package bucketpath

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Path
	}{
		{"", Path{}},
		{"/", Path{}},
		{"a", Path{"a"}},
		{"a/b/c", Path{"a", "b", "c"}},
		{"/a/b", Path{"a", "b"}},
		{"a/b/", Path{"a", "b"}},
		{"/a/", Path{"a"}},
		{"ä b/€", Path{"ä b", "€"}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, in := range []string{"a//b", "//a", "a//", "a///b"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalid, in)
	}
}

func TestPathHelpers(t *testing.T) {
	p := Path{"a", "b"}
	assert.Equal(t, "a/b", p.String())
	assert.False(t, p.IsRoot())
	assert.True(t, Path{}.IsRoot())
	assert.Equal(t, Path{"a"}, p.Parent())
	assert.Equal(t, Path{}, Path{}.Parent())
	assert.Equal(t, "b", p.Name())
	assert.Equal(t, "", Path{}.Name())

	// Child never aliases the receiver
	c1 := p.Parent().Child("x")
	c2 := p.Parent().Child("y")
	assert.Equal(t, Path{"a", "x"}, c1)
	assert.Equal(t, Path{"a", "y"}, c2)
	assert.Equal(t, Path{"a", "b"}, p)
}

func openTestDB(t *testing.T) *bbolt.DB {
	t.Helper()
	bdb, err := bbolt.Open(filepath.Join(t.TempDir(), "test.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bdb.Close() })

	require.NoError(t, bdb.Update(func(tx *bbolt.Tx) error {
		a, err := tx.CreateBucket([]byte("a"))
		if err != nil {
			return err
		}
		b, err := a.CreateBucket([]byte("b"))
		if err != nil {
			return err
		}
		if err := b.Put([]byte("empty"), []byte{}); err != nil {
			return err
		}
		return a.Put([]byte("key"), []byte("value"))
	}))
	return bdb
}

func TestResolve(t *testing.T) {
	bdb := openTestDB(t)

	require.NoError(t, bdb.View(func(tx *bbolt.Tx) error {
		root, err := Resolve(tx, Path{})
		require.NoError(t, err)
		assert.NotNil(t, root.Bucket([]byte("a")))

		b, err := Resolve(tx, Path{"a", "b"})
		require.NoError(t, err)
		assert.NotNil(t, b)

		_, err = Resolve(tx, Path{"a", "missing"})
		assert.ErrorIs(t, err, ErrNotFound)
		var pe *Error
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, 1, pe.Segment)
		assert.Contains(t, err.Error(), `"a/missing"`)

		_, err = Resolve(tx, Path{"a", "key", "x"})
		assert.ErrorIs(t, err, ErrNotABucket)

		_, err = Resolve(tx, Path{"zzz"})
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	}))
}

func TestResolveParent(t *testing.T) {
	bdb := openTestDB(t)

	require.NoError(t, bdb.View(func(tx *bbolt.Tx) error {
		parent, name, err := ResolveParent(tx, Path{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, []byte("b"), name)
		assert.NotNil(t, parent.Bucket(name))

		_, _, err = ResolveParent(tx, Path{})
		assert.ErrorIs(t, err, ErrInvalid)

		_, _, err = ResolveParent(tx, Path{"x", "y"})
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	}))
}

func TestLookup(t *testing.T) {
	bdb := openTestDB(t)

	require.NoError(t, bdb.View(func(tx *bbolt.Tx) error {
		a, err := Resolve(tx, Path{"a"})
		require.NoError(t, err)

		v, isBucket, found := Lookup(a, []byte("key"))
		assert.True(t, found)
		assert.False(t, isBucket)
		assert.Equal(t, "value", string(v))

		_, isBucket, found = Lookup(a, []byte("b"))
		assert.True(t, found)
		assert.True(t, isBucket)

		_, _, found = Lookup(a, []byte("ke"))
		assert.False(t, found)

		b, err := Resolve(tx, Path{"a", "b"})
		require.NoError(t, err)
		v, isBucket, found = Lookup(b, []byte("empty"))
		assert.True(t, found)
		assert.False(t, isBucket)
		assert.Empty(t, v)
		return nil
	}))
}
