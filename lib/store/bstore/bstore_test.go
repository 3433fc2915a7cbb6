package bstore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/bolthelper/lib/common"
	"github.com/ValentinKolb/bolthelper/lib/db"
	"github.com/ValentinKolb/bolthelper/lib/store"
	storetesting "github.com/ValentinKolb/bolthelper/lib/store/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factory(t testing.TB, path string, mode db.Mode) store.IStore {
	s, err := NewBoltStore(path, Options{Mode: mode, Timeout: time.Second})
	require.NoError(t, err)
	return s
}

func Test(t *testing.T) {
	storetesting.RunIStoreTests(t, "BoltStore", factory)
}

func Benchmark(b *testing.B) {
	storetesting.RunIStoreBenchmarks(b, "BoltStore", factory)
}

func TestLockContention(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{"a": storetesting.Tree{"k": "v"}})

	writer, err := NewBoltStore(path, Options{Mode: db.ModeReadWrite, Timeout: time.Second})
	require.NoError(t, err)
	defer writer.Close()

	start := time.Now()
	_, err = NewBoltStore(path, Options{Mode: db.ModeReadWrite, Timeout: 100 * time.Millisecond})
	assert.Equal(t, store.RetCStoreLocked, store.CodeOf(err), "unexpected error: %v", err)
	assert.Less(t, time.Since(start), 5*time.Second)

	_, err = NewBoltStore(path, Options{Mode: db.ModeReadOnly, Timeout: 100 * time.Millisecond})
	assert.Equal(t, store.RetCStoreLocked, store.CodeOf(err), "unexpected error: %v", err)

	// the lock is released on close
	require.NoError(t, writer.Close())
	reader, err := NewBoltStore(path, Options{Mode: db.ModeReadOnly, Timeout: 100 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, reader.Close())
}

func TestSharedReaders(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{"a": storetesting.Tree{"k": "v"}})

	r1, err := NewBoltStore(path, Options{Mode: db.ModeReadOnly, Timeout: 100 * time.Millisecond})
	require.NoError(t, err)
	defer r1.Close()

	r2, err := NewBoltStore(path, Options{Mode: db.ModeReadOnly, Timeout: 100 * time.Millisecond})
	require.NoError(t, err)
	defer r2.Close()

	names, err := r2.ListBuckets(store.Path{})
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing", func(t *testing.T) {
		path := filepath.Join(dir, "missing.db")
		_, err := NewBoltStore(path, Options{Mode: db.ModeReadWrite})
		assert.Equal(t, store.RetCIOError, store.CodeOf(err), "unexpected error: %v", err)

		// write mode must not create the file
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("Directory", func(t *testing.T) {
		_, err := NewBoltStore(dir, Options{Mode: db.ModeReadOnly})
		assert.Error(t, err)
	})

	t.Run("Empty", func(t *testing.T) {
		path := filepath.Join(dir, "empty.db")
		require.NoError(t, os.WriteFile(path, nil, 0600))

		_, err := NewBoltStore(path, Options{Mode: db.ModeReadWrite})
		assert.Equal(t, store.RetCIOError, store.CodeOf(err), "unexpected error: %v", err)

		info, statErr := os.Stat(path)
		require.NoError(t, statErr)
		assert.Zero(t, info.Size())
	})

	t.Run("Garbage", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.db")
		require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("garbage!"), 2048), 0600))

		_, err := NewBoltStore(path, Options{Mode: db.ModeReadOnly})
		assert.Equal(t, store.RetCIOError, store.CodeOf(err), "unexpected error: %v", err)
	})
}

func TestMetricsAreRecorded(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{"a": storetesting.NumberedKeys("k", 10)})
	metrics := common.NewMetrics()

	s, err := NewBoltStore(path, Options{Mode: db.ModeReadOnly, Metrics: metrics})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.List(store.Path{"a"}, store.ListOptions{Limit: 5})
	require.NoError(t, err)

	var buf bytes.Buffer
	metrics.WritePrometheus(&buf)
	assert.Contains(t, buf.String(), `bolthelper_items_returned_total{op="lsk"} 5`)
}
