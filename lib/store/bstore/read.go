package bstore

import (
	"io"

	"github.com/ValentinKolb/bolthelper/lib/db/bucketpath"
	"github.com/ValentinKolb/bolthelper/lib/store"
	"go.etcd.io/bbolt"
)

// lookupValue resolves path and returns the value of key. The value is only
// valid inside tx.
func lookupValue(tx *bbolt.Tx, path store.Path, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, store.NewError(store.RetCInvalidArgument, "key must not be empty")
	}
	b, err := bucketpath.Resolve(tx, path)
	if err != nil {
		return nil, err
	}
	v, isBucket, found := bucketpath.Lookup(b, key)
	switch {
	case !found:
		return nil, store.Errorf(store.RetCKeyNotFound, "key %q not found in %q", key, path.String())
	case isBucket:
		return nil, store.Errorf(store.RetCNotAKey, "%q in %q is a bucket", key, path.String())
	}
	return v, nil
}

func (s *storeImpl) Head(path store.Path, key []byte, n int) (store.Head, error) {
	if n < 0 {
		return store.Head{}, store.Errorf(store.RetCInvalidArgument, "head size must not be negative, got %d", n)
	}

	var head store.Head
	err := s.view(func(tx *bbolt.Tx) error {
		v, err := lookupValue(tx, path, key)
		if err != nil {
			return err
		}
		head.TotalSize = len(v)
		head.Value = append([]byte{}, v[:min(n, len(v))]...)
		return nil
	})
	if err != nil {
		return store.Head{}, err
	}

	s.metrics.AddReturned("get", len(head.Value))
	return head, nil
}

func (s *storeImpl) Save(path store.Path, key []byte, w io.Writer) (int, error) {
	size := 0
	err := s.view(func(tx *bbolt.Tx) error {
		v, err := lookupValue(tx, path, key)
		if err != nil {
			return err
		}
		size = len(v)
		if _, err := w.Write(v); err != nil {
			return store.Wrap(store.RetCIOError, err, "failed to write value")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.metrics.AddReturned("save", size)
	return size, nil
}
