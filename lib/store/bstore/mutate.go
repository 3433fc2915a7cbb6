package bstore

import (
	"github.com/ValentinKolb/bolthelper/lib/codec"
	"github.com/ValentinKolb/bolthelper/lib/db/bucketpath"
	"github.com/ValentinKolb/bolthelper/lib/store"
	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
)

// Every mutation runs in exactly one write transaction. Returning an error
// from the transaction function makes bbolt roll back, so nothing is applied
// unless the whole operation succeeds.

func (s *storeImpl) CreateBucket(path store.Path) error {
	if path.IsRoot() {
		return store.NewError(store.RetCInvalidArgument, "the root bucket cannot be created")
	}

	err := s.update(func(tx *bbolt.Tx) error {
		parent, name, err := bucketpath.ResolveParent(tx, path)
		if err != nil {
			return err
		}
		if _, isBucket, found := bucketpath.Lookup(parent, name); found {
			if isBucket {
				return store.Errorf(store.RetCAlreadyExists, "bucket %q already exists", path.String())
			}
			return store.Errorf(store.RetCAlreadyExists, "a key named %q already exists in %q", path.Name(), path.Parent().String())
		}
		_, err = parent.CreateBucket(name)
		return err
	})
	if err != nil {
		return err
	}

	s.log.WithField("path", path.String()).Info("bucket created")
	return nil
}

func (s *storeImpl) Put(path store.Path, key, value []byte) error {
	if len(key) == 0 {
		return store.NewError(store.RetCInvalidArgument, "key must not be empty")
	}
	if path.IsRoot() {
		return store.NewError(store.RetCInvalidArgument, "keys cannot be stored in the root bucket")
	}
	if value == nil {
		value = []byte{}
	}

	err := s.update(func(tx *bbolt.Tx) error {
		b, err := bucketpath.Resolve(tx, path)
		if err != nil {
			return err
		}
		if _, isBucket, _ := bucketpath.Lookup(b, key); isBucket {
			return store.Errorf(store.RetCNotAKey, "%q in %q is a bucket", key, path.String())
		}
		return b.Put(key, value)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"path": path.String(),
		"key":  codec.EncodeBytes(key),
		"size": len(value),
	}).Info("key written")
	return nil
}

func (s *storeImpl) DeleteKey(path store.Path, key []byte) error {
	if len(key) == 0 {
		return store.NewError(store.RetCInvalidArgument, "key must not be empty")
	}

	deleted := false
	err := s.update(func(tx *bbolt.Tx) error {
		b, err := bucketpath.Resolve(tx, path)
		if err != nil {
			return err
		}
		_, isBucket, found := bucketpath.Lookup(b, key)
		switch {
		case !found:
			// deleting an absent key is a no-op
			return nil
		case isBucket:
			return store.Errorf(store.RetCNotAKey, "%q in %q is a bucket", key, path.String())
		}
		deleted = true
		return b.Delete(key)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"path":    path.String(),
		"key":     codec.EncodeBytes(key),
		"existed": deleted,
	}).Info("key deleted")
	return nil
}

func (s *storeImpl) DeleteBucket(path store.Path) error {
	if path.IsRoot() {
		return store.NewError(store.RetCInvalidArgument, "the root bucket cannot be deleted")
	}

	err := s.update(func(tx *bbolt.Tx) error {
		parent, name, err := bucketpath.ResolveParent(tx, path)
		if err != nil {
			return err
		}
		_, isBucket, found := bucketpath.Lookup(parent, name)
		switch {
		case !found:
			return &bucketpath.Error{Path: path, Segment: len(path) - 1, Err: bucketpath.ErrNotFound}
		case !isBucket:
			return &bucketpath.Error{Path: path, Segment: len(path) - 1, Err: bucketpath.ErrNotABucket}
		}
		return parent.DeleteBucket(name)
	})
	if err != nil {
		return err
	}

	s.log.WithField("path", path.String()).Info("bucket deleted")
	return nil
}
