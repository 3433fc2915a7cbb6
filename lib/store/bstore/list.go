package bstore

import (
	"bytes"

	"github.com/ValentinKolb/bolthelper/lib/db/bucketpath"
	"github.com/ValentinKolb/bolthelper/lib/store"
	"go.etcd.io/bbolt"
)

func (s *storeImpl) ListBuckets(path store.Path) ([][]byte, error) {
	names := [][]byte{}
	scanned := 0
	err := s.view(func(tx *bbolt.Tx) error {
		b, err := bucketpath.Resolve(tx, path)
		if err != nil {
			return err
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			scanned++
			if v == nil && b.Bucket(k) != nil {
				names = append(names, append([]byte(nil), k...))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddScanned("lsb", scanned)
	s.metrics.AddReturned("lsb", len(names))
	return names, nil
}

func (s *storeImpl) List(path store.Path, opts store.ListOptions) (store.Page, error) {
	if opts.Limit <= 0 {
		return store.Page{}, store.Errorf(store.RetCInvalidArgument, "limit must be positive, got %d", opts.Limit)
	}

	page := store.Page{Items: make([]store.Entry, 0, min(opts.Limit, 1024))}
	scanned := 0
	err := s.view(func(tx *bbolt.Tx) error {
		b, err := bucketpath.Resolve(tx, path)
		if err != nil {
			return err
		}

		c := b.Cursor()
		for k, v := seekStart(c, opts.Prefix, opts.AfterKey); k != nil; k, v = c.Next() {
			scanned++
			if opts.Prefix != nil && !bytes.HasPrefix(k, opts.Prefix) {
				break
			}
			if len(page.Items) == opts.Limit {
				// k is a further entry, so the page is not the last one
				page.NextAfterKey = page.Items[len(page.Items)-1].Key
				break
			}
			page.Items = append(page.Items, entryOf(b, k, v))
		}
		return nil
	})
	if err != nil {
		return store.Page{}, err
	}

	s.metrics.AddScanned("lsk", scanned)
	s.metrics.AddReturned("lsk", len(page.Items))
	s.log.WithField("path", path.String()).WithField("returned", len(page.Items)).Debug("listed keys")
	return page, nil
}

// seekStart positions c at the first entry strictly after afterKey that can
// still carry prefix.
func seekStart(c *bbolt.Cursor, prefix, afterKey []byte) (k, v []byte) {
	switch {
	case afterKey != nil && (prefix == nil || bytes.Compare(afterKey, prefix) >= 0):
		k, v = c.Seek(afterKey)
		if k != nil && bytes.Equal(k, afterKey) {
			k, v = c.Next()
		}
	case prefix != nil:
		k, v = c.Seek(prefix)
	default:
		k, v = c.First()
	}
	return k, v
}

func (s *storeImpl) Stats(path store.Path) (store.BucketStats, error) {
	stats := store.BucketStats{ValueSizes: []int{}}
	visited := 0
	err := s.view(func(tx *bbolt.Tx) error {
		b, err := bucketpath.Resolve(tx, path)
		if err != nil {
			return err
		}

		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if v == nil && b.Bucket(k) != nil {
				stats.Buckets++
				continue
			}
			stats.Keys++
			stats.ValueSizes = append(stats.ValueSizes, len(v))
		}

		return walk(b, path, func(p store.Path, _ *bbolt.Bucket, _, _ []byte, isBucket bool) error {
			visited++
			if isBucket {
				// p is the parent, the nested bucket sits one level deeper
				if depth := len(p) - len(path) + 1; depth > stats.Depth {
					stats.Depth = depth
				}
				return nil
			}
			stats.NestedKeys++
			return nil
		})
	})
	if err != nil {
		return store.BucketStats{}, err
	}

	s.metrics.AddScanned("stats", visited)
	return stats, nil
}
