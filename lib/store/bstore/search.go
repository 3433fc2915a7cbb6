package bstore

import (
	"errors"
	"strings"

	"github.com/ValentinKolb/bolthelper/lib/db/bucketpath"
	"github.com/ValentinKolb/bolthelper/lib/store"
	"go.etcd.io/bbolt"
	"golang.org/x/text/cases"
)

// errStopWalk ends a walk early without reporting an error
var errStopWalk = errors.New("stop walk")

// walkFunc is called for every entry of the tree. path is the path of the
// bucket b holding the entry; k and v are only valid during the call.
type walkFunc func(path store.Path, b *bbolt.Bucket, k, v []byte, isBucket bool) error

// walk visits the entries of b in key order, depth-first and pre-order: a
// nested bucket is visited before its own entries. The path handed to fn is
// never modified afterwards and may be retained.
func walk(b *bbolt.Bucket, path store.Path, fn walkFunc) error {
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var child *bbolt.Bucket
		if v == nil {
			child = b.Bucket(k)
		}
		if err := fn(path, b, k, v, child != nil); err != nil {
			return err
		}
		if child != nil {
			if err := walk(child, path.Child(string(k)), fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Matching
// --------------------------------------------------------------------------

// matcher tests byte strings for substring containment of a query
type matcher struct {
	query string
	fold  *cases.Caser
}

func newMatcher(query string, caseSensitive bool) *matcher {
	if caseSensitive {
		return &matcher{query: query}
	}
	fold := cases.Fold()
	return &matcher{query: fold.String(query), fold: &fold}
}

func (m *matcher) matches(b []byte) bool {
	s := string(b)
	if m.fold != nil {
		s = m.fold.String(s)
	}
	return strings.Contains(s, m.query)
}

// --------------------------------------------------------------------------
// Search
// --------------------------------------------------------------------------

func (s *storeImpl) Search(opts store.SearchOptions) (store.SearchResult, error) {
	if opts.Query == "" {
		return store.SearchResult{}, store.NewError(store.RetCInvalidArgument, "query must not be empty")
	}
	if opts.Limit <= 0 {
		return store.SearchResult{}, store.Errorf(store.RetCInvalidArgument, "limit must be positive, got %d", opts.Limit)
	}

	m := newMatcher(opts.Query, opts.CaseSensitive)
	result := store.SearchResult{Items: []store.Match{}}

	err := s.view(func(tx *bbolt.Tx) error {
		root, err := bucketpath.Resolve(tx, opts.Root)
		if err != nil {
			return err
		}

		err = walk(root, opts.Root, func(path store.Path, b *bbolt.Bucket, k, v []byte, isBucket bool) error {
			result.Scanned++

			matchType := store.MatchKey
			matched := m.matches(k)
			if !matched && opts.Values && !isBucket {
				matched = m.matches(v)
				matchType = store.MatchValue
			}
			if !matched {
				return nil
			}

			// one match beyond the limit proves the result is truncated
			if len(result.Items) == opts.Limit {
				result.Limited = true
				return errStopWalk
			}

			entry := store.Entry{Key: append([]byte(nil), k...), Kind: store.KindKey, ValueSize: len(v)}
			if isBucket {
				entry.Kind = store.KindBucket
				entry.ValueSize = 0
			}
			result.Items = append(result.Items, store.Match{Path: path, Entry: entry, Type: matchType})
			return nil
		})
		if errors.Is(err, errStopWalk) {
			return nil
		}
		return err
	})
	if err != nil {
		return store.SearchResult{}, err
	}

	s.metrics.AddScanned("search", result.Scanned)
	s.metrics.AddReturned("search", len(result.Items))
	s.log.WithField("query", opts.Query).WithField("matches", len(result.Items)).WithField("limited", result.Limited).Debug("search finished")
	return result, nil
}
