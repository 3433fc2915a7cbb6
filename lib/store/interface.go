package store

import (
	"io"

	"github.com/ValentinKolb/bolthelper/lib/db"
	"github.com/ValentinKolb/bolthelper/lib/db/bucketpath"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Path is re-exported so callers of IStore need a single import
type Path = bucketpath.Path

// IStore is the interface for browsing and editing one bolt file.
// Every method runs in its own transaction. All errors returned are *Error.
type IStore interface {
	// Info returns metadata about the underlying database file.
	Info() (info db.DatabaseInfo, err error)

	// ListBuckets returns the immediate sub-buckets of the bucket at path.
	ListBuckets(path Path) (buckets [][]byte, err error)
	// List returns one page of the entries of the bucket at path.
	List(path Path, opts ListOptions) (page Page, err error)
	// Stats summarises the immediate children of the bucket at path.
	Stats(path Path) (stats BucketStats, err error)

	// Head returns the total size and the first n bytes of a key's value.
	Head(path Path, key []byte, n int) (head Head, err error)
	// Save copies the full value of a key to w and returns its size.
	Save(path Path, key []byte, w io.Writer) (size int, err error)
	// Search walks the bucket tree below opts.Root looking for opts.Query.
	Search(opts SearchOptions) (result SearchResult, err error)
	// Export writes the bucket at path (restricted to prefix at its top level)
	// as an export document to w.
	Export(path Path, prefix []byte, w io.Writer) (summary ExportSummary, err error)

	// CreateBucket creates the empty bucket at path. Its parent must exist.
	CreateBucket(path Path) (err error)
	// Put inserts or overwrites key in the bucket at path.
	Put(path Path, key, value []byte) (err error)
	// DeleteKey removes key from the bucket at path. A missing key is not an error.
	DeleteKey(path Path, key []byte) (err error)
	// DeleteBucket removes the bucket at path and everything below it.
	DeleteBucket(path Path) (err error)

	// Close closes the store and releases the file lock.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Entries
// --------------------------------------------------------------------------

// Kind tags every listed or matched entry as either a key or a bucket.
type Kind uint8

const (
	KindKey Kind = iota
	KindBucket
)

func (k Kind) String() string {
	switch k {
	case KindBucket:
		return "bucket"
	default:
		return "key"
	}
}

// Entry is one child of a bucket. ValueSize is 0 for buckets.
type Entry struct {
	Key       []byte
	ValueSize int
	Kind      Kind
}

// IsBucket reports whether the entry is a nested bucket
func (e Entry) IsBucket() bool {
	return e.Kind == KindBucket
}

// --------------------------------------------------------------------------
// Listing
// --------------------------------------------------------------------------

// ListOptions controls one List call. Nil Prefix and AfterKey mean "not given".
type ListOptions struct {
	Prefix   []byte
	AfterKey []byte
	Limit    int
}

// Page is one page of a listing. NextAfterKey is nil at the end of the data,
// otherwise it is the last returned key and resumes the listing when passed
// back as AfterKey.
type Page struct {
	Items        []Entry
	NextAfterKey []byte
}

// BucketStats summarises the immediate children of a bucket.
type BucketStats struct {
	Buckets int
	Keys    int
	// ValueSizes holds the value size of every immediate key, in key order
	ValueSizes []int
	// NestedKeys and Depth cover the whole subtree
	NestedKeys int
	Depth      int
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

// Head is the leading part of a value together with its full size.
type Head struct {
	TotalSize int
	Value     []byte
}

// ExportSummary acknowledges an export.
type ExportSummary struct {
	Buckets int
	Keys    int
	Bytes   int64
}

// --------------------------------------------------------------------------
// Search
// --------------------------------------------------------------------------

// MatchType says whether the key name or the value bytes matched.
type MatchType uint8

const (
	MatchKey MatchType = iota
	MatchValue
)

func (m MatchType) String() string {
	switch m {
	case MatchValue:
		return "value"
	default:
		return "key"
	}
}

// SearchOptions controls one Search call.
type SearchOptions struct {
	Query         string
	Limit         int
	CaseSensitive bool
	// Values also tests the value bytes of keys
	Values bool
	// Root is the subtree to search, empty for the whole store
	Root Path
}

// Match is one search hit. Path locates the bucket holding the entry.
type Match struct {
	Path  Path
	Entry Entry
	Type  MatchType
}

// SearchResult holds the matches in traversal order. Limited is set when
// more matches existed than the limit allowed.
type SearchResult struct {
	Items   []Match
	Limited bool
	Scanned int
}
