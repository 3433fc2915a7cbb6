// Package bucketpath parses bucket paths and resolves them inside a bbolt
// transaction.
//
// A path is the sequence of bucket names from the root to a target bucket.
// On the wire it is written as the names joined with "/"; names that contain
// "/" themselves cannot be addressed. The empty path denotes the root bucket,
// which holds only buckets and can neither be created nor deleted.
package bucketpath

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"go.etcd.io/bbolt"
)

// Separator joins path segments on the wire.
const Separator = "/"

var (
	// ErrNotFound is returned when a path segment does not exist.
	ErrNotFound = errors.New("bucket not found")
	// ErrNotABucket is returned when a path segment names a key.
	ErrNotABucket = errors.New("not a bucket")
	// ErrInvalid is returned for malformed paths and for operations that
	// need a named bucket but got the root.
	ErrInvalid = errors.New("invalid bucket path")
)

// Error locates a resolution failure at one segment of a path.
type Error struct {
	Path    Path
	Segment int
	Err     error
}

func (e *Error) Error() string {
	if e.Segment < 0 || e.Segment >= len(e.Path) {
		return fmt.Sprintf("%s: %q", e.Err, e.Path.String())
	}
	return fmt.Sprintf("%s: %q", e.Err, e.Path[:e.Segment+1].String())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// --------------------------------------------------------------------------
// Path
// --------------------------------------------------------------------------

// Path is an ordered sequence of bucket names, root first.
type Path []string

// Parse splits a wire path. One leading and one trailing separator are
// ignored, so "a/b", "/a/b" and "a/b/" are the same path. "" and "/" are the
// root. Empty inner segments ("a//b") are rejected.
func Parse(s string) (Path, error) {
	s = strings.TrimPrefix(s, Separator)
	s = strings.TrimSuffix(s, Separator)
	if s == "" {
		return Path{}, nil
	}
	segments := strings.Split(s, Separator)
	for i, seg := range segments {
		if seg == "" {
			return nil, &Error{Path: segments, Segment: i, Err: ErrInvalid}
		}
	}
	return segments, nil
}

// String joins the path for the wire.
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// IsRoot reports whether p is the root path.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Parent returns the path without its last segment. The parent of the root
// is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return p[:len(p)-1:len(p)-1]
}

// Name returns the last segment, or "" for the root.
func (p Path) Name() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Child returns a new path with name appended. p is not modified.
func (p Path) Child(name string) Path {
	child := make(Path, len(p), len(p)+1)
	copy(child, p)
	return append(child, name)
}

// --------------------------------------------------------------------------
// Resolution
// --------------------------------------------------------------------------

// Root returns the root bucket of tx. bbolt does not export it directly, but
// every root cursor is bound to it.
func Root(tx *bbolt.Tx) *bbolt.Bucket {
	return tx.Cursor().Bucket()
}

// Resolve opens the buckets of p in order, starting at the root.
func Resolve(tx *bbolt.Tx, p Path) (*bbolt.Bucket, error) {
	b := Root(tx)
	for i, name := range p {
		child := b.Bucket([]byte(name))
		if child == nil {
			if _, _, found := Lookup(b, []byte(name)); found {
				return nil, &Error{Path: p, Segment: i, Err: ErrNotABucket}
			}
			return nil, &Error{Path: p, Segment: i, Err: ErrNotFound}
		}
		b = child
	}
	return b, nil
}

// ResolveParent resolves the bucket that holds the last segment of p and
// returns it together with that segment. The root has no parent.
func ResolveParent(tx *bbolt.Tx, p Path) (*bbolt.Bucket, []byte, error) {
	if p.IsRoot() {
		return nil, nil, &Error{Path: p, Segment: -1, Err: ErrInvalid}
	}
	parent, err := Resolve(tx, p.Parent())
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) {
			pe.Path = p
		}
		return nil, nil, err
	}
	return parent, []byte(p.Name()), nil
}

// Lookup reports what name denotes inside b. Value is nil for buckets.
// It uses a cursor rather than Get so that keys holding an empty value are
// still reported as found.
func Lookup(b *bbolt.Bucket, name []byte) (value []byte, isBucket bool, found bool) {
	k, v := b.Cursor().Seek(name)
	if k == nil || !bytes.Equal(k, name) {
		return nil, false, false
	}
	if v == nil && b.Bucket(name) != nil {
		return nil, true, true
	}
	return v, false, true
}
