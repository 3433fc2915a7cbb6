// Package bstore implements store.IStore on top of a bbolt database file.
//
// A store is opened once per helper invocation, in the mode the command needs,
// and closed before the process exits. It is the request scoped object of an
// invocation: it holds the open db handle, the component logger and the
// metrics set, and every engine runs as a method on it.
//
// Engines:
//
//   - Listing (list.go): resumable forward iteration over one bucket in bbolt's
//     native byte order. A page ends either at the limit, in which case the last
//     returned key is handed back as the cursor, or at the end of the data.
//     Resuming seeks to the cursor and skips it, so no entry is returned twice.
//     With a prefix the iteration starts at the prefix and stops at the first
//     key without it, since matching keys are contiguous.
//
//   - Search (search.go): depth-first pre-order walk of the bucket tree below
//     a root. Every entry name is tested for substring containment (Unicode case
//     folded unless case sensitive); matched buckets are still descended into.
//     The walk stops as soon as one match more than the limit is found, which
//     sets Limited.
//
//   - Mutations (mutate.go): create-bucket, put, delete-key and delete-bucket,
//     each inside a single bbolt write transaction. Any failure returns an
//     error from the transaction function, so bbolt rolls the whole
//     transaction back.
//
//   - Reads (read.go, export.go): head reads, full value copies and subtree
//     exports, all inside one read transaction so they see a single snapshot.
//
// Thread Safety:
//
//	A store is used by one goroutine. bbolt serialises writers across
//	processes through its file lock; readers see the snapshot taken when their
//	transaction began.
//
// Usage Example:
//
//	s, err := bstore.NewBoltStore("app.db", bstore.Options{Mode: db.ModeReadOnly})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	page, err := s.List(store.Path{"users"}, store.ListOptions{Limit: 100})
package bstore
