// Package db owns the bolt database file of one helper invocation.
//
// The package focuses on:
//   - Opening an existing file in the least privileged mode the command needs
//     (shared lock for queries, exclusive lock for writes)
//   - Bounding the wait for the file lock so a second writer fails instead of
//     hanging forever
//   - Running transactions: View for reads, Update for all-or-nothing writes
//   - Reporting file metadata (DatabaseInfo) for the meta command
//
// bbolt provides the guarantees the helper relies on: a single writer at a
// time across processes, snapshot isolation for readers, and a commit protocol
// that leaves the file in its pre-transaction state when a writer is killed.
//
// Related Packages:
//
// The bucketpath package (github.com/ValentinKolb/bolthelper/lib/db/bucketpath)
// resolves bucket paths inside the transactions opened here.
//
// The bstore package (github.com/ValentinKolb/bolthelper/lib/store/bstore)
// builds the listing, search and mutation engines on top of a DB.
package db
