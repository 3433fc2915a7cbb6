package db

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// Mode is the access mode a store file is opened in.
type Mode string

const (
	ModeReadOnly  Mode = "read-only"
	ModeReadWrite Mode = "read-write"
)

// DefaultLockTimeout is used when Options.Timeout is negative.
const DefaultLockTimeout = 5 * time.Second

// ErrReadOnly is returned by Update on a handle opened read-only.
var ErrReadOnly = errors.New("database is opened read-only")

// Options configures Open.
type Options struct {
	// Mode selects shared (read-only) or exclusive (read-write) access
	Mode Mode
	// Timeout bounds the wait for the file lock. Zero waits forever,
	// negative values select DefaultLockTimeout.
	Timeout time.Duration
	// Logger is optional
	Logger *logrus.Entry
}

// DatabaseInfo describes an open store file.
type DatabaseInfo struct {
	Path         string `json:"path"`
	SizeBytes    int64  `json:"size_bytes"`
	PageSize     int    `json:"page_size"`
	TxID         int    `json:"tx_id"`
	FreePages    int    `json:"free_pages"`
	PendingPages int    `json:"pending_pages"`
	RootBuckets  int    `json:"root_buckets"`
	ReadOnly     bool   `json:"read_only"`
}

// --------------------------------------------------------------------------
// Handle
// --------------------------------------------------------------------------

// DB is one open handle on a bolt file. It is owned by a single invocation
// and never shared.
type DB struct {
	bdb  *bbolt.DB
	mode Mode
	log  *logrus.Entry
}

// Open opens an existing bolt file. It never creates a new database, not even
// in read-write mode, and rejects empty files. Read-only handles take a shared lock on the file,
// read-write handles an exclusive one; bbolt.ErrTimeout is returned if the lock
// cannot be acquired within the timeout.
func Open(path string, opts Options) (*DB, error) {
	if opts.Mode == "" {
		opts.Mode = ModeReadOnly
	}
	if opts.Timeout < 0 {
		opts.Timeout = DefaultLockTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if info.IsDir() {
		return nil, errors.Errorf("failed to open database: %s is a directory", path)
	}
	if info.Size() == 0 {
		// bbolt would initialise an empty file as a new database
		return nil, errors.Wrapf(bbolt.ErrInvalid, "failed to open database %s: file is empty", path)
	}

	start := time.Now()
	bdb, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout:  opts.Timeout,
		ReadOnly: opts.Mode == ModeReadOnly,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}

	log.WithFields(logrus.Fields{
		"path":    path,
		"mode":    opts.Mode,
		"waited":  time.Since(start).String(),
		"sizeKiB": info.Size() / 1024,
	}).Debug("database opened")

	return &DB{bdb: bdb, mode: opts.Mode, log: log}, nil
}

// Mode returns the access mode of the handle
func (d *DB) Mode() Mode {
	return d.mode
}

// Path returns the file path of the handle
func (d *DB) Path() string {
	return d.bdb.Path()
}

// View runs fn in a read-only transaction.
func (d *DB) View(fn func(tx *bbolt.Tx) error) error {
	return d.bdb.View(fn)
}

// Update runs fn in a read-write transaction. The transaction is committed if
// fn returns nil and rolled back otherwise, so a failing fn leaves the file
// untouched.
func (d *DB) Update(fn func(tx *bbolt.Tx) error) error {
	if d.mode != ModeReadWrite {
		return ErrReadOnly
	}
	start := time.Now()
	err := d.bdb.Update(fn)
	d.log.WithField("took", time.Since(start).String()).WithField("committed", err == nil).Debug("write transaction finished")
	return err
}

// Info returns metadata about the file as seen by a fresh read transaction.
func (d *DB) Info() (info DatabaseInfo, err error) {
	err = d.bdb.View(func(tx *bbolt.Tx) error {
		info = DatabaseInfo{
			Path:     d.bdb.Path(),
			PageSize: d.bdb.Info().PageSize,
			TxID:     tx.ID(),
			ReadOnly: d.bdb.IsReadOnly(),
		}
		info.SizeBytes = tx.Size()
		return tx.ForEach(func(_ []byte, _ *bbolt.Bucket) error {
			info.RootBuckets++
			return nil
		})
	})
	if err != nil {
		return DatabaseInfo{}, err
	}

	stats := d.bdb.Stats()
	info.FreePages = stats.FreePageN
	info.PendingPages = stats.PendingPageN
	return info, nil
}

// Close closes the handle and releases the file lock.
func (d *DB) Close() error {
	return d.bdb.Close()
}
