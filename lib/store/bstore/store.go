package bstore

import (
	"time"

	"github.com/ValentinKolb/bolthelper/lib/common"
	"github.com/ValentinKolb/bolthelper/lib/db"
	"github.com/ValentinKolb/bolthelper/lib/store"
	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
)

// Options configures NewBoltStore.
type Options struct {
	// Mode is the access mode of the underlying file
	Mode db.Mode
	// Timeout bounds the wait for the file lock (see db.Options)
	Timeout time.Duration
	// Logger and Metrics are optional
	Logger  *logrus.Logger
	Metrics *common.Metrics
}

type storeImpl struct {
	db      *db.DB
	log     *logrus.Entry
	metrics *common.Metrics
}

// NewBoltStore opens the bolt file at path and returns a store on top of it.
// Every error is a *store.Error.
func NewBoltStore(path string, opts Options) (store.IStore, error) {
	handle, err := db.Open(path, db.Options{
		Mode:    opts.Mode,
		Timeout: opts.Timeout,
		Logger:  common.CreateLogger(opts.Logger, "db"),
	})
	if err != nil {
		return nil, store.AsError(err)
	}

	return &storeImpl{
		db:      handle,
		log:     common.CreateLogger(opts.Logger, "store"),
		metrics: opts.Metrics,
	}, nil
}

// --------------------------------------------------------------------------
// Transaction helpers
// --------------------------------------------------------------------------

func (s *storeImpl) view(fn func(tx *bbolt.Tx) error) error {
	return store.AsError(s.db.View(fn))
}

func (s *storeImpl) update(fn func(tx *bbolt.Tx) error) error {
	return store.AsError(s.db.Update(fn))
}

// entryOf builds an entry from a cursor position of b. k is copied since
// cursor memory is only valid inside the transaction.
func entryOf(b *bbolt.Bucket, k, v []byte) store.Entry {
	key := append([]byte(nil), k...)
	if v == nil && b.Bucket(k) != nil {
		return store.Entry{Key: key, Kind: store.KindBucket}
	}
	return store.Entry{Key: key, ValueSize: len(v), Kind: store.KindKey}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Info() (db.DatabaseInfo, error) {
	info, err := s.db.Info()
	return info, store.AsError(err)
}

func (s *storeImpl) Close() error {
	return store.AsError(s.db.Close())
}
