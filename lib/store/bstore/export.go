package bstore

import (
	"bytes"
	"io"

	"github.com/ValentinKolb/bolthelper/lib/codec"
	"github.com/ValentinKolb/bolthelper/lib/db/bucketpath"
	"github.com/ValentinKolb/bolthelper/lib/store"
	"go.etcd.io/bbolt"
)

// countingWriter counts the bytes written through it
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func (s *storeImpl) Export(path store.Path, prefix []byte, w io.Writer) (store.ExportSummary, error) {
	var summary store.ExportSummary

	err := s.view(func(tx *bbolt.Tx) error {
		b, err := bucketpath.Resolve(tx, path)
		if err != nil {
			return err
		}

		doc := codec.ExportDocument{
			Format:  codec.ExportFormat,
			Path:    append([]string{}, path...),
			Entries: exportEntries(b, prefix, &summary),
		}
		if prefix != nil {
			doc.PrefixBase64 = codec.EncodeBytes(prefix)
		}

		cw := &countingWriter{w: w}
		if err := codec.NewJSONSerializer(false).Encode(cw, doc); err != nil {
			return store.Wrap(store.RetCIOError, err, "failed to write export")
		}
		summary.Bytes = cw.n
		return nil
	})
	if err != nil {
		return store.ExportSummary{}, err
	}

	s.metrics.AddScanned("export", summary.Keys+summary.Buckets)
	s.log.WithField("path", path.String()).WithField("keys", summary.Keys).WithField("buckets", summary.Buckets).Info("bucket exported")
	return summary, nil
}

// exportEntries copies the entries of b carrying prefix (all if nil), and
// everything below nested buckets, into export entries.
func exportEntries(b *bbolt.Bucket, prefix []byte, summary *store.ExportSummary) []codec.ExportEntry {
	entries := []codec.ExportEntry{}

	c := b.Cursor()
	var k, v []byte
	if prefix != nil {
		k, v = c.Seek(prefix)
	} else {
		k, v = c.First()
	}
	for ; k != nil; k, v = c.Next() {
		if prefix != nil && !bytes.HasPrefix(k, prefix) {
			break
		}

		entry := codec.ExportEntry{KeyBase64: codec.EncodeBytes(k)}
		if child := bucketOf(b, k, v); child != nil {
			summary.Buckets++
			entry.Bucket = &codec.ExportBucket{Entries: exportEntries(child, nil, summary)}
		} else {
			summary.Keys++
			value := codec.EncodeBytes(v)
			entry.ValueBase64 = &value
		}
		entries = append(entries, entry)
	}
	return entries
}

// bucketOf returns the nested bucket at a cursor position, nil for keys
func bucketOf(b *bbolt.Bucket, k, v []byte) *bbolt.Bucket {
	if v != nil {
		return nil
	}
	return b.Bucket(k)
}
