package store

import (
	"github.com/ValentinKolb/bolthelper/lib/codec"
	"github.com/ValentinKolb/bolthelper/lib/db"
	"github.com/ValentinKolb/bolthelper/lib/util"
	"github.com/dustin/go-humanize"
)

// --------------------------------------------------------------------------
// Conversion of results into wire envelopes
// --------------------------------------------------------------------------

// Envelope converts an entry into its wire form
func (e Entry) Envelope() codec.KeyEntry {
	return codec.KeyEntry{
		KeyBase64: codec.EncodeBytes(e.Key),
		ValueSize: e.ValueSize,
		IsBucket:  e.IsBucket(),
	}
}

// Envelope converts a page into the lsk result
func (p Page) Envelope() codec.KeyList {
	out := codec.KeyList{
		Items:          make([]codec.KeyEntry, 0, len(p.Items)),
		ApproxReturned: len(p.Items),
	}
	for _, e := range p.Items {
		out.Items = append(out.Items, e.Envelope())
	}
	if p.NextAfterKey != nil {
		next := codec.EncodeBytes(p.NextAfterKey)
		out.NextAfterKey = &next
	}
	return out
}

// Envelope converts a search result into the search command result
func (r SearchResult) Envelope() codec.SearchResult {
	out := codec.SearchResult{
		Items:   make([]codec.SearchItem, 0, len(r.Items)),
		Total:   len(r.Items),
		Limited: r.Limited,
		Scanned: r.Scanned,
	}
	for _, m := range r.Items {
		path := make([]string, len(m.Path))
		copy(path, m.Path)
		out.Items = append(out.Items, codec.SearchItem{
			Path:      path,
			KeyBase64: codec.EncodeBytes(m.Entry.Key),
			ValueSize: m.Entry.ValueSize,
			IsBucket:  m.Entry.IsBucket(),
			Type:      m.Type.String(),
		})
	}
	return out
}

// BucketListEnvelope converts sub-bucket names into the lsb result
func BucketListEnvelope(names [][]byte) codec.BucketList {
	out := codec.BucketList{
		Items: make([]codec.BucketName, 0, len(names)),
		Total: len(names),
	}
	for _, n := range names {
		out.Items = append(out.Items, codec.BucketName{
			Name:       string(n),
			NameBase64: codec.EncodeBytes(n),
		})
	}
	return out
}

// InfoEnvelope converts database metadata into the meta result
func InfoEnvelope(info db.DatabaseInfo) codec.MetaResult {
	size := info.SizeBytes
	if size < 0 {
		size = 0
	}
	return codec.MetaResult{
		Path:         info.Path,
		SizeBytes:    info.SizeBytes,
		SizeHuman:    humanize.IBytes(uint64(size)),
		PageSize:     info.PageSize,
		TxID:         info.TxID,
		FreePages:    info.FreePages,
		PendingPages: info.PendingPages,
		RootBuckets:  info.RootBuckets,
		ReadOnly:     info.ReadOnly,
		Valid:        true,
	}
}

// Envelope converts bucket statistics into the stats result
func (s BucketStats) Envelope(path Path) codec.StatsResult {
	sizes := util.NewStats(s.ValueSizes)
	return codec.StatsResult{
		Path:             path.String(),
		TotalItems:       s.Buckets + s.Keys,
		Buckets:          s.Buckets,
		Keys:             s.Keys,
		TotalValueSize:   sizes.Total,
		AverageValueSize: sizes.Mean,
		LargestValue:     sizes.Max,
		SmallestValue:    sizes.Min,
		MedianValue:      sizes.Median,
		StdDeviation:     sizes.StdDeviation,
		NestedKeys:       s.NestedKeys,
		Depth:            s.Depth,
		SizeHuman:        humanize.IBytes(uint64(sizes.Total)),
	}
}
