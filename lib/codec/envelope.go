package codec

// --------------------------------------------------------------------------
// Listing
// --------------------------------------------------------------------------

// KeyEntry is one row of a key listing.
type KeyEntry struct {
	KeyBase64 string `json:"keyBase64"`
	ValueSize int    `json:"valueSize"`
	IsBucket  bool   `json:"isBucket"`
}

// KeyList is the result of the lsk command. NextAfterKey is omitted at the
// end of the data.
type KeyList struct {
	Items          []KeyEntry `json:"items"`
	NextAfterKey   *string    `json:"nextAfterKey,omitempty"`
	ApproxReturned int        `json:"approxReturned"`
}

// BucketName is one row of a bucket listing.
type BucketName struct {
	Name       string `json:"name"`
	NameBase64 string `json:"nameBase64"`
}

// BucketList is the result of the lsb command.
type BucketList struct {
	Items []BucketName `json:"items"`
	Total int          `json:"total"`
}

// --------------------------------------------------------------------------
// Search
// --------------------------------------------------------------------------

// Match types
const (
	MatchTypeKey   = "key"
	MatchTypeValue = "value"
)

// SearchItem is one search hit. Path locates the bucket holding the entry.
type SearchItem struct {
	Path      []string `json:"path"`
	KeyBase64 string   `json:"keyBase64"`
	ValueSize int      `json:"valueSize"`
	IsBucket  bool     `json:"isBucket"`
	Type      string   `json:"type"`
}

// SearchResult is the result of the search command.
type SearchResult struct {
	Items   []SearchItem `json:"items"`
	Total   int          `json:"total"`
	Limited bool         `json:"limited"`
	Scanned int          `json:"scanned"`
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

// Read modes
const (
	ModeHead = "head"
	ModeSave = "save"
)

// HeadResult is the result of get --mode head.
type HeadResult struct {
	Mode            string `json:"mode"`
	TotalSize       int    `json:"totalSize"`
	ValueHeadBase64 string `json:"valueHeadBase64"`
}

// SaveResult is the result of get --mode save.
type SaveResult struct {
	Mode      string `json:"mode"`
	TotalSize int    `json:"totalSize"`
	Out       string `json:"out"`
}

// ExportResult acknowledges an export.
type ExportResult struct {
	Out     string `json:"out"`
	Buckets int    `json:"buckets"`
	Keys    int    `json:"keys"`
	Bytes   int64  `json:"bytes"`
}

// --------------------------------------------------------------------------
// Metadata
// --------------------------------------------------------------------------

// MetaResult describes a store file.
type MetaResult struct {
	Path         string `json:"path"`
	SizeBytes    int64  `json:"sizeBytes"`
	SizeHuman    string `json:"sizeHuman"`
	PageSize     int    `json:"pageSize"`
	TxID         int    `json:"txId"`
	FreePages    int    `json:"freePages"`
	PendingPages int    `json:"pendingPages"`
	RootBuckets  int    `json:"rootBuckets"`
	ReadOnly     bool   `json:"readOnly"`
	Valid        bool   `json:"valid"`
}

// StatsResult summarises the immediate children of one bucket.
type StatsResult struct {
	Path             string  `json:"path"`
	TotalItems       int     `json:"totalItems"`
	Buckets          int     `json:"buckets"`
	Keys             int     `json:"keys"`
	TotalValueSize   int64   `json:"totalValueSize"`
	AverageValueSize float64 `json:"averageValueSize"`
	LargestValue     int     `json:"largestValue"`
	SmallestValue    int     `json:"smallestValue"`
	MedianValue      int     `json:"medianValueEstimate"`
	StdDeviation     float64 `json:"valueSizeStdDeviation"`
	NestedKeys       int     `json:"nestedKeys"`
	Depth            int     `json:"depth"`
	SizeHuman        string  `json:"sizeHuman"`
}

// --------------------------------------------------------------------------
// Writes
// --------------------------------------------------------------------------

// WriteAck acknowledges a successful write operation.
type WriteAck struct {
	OK        bool   `json:"ok"`
	Op        string `json:"op"`
	Path      string `json:"path"`
	KeyBase64 string `json:"keyBase64,omitempty"`
}

// VersionResult reports the helper and protocol versions.
type VersionResult struct {
	Version  string `json:"version"`
	Protocol int    `json:"protocol"`
}

// --------------------------------------------------------------------------
// Export document
// --------------------------------------------------------------------------

// ExportFormat identifies the export document layout.
const ExportFormat = "bolthelper-export/v1"

// ExportDocument is the file written by the export command.
type ExportDocument struct {
	Format       string        `json:"format"`
	Path         []string      `json:"path"`
	PrefixBase64 string        `json:"prefixBase64,omitempty"`
	Entries      []ExportEntry `json:"entries"`
}

// ExportEntry is either a key (ValueBase64 set) or a nested bucket (Bucket set).
type ExportEntry struct {
	KeyBase64   string        `json:"keyBase64"`
	ValueBase64 *string       `json:"valueBase64,omitempty"`
	Bucket      *ExportBucket `json:"bucket,omitempty"`
}

// ExportBucket holds the entries of a nested bucket.
type ExportBucket struct {
	Entries []ExportEntry `json:"entries"`
}
