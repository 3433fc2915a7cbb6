package util

import (
	"math"
)

// ----------------------------------------------------------------------------
// Stats
// ----------------------------------------------------------------------------

// Stats describes a set of sizes
type Stats struct {
	Total        int64   `json:"total"`
	StdDeviation float64 `json:"std_deviation"`
	Min          int     `json:"min"`
	Max          int     `json:"max"`
	Mean         float64 `json:"mean"`
	Median       int     `json:"median"`
}

// NewStats computes total, mean, standard deviation, minimum, maximum
// and an estimated median from an array of sizes.
func NewStats(sizes []int) Stats {
	if len(sizes) == 0 {
		return Stats{}
	}

	// initialize min and max with the first value
	min := sizes[0]
	max := sizes[0]

	hist := NewSizeHistogram()

	// calculate sum for mean
	var sum int64
	for _, v := range sizes {
		sum += int64(v)
		hist.AddSample(v)

		// update min and max while iterating
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	mean := float64(sum) / float64(len(sizes))

	// calculate sum of squared differences from mean
	var sumSquaredDiffs float64
	for _, v := range sizes {
		diff := float64(v) - mean
		sumSquaredDiffs += diff * diff
	}

	return Stats{
		Total:        sum,
		StdDeviation: math.Sqrt(sumSquaredDiffs / float64(len(sizes))),
		Min:          min,
		Max:          max,
		Mean:         mean,
		Median:       hist.PercentileEstimate(50),
	}
}

// ----------------------------------------------------------------------------
// SizeHistogram
// ----------------------------------------------------------------------------

// SizeHistogram tracks the distribution of value sizes in exponential buckets,
// covering bytes to gigabytes with constant memory.
type SizeHistogram struct {
	boundaries []int   // Bucket boundaries covering byte to GB range
	buckets    []int64 // Count of items in each bucket
	count      int64   // Total number of samples
	sum        int64   // Sum of all sampled sizes
}

// NewSizeHistogram creates a new size histogram with default bucket boundaries
func NewSizeHistogram() *SizeHistogram {
	boundaries := []int{
		16, 64, 256, 1024, 4096, // Bytes: 16B to 4KB
		16384, 65536, 262144, 1048576, // KB range: 16KB to 1MB
		4194304, 16777216, 67108864, // MB range: 4MB to 64MB
		268435456, 1073741824, // 256MB to 1GB (bolt caps values below 2GB)
	}
	return &SizeHistogram{
		boundaries: boundaries,
		buckets:    make([]int64, len(boundaries)+1), // +1 for larger values
	}
}

// AddSample adds a size sample to the histogram
func (h *SizeHistogram) AddSample(size int) {
	bucketIndex := len(h.boundaries)
	for i, boundary := range h.boundaries {
		if size <= boundary {
			bucketIndex = i
			break
		}
	}

	h.buckets[bucketIndex]++
	h.count++
	h.sum += int64(size)
}

// Count returns the total number of samples
func (h *SizeHistogram) Count() int64 {
	return h.count
}

// PercentileEstimate returns an estimate for the given percentile (0-100)
func (h *SizeHistogram) PercentileEstimate(percentile int) int {
	if h.count == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	targetCount := int64(math.Ceil(float64(h.count) * float64(percentile) / 100.0))
	cumulativeCount := int64(0)

	for i, count := range h.buckets {
		cumulativeCount += count
		if cumulativeCount >= targetCount {
			switch {
			case i == 0:
				// first bucket: half of the boundary
				return h.boundaries[0] / 2
			case i < len(h.boundaries):
				// middle buckets: average of the boundaries
				return (h.boundaries[i-1] + h.boundaries[i]) / 2
			default:
				// last bucket: 2x the last boundary
				return h.boundaries[len(h.boundaries)-1] * 2
			}
		}
	}

	return int(h.sum / h.count)
}
