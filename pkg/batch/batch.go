// Package batch partitions an ordered file list into fixed-size batches so
// ingestion holds at most one batch of parsed tables in memory.
package batch

import "github.com/redline/redline/pkg/classify"

// DefaultSize is the default number of files per batch.
const DefaultSize = 100

// Batch is one contiguous slice of the input list.
type Batch struct {
	// Index is the 0-based batch number.
	Index int

	// Files are the descriptors in input order.
	Files []classify.FileDescriptor
}

// Count returns ceil(n/size), the number of batches a plan will produce.
func Count(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Plan partitions files into batches of at most size entries. Batch i covers
// index range [i*size, min((i+1)*size, n)): contiguous, non-overlapping, no
// gaps. The last batch may be smaller; an empty input yields no batches.
func Plan(files []classify.FileDescriptor, size int) []Batch {
	if size <= 0 {
		size = DefaultSize
	}
	n := len(files)
	if n == 0 {
		return nil
	}

	batches := make([]Batch, 0, Count(n, size))
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		batches = append(batches, Batch{
			Index: len(batches),
			Files: files[start:end],
		})
	}
	return batches
}
