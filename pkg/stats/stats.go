// Package stats holds the counters accumulated over one merge run.
package stats

import "sync/atomic"

// Run holds live counters for a single run. All fields are atomic so they
// can be written from hashing workers and read by progress reporting
// without locks. A Run is owned by exactly one run and never persisted.
type Run struct {
	SourceFiles atomic.Int64
	TargetFiles atomic.Int64
	Duplicates  atomic.Int64
	Copied      atomic.Int64
	Errors      atomic.Int64
	BytesToCopy atomic.Int64
	BytesCopied atomic.Int64
}

// Snapshot is a read-only copy of the counters at a point in time.
type Snapshot struct {
	SourceFiles int64 `json:"source_files"`
	TargetFiles int64 `json:"target_files"`
	Duplicates  int64 `json:"duplicates"`
	Copied      int64 `json:"copied"`
	Errors      int64 `json:"errors"`
	BytesToCopy int64 `json:"bytes_to_copy"`
	BytesCopied int64 `json:"bytes_copied"`
}

// Snapshot returns the current counter values.
func (r *Run) Snapshot() Snapshot {
	return Snapshot{
		SourceFiles: r.SourceFiles.Load(),
		TargetFiles: r.TargetFiles.Load(),
		Duplicates:  r.Duplicates.Load(),
		Copied:      r.Copied.Load(),
		Errors:      r.Errors.Load(),
		BytesToCopy: r.BytesToCopy.Load(),
		BytesCopied: r.BytesCopied.Load(),
	}
}
