// Package index maintains the set of content fingerprints present in the
// target tree.
//
// Only content identity matters for deduplication, so the index keeps no
// paths. It is owned by a single run: built once at run start and grown as
// the executor lands new files, never shrunk or persisted.
package index

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/W84aPo8/Merge-Music-Collections/internal/fingerprint"
	"github.com/W84aPo8/Merge-Music-Collections/internal/walker"
)

// Index is a concurrency-safe set of content fingerprints.
type Index struct {
	mu     sync.RWMutex
	hashes map[string]struct{}
}

// New returns an empty index.
func New() *Index {
	return &Index{hashes: make(map[string]struct{})}
}

// Add inserts a fingerprint. Adding an existing fingerprint is a no-op.
func (i *Index) Add(hash string) {
	i.mu.Lock()
	i.hashes[hash] = struct{}{}
	i.mu.Unlock()
}

// Contains reports whether content with this fingerprint is present.
func (i *Index) Contains(hash string) bool {
	i.mu.RLock()
	_, ok := i.hashes[hash]
	i.mu.RUnlock()
	return ok
}

// Len returns the number of distinct fingerprints.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.hashes)
}

// BuildOptions configures a full target scan.
type BuildOptions struct {
	Algorithm   fingerprint.Algorithm
	Concurrency int

	// ProgressInterval is how many processed files pass between OnProgress
	// calls. Zero disables progress reporting.
	ProgressInterval int64
	// OnProgress is called from hashing workers and must be safe for
	// concurrent use.
	OnProgress func(files int64)
	// OnError receives files whose fingerprint could not be computed.
	// Such files still count toward the returned file count but stay
	// invisible to dedup.
	OnError func(path string, err error)
}

const defaultConcurrency = 8

// Build scans every regular file under the walker's root and collects its
// fingerprint. It returns the populated index and the number of files seen.
// Per-file hash failures are reported through OnError and never abort the
// scan; only a structural walk failure does.
func Build(ctx context.Context, w *walker.Walker, opts BuildOptions) (*Index, int64, error) {
	idx := New()

	workers := opts.Concurrency
	if workers <= 0 {
		workers = defaultConcurrency
	}

	jobs := make(chan walker.FileInfo, 2*workers)
	var count atomic.Int64
	var wg sync.WaitGroup

	wg.Add(workers)
	for n := 0; n < workers; n++ {
		go func() {
			defer wg.Done()
			for fi := range jobs {
				if ctx.Err() != nil {
					// Drain without hashing once cancelled.
					continue
				}

				hash, err := fingerprint.File(fi.Path, opts.Algorithm)
				processed := count.Add(1)
				if err != nil {
					if opts.OnError != nil {
						opts.OnError(fi.Path, err)
					}
				} else {
					idx.Add(hash)
				}

				if opts.ProgressInterval > 0 && processed%opts.ProgressInterval == 0 && opts.OnProgress != nil {
					opts.OnProgress(processed)
				}
			}
		}()
	}

	walkErr := w.Walk(ctx, func(fi walker.FileInfo) error {
		jobs <- fi
		return nil
	})
	close(jobs)
	wg.Wait()

	if walkErr != nil {
		return nil, 0, walkErr
	}
	return idx, count.Load(), nil
}
