// Package planner classifies source files against the target index.
//
// Planning is read-only: it never mutates the source tree, the target tree
// or the index, so the same pass drives both the dry-run report and the
// execute pre-flight summary. The executor re-walks and re-verifies before
// copying; the plan is a forecast, not a commitment.
package planner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/W84aPo8/Merge-Music-Collections/internal/fingerprint"
	"github.com/W84aPo8/Merge-Music-Collections/internal/index"
	"github.com/W84aPo8/Merge-Music-Collections/internal/walker"
	"github.com/W84aPo8/Merge-Music-Collections/pkg/logger"
	"github.com/W84aPo8/Merge-Music-Collections/pkg/stats"
)

const defaultConcurrency = 8

// Plan walks the source tree, fingerprints every admitted file and
// classifies it against idx. Counters are accumulated into run: source
// files, duplicates, bytes to copy, and per-file errors. A file whose
// fingerprint cannot be computed is counted as an error and appears in no
// classification.
//
// Hashing runs on a bounded worker pool; classification happens afterwards
// in walk order against the unchanged index, so results are deterministic.
func Plan(ctx context.Context, w *walker.Walker, idx *index.Index, run *stats.Run, opts Options) ([]Entry, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NullLogger{}
	}

	files, err := w.Files(ctx)
	if err != nil {
		return nil, fmt.Errorf("gather source files: %w", err)
	}

	type hashResult struct {
		checksum string
		err      error
	}
	results := make([]hashResult, len(files))

	workers := opts.Concurrency
	if workers <= 0 {
		workers = defaultConcurrency
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var analyzed atomic.Int64

	for i := range files {
		wg.Add(1)
		go func(pos int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				results[pos] = hashResult{err: ctx.Err()}
				return
			}

			checksum, err := fingerprint.File(files[pos].Path, opts.Algorithm)
			results[pos] = hashResult{checksum: checksum, err: err}

			n := analyzed.Add(1)
			if opts.ProgressInterval > 0 && n%opts.ProgressInterval == 0 {
				log.ScanProgress(PhaseAnalyze, n)
			}
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []Entry
	for i, fi := range files {
		res := results[i]
		if res.err != nil {
			run.Errors.Add(1)
			log.FileError("hash", fi.Path, res.err)
			continue
		}

		run.SourceFiles.Add(1)

		entry := Entry{
			RelPath:  fi.RelPath,
			Size:     fi.Size,
			Checksum: res.checksum,
		}
		if idx.Contains(res.checksum) {
			entry.Class = ClassDuplicate
			run.Duplicates.Add(1)
			log.Skip(fi.RelPath, "content already in target")
		} else {
			entry.Class = ClassToCopy
			run.BytesToCopy.Add(fi.Size)
		}
		entries = append(entries, entry)
	}

	log.Summary(PhaseAnalyze, run.Snapshot())
	return entries, nil
}
