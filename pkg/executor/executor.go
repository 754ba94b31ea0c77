// Package executor performs the actual deduplicating copy.
//
// The executor re-walks the source tree independently of any earlier plan:
// target state may have changed while the user sat at the confirmation
// prompt, so this pass is the authoritative classification. The copy loop
// is strictly sequential — every decision is made against the live index,
// which guarantees that two identical source files in one run coalesce into
// a single copy.
package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/W84aPo8/Merge-Music-Collections/internal/fingerprint"
	"github.com/W84aPo8/Merge-Music-Collections/internal/index"
	"github.com/W84aPo8/Merge-Music-Collections/internal/walker"
	"github.com/W84aPo8/Merge-Music-Collections/pkg/logger"
	"github.com/W84aPo8/Merge-Music-Collections/pkg/planner"
	"github.com/W84aPo8/Merge-Music-Collections/pkg/stats"
)

// Options configures an Executor.
type Options struct {
	Algorithm fingerprint.Algorithm

	// ProgressInterval is how many copies pass between progress events.
	// Zero disables them.
	ProgressInterval int64

	Logger logger.Logger
}

// Executor copies source files whose content the target does not have yet.
type Executor struct {
	algo             fingerprint.Algorithm
	progressInterval int64
	logger           logger.Logger
}

// New returns an Executor.
func New(opts Options) *Executor {
	log := opts.Logger
	if log == nil {
		log = logger.NullLogger{}
	}
	return &Executor{
		algo:             opts.Algorithm,
		progressInterval: opts.ProgressInterval,
		logger:           log,
	}
}

// Execute walks the source tree and copies every file whose fingerprint is
// absent from idx into targetRoot, preserving relative paths, permissions
// and modification times. Per-file failures are counted into run.Errors and
// never abort the loop. Cancellation is observed between files; a partially
// written file at the moment of cancellation is left in place (documented
// artifact, no rollback). Counters accumulated before cancellation remain
// valid.
//
// The executor never deletes or overwrites an existing target file: a
// same-path collision with different content is resolved by renaming the
// incoming copy (stem_1.ext, stem_2.ext, ...).
func (e *Executor) Execute(ctx context.Context, w *walker.Walker, targetRoot string, idx *index.Index, run *stats.Run) error {
	absTarget, err := filepath.Abs(targetRoot)
	if err != nil {
		return fmt.Errorf("resolve target root: %w", err)
	}

	walkErr := w.Walk(ctx, func(fi walker.FileInfo) error {
		e.processFile(fi, absTarget, idx, run)
		return nil
	})

	e.logger.Summary(planner.PhaseCopy, run.Snapshot())

	if walkErr != nil {
		return walkErr
	}
	return nil
}

func (e *Executor) processFile(fi walker.FileInfo, targetRoot string, idx *index.Index, run *stats.Run) {
	hash, err := fingerprint.File(fi.Path, e.algo)
	if err != nil {
		run.Errors.Add(1)
		e.logger.FileError("hash", fi.Path, err)
		return
	}
	run.SourceFiles.Add(1)

	if idx.Contains(hash) {
		run.Duplicates.Add(1)
		e.logger.Skip(fi.RelPath, "content already in target")
		return
	}

	destPath := filepath.Join(targetRoot, filepath.FromSlash(fi.RelPath))

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		run.Errors.Add(1)
		e.logger.FileError("mkdir", destPath, err)
		return
	}

	if _, err := os.Lstat(destPath); err == nil {
		// Same path already occupied: re-check content before renaming.
		destHash, herr := fingerprint.File(destPath, e.algo)
		if herr == nil && destHash == hash {
			// Existing file was invisible to the index (e.g. it failed
			// to hash during the scan, or landed after it). Register it
			// now and count the source file as a duplicate.
			idx.Add(hash)
			run.Duplicates.Add(1)
			e.logger.Skip(fi.RelPath, "identical file at destination path")
			return
		}

		renamed, rerr := uniqueDestination(destPath)
		if rerr != nil {
			run.Errors.Add(1)
			e.logger.FileError("resolve collision", destPath, rerr)
			return
		}
		destPath = renamed
	} else if !os.IsNotExist(err) {
		run.Errors.Add(1)
		e.logger.FileError("stat destination", destPath, err)
		return
	}

	e.logger.Copy(fi.Path, destPath)
	if err := copyFile(fi, destPath); err != nil {
		run.Errors.Add(1)
		e.logger.FileError("copy", fi.Path, err)
		return
	}

	idx.Add(hash)
	copied := run.Copied.Add(1)
	run.BytesCopied.Add(fi.Size)

	if e.progressInterval > 0 && copied%e.progressInterval == 0 {
		e.logger.ScanProgress(planner.PhaseCopy, copied)
	}
}

// uniqueDestination appends _1, _2, ... to the filename stem until it finds
// a name not yet taken at the destination.
func uniqueDestination(path string) (string, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for counter := 1; ; counter++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
		_, err := os.Lstat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("probe %s: %w", candidate, err)
		}
	}
}

// copyFile copies content and metadata (permissions, mtime) to destPath,
// which must not exist yet. A half-written destination left by a failed
// copy is removed so the target never accumulates silent partial files.
func copyFile(fi walker.FileInfo, destPath string) error {
	in, err := os.Open(fi.Path)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fi.Mode.Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("copy content: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("close destination: %w", err)
	}

	if err := os.Chtimes(destPath, fi.ModTime, fi.ModTime); err != nil {
		return fmt.Errorf("set times: %w", err)
	}
	return nil
}
