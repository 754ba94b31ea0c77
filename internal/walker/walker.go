// Package walker enumerates the regular files under a directory tree.
//
// Symlinks are never followed: symlinked directories are not descended and
// non-regular entries are skipped. Per-file stat and directory read errors
// are routed to an error callback so a single unreadable entry never aborts
// a scan.
package walker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/W84aPo8/Merge-Music-Collections/pkg/fnmatch"
)

// FileInfo describes one regular file found during a walk.
type FileInfo struct {
	Path    string // absolute path
	RelPath string // relative to the walk root, slash-separated
	Size    int64
	ModTime time.Time
	Mode    os.FileMode
}

// Options configures a Walker.
type Options struct {
	// Excludes and Includes are shell-style patterns applied with
	// include-overrides-exclude ordering (see pkg/fnmatch).
	Excludes []string
	Includes []string

	// IgnoreGlobs are doublestar globs for configured junk files,
	// e.g. "**/.DS_Store".
	IgnoreGlobs []string

	// OnError receives per-entry failures (unreadable directory,
	// vanished file). May be nil.
	OnError func(path string, err error)
}

// Walker walks a single root directory.
type Walker struct {
	root    string
	filter  *fnmatch.Filter
	ignores []string
	onError func(path string, err error)
}

// New validates root and returns a Walker for it. A missing root or a root
// that is not a directory is a structural error, not a per-file one.
func New(root string, opts Options) (*Walker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	onError := opts.OnError
	if onError == nil {
		onError = func(string, error) {}
	}

	return &Walker{
		root:    absRoot,
		filter:  fnmatch.NewFilter(opts.Excludes, opts.Includes),
		ignores: opts.IgnoreGlobs,
		onError: onError,
	}, nil
}

// Root returns the absolute root the walker was built for.
func (w *Walker) Root() string {
	return w.root
}

// Walk calls fn for every admitted regular file under the root. Cancellation
// is observed between entries; fn errors abort the walk.
func (w *Walker) Walk(ctx context.Context, fn func(FileInfo) error) error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		if err != nil {
			if path == w.root {
				return err
			}
			w.onError(path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			return fmt.Errorf("get relative path: %w", err)
		}
		relPath = filepath.ToSlash(relPath)

		skip, err := w.skipped(relPath)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			w.onError(path, err)
			return nil
		}

		return fn(FileInfo{
			Path:    path,
			RelPath: relPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		})
	})
	if err != nil {
		return fmt.Errorf("walk directory: %w", err)
	}
	return nil
}

// Files collects every admitted file into a slice.
func (w *Walker) Files(ctx context.Context) ([]FileInfo, error) {
	var files []FileInfo
	err := w.Walk(ctx, func(fi FileInfo) error {
		files = append(files, fi)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (w *Walker) skipped(relPath string) (bool, error) {
	for _, glob := range w.ignores {
		matched, err := doublestar.Match(glob, relPath)
		if err != nil {
			return false, fmt.Errorf("ignore glob %q: %w", glob, err)
		}
		if matched {
			return true, nil
		}
	}
	return w.filter.Excluded(relPath)
}
