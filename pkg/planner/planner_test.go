package planner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/W84aPo8/Merge-Music-Collections/internal/fingerprint"
	"github.com/W84aPo8/Merge-Music-Collections/internal/index"
	"github.com/W84aPo8/Merge-Music-Collections/internal/walker"
	"github.com/W84aPo8/Merge-Music-Collections/pkg/stats"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func indexOf(t *testing.T, contents ...string) *index.Index {
	t.Helper()
	idx := index.New()
	for _, c := range contents {
		hash, err := fingerprint.Reader(strings.NewReader(c), fingerprint.MD5)
		require.NoError(t, err)
		idx.Add(hash)
	}
	return idx
}

func sourceWalker(t *testing.T, root string) *walker.Walker {
	t.Helper()
	w, err := walker.New(root, walker.Options{})
	require.NoError(t, err)
	return w
}

func TestPlanClassifiesAgainstIndex(t *testing.T) {
	source := t.TempDir()
	writeFile(t, source, "known.txt", "already there")
	writeFile(t, source, "fresh.txt", "new content")
	writeFile(t, source, "albums/fresh2.txt", "more new content")

	idx := indexOf(t, "already there")
	var run stats.Run

	entries, err := Plan(context.Background(), sourceWalker(t, source), idx, &run, Options{
		Algorithm: fingerprint.MD5,
	})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byPath := make(map[string]Entry)
	for _, e := range entries {
		byPath[e.RelPath] = e
	}

	assert.Equal(t, ClassDuplicate, byPath["known.txt"].Class)
	assert.Equal(t, ClassToCopy, byPath["fresh.txt"].Class)
	assert.Equal(t, ClassToCopy, byPath["albums/fresh2.txt"].Class)

	snap := run.Snapshot()
	assert.Equal(t, int64(3), snap.SourceFiles)
	assert.Equal(t, int64(1), snap.Duplicates)
	assert.Equal(t, int64(len("new content")+len("more new content")), snap.BytesToCopy)
	assert.Zero(t, snap.Errors)
}

func TestPlanLogsSkipsAndSummary(t *testing.T) {
	source := t.TempDir()
	writeFile(t, source, "known.txt", "already there")
	writeFile(t, source, "fresh.txt", "new content")

	idx := indexOf(t, "already there")
	var run stats.Run
	mock := &mockLogger{}

	_, err := Plan(context.Background(), sourceWalker(t, source), idx, &run, Options{
		Algorithm: fingerprint.MD5,
		Logger:    mock,
	})
	require.NoError(t, err)

	require.Len(t, mock.skipCalls, 1)
	assert.Equal(t, "known.txt", mock.skipCalls[0].path)
	assert.Equal(t, "content already in target", mock.skipCalls[0].reason)

	require.Len(t, mock.summaryCalls, 1)
	assert.Equal(t, PhaseAnalyze, mock.summaryCalls[0].phase)
	assert.Equal(t, int64(2), mock.summaryCalls[0].snap.SourceFiles)
	assert.Empty(t, mock.errorCalls)
}

func TestPlanDuplicateSuppressionIgnoresPath(t *testing.T) {
	// Same content under a different relative path still counts as a
	// duplicate: dedup is by content identity, not location.
	source := t.TempDir()
	writeFile(t, source, "copy/x.bin", "Z")

	idx := indexOf(t, "Z")
	var run stats.Run

	entries, err := Plan(context.Background(), sourceWalker(t, source), idx, &run, Options{
		Algorithm: fingerprint.MD5,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ClassDuplicate, entries[0].Class)
	assert.Equal(t, int64(1), run.Snapshot().Duplicates)
}

func TestPlanEmptySource(t *testing.T) {
	var run stats.Run
	entries, err := Plan(context.Background(), sourceWalker(t, t.TempDir()), index.New(), &run, Options{
		Algorithm: fingerprint.MD5,
	})
	require.NoError(t, err)
	assert.Empty(t, entries)

	snap := run.Snapshot()
	assert.Zero(t, snap.SourceFiles)
	assert.Zero(t, snap.Duplicates)
	assert.Zero(t, snap.BytesToCopy)
	assert.Zero(t, snap.Errors)
}

func TestPlanIsReadOnly(t *testing.T) {
	source := t.TempDir()
	writeFile(t, source, "a.txt", "same content")
	writeFile(t, source, "b.txt", "same content")

	idx := index.New()
	var run stats.Run

	entries, err := Plan(context.Background(), sourceWalker(t, source), idx, &run, Options{
		Algorithm: fingerprint.MD5,
	})
	require.NoError(t, err)

	// Planning never grows the index, so two identical new files both
	// forecast as to-copy; the executor's live index coalesces them.
	require.Len(t, entries, 2)
	assert.Equal(t, ClassToCopy, entries[0].Class)
	assert.Equal(t, ClassToCopy, entries[1].Class)
	assert.Zero(t, idx.Len())
}

func TestPlanCountsUnhashableAsError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	source := t.TempDir()
	writeFile(t, source, "ok.txt", "fine")
	writeFile(t, source, "locked.txt", "secret")
	require.NoError(t, os.Chmod(filepath.Join(source, "locked.txt"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(source, "locked.txt"), 0o644) })

	var run stats.Run
	entries, err := Plan(context.Background(), sourceWalker(t, source), index.New(), &run, Options{
		Algorithm: fingerprint.MD5,
	})
	require.NoError(t, err)

	// The unreadable file is neither a duplicate nor to-copy.
	require.Len(t, entries, 1)
	assert.Equal(t, "ok.txt", entries[0].RelPath)

	snap := run.Snapshot()
	assert.Equal(t, int64(1), snap.SourceFiles)
	assert.Equal(t, int64(1), snap.Errors)
	assert.Zero(t, snap.Duplicates)
}

func TestPlanCancelled(t *testing.T) {
	source := t.TempDir()
	writeFile(t, source, "a.txt", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var run stats.Run
	_, err := Plan(ctx, sourceWalker(t, source), index.New(), &run, Options{
		Algorithm: fingerprint.MD5,
	})
	assert.ErrorIs(t, err, context.Canceled)
}
