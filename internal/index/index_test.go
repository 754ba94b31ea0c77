package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/W84aPo8/Merge-Music-Collections/internal/fingerprint"
	"github.com/W84aPo8/Merge-Music-Collections/internal/walker"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAddContains(t *testing.T) {
	idx := New()
	assert.False(t, idx.Contains("abc"))

	idx.Add("abc")
	assert.True(t, idx.Contains("abc"))
	assert.Equal(t, 1, idx.Len())

	idx.Add("abc")
	assert.Equal(t, 1, idx.Len())
}

func TestAddConcurrent(t *testing.T) {
	idx := New()
	var wg sync.WaitGroup
	for n := 0; n < 8; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx.Add("shared")
			idx.Contains("shared")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, idx.Len())
}

func TestBuildCollectsDistinctContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "content A")
	writeFile(t, root, "sub/b.txt", "content B")
	writeFile(t, root, "sub/copy-of-a.txt", "content A")

	w, err := walker.New(root, walker.Options{})
	require.NoError(t, err)

	idx, count, err := Build(context.Background(), w, BuildOptions{Algorithm: fingerprint.MD5})
	require.NoError(t, err)

	assert.Equal(t, int64(3), count)
	// Identical content collapses to one fingerprint.
	assert.Equal(t, 2, idx.Len())

	hash, err := fingerprint.File(filepath.Join(root, "a.txt"), fingerprint.MD5)
	require.NoError(t, err)
	assert.True(t, idx.Contains(hash))
}

func TestBuildEmptyTarget(t *testing.T) {
	w, err := walker.New(t.TempDir(), walker.Options{})
	require.NoError(t, err)

	idx, count, err := Build(context.Background(), w, BuildOptions{Algorithm: fingerprint.MD5})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, idx.Len())
}

func TestBuildProgressCallback(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d"} {
		writeFile(t, root, name, name)
	}

	w, err := walker.New(root, walker.Options{})
	require.NoError(t, err)

	var mu sync.Mutex
	var reported []int64
	_, count, err := Build(context.Background(), w, BuildOptions{
		Algorithm:        fingerprint.MD5,
		Concurrency:      1,
		ProgressInterval: 2,
		OnProgress: func(files int64) {
			mu.Lock()
			reported = append(reported, files)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.ElementsMatch(t, []int64{2, 4}, reported)
}

func TestBuildCountsUnhashableFiles(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := t.TempDir()
	writeFile(t, root, "ok.txt", "fine")
	writeFile(t, root, "locked.txt", "secret")
	require.NoError(t, os.Chmod(filepath.Join(root, "locked.txt"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(root, "locked.txt"), 0o644) })

	w, err := walker.New(root, walker.Options{})
	require.NoError(t, err)

	var mu sync.Mutex
	var failed []string
	idx, count, err := Build(context.Background(), w, BuildOptions{
		Algorithm: fingerprint.MD5,
		OnError: func(path string, err error) {
			mu.Lock()
			failed = append(failed, filepath.Base(path))
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), count)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, []string{"locked.txt"}, failed)
}
