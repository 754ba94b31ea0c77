package planner

import (
	"sync"

	"github.com/W84aPo8/Merge-Music-Collections/pkg/stats"
)

// mockLogger is a recording implementation of logger.Logger for testing.
type mockLogger struct {
	mu            sync.Mutex
	progressCalls []progressCall
	skipCalls     []skipCall
	errorCalls    []errorCall
	summaryCalls  []summaryCall
	copyCalls     []copyCall
}

type progressCall struct {
	phase string
	files int64
}

type copyCall struct {
	source string
	dest   string
}

type skipCall struct {
	path   string
	reason string
}

type errorCall struct {
	operation string
	path      string
	err       error
}

type summaryCall struct {
	phase string
	snap  stats.Snapshot
}

func (m *mockLogger) ScanProgress(phase string, files int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progressCalls = append(m.progressCalls, progressCall{phase, files})
}

func (m *mockLogger) Copy(source, dest string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.copyCalls = append(m.copyCalls, copyCall{source, dest})
}

func (m *mockLogger) Skip(path, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipCalls = append(m.skipCalls, skipCall{path, reason})
}

func (m *mockLogger) FileError(operation, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCalls = append(m.errorCalls, errorCall{operation, path, err})
}

func (m *mockLogger) Summary(phase string, snap stats.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaryCalls = append(m.summaryCalls, summaryCall{phase, snap})
}
