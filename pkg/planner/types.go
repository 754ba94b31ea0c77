package planner

import (
	"github.com/W84aPo8/Merge-Music-Collections/internal/fingerprint"
	"github.com/W84aPo8/Merge-Music-Collections/pkg/logger"
)

// Classification says what the executor would do with a source file.
type Classification string

const (
	// ClassDuplicate means the file's content already exists somewhere in
	// the target; it will not be copied.
	ClassDuplicate Classification = "duplicate"
	// ClassToCopy means the content is new to the target.
	ClassToCopy Classification = "to-copy"
)

// Entry is one source file's planned outcome.
type Entry struct {
	// RelPath is the path relative to the source root, slash-separated.
	RelPath string
	Size    int64
	Class   Classification
	// Checksum is the content fingerprint computed during planning.
	Checksum string
}

// Options configures a planning pass.
type Options struct {
	Algorithm   fingerprint.Algorithm
	Concurrency int

	// ProgressInterval is how many analyzed files pass between progress
	// events. Zero disables them.
	ProgressInterval int64

	Logger logger.Logger
}

// Phase names used in progress and summary events.
const (
	PhaseScanTarget = "scan-target"
	PhaseAnalyze    = "analyze"
	PhaseCopy       = "copy"
)
