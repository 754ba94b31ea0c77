// Package logger defines the event sink the copy engine reports through.
//
// The engine emits scan progress, per-file classifications, copy events,
// per-file errors and phase summaries; where those events end up (console,
// log file, test recorder) is the sink implementation's business.
package logger

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/W84aPo8/Merge-Music-Collections/pkg/stats"
)

// Logger receives structured events from the scan, plan and copy phases.
type Logger interface {
	// ScanProgress is emitted periodically while a tree is being scanned.
	ScanProgress(phase string, files int64)
	// Copy is emitted when a file transfer starts (or would start, in
	// dry-run mode).
	Copy(source, dest string)
	// Skip is emitted when a source file is classified as a duplicate.
	Skip(path, reason string)
	// FileError is emitted for per-file failures; these never abort a run.
	FileError(operation, path string, err error)
	// Summary is emitted once at the end of a phase.
	Summary(phase string, snap stats.Snapshot)
}

// EventLogger writes events through zerolog.
type EventLogger struct {
	Log      zerolog.Logger
	IsDryRun bool
}

func (l *EventLogger) ScanProgress(phase string, files int64) {
	l.Log.Info().
		Str("phase", phase).
		Int64("files", files).
		Msg("scan progress")
}

func (l *EventLogger) Copy(source, dest string) {
	evt := l.Log.Info().
		Str("source", source).
		Str("dest", dest)
	if l.IsDryRun {
		evt.Msg("(dryrun) copy")
		return
	}
	evt.Msg("copy")
}

func (l *EventLogger) Skip(path, reason string) {
	l.Log.Debug().
		Str("path", path).
		Str("reason", reason).
		Msg("skip")
}

func (l *EventLogger) FileError(operation, path string, err error) {
	l.Log.Error().
		Err(err).
		Str("operation", operation).
		Str("path", path).
		Msg("file error")
}

func (l *EventLogger) Summary(phase string, snap stats.Snapshot) {
	l.Log.Info().
		Str("phase", phase).
		Int64("source_files", snap.SourceFiles).
		Int64("target_files", snap.TargetFiles).
		Int64("duplicates", snap.Duplicates).
		Int64("copied", snap.Copied).
		Int64("errors", snap.Errors).
		Str("bytes_to_copy", FormatBytes(snap.BytesToCopy)).
		Str("bytes_copied", FormatBytes(snap.BytesCopied)).
		Msg("summary")
}

// NullLogger discards every event.
type NullLogger struct{}

func (NullLogger) ScanProgress(string, int64)      {}
func (NullLogger) Copy(string, string)             {}
func (NullLogger) Skip(string, string)             {}
func (NullLogger) FileError(string, string, error) {}
func (NullLogger) Summary(string, stats.Snapshot)  {}

// FormatBytes renders a byte count in human readable form.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
