package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/W84aPo8/Merge-Music-Collections/internal/config"
	"github.com/W84aPo8/Merge-Music-Collections/internal/fingerprint"
	"github.com/W84aPo8/Merge-Music-Collections/internal/index"
	"github.com/W84aPo8/Merge-Music-Collections/internal/logging"
	"github.com/W84aPo8/Merge-Music-Collections/internal/walker"
	"github.com/W84aPo8/Merge-Music-Collections/pkg/confirm"
	"github.com/W84aPo8/Merge-Music-Collections/pkg/executor"
	"github.com/W84aPo8/Merge-Music-Collections/pkg/logger"
	"github.com/W84aPo8/Merge-Music-Collections/pkg/planner"
	"github.com/W84aPo8/Merge-Music-Collections/pkg/space"
	"github.com/W84aPo8/Merge-Music-Collections/pkg/stats"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

var (
	dryRun         bool
	executeFlag    bool
	assumeYes      bool
	quiet          bool
	verbosity      int
	excludes       []string
	includes       []string
	hashName       string
	concurrency    int
	cfgFile        string
	planJSONFile   string
	resultJSONFile string
)

// PlanResult is the machine-readable dump of a planning pass.
type PlanResult struct {
	Files   []PlanFile  `json:"files"`
	Summary PlanSummary `json:"summary"`
}

type PlanFile struct {
	Action   string `json:"action"` // "copy" or "skip"
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

type PlanSummary struct {
	Copy  int   `json:"copy"`
	Skip  int   `json:"skip"`
	Bytes int64 `json:"bytes"`
}

// MergeResult is the machine-readable dump of an execute run.
type MergeResult struct {
	Summary stats.Snapshot `json:"summary"`
	LogFile string         `json:"log_file,omitempty"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "mergecp <SourceDir> <TargetDir>",
		Short: "Copy a directory tree, skipping files whose content already exists in the target",
		Long: `mergecp walks the source tree, fingerprints every file and copies only
those whose content is not yet present anywhere under the target,
preserving relative paths. Same-named files with different content are
renamed instead of overwritten. Nothing is ever deleted.`,
		Version: fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
		Args:    cobra.ExactArgs(2),
		RunE:    run,
	}

	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Analyze and report only, copy nothing")
	rootCmd.Flags().BoolVar(&executeFlag, "execute", false, "Perform the copy")
	rootCmd.Flags().BoolVar(&assumeYes, "yes", false, "Skip confirmation prompts")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress non-error output")
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.Flags().StringSliceVar(&excludes, "exclude", nil, "Exclude patterns (multiple allowed)")
	rootCmd.Flags().StringSliceVar(&includes, "include", nil, "Re-include patterns for excluded paths (multiple allowed)")
	rootCmd.Flags().StringVar(&hashName, "hash", "", "Fingerprint algorithm: md5 or xxh3")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Number of concurrent hashing workers")
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "Path to config file")
	rootCmd.Flags().StringVar(&planJSONFile, "plan-json-file", "", "Path to output the plan as JSON")
	rootCmd.Flags().StringVar(&resultJSONFile, "result-json-file", "", "Path to output the result as JSON")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if dryRun == executeFlag {
		return errors.New("exactly one of --dry-run or --execute must be given")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("hash") {
		cfg.Hash = hashName
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = concurrency
	}

	algo, err := fingerprint.ParseAlgorithm(cfg.Hash)
	if err != nil {
		return err
	}

	sourceRoot, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve source path: %w", err)
	}
	targetRoot, err := filepath.Abs(args[1])
	if err != nil {
		return fmt.Errorf("resolve target path: %w", err)
	}

	if executeFlag {
		if err := os.MkdirAll(targetRoot, 0o755); err != nil {
			return fmt.Errorf("target root not usable: %w", err)
		}
	}

	logDir := ""
	if info, err := os.Stat(targetRoot); err == nil && info.IsDir() {
		logDir = targetRoot
	}
	log, logPath := logging.Setup(verbosity, quiet, logDir)
	events := &logger.EventLogger{Log: log, IsDryRun: dryRun}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	walkOpts := walker.Options{
		Excludes:    excludes,
		Includes:    includes,
		IgnoreGlobs: cfg.Ignore,
	}

	log.Info().
		Str("source", sourceRoot).
		Str("target", targetRoot).
		Str("hash", string(algo)).
		Bool("dry_run", dryRun).
		Msg("merge starting")

	// Phase 1: index the target by content.
	var planRun stats.Run

	idx := index.New()
	var targetFiles int64
	if _, err := os.Stat(targetRoot); err == nil {
		targetWalkOpts := walkOpts
		targetWalkOpts.OnError = func(path string, werr error) {
			events.FileError("scan", path, werr)
		}
		tw, err := walker.New(targetRoot, targetWalkOpts)
		if err != nil {
			return fmt.Errorf("target root: %w", err)
		}
		idx, targetFiles, err = index.Build(ctx, tw, index.BuildOptions{
			Algorithm:        algo,
			Concurrency:      cfg.Concurrency,
			ProgressInterval: cfg.ProgressInterval,
			OnProgress: func(files int64) {
				events.ScanProgress(planner.PhaseScanTarget, files)
			},
			OnError: func(path string, werr error) {
				events.FileError("hash", path, werr)
			},
		})
		if err != nil {
			return fmt.Errorf("scan target: %w", err)
		}
	}
	planRun.TargetFiles.Store(targetFiles)
	log.Info().
		Int64("files", targetFiles).
		Int("distinct_fingerprints", idx.Len()).
		Msg("target scanned")

	// Phase 2: classify the source tree.
	sourceWalkOpts := walkOpts
	sourceWalkOpts.OnError = func(path string, werr error) {
		planRun.Errors.Add(1)
		events.FileError("scan", path, werr)
	}
	sw, err := walker.New(sourceRoot, sourceWalkOpts)
	if err != nil {
		return fmt.Errorf("source root: %w", err)
	}

	entries, err := planner.Plan(ctx, sw, idx, &planRun, planner.Options{
		Algorithm:        algo,
		Concurrency:      cfg.Concurrency,
		ProgressInterval: cfg.ProgressInterval,
		Logger:           events,
	})
	if err != nil {
		return fmt.Errorf("analyze source: %w", err)
	}

	if planJSONFile != "" {
		if err := writePlanResult(planJSONFile, entries); err != nil {
			return fmt.Errorf("write plan JSON: %w", err)
		}
	}

	planSnap := planRun.Snapshot()
	toCopy := planSnap.SourceFiles - planSnap.Duplicates

	report := space.Check(targetRoot, planSnap.BytesToCopy)
	logSpaceReport(log, report, planSnap.BytesToCopy)

	if dryRun {
		log.Info().
			Int64("new_files", toCopy).
			Str("bytes_needed", logger.FormatBytes(planSnap.BytesToCopy)).
			Msg("dry run complete, nothing copied")
		return nil
	}

	// Phase 3: confirm and copy.
	var gate confirm.Gate = &confirm.ConsoleGate{In: os.Stdin, Out: os.Stderr}
	if assumeYes {
		gate = confirm.AlwaysYes{}
	}

	prompt := fmt.Sprintf("Copy %d new files (%s) from %s to %s?",
		toCopy, logger.FormatBytes(planSnap.BytesToCopy), sourceRoot, targetRoot)
	ok, err := gate.Confirm(prompt)
	if err != nil {
		return err
	}
	if !ok {
		log.Warn().Msg("aborted by user")
		return errors.New("aborted by user")
	}

	if report.Known && !report.Sufficient {
		prompt := fmt.Sprintf("Target is short %s of free space. Continue anyway?",
			logger.FormatBytes(report.ShortfallBytes))
		ok, err := gate.Confirm(prompt)
		if err != nil {
			return err
		}
		if !ok {
			log.Warn().Msg("aborted: not enough free space")
			return errors.New("aborted: not enough free space")
		}
	}

	// The executor re-walks and re-verifies: its counters are the
	// authoritative result, so it gets a fresh set.
	var execRun stats.Run
	execRun.TargetFiles.Store(targetFiles)

	exec := executor.New(executor.Options{
		Algorithm:        algo,
		ProgressInterval: 100,
		Logger:           events,
	})
	execErr := exec.Execute(ctx, sw, targetRoot, idx, &execRun)

	finalSnap := execRun.Snapshot()
	if resultJSONFile != "" {
		result := MergeResult{Summary: finalSnap, LogFile: logPath}
		if err := writeMergeResult(resultJSONFile, result); err != nil {
			return fmt.Errorf("write result JSON: %w", err)
		}
	}

	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			log.Warn().
				Int64("copied", finalSnap.Copied).
				Int64("errors", finalSnap.Errors).
				Msg("interrupted; files copied so far remain in place")
		}
		return execErr
	}

	log.Info().
		Int64("copied", finalSnap.Copied).
		Int64("duplicates", finalSnap.Duplicates).
		Int64("errors", finalSnap.Errors).
		Str("bytes_copied", logger.FormatBytes(finalSnap.BytesCopied)).
		Str("log_file", logPath).
		Msg("merge complete")
	return nil
}

func logSpaceReport(log zerolog.Logger, report space.Report, needed int64) {
	if !report.Known {
		log.Warn().Msg("free space could not be determined, continuing without the space check")
		return
	}
	if report.Sufficient {
		log.Info().
			Str("free", logger.FormatBytes(report.FreeBytes)).
			Str("needed", logger.FormatBytes(needed)).
			Msg("enough free space at target")
		return
	}
	log.Warn().
		Str("free", logger.FormatBytes(report.FreeBytes)).
		Str("needed", logger.FormatBytes(needed)).
		Str("shortfall", logger.FormatBytes(report.ShortfallBytes)).
		Msg("not enough free space at target")
}

func writePlanResult(path string, entries []planner.Entry) error {
	plan := PlanResult{Files: []PlanFile{}}

	for _, e := range entries {
		file := PlanFile{
			Path:     e.RelPath,
			Size:     e.Size,
			Checksum: e.Checksum,
		}
		switch e.Class {
		case planner.ClassToCopy:
			file.Action = "copy"
			plan.Summary.Copy++
			plan.Summary.Bytes += e.Size
		case planner.ClassDuplicate:
			file.Action = "skip"
			plan.Summary.Skip++
		}
		plan.Files = append(plan.Files, file)
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func writeMergeResult(path string, result MergeResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
