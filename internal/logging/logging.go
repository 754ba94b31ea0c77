// Package logging configures zerolog for a merge run: console output on
// stderr plus a timestamped log file inside the target directory, so the
// record of what was copied travels with the copied data.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the run logger. Verbosity 0 logs info and above, 1 adds
// debug, 2 and higher adds trace. When logDir is non-empty a
// merge_YYYYMMDD_HHMMSS.log file is created there and receives every event
// as JSON; failure to create it degrades to console-only logging.
func Setup(verbosity int, quiet bool, logDir string) (zerolog.Logger, string) {
	level := zerolog.InfoLevel
	switch {
	case quiet:
		level = zerolog.ErrorLevel
	case verbosity == 1:
		level = zerolog.DebugLevel
	case verbosity >= 2:
		level = zerolog.TraceLevel
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 15:04:05",
	}

	writers := []io.Writer{consoleWriter}
	logPath := ""
	if logDir != "" {
		path := filepath.Join(logDir, fmt.Sprintf("merge_%s.log", time.Now().Format("20060102_150405")))
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			writers = append(writers, file)
			logPath = path
		}
	}

	log := zerolog.New(io.MultiWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	if logDir != "" && logPath == "" {
		log.Warn().Str("dir", logDir).Msg("could not create log file, logging to console only")
	}

	return log, logPath
}
