// Package logger provides the structured runtime logger shared by every
// pipeline stage, plus a small diagnostic JSON dump utility used to
// persist build reports and last-lookup snapshots for offline
// inspection.
package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Log is the package-level structured logger. It starts as a no-op so
// importing this package never produces output on its own; cmd/hoverdict
// wires it to a console writer at startup via Init.
var Log = zerolog.Nop()

// Init attaches Log to a human-readable console writer at the given
// level. Call once, from main, before starting any pipeline stage.
func Init(level zerolog.Level) {
	Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Stage returns a logger pre-tagged with "stage", for use by a single
// pipeline stage's goroutine so every line it emits is attributable.
func Stage(name string) zerolog.Logger {
	return Log.With().Str("stage", name).Logger()
}

// InitLogs ensures dir exists and clears any stale *.json diagnostic
// dumps left over from a previous run, so LogJSON calls in this run
// aren't confused with leftovers.
func InitLogs(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	for _, f := range files {
		_ = os.Remove(f)
	}
	return nil
}

// LogJSON marshals data as indented JSON to "<dir>/<name>.json", writing
// to a temporary file first and renaming into place so a reader never
// sees a partial file. Used for the dictionary build report and the
// last pipeline lookup result, not for hot-path logging.
func LogJSON(dir, name string, data interface{}) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	final := filepath.Join(dir, filepath.Base(name)+".json")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
