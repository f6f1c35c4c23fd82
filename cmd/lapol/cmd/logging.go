package cmd

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pacer/lapol/internal/lapol/config"
)

const maxLogFileSize = 5_000_000

// configureLogging installs the default structured logger. Every record
// carries the id of the current run.
func configureLogging(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler).With(slog.String("run_id", uuid.NewString()))
	slog.SetDefault(logger)

	return logger
}

// createLogFile opens the language server log in the user cache directory,
// truncating it once it grows past maxLogFileSize. Stdout carries the
// protocol, so failures fall back to stderr.
func createLogFile(path string) io.Writer {
	if path == "" {
		userCachePath, err := os.UserCacheDir()
		if err != nil {
			return os.Stderr
		}

		path = filepath.Join(userCachePath, "lapol", "lapol-lsp.log")
	}

	_ = os.MkdirAll(filepath.Dir(path), 0750)

	flags := os.O_APPEND | os.O_CREATE | os.O_WRONLY
	if info, err := os.Stat(path); err == nil && info.Size() >= maxLogFileSize {
		flags = os.O_TRUNC | os.O_CREATE | os.O_WRONLY
	}

	//nolint:gosec // log path is chosen by the user or derived from the cache dir
	file, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		return os.Stderr
	}

	return file
}
