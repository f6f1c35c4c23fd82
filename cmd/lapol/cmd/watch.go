package cmd

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pacer/lapol/internal/lapol"
)

const watchedOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Re-check source files whenever they change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("creating watcher: %w", err)
			}
			defer func() { _ = watcher.Close() }()

			if err := addWatchDirs(watcher, dir, opts.cfg.Files.MaxDepth); err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			files, err := lapol.OpenProjectFiles(dir, opts.cfg.Files.Extensions, opts.cfg.Files.MaxDepth)
			if err != nil {
				return err
			}
			_ = opts.check(out, files)

			slog.Info("watching for changes", slog.String("dir", dir), slog.Duration("debounce", debounce))

			return watchLoop(ctx, watcher.Events, watcher.Errors, debounce, func(names []string) {
				for _, name := range names {
					if info, err := os.Stat(name); err == nil && info.IsDir() {
						if err := watcher.Add(name); err != nil {
							slog.Warn("unable to watch directory", slog.String("dir", name), slog.String("error", err.Error()))
						}
					}
				}

				opts.recheck(out, names)
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "delay before re-checking a burst of changes")

	return cmd
}

// addWatchDirs watches 'root' and its non-hidden sub-directories down to
// 'maxDepth' levels.
func addWatchDirs(watcher *fsnotify.Watcher, root string, maxDepth int) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !entry.IsDir() {
			return nil
		}

		if path != root && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}

		if rel, err := filepath.Rel(root, path); err == nil && rel != "." {
			if depth := strings.Count(rel, string(filepath.Separator)) + 1; depth > maxDepth {
				return filepath.SkipDir
			}
		}

		return watcher.Add(path)
	})
}

// watchLoop collects file events and calls 'onChange' with the sorted,
// de-duplicated names once no event arrived for 'delay'. It returns when
// 'ctx' is done or the event channel is closed.
func watchLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	delay time.Duration,
	onChange func(names []string),
) error {
	pending := make(map[string]struct{})

	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}

			if event.Op&watchedOps == 0 {
				continue
			}

			pending[event.Name] = struct{}{}
			timer.Reset(delay)

		case err, ok := <-errs:
			if !ok {
				return nil
			}

			slog.Warn("watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}

			names := slices.Sorted(maps.Keys(pending))
			clear(pending)
			onChange(names)
		}
	}
}

// recheck parses the changed source files and reports each of them.
func (o *rootOptions) recheck(out io.Writer, names []string) {
	for _, name := range names {
		if !lapol.HasFileExtension(name, o.cfg.Files.Extensions) {
			continue
		}

		//nolint:gosec // name comes from the watcher
		source, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintf(out, "%s: removed\n", name)
			continue
		}

		if _, err := o.parseFile(name, source); err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		fmt.Fprintf(out, "%s: ok\n", name)
	}
}
