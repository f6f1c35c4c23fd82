package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"

	"github.com/spf13/cobra"

	"github.com/pacer/lapol/internal/lapol"
	"github.com/pacer/lapol/internal/lapol/config"
	"github.com/pacer/lapol/internal/lapol/parser"
)

var errCheckFailed = errors.New("syntax errors found")

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [PATH...]",
		Short: "Report syntax errors in files and directories",
		Long: `Parse every source file below the given paths (default: the current
directory) and print one line per failure. Directories are scanned for the
configured extensions, files are always parsed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}

			files, err := collectFiles(args, opts.cfg.Files)
			if err != nil {
				return err
			}

			return opts.check(cmd.OutOrStdout(), files)
		},
	}
}

// check parses 'files' concurrently and prints every failure.
func (o *rootOptions) check(out io.Writer, files map[string][]byte) error {
	parsed, errs := lapol.ParseFilesInWorkspace(files, o.syntax, parser.WithMaxDepth(o.cfg.Parser.MaxDepth))

	for _, err := range errs {
		fmt.Fprintln(out, err)
	}

	slog.Info("check finished",
		slog.Int("files", len(files)),
		slog.Int("failed", len(errs)),
	)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %d of %d files failed", errCheckFailed, len(errs), len(files))
	}

	_, err := fmt.Fprintf(out, "%d files ok\n", len(parsed))
	return err
}

// collectFiles reads every path: directories are scanned recursively for
// the configured extensions, files are read as given.
func collectFiles(paths []string, cfg config.FilesConfig) (map[string][]byte, error) {
	files := make(map[string][]byte)

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if info.IsDir() {
			found, err := lapol.OpenProjectFiles(path, cfg.Extensions, cfg.MaxDepth)
			if err != nil {
				return nil, err
			}

			maps.Copy(files, found)
			continue
		}

		//nolint:gosec // path is chosen by the user
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		files[path] = content
	}

	return files, nil
}
