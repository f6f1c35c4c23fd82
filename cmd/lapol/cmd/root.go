package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pacer/lapol/internal/lapol"
	"github.com/pacer/lapol/internal/lapol/config"
	"github.com/pacer/lapol/internal/lapol/lexer"
	"github.com/pacer/lapol/internal/lapol/parser"
)

// rootOptions is shared by every sub-command. 'cfg' and 'syntax' are set
// once the configuration has been loaded.
type rootOptions struct {
	cfgFile   string
	verbose   bool
	logFormat string

	cfg    *config.Config
	syntax lexer.Config
}

func (o *rootOptions) parserOptions(extra ...parser.Option) []parser.Option {
	opts := []parser.Option{
		parser.WithConfig(o.syntax),
		parser.WithMaxDepth(o.cfg.Parser.MaxDepth),
	}

	return append(opts, extra...)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "lapol",
		Short: "LaPoL markup front end",
		Long: `lapol turns LaPoL markup (prose mixed with @name[...]{...} commands)
into a syntax tree.

Commands:
  parse    - print the syntax tree of a file as JSON
  trace    - print every token the parser pulls
  tree     - render the syntax tree of a file
  check    - report syntax errors across a workspace
  watch    - re-check files as they change
  lsp      - run the language server`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default: $"+config.EnvConfigPath+", ./lapol.toml or ./lapol.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: text or json (overrides the config)")

	rootCmd.AddCommand(
		newParseCmd(opts),
		newTraceCmd(opts),
		newTreeCmd(opts),
		newCheckCmd(opts),
		newWatchCmd(opts),
		newLspCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the command line with os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

// load discovers the configuration, applies the flag overrides and
// installs the default logger.
func (o *rootOptions) load(logOutput io.Writer) error {
	cfg, path, err := config.Discover(o.cfgFile)
	if err != nil {
		return err
	}

	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	syntax, err := cfg.LexerConfig()
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.syntax = syntax

	configureLogging(logOutput, cfg.Log)
	slog.Debug("configuration loaded", slog.String("path", path))

	return nil
}

// readSource reads 'arg', or stdin when 'arg' is "-".
func readSource(cmd *cobra.Command, arg string) (name string, source []byte, err error) {
	if arg == "-" {
		source, err = io.ReadAll(cmd.InOrStdin())
		return "<stdin>", source, err
	}

	//nolint:gosec // path is chosen by the user
	source, err = os.ReadFile(arg)
	if err != nil {
		return arg, nil, fmt.Errorf("reading source: %w", err)
	}

	return arg, source, nil
}

func (o *rootOptions) parseFile(name string, source []byte, extra ...parser.Option) (*parser.RootNode, error) {
	root, err := parser.New(string(source), o.parserOptions(extra...)...).Parse()
	if err != nil {
		return nil, lapol.FileError{FileName: name, Err: err}
	}

	return root, nil
}
