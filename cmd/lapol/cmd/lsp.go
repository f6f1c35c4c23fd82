package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pacer/lapol/cmd/lapol/lsp"
)

const serverName = "LaPoL Language Server"

func newLspCmd(opts *rootOptions) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Run the language server over stdin and stdout",
		Long: `Run a Language Server Protocol server publishing syntax diagnostics,
hover information on commands and folding ranges for multi-line commands.
Logs go to a file since stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configureLogging(createLogFile(logFile), opts.cfg.Log)

			server := lsp.NewServer(lsp.ServerConfig{
				Name:       serverName,
				Version:    Version,
				Syntax:     opts.syntax,
				MaxDepth:   opts.cfg.Parser.MaxDepth,
				Extensions: opts.cfg.Files.Extensions,
				FileDepth:  opts.cfg.Files.MaxDepth,
			})

			return server.Serve(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "log file (default: <user cache dir>/lapol/lapol-lsp.log)")

	return cmd
}
