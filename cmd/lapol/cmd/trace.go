package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pacer/lapol/internal/lapol/lexer"
	"github.com/pacer/lapol/internal/lapol/parser"
)

func newTraceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trace FILE|-",
		Short: "Print every token the parser pulls, with the active tokenizer context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, source, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "POSITION\tCONTEXT\tTOKEN\tVALUE")

			trace := func(token lexer.Token, ctx lexer.Context) {
				start := token.Range.Start
				fmt.Fprintf(w, "%d:%d\t%s\t%s\t%q\n", start.Line, start.Character, ctx, token.ID, token.Value)
			}

			_, parseErr := opts.parseFile(name, source, parser.WithTrace(trace))

			if err := w.Flush(); err != nil {
				return err
			}

			return parseErr
		},
	}
}
