package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newParseCmd(opts *rootOptions) *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "parse FILE|-",
		Short: "Print the syntax tree of a file as JSON",
		Long: `Parse a file, or stdin when FILE is "-", and print its syntax tree as JSON.
The output is indented when stdout is a terminal or --pretty is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, source, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			root, err := opts.parseFile(name, source)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			var data []byte
			if pretty || isTerminal(out) {
				data, err = json.MarshalIndent(root, "", "  ")
			} else {
				data, err = json.Marshal(root)
			}
			if err != nil {
				return fmt.Errorf("encoding syntax tree: %w", err)
			}

			_, err = fmt.Fprintln(out, string(data))
			return err
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")

	return cmd
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd())) //nolint:gosec // fd fits in int
}
