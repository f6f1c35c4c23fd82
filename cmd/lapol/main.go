// Command lapol parses LaPoL markup: it prints syntax trees, checks
// workspaces and serves editors over LSP.
package main

import (
	"os"

	"github.com/pacer/lapol/cmd/lapol/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
