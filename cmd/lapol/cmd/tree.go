package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/pacer/lapol/internal/lapol/parser"
)

var (
	rootStyle      = lipgloss.NewStyle().Bold(true)
	commandStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	argumentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	textStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	enumeratorTint = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).MarginRight(1)
)

func newTreeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree FILE|-",
		Short: "Render the syntax tree of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, source, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			root, err := opts.parseFile(name, source)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderTree(root))
			return err
		},
	}
}

func renderTree(root *parser.RootNode) string {
	t := tree.Root(rootStyle.Render(root.Kind().String())).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumeratorTint)

	for _, node := range root.SubNodes {
		t.Child(treeChild(node))
	}

	return t.String()
}

func treeChild(node parser.AstNode) any {
	switch n := node.(type) {
	case *parser.TextNode:
		return textStyle.Render(strconv.Quote(n.Content))

	case *parser.CommandNode:
		sub := tree.Root(commandStyle.Render("@" + n.CommandName))

		if n.SquareArgs != nil {
			square := tree.Root(argumentStyle.Render("[]"))
			for _, arg := range n.SquareArgs {
				square.Child(squareChild(arg))
			}
			sub.Child(square)
		}

		for i, arg := range n.CurlyArgs {
			curly := tree.Root(argumentStyle.Render(fmt.Sprintf("{} #%d", i+1)))
			for _, child := range arg {
				curly.Child(treeChild(child))
			}
			sub.Child(curly)
		}

		return sub
	}

	return node.String()
}

func squareChild(arg parser.SquareArg) any {
	label := entryLabel(arg.Value)
	nested := entryCommands(arg.Value)

	if arg.Key != nil {
		label = entryLabel(*arg.Key) + " = " + label
		nested = append(entryCommands(*arg.Key), nested...)
	}

	if len(nested) == 0 {
		return label
	}

	t := tree.Root(label)
	for _, command := range nested {
		t.Child(treeChild(command))
	}

	return t
}

func entryLabel(entry parser.SquareEntry) string {
	if entry.Kind == parser.EntryAstNode && entry.Node != nil {
		return entry.Kind.String()
	}

	return entry.Kind.String() + " " + entry.String()
}

func entryCommands(entry parser.SquareEntry) []parser.AstNode {
	if entry.Kind == parser.EntryAstNode && entry.Node != nil {
		return []parser.AstNode{entry.Node}
	}

	return nil
}
