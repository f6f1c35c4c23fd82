package parser

import (
	"github.com/pacer/lapol/internal/lapol/lexer"
)

type AstNode interface {
	Kind() Kind
	Range() lexer.Range
	String() string
}

// RootNode is the whole document.
type RootNode struct {
	SubNodes []AstNode
	rng      lexer.Range
}

func (r RootNode) Kind() Kind {
	return KindRoot
}

func (r RootNode) Range() lexer.Range {
	return r.rng
}

// CommandNode is one '@name[...]{...}' invocation. A nil SquareArgs means
// the command had no square list at all, while '[]' yields an empty slice.
type CommandNode struct {
	CommandName string
	SquareArgs  []SquareArg
	CurlyArgs   [][]AstNode
	rng         lexer.Range
}

func (c CommandNode) Kind() Kind {
	return KindCommand
}

func (c CommandNode) Range() lexer.Range {
	return c.rng
}

// TextNode is a run of literal text. A node holding exactly "\n" marks a
// line break and is never merged with its neighbors.
type TextNode struct {
	Content    string
	SourceLine int
	SourceCol  int
	rng        lexer.Range
	borrowed   bool // Content is still a slice of the source
}

func newTextNode(token lexer.Token) *TextNode {
	return &TextNode{
		Content:    token.Value,
		SourceLine: token.Range.Start.Line,
		SourceCol:  token.Range.Start.Character,
		rng:        token.Range,
		borrowed:   token.ID != lexer.Newline || token.Range.Len() == 1,
	}
}

func (t TextNode) Kind() Kind {
	return KindText
}

func (t TextNode) Range() lexer.Range {
	return t.rng
}

// merge appends 'next' to the node. Contiguous pieces are re-sliced from
// the source instead of copied.
func (t *TextNode) merge(next *TextNode, source string) {
	if t.borrowed && next.borrowed && t.rng.End.Offset == next.rng.Start.Offset {
		t.Content = source[t.rng.Start.Offset:next.rng.End.Offset]
	} else {
		t.Content += next.Content
		t.borrowed = false
	}

	t.rng.End = next.rng.End
}

// SquareArg is either a bare value (Key == nil) or a key/value pair. Keys
// may be any entry, not only identifiers.
type SquareArg struct {
	Key   *SquareEntry
	Value SquareEntry
}

func (a SquareArg) IsKeyVal() bool {
	return a.Key != nil
}

// SquareEntry is a typed literal of a square argument list. Only the field
// matching Kind is meaningful.
type SquareEntry struct {
	Kind  EntryKind
	Num   float64
	Ident string
	Bool  bool
	Str   string
	Node  *CommandNode
}

// Walk visits 'node' and its descendants depth first, curly arguments and
// commands nested in square entries included. Returning false from 'visit'
// skips the children of the current node.
func Walk(node AstNode, visit func(AstNode) bool) {
	if node == nil || !visit(node) {
		return
	}

	switch n := node.(type) {
	case *RootNode:
		for _, sub := range n.SubNodes {
			Walk(sub, visit)
		}

	case *CommandNode:
		for _, arg := range n.SquareArgs {
			if arg.Key != nil && arg.Key.Node != nil {
				Walk(arg.Key.Node, visit)
			}
			if arg.Value.Node != nil {
				Walk(arg.Value.Node, visit)
			}
		}

		for _, arg := range n.CurlyArgs {
			for _, sub := range arg {
				Walk(sub, visit)
			}
		}
	}
}
