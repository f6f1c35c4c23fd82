package parser

import (
	"fmt"
	"strconv"
	"strings"
)

func (e ParseError) String() string {
	to := `""`
	err := `""`

	if e.Err != nil {
		err = strconv.Quote(e.Err.Error())
	}
	if e.Token != nil {
		to = e.Token.String()
	}

	return fmt.Sprintf(`{"Err": %s, "Range": %s, "Token": %s}`, err, e.Range, to)
}

func formatNodes(nodes []AstNode) string {
	if len(nodes) == 0 {
		return "[]"
	}

	var sb strings.Builder
	sb.WriteString("[")

	for i, node := range nodes {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(node.String())
	}

	sb.WriteString("]")

	return sb.String()
}

func (r RootNode) String() string {
	return fmt.Sprintf(
		`{"Kind": %q, "Range": %s, "SubNodes": %s}`,
		r.Kind(),
		r.rng,
		formatNodes(r.SubNodes),
	)
}

func (c CommandNode) String() string {
	square := "null"
	if c.SquareArgs != nil {
		parts := make([]string, 0, len(c.SquareArgs))
		for _, arg := range c.SquareArgs {
			parts = append(parts, arg.String())
		}
		square = "[" + strings.Join(parts, ", ") + "]"
	}

	curly := make([]string, 0, len(c.CurlyArgs))
	for _, arg := range c.CurlyArgs {
		curly = append(curly, formatNodes(arg))
	}

	return fmt.Sprintf(
		`{"Kind": %q, "Range": %s, "CommandName": %q, "SquareArgs": %s, "CurlyArgs": [%s]}`,
		c.Kind(),
		c.rng,
		c.CommandName,
		square,
		strings.Join(curly, ", "),
	)
}

func (t TextNode) String() string {
	return fmt.Sprintf(
		`{"Kind": %q, "Range": %s, "Content": %q}`,
		t.Kind(),
		t.rng,
		t.Content,
	)
}

func (a SquareArg) String() string {
	if a.Key == nil {
		return a.Value.String()
	}

	return a.Key.String() + "=" + a.Value.String()
}

func (e SquareEntry) String() string {
	switch e.Kind {
	case EntryNum:
		return strconv.FormatFloat(e.Num, 'g', -1, 64)
	case EntryIdent:
		return e.Ident
	case EntryBool:
		return strconv.FormatBool(e.Bool)
	case EntryQuotedStr:
		return strconv.Quote(e.Str)
	case EntryAstNode:
		if e.Node == nil {
			return "null"
		}
		return e.Node.String()
	}

	return "EntryKind(unknown)"
}
