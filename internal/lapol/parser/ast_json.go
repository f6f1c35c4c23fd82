package parser

import (
	"encoding/json"
	"fmt"
)

// The JSON form tags every node, argument and entry with its variant name
// under "t". Arguments and entries carry their payload under "c".

type rootJSON struct {
	T        string    `json:"t"`
	SubNodes []AstNode `json:"subNodes"`
}

type commandJSON struct {
	T           string      `json:"t"`
	CommandName string      `json:"commandName"`
	SquareArgs  []SquareArg `json:"squareArgs"`
	CurlyArgs   [][]AstNode `json:"curlyArgs"`
}

type textJSON struct {
	T               string `json:"t"`
	Content         string `json:"content"`
	SourceStartLine int    `json:"sourceStartLine"`
	SourceStartCol  int    `json:"sourceStartCol"`
}

type taggedJSON struct {
	T string `json:"t"`
	C any    `json:"c"`
}

func nonNilNodes(nodes []AstNode) []AstNode {
	if nodes == nil {
		return []AstNode{}
	}

	return nodes
}

func (r RootNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(rootJSON{
		T:        KindRoot.String(),
		SubNodes: nonNilNodes(r.SubNodes),
	})
}

func (c CommandNode) MarshalJSON() ([]byte, error) {
	curly := make([][]AstNode, 0, len(c.CurlyArgs))
	for _, arg := range c.CurlyArgs {
		curly = append(curly, nonNilNodes(arg))
	}

	return json.Marshal(commandJSON{
		T:           KindCommand.String(),
		CommandName: c.CommandName,
		SquareArgs:  c.SquareArgs,
		CurlyArgs:   curly,
	})
}

func (t TextNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(textJSON{
		T:               KindText.String(),
		Content:         t.Content,
		SourceStartLine: t.SourceLine,
		SourceStartCol:  t.SourceCol,
	})
}

func (a SquareArg) MarshalJSON() ([]byte, error) {
	if a.Key == nil {
		return json.Marshal(taggedJSON{T: "Val", C: a.Value})
	}

	return json.Marshal(taggedJSON{T: "KeyVal", C: [2]SquareEntry{*a.Key, a.Value}})
}

func (e SquareEntry) MarshalJSON() ([]byte, error) {
	var payload any

	switch e.Kind {
	case EntryNum:
		payload = e.Num
	case EntryIdent:
		payload = e.Ident
	case EntryBool:
		payload = e.Bool
	case EntryQuotedStr:
		payload = e.Str
	case EntryAstNode:
		if e.Node == nil {
			return nil, fmt.Errorf("square entry of kind %s holds no node", e.Kind)
		}
		payload = e.Node
	default:
		return nil, fmt.Errorf("unknown square entry kind %d", int(e.Kind))
	}

	return json.Marshal(taggedJSON{T: e.Kind.String(), C: payload})
}
