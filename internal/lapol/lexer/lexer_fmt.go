package lexer

import (
	"fmt"
	"strings"
)

func (e LexerError) String() string {
	return fmt.Sprintf(
		`{ "Err": %q, "Range": %s, "Token": %s }`,
		e.Err.Error(),
		e.Range,
		e.Token,
	)
}

func (p Position) String() string {
	return fmt.Sprintf(
		`{ "Offset": %d, "Line": %d, "Character": %d }`,
		p.Offset,
		p.Line,
		p.Character,
	)
}

func (r Range) String() string {
	return fmt.Sprintf(`{ "Start": %s, "End": %s }`, r.Start, r.End)
}

func (t Token) String() string {
	return fmt.Sprintf(
		`{ "ID": "%s", "Range": %s, "Value": %q }`,
		t.ID,
		t.Range,
		t.Value,
	)
}

func (e EscapeContext) String() string {
	return fmt.Sprintf(
		`{ "OpenCurly": %q, "CloseCurly": %q, "Special": %q }`,
		e.OpenCurly,
		e.CloseCurly,
		e.Special,
	)
}

// PrettyFormater converts an array of Stringer elements to a formatted string.
func PrettyFormater[T fmt.Stringer](arr []T) string {
	if len(arr) == 0 {
		return "[]"
	}

	var sb strings.Builder
	sb.WriteString("[")

	for i, el := range arr {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(el.String())
	}

	sb.WriteString("]")

	return sb.String()
}

func Print(tokens ...Token) {
	fmt.Println(PrettyFormater(tokens))
}
