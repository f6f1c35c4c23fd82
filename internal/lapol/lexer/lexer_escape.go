package lexer

import (
	"log"
	"strings"
)

// escapeSymbols may appear between the escape brace and the open curly,
// e.g. '|<({'. Each one is closed by its mirror, in reverse order.
const escapeSymbols = "<(["

var escapeMirror = map[rune]rune{
	'<': '>',
	'(': ')',
	'[': ']',
}

// EscapeContext is the delimiter set active inside one brace scope.
// Special is the prefix that must precede the special char for commands
// and comments to be recognized inside the scope ("" for a plain brace).
type EscapeContext struct {
	OpenCurly  string
	CloseCurly string
	Special    string
}

func DefaultEscape(cfg Config) EscapeContext {
	return EscapeContext{
		OpenCurly:  string(cfg.OpenCurly),
		CloseCurly: string(cfg.CloseCurly),
		Special:    "",
	}
}

func (e EscapeContext) IsDefault() bool {
	return e.Special == ""
}

// CommandMarker is the sequence starting a command in this scope.
func (e EscapeContext) CommandMarker(cfg Config) string {
	return e.Special + string(cfg.SpecialChar)
}

// CommentMarker is the sequence starting a comment in this scope.
func (e EscapeContext) CommentMarker(cfg Config) string {
	return e.CommandMarker(cfg) + string(cfg.CommentMarker)
}

// ResolveEscape computes the scope opened by 'opener', the exact spelling
// of a generic open curly ('{', '|{', '|<{', '|<([{', ...).
//
//	'{'    -> close '}'     special ''
//	'|{'   -> close '}|'    special '|'
//	'|<{'  -> close '>}|'   special '|<'
//	'|<({' -> close ')>}|'  special '|<('
//
// The tokenizer only hands well-formed openers to this function, any other
// spelling is a bug and panics.
func ResolveEscape(opener string, cfg Config) EscapeContext {
	body, found := strings.CutSuffix(opener, string(cfg.OpenCurly))
	if !found {
		log.Printf("malformed brace opener, missing open curly\n opener = %q\n", opener)
		panic("malformed brace opener, missing open curly: " + opener)
	}

	if body == "" {
		return DefaultEscape(cfg)
	}

	symbols, found := strings.CutPrefix(body, string(cfg.EscapeBrace))
	if !found {
		log.Printf("malformed brace opener, missing escape brace\n opener = %q\n", opener)
		panic("malformed brace opener, missing escape brace: " + opener)
	}

	runes := []rune(symbols)

	var closer strings.Builder
	closer.Grow(len(opener))

	for i := len(runes) - 1; i >= 0; i-- {
		mirror, ok := escapeMirror[runes[i]]
		if !ok {
			log.Printf(
				"malformed brace opener, unknown escape symbol %q\n opener = %q\n",
				runes[i],
				opener,
			)
			panic("malformed brace opener, unknown escape symbol: " + opener)
		}

		closer.WriteRune(mirror)
	}

	closer.WriteRune(cfg.CloseCurly)
	closer.WriteRune(cfg.EscapeBrace)

	return EscapeContext{
		OpenCurly:  opener,
		CloseCurly: closer.String(),
		Special:    body,
	}
}
