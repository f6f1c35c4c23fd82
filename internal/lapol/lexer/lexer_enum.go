package lexer

// ----------
// Lexer Kind
// ----------

const (
	Newline Kind = iota
	Text
	CommandStartMarker
	BlockCommentStartMarker
	LineCommentStartMarker
	CommandForceEndMarker
	OpenCurly
	CloseCurly
	OpenSquare
	CloseSquare
	SquareSeparator
	SquareAssign
	QuotedString
	Eof
)

var kindNames = [...]string{
	Newline:                 "Newline",
	Text:                    "Text",
	CommandStartMarker:      "CommandStartMarker",
	BlockCommentStartMarker: "BlockCommentStartMarker",
	LineCommentStartMarker:  "LineCommentStartMarker",
	CommandForceEndMarker:   "CommandForceEndMarker",
	OpenCurly:               "OpenCurly",
	CloseCurly:              "CloseCurly",
	OpenSquare:              "OpenSquare",
	CloseSquare:             "CloseSquare",
	SquareSeparator:         "SquareSeparator",
	SquareAssign:            "SquareAssign",
	QuotedString:            "QuotedString",
	Eof:                     "Eof",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(unknown)"
	}

	return kindNames[k]
}
