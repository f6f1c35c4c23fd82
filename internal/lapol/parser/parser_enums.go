package parser

// -----------
// Parser Kind
// -----------

type Kind int

const (
	KindRoot Kind = iota
	KindCommand
	KindText
)

var kindNames = [...]string{
	KindRoot:    "RootNode",
	KindCommand: "CommandNode",
	KindText:    "TextNode",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(unknown)"
	}

	return kindNames[k]
}

// EntryKind discriminates the values a square argument entry may hold.
type EntryKind int

const (
	EntryNum EntryKind = iota
	EntryIdent
	EntryBool
	EntryQuotedStr
	EntryAstNode
)

var entryKindNames = [...]string{
	EntryNum:       "Num",
	EntryIdent:     "Ident",
	EntryBool:      "Bool",
	EntryQuotedStr: "QuotedStr",
	EntryAstNode:   "AstNode",
}

func (k EntryKind) String() string {
	if k < 0 || int(k) >= len(entryKindNames) {
		return "EntryKind(unknown)"
	}

	return entryKindNames[k]
}

// reservedIdentifiers can name neither a command nor an identifier entry.
// Matching ignores case.
var reservedIdentifiers = [...]string{"true", "false", "null", "undefined"}
