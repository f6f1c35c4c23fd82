package lexer

import (
	"errors"
	"fmt"
)

// ----------------------
// Lexer Types definition
// ----------------------

// Position is a location within the source text. Line and Character are
// 1-based, Character counts code points and resets after each '\n'.
type Position struct {
	Offset    int
	Line      int
	Character int
}

type Range struct {
	Start Position
	End   Position
}

func (r Range) Contains(pos Position) bool {
	return r.Start.Offset <= pos.Offset && pos.Offset < r.End.Offset
}

func (r Range) IsEmpty() bool {
	return r.Start.Offset == r.End.Offset
}

func EmptyRange() Range {
	return Range{}
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	return r.End.Offset - r.Start.Offset
}

type Kind int

// Token is a single lexical unit. Value is a substring of the tokenized
// source and is never copied.
type Token struct {
	ID    Kind
	Range Range
	Value string
}

func NewToken(id Kind, reach Range, val string) Token {
	return Token{
		ID:    id,
		Range: reach,
		Value: val,
	}
}

// IsBlank reports whether the token is a text run made only of whitespace.
func (t Token) IsBlank() bool {
	if t.ID != Text || t.Value == "" {
		return false
	}

	for _, r := range t.Value {
		if !isWhitespace(r) {
			return false
		}
	}

	return true
}

var (
	// ErrScan is the class of every error raised by the tokenizer itself.
	ErrScan = errors.New("scan error")

	ErrBadCarriageReturn = fmt.Errorf(
		"%w: carriage return ('\\r') must be followed by a newline ('\\n')",
		ErrScan,
	)
)

type LexerError struct {
	Err   error
	Range Range
	Token *Token
}

func (l LexerError) GetError() string {
	return l.Err.Error()
}

func (l LexerError) GetRange() Range {
	return l.Range
}

func (l *LexerError) Error() string {
	return fmt.Sprintf("%d:%d: %s", l.Range.Start.Line, l.Range.Start.Character, l.Err)
}

func (l *LexerError) Unwrap() error {
	return l.Err
}

type Error interface {
	GetError() string
	GetRange() Range
	String() string
}

func newLexerError(err error, token *Token) *LexerError {
	if token == nil {
		panic("token cannot be nil while creating lexer error")
	}

	return &LexerError{
		Err:   err,
		Range: token.Range,
		Token: token,
	}
}
