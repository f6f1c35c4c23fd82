package lexer

import (
	"log"
	"slices"
	"strings"
)

// frame is one entry of the tokenizer context stack.
type frame struct {
	ctx         Context
	esc         EscapeContext
	rules       contextRules
	interesting []rune
	splitSpaces bool
}

// Tokenizer is a pull based, context sensitive lexer. The meaning of a
// character depends on the context on top of its stack, which the parser
// drives through PushContext and PopContext.
//
// A Tokenizer is single use: it walks its source once and stops for good
// at the first error.
type Tokenizer struct {
	cfg    Config
	cursor Cursor
	stack  []frame
	err    *LexerError
	trace  func(Token, Context)
}

func NewTokenizer(source string, cfg Config) *Tokenizer {
	return &Tokenizer{
		cfg:    cfg,
		cursor: NewCursor(source),
		stack:  make([]frame, 0, 8),
	}
}

func (t *Tokenizer) Config() Config {
	return t.cfg
}

// SetTrace registers a hook called with every token handed out by Next.
func (t *Tokenizer) SetTrace(fn func(Token, Context)) {
	t.trace = fn
}

func (t *Tokenizer) PushContext(ctx Context, esc EscapeContext) {
	rules := rulesFor(ctx)

	t.stack = append(t.stack, frame{
		ctx:         ctx,
		esc:         esc,
		rules:       rules,
		interesting: interestingRunes(ctx, esc, t.cfg),
		splitSpaces: rules.whitespace || rules.nameTerminators,
	})
}

func (t *Tokenizer) PopContext() (Context, EscapeContext) {
	size := len(t.stack)
	if size == 0 {
		panic("cannot pop from an empty tokenizer context stack")
	}

	top := t.stack[size-1]
	t.stack = t.stack[:size-1]

	return top.ctx, top.esc
}

func (t *Tokenizer) TopContext() (Context, EscapeContext) {
	size := len(t.stack)
	if size == 0 {
		panic("tokenizer context stack is empty")
	}

	top := t.stack[size-1]

	return top.ctx, top.esc
}

// Depth is the current size of the context stack.
func (t *Tokenizer) Depth() int {
	return len(t.stack)
}

// Position is where the next token will start.
func (t *Tokenizer) Position() Position {
	return t.cursor.Position()
}

// Mark returns a rewind point for Reset.
func (t *Tokenizer) Mark() Cursor {
	return t.cursor
}

// Reset moves the tokenizer back to a point returned by Mark. The context
// stack is left untouched.
func (t *Tokenizer) Reset(mark Cursor) {
	if mark.Source() != t.cursor.Source() || mark.Offset() > t.cursor.Offset() {
		log.Printf(
			"invalid tokenizer rewind\n mark = %s\n current = %s\n",
			mark.Position(),
			t.cursor.Position(),
		)
		panic("tokenizer can only rewind to a mark taken on its own source")
	}

	t.cursor = mark
}

func (t *Tokenizer) DefaultEscape() EscapeContext {
	return DefaultEscape(t.cfg)
}

// EscapeFor returns the escape scope opened by a generic open curly token.
func (t *Tokenizer) EscapeFor(brace Token) EscapeContext {
	if brace.ID != OpenCurly {
		log.Printf("escape scope requested for a non brace token\n token = %s\n", brace)
		panic("escape scope requested for a non brace token")
	}

	return ResolveEscape(brace.Value, t.cfg)
}

// Next returns the next token for the context on top of the stack. At the
// end of input it returns an 'Eof' token and a nil error.
func (t *Tokenizer) Next() (Token, error) {
	if t.err != nil {
		return Token{ID: Eof}, t.err
	}

	if len(t.stack) == 0 {
		panic("tokenizer context stack must never be empty while tokenizing")
	}

	top := &t.stack[len(t.stack)-1]
	start := t.cursor

	id, err := t.scan(top)
	if err != nil {
		return Token{ID: Eof}, err
	}

	tok := t.tokenFrom(id, start)

	if t.trace != nil {
		t.trace(tok, top.ctx)
	}

	return tok, nil
}

func (t *Tokenizer) tokenFrom(id Kind, start Cursor) Token {
	value := t.cursor.Slice(start.Offset())
	if id == Newline {
		value = strings.TrimPrefix(value, "\r")
	}

	return Token{
		ID:    id,
		Value: value,
		Range: Range{Start: start.Position(), End: t.cursor.Position()},
	}
}

// scan consumes the next token in priority order and reports its kind.
func (t *Tokenizer) scan(top *frame) (Kind, error) {
	cur := &t.cursor
	cfg := t.cfg
	rules := top.rules

	if cur.AtEOF() {
		return Eof, nil
	}

	if cur.HasRune('\r') {
		if cur.HasPrefix("\r\n") {
			cur.AdvanceN(2)
			return Newline, nil
		}

		return Eof, t.badCarriageReturn()
	}

	if cur.HasRune('\n') {
		cur.Advance()
		return Newline, nil
	}

	if rules.comments {
		if id, ok := t.matchCommentStart(top.esc); ok {
			return id, nil
		}
	}

	if rules.commandStart && t.matchCommandStart(top.esc) {
		return CommandStartMarker, nil
	}

	if rules.genericOpenCurly && t.matchGenericOpenCurly() {
		return OpenCurly, nil
	}

	if rules.openCurly && cur.HasPrefix(top.esc.OpenCurly) {
		cur.AdvanceString(top.esc.OpenCurly)
		return OpenCurly, nil
	}

	if rules.closeCurly && cur.HasPrefix(top.esc.CloseCurly) {
		cur.AdvanceString(top.esc.CloseCurly)
		return CloseCurly, nil
	}

	single := []struct {
		enabled bool
		char    rune
		id      Kind
	}{
		{rules.forceEnd, cfg.ForceEnd, CommandForceEndMarker},
		{rules.openSquare, cfg.OpenSquare, OpenSquare},
		{rules.closeSquare, cfg.CloseSquare, CloseSquare},
		{rules.squarePunct, cfg.Separator, SquareSeparator},
		{rules.squarePunct, cfg.Assign, SquareAssign},
	}

	for _, candidate := range single {
		if candidate.enabled && cur.HasRune(candidate.char) {
			cur.Advance()
			return candidate.id, nil
		}
	}

	if rules.quotedString && cur.HasRune(cfg.Quote) {
		if err := t.consumeQuotedString(); err != nil {
			return Eof, err
		}
		return QuotedString, nil
	}

	if rules.whitespace {
		if r, _ := cur.Peek(); isWhitespace(r) {
			for r, size := cur.Peek(); size > 0 && isWhitespace(r); r, size = cur.Peek() {
				cur.Advance()
			}
			return Text, nil
		}
	}

	// Plain text: one code point, then everything that cannot start a token.
	cur.Advance()

	for r, size := cur.Peek(); size > 0; r, size = cur.Peek() {
		if t.isInteresting(top, r) {
			break
		}
		cur.Advance()
	}

	return Text, nil
}

func (t *Tokenizer) isInteresting(top *frame, r rune) bool {
	if top.splitSpaces && isWhitespace(r) {
		return true
	}

	return slices.Contains(top.interesting, r)
}

// matchCommentStart matches '<special>@%'. A following escape brace or
// open curly makes it a block comment, anything else a line comment.
func (t *Tokenizer) matchCommentStart(esc EscapeContext) (Kind, bool) {
	marker := esc.CommentMarker(t.cfg)
	if !t.cursor.HasPrefix(marker) {
		return Eof, false
	}

	next, size := t.cursor.PeekAt(len(marker))
	t.cursor.AdvanceString(marker)

	if size > 0 && (next == t.cfg.EscapeBrace || next == t.cfg.OpenCurly) {
		return BlockCommentStartMarker, true
	}

	return LineCommentStartMarker, true
}

// matchCommandStart matches '<special>@' unless it is followed by the
// comment marker, an escape brace or an open curly.
func (t *Tokenizer) matchCommandStart(esc EscapeContext) bool {
	marker := esc.CommandMarker(t.cfg)
	if !t.cursor.HasPrefix(marker) {
		return false
	}

	next, size := t.cursor.PeekAt(len(marker))
	if size > 0 {
		switch next {
		case t.cfg.CommentMarker, t.cfg.EscapeBrace, t.cfg.OpenCurly:
			return false
		}
	}

	t.cursor.AdvanceString(marker)

	return true
}

// matchGenericOpenCurly matches '{' or '|' followed by any escape symbols
// and '{'.
func (t *Tokenizer) matchGenericOpenCurly() bool {
	probe := t.cursor

	if probe.HasRune(t.cfg.EscapeBrace) {
		probe.Advance()

		for r, size := probe.Peek(); size > 0 && strings.ContainsRune(escapeSymbols, r); r, size = probe.Peek() {
			probe.Advance()
		}
	}

	if !probe.HasRune(t.cfg.OpenCurly) {
		return false
	}

	probe.Advance()
	t.cursor = probe

	return true
}

// badCarriageReturn consumes a '\r' not followed by '\n' and records the
// scan error that stops the tokenizer.
func (t *Tokenizer) badCarriageReturn() error {
	start := t.cursor
	t.cursor.Advance()

	tok := t.tokenFrom(Text, start)
	t.err = newLexerError(ErrBadCarriageReturn, &tok)

	return t.err
}

// consumeQuotedString consumes a quoted string up to its unescaped closing
// quote, or to the end of input when it is unterminated. Unescaping is left
// to the parser, but a lone '\r' fails here as it does anywhere else.
func (t *Tokenizer) consumeQuotedString() error {
	cur := &t.cursor
	cur.Advance()

	escaped := false

	for {
		if cur.HasRune('\r') && !cur.HasPrefix("\r\n") {
			return t.badCarriageReturn()
		}

		r, ok := cur.Advance()
		switch {
		case !ok:
			return nil
		case escaped:
			escaped = false
		case r == t.cfg.Quote:
			return nil
		case r == '\\':
			escaped = true
		}
	}
}
