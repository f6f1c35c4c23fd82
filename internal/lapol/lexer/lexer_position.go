package lexer

import (
	"log"
	"strings"
	"unicode/utf8"
)

// PositionAt converts a byte offset within 'source' to a Position.
// Offsets past the end are clamped to len(source).
func PositionAt(source string, offset int) Position {
	if offset > len(source) {
		offset = len(source)
	}

	pos := Position{Line: 1, Character: 1}

	for _, r := range source[:offset] {
		if r == '\n' {
			pos.Line++
			pos.Character = 1
		} else {
			pos.Character++
		}
	}

	pos.Offset = offset

	return pos
}

// Cursor tracks a position within a source string one code point at a time.
// It is a plain value: copying it yields a rewind point.
type Cursor struct {
	src string
	pos Position
}

func NewCursor(source string) Cursor {
	return Cursor{
		src: source,
		pos: Position{Offset: 0, Line: 1, Character: 1},
	}
}

func (c Cursor) Position() Position {
	return c.pos
}

func (c Cursor) Offset() int {
	return c.pos.Offset
}

func (c Cursor) Line() int {
	return c.pos.Line
}

func (c Cursor) Column() int {
	return c.pos.Character
}

func (c Cursor) Source() string {
	return c.src
}

// Rest returns the unconsumed part of the source.
func (c Cursor) Rest() string {
	return c.src[c.pos.Offset:]
}

func (c Cursor) AtEOF() bool {
	return c.pos.Offset >= len(c.src)
}

// HasPrefix reports whether the remaining input starts with s.
func (c Cursor) HasPrefix(s string) bool {
	return strings.HasPrefix(c.src[c.pos.Offset:], s)
}

// HasRune reports whether the remaining input starts with r.
func (c Cursor) HasRune(r rune) bool {
	next, size := c.Peek()
	return size > 0 && next == r
}

// Peek returns the code point under the cursor and its byte size.
// The size is 0 at end of input.
func (c Cursor) Peek() (rune, int) {
	if c.AtEOF() {
		return utf8.RuneError, 0
	}

	return utf8.DecodeRuneInString(c.src[c.pos.Offset:])
}

// PeekAt returns the code point starting 'skip' bytes after the cursor.
func (c Cursor) PeekAt(skip int) (rune, int) {
	at := c.pos.Offset + skip
	if at >= len(c.src) {
		return utf8.RuneError, 0
	}

	return utf8.DecodeRuneInString(c.src[at:])
}

// Advance consumes one code point and returns it. At end of input it
// returns false and leaves the cursor untouched.
func (c *Cursor) Advance() (rune, bool) {
	r, size := c.Peek()
	if size == 0 {
		return r, false
	}

	c.pos.Offset += size

	if r == '\n' {
		c.pos.Line++
		c.pos.Character = 1
	} else {
		c.pos.Character++
	}

	return r, true
}

// AdvanceN consumes up to n code points and returns how many were consumed.
func (c *Cursor) AdvanceN(n int) int {
	count := 0
	for count < n {
		if _, ok := c.Advance(); !ok {
			break
		}
		count++
	}

	return count
}

// AdvanceString consumes exactly the bytes of s, which must be a prefix
// of the remaining input.
func (c *Cursor) AdvanceString(s string) {
	if !c.HasPrefix(s) {
		log.Printf(
			"cursor cannot advance over a non matching prefix\n prefix = %q\n rest = %q\n",
			s,
			c.Rest(),
		)
		panic("cursor cannot advance over a non matching prefix")
	}

	end := c.pos.Offset + len(s)
	for c.pos.Offset < end {
		c.Advance()
	}
}

// Slice returns the source between a start offset and the cursor.
func (c Cursor) Slice(start int) string {
	return c.src[start:c.pos.Offset]
}
