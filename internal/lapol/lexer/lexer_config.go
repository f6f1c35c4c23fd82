package lexer

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds the characters the tokenizer treats as syntax.
type Config struct {
	SpecialChar   rune
	CommentMarker rune
	OpenCurly     rune
	CloseCurly    rune
	OpenSquare    rune
	CloseSquare   rune
	EscapeBrace   rune
	ForceEnd      rune
	Separator     rune
	Assign        rune
	Quote         rune
}

func DefaultConfig() Config {
	return Config{
		SpecialChar:   '@',
		CommentMarker: '%',
		OpenCurly:     '{',
		CloseCurly:    '}',
		OpenSquare:    '[',
		CloseSquare:   ']',
		EscapeBrace:   '|',
		ForceEnd:      ';',
		Separator:     ',',
		Assign:        '=',
		Quote:         '"',
	}
}

var ErrInvalidConfig = errors.New("invalid tokenizer configuration")

// Validate reports an error when two syntax characters collide or when a
// character can never be matched by the tokenizer.
func (c Config) Validate() error {
	fields := []struct {
		name string
		char rune
	}{
		{"special", c.SpecialChar},
		{"comment marker", c.CommentMarker},
		{"open curly", c.OpenCurly},
		{"close curly", c.CloseCurly},
		{"open square", c.OpenSquare},
		{"close square", c.CloseSquare},
		{"escape brace", c.EscapeBrace},
		{"force end", c.ForceEnd},
		{"separator", c.Separator},
		{"assign", c.Assign},
		{"quote", c.Quote},
	}

	seen := make(map[rune]string, len(fields))

	for _, field := range fields {
		if field.char == 0 {
			return fmt.Errorf("%w: %s character is not set", ErrInvalidConfig, field.name)
		}

		if isWhitespace(field.char) || field.char == '\r' || field.char == '\n' {
			return fmt.Errorf(
				"%w: %s character %q cannot be whitespace",
				ErrInvalidConfig, field.name, field.char,
			)
		}

		if other, ok := seen[field.char]; ok {
			return fmt.Errorf(
				"%w: %s and %s share the character %q",
				ErrInvalidConfig, other, field.name, field.char,
			)
		}

		seen[field.char] = field.name
	}

	for _, r := range []rune{c.OpenCurly, c.CloseCurly, c.EscapeBrace} {
		if strings.ContainsRune(escapeSymbols, r) {
			return fmt.Errorf(
				"%w: %q is reserved as an escape symbol",
				ErrInvalidConfig, r,
			)
		}
	}

	return nil
}
