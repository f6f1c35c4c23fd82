package parser

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pacer/lapol/internal/lapol/lexer"
)

// parseSquareArgs parses a square argument list once its '[' has been
// consumed:
//
//	'[' (arg (',' arg)* ','?)? ']'
//	arg := entry ('=' entry)?
//
// The returned slice is never nil, so '[]' stays distinct from no list.
func (p *Parser) parseSquareArgs(open lexer.Token) ([]SquareArg, lexer.Position, error) {
	p.tokenizer.PushContext(lexer.ContextSquareArgs, p.tokenizer.DefaultEscape())

	args := make([]SquareArg, 0)

	for {
		token, err := p.nextSquareToken(open)
		if err != nil {
			return nil, token.Range.End, err
		}

		if token.ID == lexer.CloseSquare {
			p.popContext(lexer.ContextSquareArgs)
			return args, token.Range.End, nil
		}

		first, err := p.parseSquareEntry(token)
		if err != nil {
			return nil, token.Range.End, err
		}

		arg := SquareArg{Value: first}

		token, err = p.nextSquareToken(open)
		if err != nil {
			return nil, token.Range.End, err
		}

		if token.ID == lexer.SquareAssign {
			valueToken, err := p.nextSquareToken(open)
			if err != nil {
				return nil, valueToken.Range.End, err
			}

			value, err := p.parseSquareEntry(valueToken)
			if err != nil {
				return nil, valueToken.Range.End, err
			}

			arg = SquareArg{Key: &first, Value: value}

			token, err = p.nextSquareToken(open)
			if err != nil {
				return nil, token.Range.End, err
			}
		}

		args = append(args, arg)

		switch token.ID {
		case lexer.CloseSquare:
			p.popContext(lexer.ContextSquareArgs)
			return args, token.Range.End, nil
		case lexer.SquareSeparator:
			continue
		default:
			return nil, token.Range.End, newClassError(
				token, ErrMalformedCommand,
				"expected ',' or ']' after square argument, found %s %q", token.ID, token.Value,
			)
		}
	}
}

// nextSquareToken skips trivia and rejects the end of input.
func (p *Parser) nextSquareToken(open lexer.Token) (lexer.Token, error) {
	token, _, _, err := p.nextSignificant()
	if err != nil {
		return token, err
	}

	if token.ID == lexer.Eof {
		return token, newClassError(open, ErrMalformedCommand, "unexpected end of input in square argument list")
	}

	return token, nil
}

// parseSquareEntry converts one token to an entry. Literal forms are tried
// in order: boolean, number, identifier.
func (p *Parser) parseSquareEntry(token lexer.Token) (SquareEntry, error) {
	switch token.ID {
	case lexer.QuotedString:
		str, err := unquote(token.Value, p.cfg.Quote)
		if err != nil {
			return SquareEntry{}, newClassError(token, ErrMalformedCommand, "%s", err)
		}

		return SquareEntry{Kind: EntryQuotedStr, Str: str}, nil

	case lexer.CommandStartMarker:
		command, err := p.parseCommand(token)
		if err != nil {
			return SquareEntry{}, err
		}

		return SquareEntry{Kind: EntryAstNode, Node: command}, nil

	case lexer.Text:
		return parseWordEntry(token)
	}

	return SquareEntry{}, newClassError(
		token, ErrMalformedCommand,
		"unexpected %s %q in square argument list", token.ID, token.Value,
	)
}

func parseWordEntry(token lexer.Token) (SquareEntry, error) {
	word := token.Value

	switch {
	case strings.EqualFold(word, "true"):
		return SquareEntry{Kind: EntryBool, Bool: true}, nil
	case strings.EqualFold(word, "false"):
		return SquareEntry{Kind: EntryBool, Bool: false}, nil
	}

	if strings.ContainsRune("0123456789.+-", rune(word[0])) {
		num, err := strconv.ParseFloat(word, 64)
		if err != nil || !isDecimalNumber(word) || math.IsInf(num, 0) || math.IsNaN(num) {
			return SquareEntry{}, newClassError(token, ErrMalformedCommand, "invalid number %q", word)
		}

		return SquareEntry{Kind: EntryNum, Num: num}, nil
	}

	if !isIdentifier(word) {
		return SquareEntry{}, newClassError(token, ErrMalformedCommand, "invalid square argument %q", word)
	}

	if isReservedIdentifier(word) {
		return SquareEntry{}, newClassError(token, ErrMalformedCommand, "%q is a reserved identifier", word)
	}

	return SquareEntry{Kind: EntryIdent, Ident: word}, nil
}

// isDecimalNumber rejects the hexadecimal and underscore forms ParseFloat
// also accepts. Numbers are decimal with an optional exponent.
func isDecimalNumber(word string) bool {
	for i := 0; i < len(word); i++ {
		switch c := word[i]; {
		case '0' <= c && c <= '9', c == '.', c == '+', c == '-', c == 'e', c == 'E':
		default:
			return false
		}
	}

	return true
}

// isIdentifier reports whether s is an ASCII identifier: a letter or '_'
// followed by letters, digits and '_'.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return false
		}
	}

	return true
}

func isReservedIdentifier(s string) bool {
	for _, reserved := range reservedIdentifiers {
		if strings.EqualFold(s, reserved) {
			return true
		}
	}

	return false
}

// unquote decodes a quoted string token, quotes included. Supported
// escapes are \n \r \t \b \f \\ \/ \" and \u{XXXX}. A backslash followed by
// whitespace drops the whole whitespace run.
func unquote(raw string, quote rune) (string, error) {
	body, ok := strings.CutPrefix(raw, string(quote))
	if !ok {
		return "", errors.New("quoted string must start with a quote")
	}

	var sb strings.Builder
	sb.Grow(len(body))

	for i := 0; i < len(body); {
		r, size := utf8.DecodeRuneInString(body[i:])
		i += size

		if r == quote {
			if i != len(body) {
				return "", errors.New("unexpected characters after closing quote")
			}

			return sb.String(), nil
		}

		if r != '\\' {
			sb.WriteRune(r)
			continue
		}

		if i >= len(body) {
			break
		}

		esc, size := utf8.DecodeRuneInString(body[i:])
		i += size

		switch esc {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case '\\', '/', quote:
			sb.WriteRune(esc)
		case 'u':
			decoded, consumed, err := unquoteUnicode(body[i:])
			if err != nil {
				return "", err
			}

			sb.WriteRune(decoded)
			i += consumed
		default:
			if !unicode.IsSpace(esc) {
				return "", errors.New("invalid escape sequence \\" + string(esc))
			}

			for i < len(body) {
				next, size := utf8.DecodeRuneInString(body[i:])
				if !unicode.IsSpace(next) {
					break
				}
				i += size
			}
		}
	}

	return "", errors.New("unterminated quoted string")
}

// unquoteUnicode decodes '{XXXX}' (1 to 6 hex digits) following '\u'.
func unquoteUnicode(s string) (rune, int, error) {
	digits, _, found := strings.Cut(s, "}")
	if !strings.HasPrefix(s, "{") || !found {
		return 0, 0, errors.New("unicode escape must look like \\u{XXXX}")
	}

	digits = digits[1:]
	if len(digits) == 0 || len(digits) > 6 {
		return 0, 0, errors.New("unicode escape needs 1 to 6 hex digits")
	}

	code, err := strconv.ParseUint(digits, 16, 32)
	if err != nil || !utf8.ValidRune(rune(code)) {
		return 0, 0, errors.New("invalid unicode escape \\u{" + digits + "}")
	}

	return rune(code), len(digits) + 2, nil
}
