package parser

import (
	"github.com/pacer/lapol/internal/lapol/lexer"
)

// parseLineComment discards everything up to the next newline. The newline
// itself stays in the stream for the enclosing region. A comment running to
// the end of input is accepted.
func (p *Parser) parseLineComment() error {
	p.tokenizer.PushContext(lexer.ContextLineComment, p.tokenizer.DefaultEscape())

loop:
	for {
		mark := p.tokenizer.Mark()

		token, err := p.next()
		if err != nil {
			return err
		}

		switch token.ID {
		case lexer.Text:
			continue
		case lexer.Newline:
			p.tokenizer.Reset(mark)
			break loop
		case lexer.Eof:
			break loop
		default:
			return newClassError(
				token, ErrGrammarViolation,
				"unexpected %s %q in line comment", token.ID, token.Value,
			)
		}
	}

	p.popContext(lexer.ContextLineComment)

	return nil
}

// parseBlockComment discards a braced comment body. The body opens its own
// escape scope and nested braces of that scope must balance.
func (p *Parser) parseBlockComment() error {
	brace, err := p.openBrace(ErrGrammarViolation, "a block comment")
	if err != nil {
		return err
	}

	p.tokenizer.PushContext(lexer.ContextBlockComment, p.tokenizer.EscapeFor(brace))

	balance := 1

	for balance > 0 {
		token, err := p.next()
		if err != nil {
			return err
		}

		switch token.ID {
		case lexer.Text, lexer.Newline:
		case lexer.OpenCurly:
			balance++
		case lexer.CloseCurly:
			balance--
		case lexer.Eof:
			return newClassError(
				brace, ErrGrammarViolation,
				"unterminated block comment, missing %q", p.tokenizer.EscapeFor(brace).CloseCurly,
			)
		default:
			return newClassError(
				token, ErrGrammarViolation,
				"unexpected %s %q in block comment", token.ID, token.Value,
			)
		}
	}

	p.popContext(lexer.ContextBlockComment)

	return nil
}
