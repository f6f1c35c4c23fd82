package parser

import (
	"github.com/pacer/lapol/internal/lapol/lexer"
)

// parseCommand parses a command once its start marker has been consumed:
//
//	name ';'? ('[' args ']')? ';'? curly* ';'?
//
// Whitespace, newlines and comments may separate the parts. Anything else
// ends the command and is left for the enclosing region.
func (p *Parser) parseCommand(marker lexer.Token) (*CommandNode, error) {
	p.currentDepth++
	defer func() { p.currentDepth-- }()

	if p.maxDepth > 0 && p.currentDepth > p.maxDepth {
		return nil, newClassError(marker, ErrMaxDepth, "commands nest deeper than %d levels", p.maxDepth)
	}

	_, scope := p.tokenizer.TopContext()

	p.tokenizer.PushContext(lexer.ContextCommandName, p.tokenizer.DefaultEscape())

	name, err := p.next()
	if err != nil {
		return nil, err
	}

	p.popContext(lexer.ContextCommandName)

	switch {
	case name.ID == lexer.Eof:
		return nil, newClassError(marker, ErrMalformedCommand, "missing command name after %q", marker.Value)
	case name.ID != lexer.Text || !isIdentifier(name.Value):
		return nil, newClassError(name, ErrMalformedCommand, "invalid command name %q", name.Value)
	case isReservedIdentifier(name.Value):
		return nil, newClassError(name, ErrMalformedCommand, "%q is reserved and cannot name a command", name.Value)
	}

	command := &CommandNode{
		CommandName: name.Value,
		CurlyArgs:   make([][]AstNode, 0),
		rng:         lexer.Range{Start: marker.Range.Start, End: name.Range.End},
	}

	if err := p.parseCommandTail(command, scope); err != nil {
		return nil, err
	}

	return command, nil
}

// parseCommandTail reads the arguments of 'command'. Comments between them
// use the marker of 'scope', the escape scope the command appears in.
func (p *Parser) parseCommandTail(command *CommandNode, scope lexer.EscapeContext) error {
	p.tokenizer.PushContext(lexer.ContextCommandTail, scope)

	squareAllowed := true

loop:
	for {
		token, resume, before, err := p.nextSignificant()
		if err != nil {
			return err
		}

		switch {
		case token.ID == lexer.CommandForceEndMarker:
			command.rng.End = token.Range.End
			break loop

		case token.ID == lexer.OpenSquare && squareAllowed:
			args, end, err := p.parseSquareArgs(token)
			if err != nil {
				return err
			}

			command.SquareArgs = args
			command.rng.End = end
			squareAllowed = false

		case token.ID == lexer.OpenCurly:
			p.tokenizer.Reset(before)

			arg, end, err := p.parseText(false)
			if err != nil {
				return err
			}

			command.CurlyArgs = append(command.CurlyArgs, arg)
			command.rng.End = end
			squareAllowed = false

		default:
			p.tokenizer.Reset(resume)
			break loop
		}
	}

	p.popContext(lexer.ContextCommandTail)

	return nil
}

// nextSignificant pulls the next token that is not whitespace, a newline or
// a comment. 'resume' marks the position before the skipped trivia and
// 'before' the position right before the returned token.
func (p *Parser) nextSignificant() (token lexer.Token, resume, before lexer.Cursor, err error) {
	resume = p.tokenizer.Mark()

	for {
		before = p.tokenizer.Mark()

		token, err = p.next()
		if err != nil {
			return token, resume, before, err
		}

		switch {
		case token.ID == lexer.Newline, token.IsBlank():
			continue

		case token.ID == lexer.LineCommentStartMarker:
			if err = p.parseLineComment(); err != nil {
				return token, resume, before, err
			}

		case token.ID == lexer.BlockCommentStartMarker:
			if err = p.parseBlockComment(); err != nil {
				return token, resume, before, err
			}

		default:
			return token, resume, before, nil
		}
	}
}
