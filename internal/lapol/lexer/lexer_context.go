package lexer

import (
	"unicode"
	"unicode/utf8"
)

// Context is a lexical mode of the tokenizer. The parser pushes a context
// when it enters a construct and pops it when it leaves.
type Context int

const (
	ContextText Context = iota
	ContextLineComment
	ContextBlockComment
	// ContextGenericCurlyStart expects exactly one open curly, plain or
	// escaped ('{', '|{', '|<({', ...), which opens a new escape scope.
	ContextGenericCurlyStart
	ContextCommandName
	// ContextCommandTail sits between the arguments of a command.
	ContextCommandTail
	ContextSquareArgs
)

var contextNames = [...]string{
	ContextText:              "Text",
	ContextLineComment:       "LineComment",
	ContextBlockComment:      "BlockComment",
	ContextGenericCurlyStart: "GenericCurlyStart",
	ContextCommandName:       "CommandName",
	ContextCommandTail:       "CommandTail",
	ContextSquareArgs:        "SquareArgs",
}

func (c Context) String() string {
	if c < 0 || int(c) >= len(contextNames) {
		return "Context(unknown)"
	}

	return contextNames[c]
}

// contextRules lists the token classes a context is allowed to match.
// CRLF and newline are matched in every context.
type contextRules struct {
	comments         bool
	commandStart     bool
	genericOpenCurly bool
	openCurly        bool
	closeCurly       bool
	forceEnd         bool
	openSquare       bool
	closeSquare      bool
	squarePunct      bool
	quotedString     bool
	whitespace       bool
	nameTerminators  bool
}

var rulesByContext = [...]contextRules{
	ContextText: {
		comments:     true,
		commandStart: true,
		openCurly:    true,
		closeCurly:   true,
	},
	ContextLineComment: {},
	ContextBlockComment: {
		openCurly:  true,
		closeCurly: true,
	},
	ContextGenericCurlyStart: {
		genericOpenCurly: true,
	},
	ContextCommandName: {
		nameTerminators: true,
	},
	ContextCommandTail: {
		comments:         true,
		genericOpenCurly: true,
		forceEnd:         true,
		openSquare:       true,
		whitespace:       true,
	},
	ContextSquareArgs: {
		commandStart: true,
		closeSquare:  true,
		squarePunct:  true,
		quotedString: true,
		whitespace:   true,
	},
}

func rulesFor(ctx Context) contextRules {
	if ctx < 0 || int(ctx) >= len(rulesByContext) {
		panic("unknown tokenizer context: " + ctx.String())
	}

	return rulesByContext[ctx]
}

// interestingRunes returns every rune that may start a non-text token in
// the given context and escape scope. A text run never extends over one of
// them, so the escaped closer '>}|' is found even in 'abc>}|'.
func interestingRunes(ctx Context, esc EscapeContext, cfg Config) []rune {
	rules := rulesFor(ctx)
	runes := []rune{'\r', '\n'}

	add := func(s string) {
		if r, size := utf8.DecodeRuneInString(s); size > 0 {
			runes = append(runes, r)
		}
	}

	if rules.comments || rules.commandStart {
		add(esc.CommandMarker(cfg))
	}
	if rules.genericOpenCurly {
		runes = append(runes, cfg.EscapeBrace, cfg.OpenCurly)
	}
	if rules.openCurly {
		add(esc.OpenCurly)
	}
	if rules.closeCurly {
		add(esc.CloseCurly)
	}
	if rules.forceEnd {
		runes = append(runes, cfg.ForceEnd)
	}
	if rules.openSquare {
		runes = append(runes, cfg.OpenSquare)
	}
	if rules.closeSquare {
		runes = append(runes, cfg.CloseSquare)
	}
	if rules.squarePunct {
		runes = append(runes, cfg.Separator, cfg.Assign)
	}
	if rules.quotedString {
		runes = append(runes, cfg.Quote)
	}
	if rules.nameTerminators {
		runes = append(runes,
			cfg.SpecialChar, cfg.CommentMarker,
			cfg.OpenCurly, cfg.CloseCurly,
			cfg.OpenSquare, cfg.CloseSquare,
			cfg.EscapeBrace, cfg.ForceEnd,
		)
	}

	return runes
}

func isWhitespace(r rune) bool {
	return r != '\n' && r != '\r' && unicode.IsSpace(r)
}
