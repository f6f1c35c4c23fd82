package parser

import (
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/pacer/lapol/internal/lapol/lexer"
)

var (
	// ErrGrammarViolation is raised when a token shows up where the grammar
	// forbids it, such as an unmatched close curly at the root.
	ErrGrammarViolation = errors.New("grammar violation")

	// ErrMalformedCommand is raised for any syntax failure once a command
	// start marker has been seen. A dangling command marker is never
	// downgraded to plain text.
	ErrMalformedCommand = errors.New("malformed command")

	// ErrEncoding is raised when the source is not valid UTF-8.
	ErrEncoding = errors.New("invalid UTF-8 encoding")

	// ErrMaxDepth is raised when commands nest deeper than the configured limit.
	ErrMaxDepth = errors.New("maximum nesting depth exceeded")
)

type ParseError struct {
	Err   error
	Range lexer.Range
	Token *lexer.Token
}

func (p ParseError) GetError() string {
	return p.Err.Error()
}

func (p ParseError) GetRange() lexer.Range {
	return p.Range
}

func (p *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", p.Range.Start.Line, p.Range.Start.Character, p.Err)
}

func (p *ParseError) Unwrap() error {
	return p.Err
}

func NewParseError(token *lexer.Token, err error) *ParseError {
	if token == nil {
		panic("token cannot be <nil> while creating a parse error")
	}

	return &ParseError{
		Err:   err,
		Range: token.Range,
		Token: token,
	}
}

// newClassError builds a parse error belonging to one of the error classes.
func newClassError(token lexer.Token, class error, format string, args ...any) *ParseError {
	err := fmt.Errorf("%w: %s", class, fmt.Sprintf(format, args...))
	return NewParseError(&token, err)
}

// Option customizes a Parser.
type Option func(*Parser)

// WithConfig sets the characters the tokenizer treats as syntax.
func WithConfig(cfg lexer.Config) Option {
	return func(p *Parser) {
		p.cfg = cfg
	}
}

// WithMaxDepth limits how deeply commands may nest. 0 means no limit.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// WithTrace registers a hook observing every token the parser pulls.
func WithTrace(fn func(lexer.Token, lexer.Context)) Option {
	return func(p *Parser) {
		p.trace = fn
	}
}

// Parser is a recursive-descent parser over a single source. It owns its
// tokenizer and is single use.
type Parser struct {
	source    string
	cfg       lexer.Config
	tokenizer *lexer.Tokenizer
	trace     func(lexer.Token, lexer.Context)

	maxDepth     int
	currentDepth int
	used         bool
}

func New(source string, opts ...Option) *Parser {
	p := &Parser{
		source: source,
		cfg:    lexer.DefaultConfig(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Parse converts 'source' to its syntax tree. The first error aborts the
// whole parse and no partial tree is returned.
func Parse(source []byte, cfg lexer.Config) (*RootNode, error) {
	return New(string(source), WithConfig(cfg)).Parse()
}

func (p *Parser) Parse() (*RootNode, error) {
	if p.used {
		panic("parser is single use, create a new one for every parse")
	}
	p.used = true

	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	if err := checkEncoding(p.source); err != nil {
		return nil, err
	}

	p.tokenizer = lexer.NewTokenizer(p.source, p.cfg)
	if p.trace != nil {
		p.tokenizer.SetTrace(p.trace)
	}

	nodes, end, err := p.parseText(true)
	if err != nil {
		return nil, err
	}

	if depth := p.tokenizer.Depth(); depth != 0 {
		log.Printf("tokenizer context stack not empty after parsing\n depth = %d\n", depth)
		panic("tokenizer context stack not empty after parsing")
	}

	root := &RootNode{
		SubNodes: nodes,
		rng: lexer.Range{
			Start: lexer.Position{Offset: 0, Line: 1, Character: 1},
			End:   end,
		},
	}

	return root, nil
}

func checkEncoding(source string) *ParseError {
	if utf8.ValidString(source) {
		return nil
	}

	offset := 0
	for offset < len(source) {
		r, size := utf8.DecodeRuneInString(source[offset:])
		if r == utf8.RuneError && size == 1 {
			break
		}
		offset += size
	}

	start := lexer.PositionAt(source, offset)
	end := start
	end.Offset++
	end.Character++

	token := lexer.NewToken(lexer.Text, lexer.Range{Start: start, End: end}, source[offset:offset+1])

	return newClassError(token, ErrEncoding, "invalid byte 0x%02x", source[offset])
}

// next pulls one token, converting tokenizer failures to parse errors.
func (p *Parser) next() (lexer.Token, error) {
	token, err := p.tokenizer.Next()
	if err == nil {
		return token, nil
	}

	var lexErr *lexer.LexerError
	if errors.As(err, &lexErr) {
		return token, &ParseError{
			Err:   lexErr.Err,
			Range: lexErr.Range,
			Token: lexErr.Token,
		}
	}

	return token, err
}

func (p *Parser) popContext(expected lexer.Context) {
	ctx, esc := p.tokenizer.PopContext()
	if ctx == expected {
		return
	}

	log.Printf(
		"tokenizer context mismatch\n expected = %s\n popped = %s (%s)\n",
		expected,
		ctx,
		esc,
	)
	panic("tokenizer context mismatch, expected " + expected.String() + " but popped " + ctx.String())
}

// openBrace consumes exactly one generic open curly and returns it.
// 'class' is the error class reported when no brace is found.
func (p *Parser) openBrace(class error, construct string) (lexer.Token, error) {
	p.tokenizer.PushContext(lexer.ContextGenericCurlyStart, p.tokenizer.DefaultEscape())

	brace, err := p.next()
	if err != nil {
		return brace, err
	}

	p.popContext(lexer.ContextGenericCurlyStart)

	if brace.ID != lexer.OpenCurly {
		return brace, newClassError(brace, class, "expected an open curly to start %s, found %s", construct, brace.ID)
	}

	return brace, nil
}

// parseText parses a text region up to its closing curly, or up to the end
// of input for the root region. The returned position is where the region
// ends, closing curly included.
func (p *Parser) parseText(root bool) ([]AstNode, lexer.Position, error) {
	var opener lexer.Token

	if root {
		p.tokenizer.PushContext(lexer.ContextText, p.tokenizer.DefaultEscape())
	} else {
		brace, err := p.openBrace(ErrMalformedCommand, "a curly argument")
		if err != nil {
			return nil, lexer.Position{}, err
		}

		opener = brace
		p.tokenizer.PushContext(lexer.ContextText, p.tokenizer.EscapeFor(brace))
	}

	_, esc := p.tokenizer.TopContext()

	nodes := make([]AstNode, 0)
	var opened []lexer.Token // unmatched open curlies within the region

	var end lexer.Position

loop:
	for {
		token, err := p.next()
		if err != nil {
			return nil, end, err
		}

		end = token.Range.End

		switch token.ID {
		case lexer.Eof:
			if !root {
				return nil, end, newClassError(
					opener, ErrMalformedCommand,
					"unexpected end of input, missing %q to close curly argument", esc.CloseCurly,
				)
			}

			if size := len(opened); size > 0 {
				return nil, end, newClassError(
					opened[size-1], ErrGrammarViolation,
					"unclosed %q at end of input", opened[size-1].Value,
				)
			}

			break loop

		case lexer.Newline, lexer.Text:
			nodes = appendNode(nodes, newTextNode(token), p.source)

		case lexer.OpenCurly:
			opened = append(opened, token)
			nodes = appendNode(nodes, newTextNode(token), p.source)

		case lexer.CloseCurly:
			if len(opened) > 0 {
				opened = opened[:len(opened)-1]
				nodes = appendNode(nodes, newTextNode(token), p.source)

				continue
			}

			if root {
				return nil, end, newClassError(
					token, ErrGrammarViolation,
					"unexpected %q without a matching open curly", token.Value,
				)
			}

			break loop

		case lexer.CommandStartMarker:
			command, err := p.parseCommand(token)
			if err != nil {
				return nil, end, err
			}

			nodes = append(nodes, command)

		case lexer.BlockCommentStartMarker:
			if err := p.parseBlockComment(); err != nil {
				return nil, end, err
			}

		case lexer.LineCommentStartMarker:
			if err := p.parseLineComment(); err != nil {
				return nil, end, err
			}

		default:
			return nil, end, newClassError(
				token, ErrGrammarViolation,
				"unexpected %s %q in text", token.ID, token.Value,
			)
		}
	}

	p.popContext(lexer.ContextText)

	return nodes, end, nil
}

// appendNode appends 'node' to 'nodes', merging adjacent text nodes unless
// either of them is a lone newline.
func appendNode(nodes []AstNode, node AstNode, source string) []AstNode {
	text, ok := node.(*TextNode)
	if !ok || text.Content == "\n" || len(nodes) == 0 {
		return append(nodes, node)
	}

	last, ok := nodes[len(nodes)-1].(*TextNode)
	if !ok || last.Content == "\n" {
		return append(nodes, node)
	}

	last.merge(text, source)

	return nodes
}
