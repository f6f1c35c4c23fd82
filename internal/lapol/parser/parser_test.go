package parser

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pacer/lapol/internal/lapol/lexer"
)

// structural ignores ranges and source positions.
var structural = cmp.Options{
	cmpopts.IgnoreUnexported(RootNode{}, CommandNode{}, TextNode{}),
	cmpopts.IgnoreFields(TextNode{}, "SourceLine", "SourceCol"),
}

func text(content string) *TextNode {
	return &TextNode{Content: content}
}

func nodes(n ...AstNode) []AstNode {
	if n == nil {
		return []AstNode{}
	}
	return n
}

func val(e SquareEntry) SquareArg {
	return SquareArg{Value: e}
}

func keyVal(k, v SquareEntry) SquareArg {
	return SquareArg{Key: &k, Value: v}
}

func num(n float64) SquareEntry   { return SquareEntry{Kind: EntryNum, Num: n} }
func ident(s string) SquareEntry  { return SquareEntry{Kind: EntryIdent, Ident: s} }
func boolean(b bool) SquareEntry  { return SquareEntry{Kind: EntryBool, Bool: b} }
func quoted(s string) SquareEntry { return SquareEntry{Kind: EntryQuotedStr, Str: s} }

func command(name string, square []SquareArg, curly ...[]AstNode) *CommandNode {
	if curly == nil {
		curly = [][]AstNode{}
	}
	return &CommandNode{CommandName: name, SquareArgs: square, CurlyArgs: curly}
}

func mustParse(t *testing.T, source string, opts ...Option) *RootNode {
	t.Helper()

	root, err := New(source, opts...).Parse()
	if err != nil {
		t.Fatalf("unexpected error while parsing %q: %v", source, err)
	}

	if root == nil {
		t.Fatalf("unexpected <nil> root for %q", source)
	}

	return root
}

func TestParse_Text(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []AstNode
	}{
		{"empty document", "", nodes()},
		{"single run", "hello world", nodes(text("hello world"))},
		{"newline splits runs", "a\nb", nodes(text("a"), text("\n"), text("b"))},
		{"crlf is normalized", "a\r\nb", nodes(text("a"), text("\n"), text("b"))},
		{"consecutive newlines", "\n\n", nodes(text("\n"), text("\n"))},
		{"balanced braces are text", "a {b} c", nodes(text("a {b} c"))},
		{"special char before brace is text", "@{x}", nodes(text("@{x}"))},
		{"special char before escape brace is text", "mail@|me", nodes(text("mail@|me"))},
		{"square brackets are text", "[a, b]", nodes(text("[a, b]"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.source)

			if diff := cmp.Diff(tt.want, root.SubNodes, structural); diff != "" {
				t.Errorf("AST mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_MergeAdjacentText(t *testing.T) {
	pieces := []string{"one ", "two", " {three}", " four"}

	source := ""
	for _, piece := range pieces {
		source += piece
	}

	root := mustParse(t, source)
	if len(root.SubNodes) != 1 {
		t.Fatalf("Expected a single merged node, got %d: %s", len(root.SubNodes), root)
	}

	if got := root.SubNodes[0].(*TextNode).Content; got != source {
		t.Errorf("Expected merged content %q, got %q", source, got)
	}

	root = mustParse(t, "one\ntwo {x}\nthree")
	want := nodes(text("one"), text("\n"), text("two {x}"), text("\n"), text("three"))

	if diff := cmp.Diff(want, root.SubNodes, structural); diff != "" {
		t.Errorf("AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_CommandTerminationForms(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []AstNode
	}{
		{
			name:   "force end after name",
			source: "@cmd;",
			want:   nodes(command("cmd", nil)),
		},
		{
			name:   "force end after square args",
			source: "@cmd[a=1, b=true];",
			want: nodes(command("cmd", []SquareArg{
				keyVal(ident("a"), num(1)),
				keyVal(ident("b"), boolean(true)),
			})),
		},
		{
			name:   "two curly args",
			source: "@cmd{x}{y}",
			want:   nodes(command("cmd", nil, nodes(text("x")), nodes(text("y")))),
		},
		{
			name:   "force end after curly args",
			source: "@cmd{x};rest",
			want:   nodes(command("cmd", nil, nodes(text("x"))), text("rest")),
		},
		{
			name:   "force end keeps the following space",
			source: "@cmd; rest",
			want:   nodes(command("cmd", nil), text(" rest")),
		},
		{
			name:   "command ends at plain text",
			source: "@cmd rest",
			want:   nodes(command("cmd", nil), text(" rest")),
		},
		{
			name:   "command at end of input",
			source: "see @cmd",
			want:   nodes(text("see "), command("cmd", nil)),
		},
		{
			name:   "square args after curly args are text",
			source: "@cmd{x}[y]",
			want:   nodes(command("cmd", nil, nodes(text("x"))), text("[y]")),
		},
		{
			name:   "empty square list",
			source: "@cmd[];",
			want:   nodes(command("cmd", []SquareArg{})),
		},
		{
			name:   "empty curly arg",
			source: "@cmd{}",
			want:   nodes(command("cmd", nil, nodes())),
		},
		{
			name:   "trivia between arguments",
			source: "@cmd [x] @%{note}\n {y} ;after",
			want: nodes(
				command("cmd", []SquareArg{val(ident("x"))}, nodes(text("y"))),
				text("after"),
			),
		},
		{
			name:   "trivia before plain text is kept",
			source: "@cmd\n  text",
			want:   nodes(command("cmd", nil), text("\n"), text("  text")),
		},
		{
			name:   "command inside curly arg",
			source: "@outer{a @inner{b} c}",
			want: nodes(command("outer", nil, nodes(
				text("a "),
				command("inner", nil, nodes(text("b"))),
				text(" c"),
			))),
		},
		{
			name:   "nested braces inside curly arg",
			source: "@cmd{a {b} c}",
			want:   nodes(command("cmd", nil, nodes(text("a {b} c")))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.source)

			if diff := cmp.Diff(tt.want, root.SubNodes, structural); diff != "" {
				t.Errorf("AST mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_SquareArgs(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []SquareArg
	}{
		{
			name:   "values",
			source: `@c[1, -2.5, .5, +3, ident, TRUE, False, "str"]`,
			want: []SquareArg{
				val(num(1)), val(num(-2.5)), val(num(0.5)), val(num(3)),
				val(ident("ident")), val(boolean(true)), val(boolean(false)),
				val(quoted("str")),
			},
		},
		{
			name:   "trailing comma",
			source: "@c[a,]",
			want:   []SquareArg{val(ident("a"))},
		},
		{
			name:   "non identifier keys",
			source: `@c["k"=1, 2=x]`,
			want: []SquareArg{
				keyVal(quoted("k"), num(1)),
				keyVal(num(2), ident("x")),
			},
		},
		{
			name:   "entries across lines",
			source: "@c[\n  a = 1,\n  b = 2\n]",
			want: []SquareArg{
				keyVal(ident("a"), num(1)),
				keyVal(ident("b"), num(2)),
			},
		},
		{
			name:   "quoted escapes",
			source: `@c["a\"b\\c\/d\n\t\u{41}\u{1F600}"]`,
			want:   []SquareArg{val(quoted("a\"b\\c/d\n\tA\U0001F600"))},
		},
		{
			name:   "backslash whitespace elision",
			source: "@c[\"one \\\n    two\"]",
			want:   []SquareArg{val(quoted("one two"))},
		},
		{
			name:   "structural chars inside quotes",
			source: `@c["a, b = ] {c}"]`,
			want:   []SquareArg{val(quoted("a, b = ] {c}"))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.source)

			if len(root.SubNodes) != 1 {
				t.Fatalf("Expected one node, got %d: %s", len(root.SubNodes), root)
			}

			cmd, ok := root.SubNodes[0].(*CommandNode)
			if !ok {
				t.Fatalf("Expected a command node, got %s", root.SubNodes[0])
			}

			if diff := cmp.Diff(tt.want, cmd.SquareArgs, structural); diff != "" {
				t.Errorf("square args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_NestedCommandEntry(t *testing.T) {
	root := mustParse(t, "@a[k=@b{x}, @c;, 2]")

	inner := command("b", nil, nodes(text("x")))
	want := nodes(command("a", []SquareArg{
		keyVal(ident("k"), SquareEntry{Kind: EntryAstNode, Node: inner}),
		val(SquareEntry{Kind: EntryAstNode, Node: command("c", nil)}),
		val(num(2)),
	}))

	if diff := cmp.Diff(want, root.SubNodes, structural); diff != "" {
		t.Errorf("AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_CommentStripping(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []AstNode
	}{
		{
			name:   "block comment with nested braces",
			source: "before @%{ @weird {nested} stuff } after",
			want:   nodes(text("before  after")),
		},
		{
			name:   "escaped block comment",
			source: "a@%|<{ } } >}|b",
			want:   nodes(text("ab")),
		},
		{
			name:   "line comment keeps its newline",
			source: "a @% comment\nb",
			want:   nodes(text("a "), text("\n"), text("b")),
		},
		{
			name:   "line comment at end of input",
			source: "a @% comment",
			want:   nodes(text("a ")),
		},
		{
			name:   "line comment hides commands",
			source: "@% @cmd{ }\nx",
			want:   nodes(text("\n"), text("x")),
		},
		{
			name:   "comment inside curly arg",
			source: "@cmd{a@% c\nb}",
			want:   nodes(command("cmd", nil, nodes(text("a"), text("\n"), text("b")))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.source)

			if diff := cmp.Diff(tt.want, root.SubNodes, structural); diff != "" {
				t.Errorf("AST mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_EscapeRoundTrip(t *testing.T) {
	cfg := lexer.DefaultConfig()
	body := "plain { and } braces @ and | bars"

	for _, opener := range []string{"{", "|{", "|<{", "|([{", "|<([{"} {
		t.Run(opener, func(t *testing.T) {
			esc := lexer.ResolveEscape(opener, cfg)

			arg := body
			if esc.IsDefault() {
				arg = "plain {and} text"
			}

			source := "@c" + opener + arg + esc.CloseCurly + "tail"
			root := mustParse(t, source)

			want := nodes(command("c", nil, nodes(text(arg))), text("tail"))
			if diff := cmp.Diff(want, root.SubNodes, structural); diff != "" {
				t.Errorf("AST mismatch for %q (-want +got):\n%s", source, diff)
			}
		})
	}
}

func TestParse_EscapedScopeCommands(t *testing.T) {
	root := mustParse(t, "@code|<{ x } @y |<@em{z} >}|")

	want := nodes(command("code", nil, nodes(
		text(" x } @y "),
		command("em", nil, nodes(text("z"))),
		text(" "),
	)))

	if diff := cmp.Diff(want, root.SubNodes, structural); diff != "" {
		t.Errorf("AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_CommandTailUsesEnclosingScope(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []AstNode
	}{
		{
			name:   "plain comment marker is text inside an escape scope",
			source: "@a|{ |@b @%{{ }|",
			want: nodes(command("a", nil, nodes(
				text(" "),
				command("b", nil),
				text(" @%{{ "),
			))),
		},
		{
			name:   "escaped comment separates a command from its curly argument",
			source: "@a|{ |@b |@%{c} {x} }|",
			want: nodes(command("a", nil, nodes(
				text(" "),
				command("b", nil, nodes(text("x"))),
				text(" "),
			))),
		},
		{
			name:   "escaped line comment inside a command tail",
			source: "@a|{|@b |@% note\n{x}}|",
			want: nodes(command("a", nil, nodes(
				command("b", nil, nodes(text("x"))),
			))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.source)

			if diff := cmp.Diff(tt.want, root.SubNodes, structural); diff != "" {
				t.Errorf("AST mismatch for %q (-want +got):\n%s", tt.source, diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		class  error
	}{
		{"unclosed square list", "@cmd[unclosed", ErrMalformedCommand},
		{"dangling special char", "text @", ErrMalformedCommand},
		{"space after special char", "@ cmd", ErrMalformedCommand},
		{"invalid command name", "@1cmd", ErrMalformedCommand},
		{"reserved command name", "@true", ErrMalformedCommand},
		{"reserved command name any case", "@Undefined{x}", ErrMalformedCommand},
		{"reserved identifier entry", "@c[null]", ErrMalformedCommand},
		{"reserved identifier key", "@c[NULL=1]", ErrMalformedCommand},
		{"unclosed curly arg", "@cmd{abc", ErrMalformedCommand},
		{"unclosed escaped curly arg", "@cmd|<{abc}|", ErrMalformedCommand},
		{"missing separator", "@c[a b]", ErrMalformedCommand},
		{"lone separator", "@c[,]", ErrMalformedCommand},
		{"missing value", "@c[a=]", ErrMalformedCommand},
		{"invalid number", "@c[1.2.3]", ErrMalformedCommand},
		{"infinite number", "@c[1e999]", ErrMalformedCommand},
		{"hexadecimal number", "@c[0x1p3]", ErrMalformedCommand},
		{"number with underscores", "@c[0x1_0]", ErrMalformedCommand},
		{"invalid word", "@c[a-b]", ErrMalformedCommand},
		{"unterminated string", `@c["abc]`, ErrMalformedCommand},
		{"invalid escape", `@c["\q"]`, ErrMalformedCommand},
		{"invalid unicode escape", `@c["\u{110000}"]`, ErrMalformedCommand},
		{"malformed nested command", "@a{@b[}", ErrMalformedCommand},
		{"unmatched close curly at root", "a } b", ErrGrammarViolation},
		{"unclosed open curly at root", "a { b", ErrGrammarViolation},
		{"unterminated block comment", "@%{ a {b}", ErrGrammarViolation},
		{"block comment without brace", "@%|x", ErrGrammarViolation},
		{"bad carriage return", "a\rb", lexer.ErrBadCarriageReturn},
		{"bad carriage return inside command", "@c{a\r}", lexer.ErrScan},
		{"bad carriage return in quoted string", "@c[x=\"a\rb\"]", lexer.ErrBadCarriageReturn},
		{"invalid utf8", "ok \xff", ErrEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := New(tt.source).Parse()

			if root != nil {
				t.Errorf("Expected <nil> root on error, got %s", root)
			}

			if !errors.Is(err, tt.class) {
				t.Fatalf("Expected error of class %q, got %v", tt.class, err)
			}

			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Expected *ParseError, got %T", err)
			}

			if parseErr.Token == nil {
				t.Errorf("Expected the offending token to be reported: %s", parseErr)
			}
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	tests := []struct {
		source string
		line   int
		col    int
	}{
		{"ab\ncd }", 2, 4},
		{"x\n\n  @c[a b]", 3, 8},
		{"é \xff", 1, 3},
		{"a\r\nb\rc", 2, 2},
	}

	for _, tt := range tests {
		_, err := New(tt.source).Parse()

		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Expected *ParseError for %q, got %v", tt.source, err)
		}

		start := parseErr.GetRange().Start
		if start.Line != tt.line || start.Character != tt.col {
			t.Errorf(
				"Expected error at %d:%d for %q, got %d:%d (%s)",
				tt.line, tt.col, tt.source, start.Line, start.Character, parseErr.GetError(),
			)
		}
	}
}

func TestParse_SourcePositions(t *testing.T) {
	root := mustParse(t, "a\n@b{cd\n é}")

	cmd := root.SubNodes[2].(*CommandNode)
	arg := cmd.CurlyArgs[0]

	want := []struct {
		content   string
		line, col int
	}{
		{"cd", 2, 4},
		{"\n", 2, 6},
		{" é", 3, 1},
	}

	if len(arg) != len(want) {
		t.Fatalf("Expected %d nodes, got %d", len(want), len(arg))
	}

	for i, w := range want {
		node := arg[i].(*TextNode)
		if node.Content != w.content || node.SourceLine != w.line || node.SourceCol != w.col {
			t.Errorf(
				"node %d: expected %q at %d:%d, got %q at %d:%d",
				i, w.content, w.line, w.col, node.Content, node.SourceLine, node.SourceCol,
			)
		}
	}

	if got := cmd.Range(); got.Start.Offset != 2 || got.End.Offset != 12 {
		t.Errorf("Unexpected command range %s", got)
	}

	if got := root.Range().End.Offset; got != 12 {
		t.Errorf("Expected root to end at offset 12, got %d", got)
	}
}

func TestParse_MaxDepth(t *testing.T) {
	source := "@a{@b{@c}}"

	mustParse(t, source, WithMaxDepth(3))

	_, err := New(source, WithMaxDepth(2)).Parse()
	if !errors.Is(err, ErrMaxDepth) {
		t.Errorf("Expected ErrMaxDepth, got %v", err)
	}
}

func TestParse_CustomConfig(t *testing.T) {
	cfg := lexer.DefaultConfig()
	cfg.SpecialChar = '\\'
	cfg.CommentMarker = '#'

	root, err := Parse([]byte(`x \b{y} @z \# gone`), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := nodes(text("x "), command("b", nil, nodes(text("y"))), text(" @z "))
	if diff := cmp.Diff(want, root.SubNodes, structural); diff != "" {
		t.Errorf("AST mismatch (-want +got):\n%s", diff)
	}

	cfg.ForceEnd = '\\'
	if _, err := Parse([]byte("x"), cfg); !errors.Is(err, lexer.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestParse_Trace(t *testing.T) {
	var traced []lexer.Kind
	var contexts []lexer.Context

	trace := func(token lexer.Token, ctx lexer.Context) {
		traced = append(traced, token.ID)
		contexts = append(contexts, ctx)
	}

	mustParse(t, "@a;", WithTrace(trace))

	wantKinds := []lexer.Kind{lexer.CommandStartMarker, lexer.Text, lexer.CommandForceEndMarker, lexer.Eof}
	if diff := cmp.Diff(wantKinds, traced); diff != "" {
		t.Errorf("traced kinds mismatch (-want +got):\n%s", diff)
	}

	wantContexts := []lexer.Context{
		lexer.ContextText, lexer.ContextCommandName, lexer.ContextCommandTail, lexer.ContextText,
	}
	if diff := cmp.Diff(wantContexts, contexts); diff != "" {
		t.Errorf("traced contexts mismatch (-want +got):\n%s", diff)
	}
}

func TestParser_SingleUse(t *testing.T) {
	p := New("x")
	if _, err := p.Parse(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected a second Parse call to panic")
		}
	}()

	_, _ = p.Parse()
}
