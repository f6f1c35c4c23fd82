package lexer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolveEscape(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		opener string
		want   EscapeContext
	}{
		{"{", EscapeContext{OpenCurly: "{", CloseCurly: "}", Special: ""}},
		{"|{", EscapeContext{OpenCurly: "|{", CloseCurly: "}|", Special: "|"}},
		{"|<{", EscapeContext{OpenCurly: "|<{", CloseCurly: ">}|", Special: "|<"}},
		{"|<({", EscapeContext{OpenCurly: "|<({", CloseCurly: ")>}|", Special: "|<("}},
		{"|[<<{", EscapeContext{OpenCurly: "|[<<{", CloseCurly: ">>]}|", Special: "|[<<"}},
	}

	for _, tt := range tests {
		t.Run(tt.opener, func(t *testing.T) {
			got := ResolveEscape(tt.opener, cfg)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("escape mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveEscape_Markers(t *testing.T) {
	cfg := DefaultConfig()

	plain := ResolveEscape("{", cfg)
	if !plain.IsDefault() {
		t.Error("Expected '{' to open the default scope")
	}

	if got := plain.CommandMarker(cfg); got != "@" {
		t.Errorf("Expected command marker '@', got %q", got)
	}

	escaped := ResolveEscape("|<{", cfg)
	if escaped.IsDefault() {
		t.Error("Expected '|<{' to open an escaped scope")
	}

	if got := escaped.CommandMarker(cfg); got != "|<@" {
		t.Errorf("Expected command marker '|<@', got %q", got)
	}

	if got := escaped.CommentMarker(cfg); got != "|<@%" {
		t.Errorf("Expected comment marker '|<@%%', got %q", got)
	}
}

func TestResolveEscape_MalformedPanics(t *testing.T) {
	cfg := DefaultConfig()

	for _, opener := range []string{"", "|", "x{", "|x{", "<{"} {
		t.Run(opener, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Expected ResolveEscape(%q) to panic", opener)
				}
			}()

			ResolveEscape(opener, cfg)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Expected default config to be valid, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unset char", func(c *Config) { c.Quote = 0 }},
		{"whitespace char", func(c *Config) { c.Separator = ' ' }},
		{"newline char", func(c *Config) { c.Assign = '\n' }},
		{"duplicate char", func(c *Config) { c.ForceEnd = '@' }},
		{"escape symbol as curly", func(c *Config) { c.OpenCurly = '<' }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestCustomConfig_Tokenize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpecialChar = '\\'
	cfg.CommentMarker = '#'

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected invalid config: %v", err)
	}

	tok := NewTokenizer(`a\b{c}\# d`, cfg)
	tok.PushContext(ContextText, tok.DefaultEscape())

	want := []Kind{Text, CommandStartMarker, Text, OpenCurly, Text, CloseCurly, LineCommentStartMarker, Text, Eof}

	var got []Kind
	for range want {
		token, err := tok.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, token.ID)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token kinds mismatch (-want +got):\n%s", diff)
	}
}
