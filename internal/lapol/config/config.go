package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/pacer/lapol/internal/lapol/lexer"
)

// EnvConfigPath names the environment variable pointing at a config file.
const EnvConfigPath = "LAPOL_CONFIG"

// DefaultPaths are probed, in order, when no config path is given.
var DefaultPaths = []string{"./lapol.toml", "./lapol.yaml", "./lapol.yml"}

var ErrInvalid = errors.New("invalid configuration")

// Config holds the complete application configuration
type Config struct {
	Syntax SyntaxConfig `toml:"syntax" yaml:"syntax"`
	Parser ParserConfig `toml:"parser" yaml:"parser"`
	Files  FilesConfig  `toml:"files" yaml:"files"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

// SyntaxConfig overrides the characters the tokenizer treats as syntax.
// Each field holds exactly one character; empty fields keep the default.
type SyntaxConfig struct {
	Special       string `toml:"special" yaml:"special"`
	CommentMarker string `toml:"comment_marker" yaml:"comment_marker"`
	OpenCurly     string `toml:"open_curly" yaml:"open_curly"`
	CloseCurly    string `toml:"close_curly" yaml:"close_curly"`
	OpenSquare    string `toml:"open_square" yaml:"open_square"`
	CloseSquare   string `toml:"close_square" yaml:"close_square"`
	EscapeBrace   string `toml:"escape_brace" yaml:"escape_brace"`
	ForceEnd      string `toml:"force_end" yaml:"force_end"`
	Separator     string `toml:"separator" yaml:"separator"`
	Assign        string `toml:"assign" yaml:"assign"`
	Quote         string `toml:"quote" yaml:"quote"`
}

// ParserConfig holds parser limits
type ParserConfig struct {
	MaxDepth int `toml:"max_depth" yaml:"max_depth"`
}

// FilesConfig controls workspace file discovery
type FilesConfig struct {
	Extensions []string `toml:"extensions" yaml:"extensions"`
	MaxDepth   int      `toml:"max_depth" yaml:"max_depth"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()

	return &cfg
}

// Load reads a TOML or YAML file, picked by extension, and fills in
// defaults for every missing setting.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	//nolint:gosec // path is chosen by the user
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	case ".toml", "":
		if _, err := toml.Decode(string(content), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalid, ext)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Discover loads the config at 'path' when set, otherwise the one named by
// LAPOL_CONFIG, otherwise the first existing file of DefaultPaths. Without
// any file the defaults are returned and the returned path is empty.
func Discover(path string) (*Config, string, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	if path == "" {
		for _, candidate := range DefaultPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path == "" {
		return Default(), "", nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	def := lexer.DefaultConfig()

	setChar(&c.Syntax.Special, def.SpecialChar)
	setChar(&c.Syntax.CommentMarker, def.CommentMarker)
	setChar(&c.Syntax.OpenCurly, def.OpenCurly)
	setChar(&c.Syntax.CloseCurly, def.CloseCurly)
	setChar(&c.Syntax.OpenSquare, def.OpenSquare)
	setChar(&c.Syntax.CloseSquare, def.CloseSquare)
	setChar(&c.Syntax.EscapeBrace, def.EscapeBrace)
	setChar(&c.Syntax.ForceEnd, def.ForceEnd)
	setChar(&c.Syntax.Separator, def.Separator)
	setChar(&c.Syntax.Assign, def.Assign)
	setChar(&c.Syntax.Quote, def.Quote)

	if len(c.Files.Extensions) == 0 {
		c.Files.Extensions = []string{".lap", ".lapol"}
	}
	if c.Files.MaxDepth == 0 {
		c.Files.MaxDepth = 5
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func setChar(field *string, char rune) {
	if *field == "" {
		*field = string(char)
	}
}

// Validate checks the syntax characters and the log settings.
func (c *Config) Validate() error {
	if _, err := c.LexerConfig(); err != nil {
		return err
	}

	if c.Parser.MaxDepth < 0 {
		return fmt.Errorf("%w: parser.max_depth must not be negative", ErrInvalid)
	}

	if c.Files.MaxDepth < 0 {
		return fmt.Errorf("%w: files.max_depth must not be negative", ErrInvalid)
	}

	for _, ext := range c.Files.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: file extension %q must start with '.'", ErrInvalid, ext)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Log.Format)
	}

	return nil
}

// LexerConfig converts the syntax section to a tokenizer configuration.
func (c *Config) LexerConfig() (lexer.Config, error) {
	var cfg lexer.Config

	fields := []struct {
		name  string
		value string
		dst   *rune
	}{
		{"special", c.Syntax.Special, &cfg.SpecialChar},
		{"comment_marker", c.Syntax.CommentMarker, &cfg.CommentMarker},
		{"open_curly", c.Syntax.OpenCurly, &cfg.OpenCurly},
		{"close_curly", c.Syntax.CloseCurly, &cfg.CloseCurly},
		{"open_square", c.Syntax.OpenSquare, &cfg.OpenSquare},
		{"close_square", c.Syntax.CloseSquare, &cfg.CloseSquare},
		{"escape_brace", c.Syntax.EscapeBrace, &cfg.EscapeBrace},
		{"force_end", c.Syntax.ForceEnd, &cfg.ForceEnd},
		{"separator", c.Syntax.Separator, &cfg.Separator},
		{"assign", c.Syntax.Assign, &cfg.Assign},
		{"quote", c.Syntax.Quote, &cfg.Quote},
	}

	for _, field := range fields {
		if utf8.RuneCountInString(field.value) != 1 {
			return lexer.Config{}, fmt.Errorf(
				"%w: syntax.%s must be exactly one character, got %q",
				ErrInvalid, field.name, field.value,
			)
		}

		*field.dst, _ = utf8.DecodeRuneInString(field.value)
	}

	if err := cfg.Validate(); err != nil {
		return lexer.Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return cfg, nil
}
