package lapol

import (
	"errors"
	"fmt"
	"log"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/pacer/lapol/internal/lapol/lexer"
	"github.com/pacer/lapol/internal/lapol/parser"
)

// MaxProjectFileDepth bounds how deep OpenProjectFiles descends into
// sub-directories.
const MaxProjectFileDepth = 5

// DefaultFileExtensions are the extensions treated as LaPoL sources.
var DefaultFileExtensions = []string{".lap", ".lapol"}

type Error = lexer.Error

// FileError ties a parse failure to the file it came from.
type FileError struct {
	FileName string
	Err      error
}

func (e FileError) Error() string {
	var located Error
	if errors.As(e.Err, &located) {
		start := located.GetRange().Start
		return fmt.Sprintf("%s:%d:%d: %s", e.FileName, start.Line, start.Character, located.GetError())
	}

	return e.FileName + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error {
	return e.Err
}

// OpenProjectFiles recursively reads files from 'rootDir' whose extension is
// one of 'withFileExtensions'. Directories deeper than 'maxDepth' are
// ignored. Unreadable files are logged and skipped.
func OpenProjectFiles(rootDir string, withFileExtensions []string, maxDepth int) (map[string][]byte, error) {
	fileNamesToContent := make(map[string][]byte)

	err := openProjectFilesSafely(rootDir, withFileExtensions, 0, maxDepth, fileNamesToContent)
	if err != nil {
		return nil, err
	}

	return fileNamesToContent, nil
}

func openProjectFilesSafely(
	rootDir string,
	withFileExtensions []string,
	currentDepth, maxDepth int,
	fileNamesToContent map[string][]byte,
) error {
	if currentDepth > maxDepth {
		return nil
	}

	list, err := os.ReadDir(rootDir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", rootDir, err)
	}

	for _, entry := range list {
		fileName := filepath.Join(rootDir, entry.Name())

		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}

			err := openProjectFilesSafely(fileName, withFileExtensions, currentDepth+1, maxDepth, fileNamesToContent)
			if err != nil {
				return err
			}

			continue
		}

		if !HasFileExtension(fileName, withFileExtensions) {
			continue
		}

		//nolint:gosec // fileName comes from a directory listing
		content, err := os.ReadFile(fileName)
		if err != nil {
			log.Println("unable to read file, ", err.Error())
			continue
		}

		fileNamesToContent[fileName] = content
	}

	return nil
}

// ParseSingleFile parses one source buffer. On failure the root is nil and
// the error is a *parser.ParseError, or a config error.
func ParseSingleFile(source []byte, cfg lexer.Config) (*parser.RootNode, error) {
	return parser.Parse(source, cfg)
}

type parseResult struct {
	fileName string
	root     *parser.RootNode
	err      error
}

// ParseFilesInWorkspace parses every file concurrently, bounded by
// GOMAXPROCS. Successfully parsed files are returned by name, failures are
// returned sorted by file name. The map is never nil. 'opts' are applied to
// every parser after the syntax configuration.
func ParseFilesInWorkspace(
	workspaceFiles map[string][]byte,
	cfg lexer.Config,
	opts ...parser.Option,
) (map[string]*parser.RootNode, []FileError) {
	if len(workspaceFiles) == 0 {
		return make(map[string]*parser.RootNode), nil
	}

	numWorkers := min(runtime.GOMAXPROCS(0), len(workspaceFiles))
	opts = append([]parser.Option{parser.WithConfig(cfg)}, opts...)

	results := make(chan parseResult, len(workspaceFiles))
	sem := make(chan struct{}, numWorkers)

	var wg sync.WaitGroup
	for fileName, content := range workspaceFiles {
		wg.Add(1)
		go func(fileName string, content []byte) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			root, err := parser.New(string(content), opts...).Parse()
			results <- parseResult{fileName, root, err}
		}(fileName, content)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	parsedFiles := make(map[string]*parser.RootNode, len(workspaceFiles))
	var errs []FileError

	for result := range results {
		if result.err != nil {
			errs = append(errs, FileError{FileName: result.fileName, Err: result.err})
			continue
		}

		parsedFiles[result.fileName] = result.root
	}

	if len(parsedFiles)+len(errs) != len(workspaceFiles) {
		panic("number of parsed files do not match the amount present in the workspace")
	}

	slices.SortFunc(errs, func(a, b FileError) int {
		return strings.Compare(a.FileName, b.FileName)
	})

	return parsedFiles, errs
}

// HasFileExtension reports whether 'fileName' ends with one of 'extensions'.
func HasFileExtension(fileName string, extensions []string) bool {
	return slices.ContainsFunc(extensions, func(ext string) bool {
		return strings.HasSuffix(fileName, ext)
	})
}

// SortedFileNames returns the keys of a file map in lexical order.
func SortedFileNames[V any](files map[string]V) []string {
	return slices.Sorted(maps.Keys(files))
}

// CommandAt returns the innermost command whose range holds the 1-based
// 'line' and 'col', or nil.
func CommandAt(root *parser.RootNode, line, col int) *parser.CommandNode {
	if root == nil {
		return nil
	}

	var found *parser.CommandNode

	parser.Walk(root, func(node parser.AstNode) bool {
		if !rangeHolds(node.Range(), line, col) {
			return node.Kind() == parser.KindRoot
		}

		if command, ok := node.(*parser.CommandNode); ok {
			found = command
		}

		return true
	})

	return found
}

func rangeHolds(rng lexer.Range, line, col int) bool {
	afterStart := line > rng.Start.Line || (line == rng.Start.Line && col >= rng.Start.Character)
	beforeEnd := line < rng.End.Line || (line == rng.End.Line && col < rng.End.Character)

	return afterStart && beforeEnd
}

// FoldingRange spans the lines of one multi-line command.
type FoldingRange struct {
	StartLine int
	EndLine   int
	Command   string
}

// FoldingRanges lists every command spanning more than one line, in
// document order.
func FoldingRanges(root *parser.RootNode) []FoldingRange {
	if root == nil {
		return nil
	}

	var ranges []FoldingRange

	parser.Walk(root, func(node parser.AstNode) bool {
		command, ok := node.(*parser.CommandNode)
		if !ok {
			return true
		}

		rng := command.Range()
		if rng.End.Line > rng.Start.Line {
			ranges = append(ranges, FoldingRange{
				StartLine: rng.Start.Line,
				EndLine:   rng.End.Line,
				Command:   command.CommandName,
			})
		}

		return true
	})

	return ranges
}
