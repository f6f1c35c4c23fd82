package lsp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"runtime"

	"github.com/pacer/lapol/internal/lapol"
	"github.com/pacer/lapol/internal/lapol/lexer"
	"github.com/pacer/lapol/internal/lapol/parser"
)

// ErrExitWithoutShutdown is returned by Serve when the client sends 'exit'
// before 'shutdown'.
var ErrExitWithoutShutdown = errors.New("exit notification received before shutdown")

// ServerConfig holds what the server needs to parse documents.
type ServerConfig struct {
	Name    string
	Version string

	Syntax   lexer.Config
	MaxDepth int

	// Extensions and FileDepth drive the workspace scan run on initialize.
	Extensions []string
	FileDepth  int
}

// requestCounter tracks the number of each request type.
type requestCounter struct {
	Initialize   int
	Shutdown     int
	TextDocument struct {
		DidOpen   int
		DidChange int
		DidClose  int
	}
	Hover        int
	FoldingRange int
	Other        int
}

// Server answers LSP requests over a single connection. Documents are
// parsed synchronously on every change.
type Server struct {
	cfg ServerConfig
	out io.Writer

	rootPath    string
	rawFiles    map[string][]byte
	parsedFiles map[string]*parser.RootNode
	counter     requestCounter
	isExiting   bool
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		cfg:         cfg,
		rawFiles:    make(map[string][]byte),
		parsedFiles: make(map[string]*parser.RootNode),
	}
}

// Serve reads framed messages from 'in' and writes responses and
// notifications to 'out' until the client exits or 'in' is exhausted.
func (s *Server) Serve(in io.Reader, out io.Writer) error {
	s.out = out
	scanner := ReceiveInput(in)

	slog.Info("starting lsp server",
		slog.String("server_name", s.cfg.Name),
		slog.String("server_version", s.cfg.Version),
	)
	defer func() {
		slog.Info("shutting down lsp server", s.groupLogging())
	}()

	for scanner.Scan() {
		data := scanner.Bytes()

		var request RequestMessage[json.RawMessage]
		if err := json.Unmarshal(data, &request); err != nil {
			slog.Warn("dropping malformed message", slog.String("error", err.Error()))
			continue
		}

		if s.isExiting {
			if request.Method == MethodExit {
				return nil
			}

			SendToLspClient(out, ProcessIllegalRequestAfterShutdown(request.JsonRpc, request.Id))
			continue
		}

		slog.Debug("request "+request.Method, s.groupLogging())

		if err := s.dispatch(request, data); err != nil {
			if errors.Is(err, ErrExitWithoutShutdown) {
				return err
			}

			slog.Warn("request failed",
				slog.String("method", request.Method),
				slog.String("error", err.Error()),
			)
			SendToLspClient(out, ProcessErrorResponse(request.JsonRpc, request.Id, ErrorInvalidParams, err.Error()))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading lsp input: %w", err)
	}

	return nil
}

func (s *Server) dispatch(request RequestMessage[json.RawMessage], data []byte) error {
	switch request.Method {
	case MethodInitialize:
		s.counter.Initialize++

		response, rootURI, err := ProcessInitializeRequest(data, s.cfg.Name, s.cfg.Version)
		if err != nil {
			return err
		}

		SendToLspClient(s.out, response)
		s.loadWorkspace(rootURI)

	case MethodInitialized:
		slog.Info("received 'initialized' notification")

	case MethodShutdown:
		s.counter.Shutdown++
		s.isExiting = true
		SendToLspClient(s.out, ProcessShutdownRequest(request.JsonRpc, request.Id))

	case MethodExit:
		return ErrExitWithoutShutdown

	case MethodDidOpen:
		s.counter.TextDocument.DidOpen++

		uri, content, err := ProcessDidOpenTextDocumentNotification(data)
		if err != nil {
			return err
		}

		s.updateDocument(uri, content)

	case MethodDidChange:
		s.counter.TextDocument.DidChange++

		uri, content, err := ProcessDidChangeTextDocumentNotification(data)
		if err != nil {
			return err
		}

		s.updateDocument(uri, content)

	case MethodDidClose:
		s.counter.TextDocument.DidClose++

		uri, err := ProcessDidCloseTextDocumentNotification(data)
		if err != nil {
			return err
		}

		delete(s.rawFiles, uri)
		delete(s.parsedFiles, uri)
		SendToLspClient(s.out, NewDiagnosticsNotification(uri, nil))

	case MethodHover:
		s.counter.Hover++

		response, err := ProcessHoverRequest(data, s.parsedFiles)
		if err != nil {
			return err
		}

		SendToLspClient(s.out, response)

	case MethodFoldingRange:
		s.counter.FoldingRange++

		response, err := ProcessFoldingRangeRequest(data, s.parsedFiles)
		if err != nil {
			return err
		}

		SendToLspClient(s.out, response)

	default:
		s.counter.Other++
	}

	return nil
}

// updateDocument reparses a document and publishes its diagnostics. A
// document that fails to parse keeps no tree.
func (s *Server) updateDocument(uri string, content []byte) {
	if uri == "" {
		return
	}

	s.rawFiles[uri] = content

	root, err := s.parse(content)
	if err != nil {
		delete(s.parsedFiles, uri)
	} else {
		s.parsedFiles[uri] = root
	}

	SendToLspClient(s.out, NewDiagnosticsNotification(uri, err))
}

func (s *Server) parse(content []byte) (*parser.RootNode, error) {
	return parser.New(
		string(content),
		parser.WithConfig(s.cfg.Syntax),
		parser.WithMaxDepth(s.cfg.MaxDepth),
	).Parse()
}

// loadWorkspace parses every source below the client root and publishes
// diagnostics for the files that fail.
func (s *Server) loadWorkspace(rootURI string) {
	if rootURI == "" {
		return
	}

	rootPath, err := uriToFilePath(rootURI)
	if err != nil {
		slog.Warn("ignoring workspace root", slog.String("uri", rootURI), slog.String("error", err.Error()))
		return
	}

	s.rootPath = rootPath

	files, err := lapol.OpenProjectFiles(rootPath, s.cfg.Extensions, s.cfg.FileDepth)
	if err != nil {
		slog.Warn("unable to scan workspace", slog.String("root_path", rootPath), slog.String("error", err.Error()))
		return
	}

	_, errs := lapol.ParseFilesInWorkspace(files, s.cfg.Syntax, parser.WithMaxDepth(s.cfg.MaxDepth))

	for _, fileErr := range errs {
		uri, err := filePathToUri(fileErr.FileName)
		if err != nil {
			slog.Warn("skipping diagnostics", slog.String("file", fileErr.FileName), slog.String("error", err.Error()))
			continue
		}

		SendToLspClient(s.out, NewDiagnosticsNotification(uri, fileErr.Err))
	}

	slog.Info("workspace loaded",
		slog.String("root_path", rootPath),
		slog.Int("files", len(files)),
		slog.Int("failed", len(errs)),
	)
}

// groupLogging returns a structured logging group with server state.
func (s *Server) groupLogging() slog.Attr {
	return slog.Group("server",
		slog.String("root_path", s.rootPath),
		slog.Any("open_files", lapol.SortedFileNames(s.rawFiles)),
		slog.Any("request_counter", s.counter),
	)
}

// uriToFilePath converts a file URI to an OS path.
func uriToFilePath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("unable to convert from URI to OS path: %w", err)
	}

	switch {
	case u.Scheme != "file":
		return "", errors.New("can only handle 'file' scheme: " + uri)
	case u.RawQuery != "":
		return "", errors.New("'?' character is not permitted in file URI: " + uri)
	case u.Fragment != "":
		return "", errors.New("'#' character is not permitted in file URI: " + uri)
	case u.Path == "":
		return "", errors.New("path to a file cannot be empty")
	}

	path := u.Path
	if runtime.GOOS == "windows" && len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path), nil
}

// filePathToUri converts an OS path to a file URI.
func filePathToUri(path string) (string, error) {
	if path == "" {
		return "", errors.New("path to a file cannot be empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("malformed file path: %w", err)
	}

	slashPath := filepath.ToSlash(absPath)
	if runtime.GOOS == "windows" && slashPath[0] != '/' {
		slashPath = "/" + slashPath
	}

	u := url.URL{
		Scheme: "file",
		Path:   slashPath,
	}

	return u.String(), nil
}
