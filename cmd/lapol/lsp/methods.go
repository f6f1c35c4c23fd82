// Package lsp implements the LSP message types and handlers serving LaPoL
// documents.
package lsp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pacer/lapol/internal/lapol"
	"github.com/pacer/lapol/internal/lapol/lexer"
	"github.com/pacer/lapol/internal/lapol/parser"
)

// ID represents a JSON-RPC request ID that can be either a string or number.
type ID int

func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	length := len(data)
	if length >= 2 && data[0] == '"' && data[length-1] == '"' {
		data = data[1 : length-1]
	}

	number, err := strconv.Atoi(string(data))
	if err != nil {
		return errors.New("'ID' expected either a string or an integer")
	}

	*id = ID(number)
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(id))), nil
}

// RequestMessage represents a JSON-RPC request.
type RequestMessage[T any] struct {
	JsonRpc string `json:"jsonrpc"`
	Id      ID     `json:"id"`
	Method  string `json:"method"`
	Params  T      `json:"params"`
}

// ResponseMessage represents a JSON-RPC response.
type ResponseMessage[T any] struct {
	JsonRpc string         `json:"jsonrpc"`
	Id      ID             `json:"id"`
	Result  T              `json:"result"`
	Error   *ResponseError `json:"error,omitempty"`
}

// ResponseError represents a JSON-RPC error.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NotificationMessage represents a JSON-RPC notification (no response expected).
type NotificationMessage[T any] struct {
	JsonRpc string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  T      `json:"params"`
}

// InitializeParams holds parameters for the initialize request.
type InitializeParams struct {
	ProcessId  int `json:"processId"`
	ClientInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
	RootUri string `json:"rootUri"`
}

// ServerCapabilities describes the capabilities this server supports.
type ServerCapabilities struct {
	TextDocumentSync     int  `json:"textDocumentSync"`
	HoverProvider        bool `json:"hoverProvider"`
	FoldingRangeProvider bool `json:"foldingRangeProvider"`
}

// InitializeResult is the response to the initialize request.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
}

// PublishDiagnosticsParams holds parameters for publishing diagnostics.
type PublishDiagnosticsParams struct {
	Uri         string       `json:"uri"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

type Diagnostic struct {
	Range    Range  `json:"range"`
	Message  string `json:"message"`
	Severity int    `json:"severity"`
	Source   string `json:"source"`
}

// Position is zero based. Characters are counted in code points.
type Position struct {
	Line      uint `json:"line"`
	Character uint `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type TextDocumentItem struct {
	Uri        string `json:"uri"`
	Version    int    `json:"version"`
	LanguageId string `json:"languageId"`
	Text       string `json:"text"`
}

type TextDocumentIdentifier struct {
	Uri string `json:"uri"`
}

// TextDocumentPositionParams combines a document identifier with a position.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// MarkupContent represents markup content (markdown or plaintext).
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// intToUint safely converts int to uint, returning 0 for negative values.
func intToUint(v int) uint {
	if v < 0 {
		return 0
	}
	return uint(v) //nolint:gosec // bounds checked above
}

// uintToInt safely converts uint to int, clamping to max int for overflow.
func uintToInt(v uint) int {
	const maxInt = int(^uint(0) >> 1)
	if v > uint(maxInt) {
		return maxInt
	}
	return int(v) //nolint:gosec // bounds checked above
}

// ConvertParserPositionToLspPosition shifts a one based position to the
// zero based LSP convention.
func ConvertParserPositionToLspPosition(pos lexer.Position) Position {
	return Position{
		Line:      intToUint(pos.Line - 1),
		Character: intToUint(pos.Character - 1),
	}
}

// ConvertParserRangeToLspRange converts a parser range to an LSP range.
func ConvertParserRangeToLspRange(parserRange lexer.Range) Range {
	return Range{
		Start: ConvertParserPositionToLspPosition(parserRange.Start),
		End:   ConvertParserPositionToLspPosition(parserRange.End),
	}
}

func marshalResponse(method string, response any) []byte {
	responseText, err := json.Marshal(response)
	if err != nil {
		msg := "error while marshalling '" + method + "' response: " + err.Error()
		slog.Error(msg)
		panic(msg)
	}

	return responseText
}

// ProcessErrorResponse answers a request that could not be served.
func ProcessErrorResponse(jsonVersion string, requestId ID, code int, message string) []byte {
	response := ResponseMessage[any]{
		JsonRpc: jsonVersion,
		Id:      requestId,
		Error: &ResponseError{
			Code:    code,
			Message: message,
		},
	}

	return marshalResponse("error", response)
}

// ProcessInitializeRequest handles the initialize request.
func ProcessInitializeRequest(
	data []byte,
	lspName, lspVersion string,
) (response []byte, root string, err error) {
	req := RequestMessage[InitializeParams]{}

	if err := json.Unmarshal(data, &req); err != nil {
		return nil, "", fmt.Errorf("unmarshalling 'initialize' request: %w", err)
	}

	res := ResponseMessage[InitializeResult]{
		JsonRpc: JSONRPCVersion,
		Id:      req.Id,
		Result: InitializeResult{
			Capabilities: ServerCapabilities{
				TextDocumentSync:     TextDocumentSyncFull,
				HoverProvider:        true,
				FoldingRangeProvider: true,
			},
		},
	}

	res.Result.ServerInfo.Name = lspName
	res.Result.ServerInfo.Version = lspVersion

	return marshalResponse(MethodInitialize, res), req.Params.RootUri, nil
}

// ProcessShutdownRequest handles the shutdown request.
func ProcessShutdownRequest(jsonVersion string, requestId ID) []byte {
	response := ResponseMessage[any]{
		JsonRpc: jsonVersion,
		Id:      requestId,
	}

	return marshalResponse(MethodShutdown, response)
}

// ProcessIllegalRequestAfterShutdown returns an error for requests after shutdown.
func ProcessIllegalRequestAfterShutdown(jsonVersion string, requestId ID) []byte {
	return ProcessErrorResponse(
		jsonVersion, requestId,
		ErrorInvalidRequest, "illegal request while server shutting down",
	)
}

// DidOpenTextDocumentParams holds parameters for textDocument/didOpen.
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// ProcessDidOpenTextDocumentNotification handles textDocument/didOpen.
func ProcessDidOpenTextDocumentNotification(data []byte) (fileURI string, fileContent []byte, err error) {
	var request RequestMessage[DidOpenTextDocumentParams]

	if err := json.Unmarshal(data, &request); err != nil {
		return "", nil, fmt.Errorf("unmarshalling 'textDocument/didOpen': %w", err)
	}

	document := request.Params.TextDocument

	return document.Uri, []byte(document.Text), nil
}

// TextDocumentContentChangeEvent represents a content change event.
type TextDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

// DidChangeTextDocumentParams holds parameters for textDocument/didChange.
type DidChangeTextDocumentParams struct {
	TextDocument   TextDocumentItem                 `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// ProcessDidChangeTextDocumentNotification handles textDocument/didChange.
// Only full document sync is supported, so the last change holds the whole
// text. An empty change list yields an empty URI.
func ProcessDidChangeTextDocumentNotification(data []byte) (fileURI string, fileContent []byte, err error) {
	var request RequestMessage[DidChangeTextDocumentParams]

	if err := json.Unmarshal(data, &request); err != nil {
		return "", nil, fmt.Errorf("unmarshalling 'textDocument/didChange': %w", err)
	}

	documentChanges := request.Params.ContentChanges
	if len(documentChanges) == 0 {
		slog.Warn("'contentChanges' field is empty")
		return "", nil, nil
	}

	documentContent := documentChanges[len(documentChanges)-1].Text

	return request.Params.TextDocument.Uri, []byte(documentContent), nil
}

type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

func ProcessDidCloseTextDocumentNotification(data []byte) (fileURI string, err error) {
	var request RequestMessage[DidCloseTextDocumentParams]

	if err := json.Unmarshal(data, &request); err != nil {
		return "", fmt.Errorf("unmarshalling 'textDocument/didClose': %w", err)
	}

	return request.Params.TextDocument.Uri, nil
}

// NewDiagnosticsNotification converts the parse failure of a document, if
// any, to a publishDiagnostics notification. A nil error clears the
// diagnostics of the document.
func NewDiagnosticsNotification(uri string, parseErr error) []byte {
	notification := NotificationMessage[PublishDiagnosticsParams]{
		JsonRpc: JSONRPCVersion,
		Method:  MethodPublishDiagnostics,
		Params: PublishDiagnosticsParams{
			Uri:         uri,
			Diagnostics: []Diagnostic{},
		},
	}

	if parseErr != nil {
		diagnostic := Diagnostic{
			Message:  parseErr.Error(),
			Severity: SeverityError,
			Source:   DiagnosticSource,
		}

		var located lapol.Error
		if errors.As(parseErr, &located) {
			diagnostic.Message = located.GetError()
			diagnostic.Range = ConvertParserRangeToLspRange(located.GetRange())
		}

		notification.Params.Diagnostics = append(notification.Params.Diagnostics, diagnostic)
	}

	return marshalResponse(MethodPublishDiagnostics, notification)
}

// ProcessHoverRequest describes the innermost command under the cursor.
func ProcessHoverRequest(data []byte, parsedFiles map[string]*parser.RootNode) ([]byte, error) {
	var request RequestMessage[TextDocumentPositionParams]

	if err := json.Unmarshal(data, &request); err != nil {
		return nil, fmt.Errorf("unmarshalling hover request: %w", err)
	}

	type HoverResult struct {
		Contents MarkupContent `json:"contents"`
		Range    Range         `json:"range"`
	}

	response := ResponseMessage[*HoverResult]{
		JsonRpc: request.JsonRpc,
		Id:      request.Id,
	}

	position := request.Params.Position
	root := parsedFiles[request.Params.TextDocument.Uri]

	command := lapol.CommandAt(root, uintToInt(position.Line)+1, uintToInt(position.Character)+1)
	if command != nil {
		response.Result = &HoverResult{
			Contents: MarkupContent{
				Kind:  "markdown",
				Value: describeCommand(command),
			},
			Range: ConvertParserRangeToLspRange(command.Range()),
		}
	}

	return marshalResponse(MethodHover, response), nil
}

// describeCommand renders a command signature such as '@img[src="a"]{…}'.
func describeCommand(command *parser.CommandNode) string {
	var sb strings.Builder

	sb.WriteString("```lapol\n@")
	sb.WriteString(command.CommandName)

	if command.SquareArgs != nil {
		parts := make([]string, 0, len(command.SquareArgs))
		for _, arg := range command.SquareArgs {
			part := describeEntry(arg.Value)
			if arg.Key != nil {
				part = describeEntry(*arg.Key) + "=" + part
			}
			parts = append(parts, part)
		}

		sb.WriteString("[" + strings.Join(parts, ", ") + "]")
	}

	sb.WriteString(strings.Repeat("{…}", len(command.CurlyArgs)))
	sb.WriteString("\n```")

	return sb.String()
}

func describeEntry(entry parser.SquareEntry) string {
	if entry.Kind == parser.EntryAstNode && entry.Node != nil {
		return "@" + entry.Node.CommandName
	}

	return entry.String()
}

type FoldingRangeParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type FoldingRangeResult struct {
	StartLine uint             `json:"startLine"`
	EndLine   uint             `json:"endLine"`
	Kind      FoldingRangeKind `json:"kind"`
}

type FoldingRangeKind string

const FoldingRangeRegion FoldingRangeKind = "region"

// ProcessFoldingRangeRequest folds every multi-line command. The closing
// line of a command stays visible.
func ProcessFoldingRangeRequest(data []byte, parsedFiles map[string]*parser.RootNode) ([]byte, error) {
	var req RequestMessage[FoldingRangeParams]

	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("unmarshalling folding range request: %w", err)
	}

	res := ResponseMessage[[]FoldingRangeResult]{
		JsonRpc: req.JsonRpc,
		Id:      req.Id,
		Result:  []FoldingRangeResult{},
	}

	for _, fold := range lapol.FoldingRanges(parsedFiles[req.Params.TextDocument.Uri]) {
		startLine := intToUint(fold.StartLine - 1)
		endLine := intToUint(fold.EndLine - 2)

		if endLine <= startLine {
			continue
		}

		res.Result = append(res.Result, FoldingRangeResult{
			StartLine: startLine,
			EndLine:   endLine,
			Kind:      FoldingRangeRegion,
		})
	}

	return marshalResponse(MethodFoldingRange, res), nil
}
