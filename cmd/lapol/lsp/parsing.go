package lsp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strconv"
)

// MaxMessageSize bounds a single message body.
const MaxMessageSize = 16 << 20

// ReceiveInput creates a scanner that decodes LSP messages from an input stream.
func ReceiveInput(input io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxMessageSize+1024)
	scanner.Split(decode)
	return scanner
}

// SendToLspClient frames 'response' with its header and writes it out.
func SendToLspClient(output io.Writer, response []byte) {
	if _, err := output.Write(Encode(response)); err != nil {
		slog.Error("error while writing to output", slog.String("error", err.Error()))
	}
}

// Encode wraps data with Content-Length header per LSP specification.
func Encode(dataContent []byte) []byte {
	length := strconv.Itoa(len(dataContent))
	dataHeader := []byte(ContentLengthHeader + ": " + length + HeaderDelimiter)
	dataHeader = append(dataHeader, dataContent...)
	return dataHeader
}

// decode is a bufio.SplitFunc that parses LSP messages.
func decode(data []byte, _ bool) (advance int, token []byte, err error) {
	indexStartData := bytes.Index(data, []byte(HeaderDelimiter))
	if indexStartData == -1 {
		return 0, nil, nil
	}

	contentLength, err := getHeaderContentLength(data[:indexStartData])
	if err != nil {
		return 0, nil, err
	}

	indexStartData += len(HeaderDelimiter)
	indexEndData := indexStartData + contentLength

	if len(data) < indexEndData {
		return 0, nil, nil
	}

	return indexEndData, data[indexStartData:indexEndData], nil
}

// getHeaderContentLength extracts the Content-Length value from LSP headers.
func getHeaderContentLength(data []byte) (int, error) {
	indexHeader := bytes.LastIndex(data, []byte(ContentLengthHeader))
	if indexHeader == -1 {
		return -1, errors.New("unable to find '" + ContentLengthHeader + "' header")
	}

	line := data[indexHeader:]
	if end := bytes.Index(line, []byte(LineDelimiter)); end >= 0 {
		line = line[:end]
	}

	_, value, found := bytes.Cut(line, []byte(":"))
	if !found {
		return -1, errors.New("malformed '" + ContentLengthHeader + "' header: missing ':'")
	}

	contentLength, err := strconv.Atoi(string(bytes.TrimSpace(value)))
	if err != nil {
		return -1, errors.New("malformed '" + ContentLengthHeader + "' header: value is not an integer")
	}

	if contentLength < 0 {
		return -1, errors.New("'" + ContentLengthHeader + "' cannot be negative")
	}

	if contentLength > MaxMessageSize {
		return -1, errors.New("'" + ContentLengthHeader + "' exceeds the maximum message size")
	}

	return contentLength, nil
}
