package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ParseError describes why a description could not be parsed.
// Line and Column are 1-based and point at the offending byte.
type ParseError struct {
	Line   int
	Column int
	Offset int64
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrEmpty is wrapped by the ParseError returned for blank input.
var ErrEmpty = errors.New("empty description")

// Parse decodes a description. Unknown keys are ignored; "nodes" and "edges"
// must both be present as arrays. Trailing data after the document is rejected.
func Parse(data []byte) (Graph, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Graph{}, &ParseError{Msg: ErrEmpty.Error(), Err: ErrEmpty}
	}

	var raw struct {
		Name  string  `json:"name"`
		Nodes *[]Node `json:"nodes"`
		Edges *[]Edge `json:"edges"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return Graph{}, newParseError(data, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		off := dec.InputOffset()
		return Graph{}, positioned(data, off, "unexpected data after description", err)
	}
	if raw.Nodes == nil {
		return Graph{}, &ParseError{Msg: `missing "nodes" array`}
	}
	if raw.Edges == nil {
		return Graph{}, &ParseError{Msg: `missing "edges" array`}
	}

	return Graph{Name: raw.Name, Nodes: *raw.Nodes, Edges: *raw.Edges}, nil
}

// ReadFile reads and parses a description file.
func ReadFile(path string) (Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Graph{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Read parses a description from r.
func Read(r io.Reader) (Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Graph{}, fmt.Errorf("read: %w", err)
	}
	return Parse(data)
}

// Marshal pretty-prints a Graph with two-space indentation and no trailing
// newline. Non-ASCII text and HTML characters are written verbatim.
func Marshal(g Graph) ([]byte, error) {
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Edges == nil {
		g.Edges = []Edge{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(g); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Write writes the pretty-printed Graph followed by a newline.
func Write(g Graph, w io.Writer) error {
	data, err := Marshal(g)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteFile writes the pretty-printed Graph to path.
func WriteFile(g Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(g, f)
}

// Pretty re-indents arbitrary JSON text with two spaces. The document is not
// interpreted, so keys outside the description format are kept in place.
func Pretty(text []byte) ([]byte, error) {
	src := bytes.TrimSpace(text)
	if len(src) == 0 {
		return nil, &ParseError{Msg: ErrEmpty.Error(), Err: ErrEmpty}
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, src, "", "  "); err != nil {
		return nil, newParseError(src, err)
	}
	return buf.Bytes(), nil
}

func newParseError(data []byte, err error) *ParseError {
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syn):
		return positioned(data, syn.Offset, syn.Error(), err)
	case errors.As(err, &typ):
		msg := fmt.Sprintf("cannot use %s as %s", typ.Value, typ.Type)
		if typ.Field != "" {
			msg = fmt.Sprintf("field %s: %s", typ.Field, msg)
		}
		return positioned(data, typ.Offset, msg, err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return positioned(data, int64(len(data)), "unexpected end of input", err)
	default:
		return &ParseError{Msg: err.Error(), Err: err}
	}
}

func positioned(data []byte, offset int64, msg string, err error) *ParseError {
	line, col := position(data, offset)
	return &ParseError{Line: line, Column: col, Offset: offset, Msg: msg, Err: err}
}

// position converts a byte offset into a 1-based line and column.
// json reports the offset just past the offending byte, so the column points at it.
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 0
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 0
			continue
		}
		col++
	}
	if col == 0 {
		col = 1
	}
	return line, col
}
