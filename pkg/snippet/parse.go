package snippet

import (
	"fmt"
	"strings"
)

const (
	defaultOpen  = "<?"
	defaultClose = "?>"
	echoMarker   = '='
)

// NodeKind classifies a parsed chunk of a body.
type NodeKind int

const (
	NodeText NodeKind = iota
	NodeEcho
	NodeStmt
)

func (k NodeKind) String() string {
	switch k {
	case NodeText:
		return "text"
	case NodeEcho:
		return "echo"
	case NodeStmt:
		return "statement"
	default:
		return fmt.Sprintf("node(%d)", int(k))
	}
}

// Node is one chunk of a body. For NodeText, Src is emitted verbatim; for
// snippets it is the code between the delimiters, untrimmed.
type Node struct {
	Kind NodeKind
	Src  string
	Line int
	Col  int
}

// Template is a parsed body.
type Template struct {
	Name  string
	Nodes []Node
}

// Option configures Parse.
type Option func(*parseOptions)

type parseOptions struct {
	open  string
	close string
}

// WithDelims overrides the "<?" and "?>" snippet delimiters.
func WithDelims(open, close string) Option {
	return func(o *parseOptions) {
		if open != "" {
			o.open = open
		}
		if close != "" {
			o.close = close
		}
	}
}

// Parse splits src into text and snippet nodes. name is used in errors only.
func Parse(name, src string, opts ...Option) (*Template, error) {
	o := parseOptions{open: defaultOpen, close: defaultClose}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Template{Name: name}
	var text strings.Builder
	textPos := 0
	pos := 0

	flush := func() {
		if text.Len() > 0 {
			line, col := position(src, textPos)
			t.Nodes = append(t.Nodes, Node{Kind: NodeText, Src: text.String(), Line: line, Col: col})
			text.Reset()
		}
	}

	for pos < len(src) {
		i := strings.Index(src[pos:], o.open)
		if i < 0 {
			if text.Len() == 0 {
				textPos = pos
			}
			text.WriteString(src[pos:])
			break
		}
		start := pos + i
		after := start + len(o.open)

		kind, body, ok := classify(src, after)
		if !ok {
			// Not a snippet, keep the delimiter as literal text.
			if text.Len() == 0 {
				textPos = pos
			}
			text.WriteString(src[pos:after])
			pos = after
			continue
		}

		if text.Len() == 0 {
			textPos = pos
		}
		text.WriteString(src[pos:start])
		flush()

		end := closeIndex(src[body:], o.close)
		if end < 0 {
			line, col := position(src, start)
			return nil, &Error{Name: name, Line: line, Col: col, Err: fmt.Errorf("unclosed %s, missing %q", kind, o.close)}
		}
		line, col := position(src, body)
		t.Nodes = append(t.Nodes, Node{Kind: kind, Src: src[body : body+end], Line: line, Col: col})
		pos = body + end + len(o.close)
	}
	flush()

	return t, nil
}

// classify decides whether the opening delimiter ending at off starts a
// snippet, returning the offset of the snippet body.
func classify(src string, off int) (NodeKind, int, bool) {
	if off >= len(src) {
		return 0, 0, false
	}
	switch c := src[off]; {
	case c == echoMarker:
		return NodeEcho, off + 1, true
	case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		return NodeStmt, off, true
	}
	return 0, 0, false
}

// closeIndex finds close in code, skipping double-quoted strings and their
// backslash escapes. It returns -1 if close is missing.
func closeIndex(code, close string) int {
	inString := false
	for i := 0; i < len(code); i++ {
		c := code[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			continue
		}
		if strings.HasPrefix(code[i:], close) {
			return i
		}
	}
	return -1
}

// position converts a byte offset to a 1-based line and column.
func position(src string, off int) (line, col int) {
	line = 1 + strings.Count(src[:off], "\n")
	col = off + 1
	if nl := strings.LastIndexByte(src[:off], '\n'); nl >= 0 {
		col = off - nl
	}
	return line, col
}
