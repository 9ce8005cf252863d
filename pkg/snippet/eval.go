package snippet

import (
	"bytes"
	"fmt"
	"io"
)

// Scope holds the variables visible to snippets. Evaluators may write to it;
// writes are visible to every later snippet executed against the same Scope.
type Scope map[string]any

// Clone returns a shallow copy of s.
func (s Scope) Clone() Scope {
	c := make(Scope, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Evaluator executes a single echo or statement node. Anything written to w
// becomes part of the body's output.
type Evaluator interface {
	Evaluate(n *Node, scope Scope, w io.Writer) error
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(n *Node, scope Scope, w io.Writer) error

// Evaluate implements Evaluator.
func (f EvaluatorFunc) Evaluate(n *Node, scope Scope, w io.Writer) error {
	return f(n, scope, w)
}

// Error reports a parse or evaluation failure inside a named body.
type Error struct {
	Name string
	Line int
	Col  int
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %v", e.Name, e.Line, e.Col, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Execute walks the nodes top to bottom, writing text verbatim and handing
// snippets to eval. It stops at the first failing snippet.
func (t *Template) Execute(w io.Writer, eval Evaluator, scope Scope) error {
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.Kind == NodeText {
			if _, err := io.WriteString(w, n.Src); err != nil {
				return err
			}
			continue
		}
		if eval == nil {
			return &Error{Name: t.Name, Line: n.Line, Col: n.Col, Err: fmt.Errorf("no evaluator for %s", n.Kind)}
		}
		if err := eval.Evaluate(n, scope, w); err != nil {
			return &Error{Name: t.Name, Line: n.Line, Col: n.Col, Err: err}
		}
	}
	return nil
}

// Render executes t into a string. Nothing is returned on failure.
func (t *Template) Render(eval Evaluator, scope Scope) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, eval, scope); err != nil {
		return "", err
	}
	return buf.String(), nil
}
