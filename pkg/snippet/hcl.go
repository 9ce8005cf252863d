package snippet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// EchoAttr is the statement attribute that writes its value to the output
// instead of assigning it to the scope.
const EchoAttr = "echo"

// HCL evaluates snippets as HCL. Echo snippets are a single expression.
// Statement snippets hold one assignment per line, executed in source
// order, each seeing the assignments before it. A name may be reassigned:
//
//	<? total = price * qty
//	   total = total + shipping
//	   label = "${upper(name)}: ${total}" ?>
//
// Assigning to EchoAttr emits text, once per assignment. Blocks are not
// allowed.
type HCL struct {
	// Strict makes references to undefined variables an error. Otherwise they
	// evaluate to null and echo as the empty string.
	Strict bool

	// Functions callable from snippets. Defaults to Functions().
	Functions map[string]function.Function
}

// NewHCL returns an HCL evaluator with the default function table.
func NewHCL(strict bool) *HCL {
	return &HCL{Strict: strict, Functions: Functions()}
}

// Evaluate implements Evaluator.
func (h *HCL) Evaluate(n *Node, scope Scope, w io.Writer) error {
	switch n.Kind {
	case NodeEcho:
		return h.echo(n, scope, w)
	case NodeStmt:
		return h.exec(n, scope, w)
	default:
		return fmt.Errorf("cannot evaluate %s node", n.Kind)
	}
}

func (h *HCL) echo(n *Node, scope Scope, w io.Writer) error {
	src := strings.TrimSpace(n.Src)
	if src == "" {
		return errors.New("empty echo")
	}

	expr, diags := hclsyntax.ParseExpression([]byte(src), "snippet", hcl.Pos{Line: n.Line, Column: n.Col, Byte: 0})
	if diags.HasErrors() {
		return diags
	}
	val, err := h.value(expr, scope)
	if err != nil {
		return err
	}
	return writeValue(w, val)
}

func (h *HCL) exec(n *Node, scope Scope, w io.Writer) error {
	stmts, err := splitStatements(n)
	if err != nil {
		return err
	}

	for _, st := range stmts {
		val, err := h.value(st.expr, scope)
		if err != nil {
			return err
		}
		if st.name == EchoAttr {
			if err = writeValue(w, val); err != nil {
				return err
			}
			continue
		}
		native, err := FromValue(val)
		if err != nil {
			return fmt.Errorf("assigning '%s': %w", st.name, err)
		}
		scope[st.name] = native
	}
	return nil
}

// statement is one "name = expr" line of a statement snippet.
type statement struct {
	name string
	expr hclsyntax.Expression
}

// splitStatements cuts a statement snippet into assignments at newlines
// outside brackets, strings and template sequences. A name may be assigned
// more than once.
func splitStatements(n *Node) ([]statement, error) {
	src := []byte(n.Src)
	tokens, diags := hclsyntax.LexConfig(src, "snippet", hcl.Pos{Line: n.Line, Column: n.Col, Byte: 0})
	if diags.HasErrors() {
		return nil, diags
	}

	var stmts []statement
	var line hclsyntax.Tokens
	depth := 0
	for _, tok := range tokens {
		sep := false
		switch tok.Type {
		case hclsyntax.TokenOBrace, hclsyntax.TokenOBrack, hclsyntax.TokenOParen,
			hclsyntax.TokenOQuote, hclsyntax.TokenOHeredoc,
			hclsyntax.TokenTemplateInterp, hclsyntax.TokenTemplateControl:
			depth++
		case hclsyntax.TokenCBrace, hclsyntax.TokenCBrack, hclsyntax.TokenCParen,
			hclsyntax.TokenCQuote, hclsyntax.TokenCHeredoc, hclsyntax.TokenTemplateSeqEnd:
			depth--
		case hclsyntax.TokenNewline:
			sep = depth == 0
		case hclsyntax.TokenComment:
			// Line comments swallow their newline.
			sep = depth == 0 && bytes.HasSuffix(tok.Bytes, []byte("\n"))
			if !sep {
				continue
			}
		case hclsyntax.TokenEOF:
			sep = true
		}
		if !sep {
			line = append(line, tok)
			continue
		}
		if len(line) > 0 {
			st, err := parseStatement(src, line, tok.Range.Start.Byte)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, st)
			line = nil
		}
	}
	return stmts, nil
}

// parseStatement parses the tokens of one line, which ends at byte end of src.
func parseStatement(src []byte, line hclsyntax.Tokens, end int) (statement, error) {
	if len(line) < 3 || line[0].Type != hclsyntax.TokenIdent || line[1].Type != hclsyntax.TokenEqual {
		return statement{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid statement",
			Detail:   "Each line of a statement must assign a value, as in: name = expression.",
			Subject:  line[0].Range.Ptr(),
		}}
	}

	at := line[2].Range.Start
	expr, diags := hclsyntax.ParseExpression(src[at.Byte:end], "snippet", hcl.Pos{Line: at.Line, Column: at.Column, Byte: 0})
	if diags.HasErrors() {
		return statement{}, diags
	}
	return statement{name: string(line[0].Bytes), expr: expr}, nil
}

// value evaluates expr with only the variables it references converted
// from the scope.
func (h *HCL) value(expr hcl.Expression, scope Scope) (cty.Value, error) {
	vars := map[string]cty.Value{}
	for _, traversal := range expr.Variables() {
		root := traversal.RootName()
		if _, done := vars[root]; done {
			continue
		}
		native, ok := scope[root]
		if !ok {
			if !h.Strict {
				vars[root] = cty.NullVal(cty.DynamicPseudoType)
			}
			continue
		}
		v, err := ToValue(native)
		if err != nil {
			return cty.NilVal, fmt.Errorf("variable '%s': %w", root, err)
		}
		vars[root] = v
	}

	funcs := h.Functions
	if funcs == nil {
		funcs = Functions()
	}
	ctx := &hcl.EvalContext{Variables: vars, Functions: funcs}

	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return val, nil
}

// writeValue writes the text form of v: primitives as strings, null and
// unknown as nothing, collections as JSON.
func writeValue(w io.Writer, v cty.Value) error {
	if v.IsNull() || !v.IsKnown() {
		return nil
	}

	var text string
	if v.Type().IsPrimitiveType() {
		sv, err := convert.Convert(v, cty.String)
		if err != nil {
			return err
		}
		text = sv.AsString()
	} else {
		b, err := ctyjson.Marshal(v, v.Type())
		if err != nil {
			return err
		}
		text = string(b)
	}

	_, err := io.WriteString(w, text)
	return err
}
