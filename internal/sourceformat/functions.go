package sourceformat

import (
	"context"
	"fmt"
	"strings"

	"jumbotrace/internal/model"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// javaQuery captures declarations and call sites. Method names come from the
// declarations, call sites tie a source position to the callee name.
const javaQuery = `
	(method_declaration name: (identifier) @decl.name) @decl
	(constructor_declaration name: (identifier) @decl.name) @decl
	(method_invocation name: (identifier) @call.name) @call
	(object_creation_expression type: (_) @new.type) @new
`

type declaration struct {
	class string
	name  string
}

type callSite struct {
	line   int // 1-based
	column int // 1-based
	callee string
}

// JavaNamer names function bodies after the method a call site invokes.
// Without source text it falls back to the call expression text.
type JavaNamer struct {
	declarations map[string][]declaration
	calls        map[int][]callSite
}

// NewJavaNamer parses Java source with tree-sitter and indexes its methods and call sites.
func NewJavaNamer(ctx context.Context, source []byte) (*JavaNamer, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse java source: %w", err)
	}

	query, err := sitter.NewQuery([]byte(javaQuery), java.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}

	n := &JavaNamer{
		declarations: make(map[string][]declaration),
		calls:        make(map[int][]callSite),
	}

	qc := sitter.NewQueryCursor()
	qc.Exec(query, tree.RootNode())
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		var outer, name *sitter.Node
		var kind string
		for _, c := range m.Captures {
			switch query.CaptureNameForId(c.Index) {
			case "decl", "call", "new":
				outer = c.Node
				kind = query.CaptureNameForId(c.Index)
			case "decl.name", "call.name", "new.type":
				name = c.Node
			}
		}
		if outer == nil || name == nil {
			continue
		}

		switch kind {
		case "decl":
			d := declaration{class: enclosingClass(outer, source), name: name.Content(source)}
			n.declarations[d.name] = append(n.declarations[d.name], d)
		case "call", "new":
			callee := name.Content(source)
			if kind == "new" {
				callee = simpleTypeName(callee)
			}
			p := outer.StartPoint()
			line := int(p.Row) + 1
			n.calls[line] = append(n.calls[line], callSite{line: line, column: int(p.Column) + 1, callee: callee})
		}
	}
	return n, nil
}

func enclosingClass(node *sitter.Node, source []byte) string {
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "class_declaration", "enum_declaration", "record_declaration", "interface_declaration":
			if name := p.ChildByFieldName("name"); name != nil {
				return name.Content(source)
			}
		}
	}
	return ""
}

func simpleTypeName(t string) string {
	if i := strings.Index(t, "<"); i >= 0 {
		t = t[:i]
	}
	if i := strings.LastIndex(t, "."); i >= 0 {
		t = t[i+1:]
	}
	return t
}

// FunctionName returns the name of the function a call statement enters.
func (n *JavaNamer) FunctionName(call model.NodeFormat) string {
	p, ok := call.(model.PresentInSourceCode)
	if !ok {
		return ""
	}
	callee := ""
	if n != nil {
		callee = n.calleeAt(p)
	}
	if callee == "" {
		callee = CalleeFromText(p)
	}
	if callee == "" || n == nil {
		return callee
	}
	decls := n.declarations[callee]
	if len(decls) == 1 && decls[0].class != "" {
		if decls[0].class == callee {
			return callee
		}
		return decls[0].class + "." + callee
	}
	return callee
}

// calleeAt finds the invocation starting at the call node's position. When no
// column is known, or nothing starts exactly there, the first call site on the
// line at or after the node start wins.
func (n *JavaNamer) calleeAt(p model.PresentInSourceCode) string {
	sites := n.calls[p.StartLine]
	if len(sites) == 0 {
		return ""
	}
	col := p.StartColumn()
	var best *callSite
	for i := range sites {
		s := &sites[i]
		if s.column == col {
			return s.callee
		}
		if s.column >= col && (best == nil || s.column < best.column) {
			best = s
		}
	}
	if best == nil {
		best = &sites[0]
	}
	return best.callee
}

// CalleeFromText extracts the callee from the expression text of a call node:
// "a.b.step(x)" gives "step", "new Boid(1)" gives "Boid".
func CalleeFromText(p model.PresentInSourceCode) string {
	text := strings.TrimSpace(p.Text())
	if i := strings.Index(text, "("); i >= 0 {
		text = text[:i]
	}
	if i := strings.LastIndex(text, "="); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "new ")
	return simpleTypeName(strings.TrimSpace(text))
}

// TextNamer names functions from the call expression text only.
type TextNamer struct{}

func (TextNamer) FunctionName(call model.NodeFormat) string {
	if p, ok := call.(model.PresentInSourceCode); ok {
		return CalleeFromText(p)
	}
	return ""
}
