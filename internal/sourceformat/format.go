package sourceformat

import (
	"encoding/json"
	"fmt"

	"jumbotrace/internal/model"

	"github.com/go-logr/logr"
)

// Map is the parsed source-format document: display metadata keyed by node id.
type Map struct {
	File  model.SourceFile
	nodes map[string]model.NodeFormat

	log    logr.Logger
	misses int
}

type document struct {
	SourceFile  model.SourceFile    `json:"sourceFile"`
	SyntaxNodes map[string]wireNode `json:"syntaxNodes"`
}

type wireNode struct {
	Kind       string           `json:"kind"`
	Identifier string           `json:"identifier"`
	Children   []string         `json:"children"`
	SourceFile model.SourceFile `json:"sourceFile"`
	StartLine  int              `json:"startLine"`
	EndLine    int              `json:"endLine"`
	Expression struct {
		Tokens []wireToken `json:"tokens"`
	} `json:"expression"`
	Prefix wireToken `json:"prefix"`
	Suffix wireToken `json:"suffix"`
}

type wireToken struct {
	Kind       string `json:"kind"`
	Text       string `json:"text"`
	ChildIndex int    `json:"childIndex"`
}

// Parse decodes a source-format document.
func Parse(raw []byte, log logr.Logger) (*Map, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode source format: %w", err)
	}

	m := &Map{
		File:  doc.SourceFile,
		nodes: make(map[string]model.NodeFormat, len(doc.SyntaxNodes)),
		log:   log,
	}
	for key, n := range doc.SyntaxNodes {
		id := n.Identifier
		if id == "" {
			id = key
		}
		switch n.Kind {
		case "presentInSourceCode":
			m.nodes[key] = n.present(id)
		case "absent":
			m.nodes[key] = model.Absent{ID: id}
		default:
			return nil, fmt.Errorf("syntax node %s has unknown kind %q", key, n.Kind)
		}
	}
	return m, nil
}

func (n wireNode) present(id string) model.PresentInSourceCode {
	p := model.PresentInSourceCode{
		ID:        id,
		File:      n.SourceFile,
		StartLine: n.StartLine,
		EndLine:   n.EndLine,
		Prefix:    n.Prefix.Text,
		Suffix:    n.Suffix.Text,
		Children:  n.Children,
	}
	for _, t := range n.Expression.Tokens {
		switch t.Kind {
		case "Child":
			p.Tokens = append(p.Tokens, model.Token{Kind: model.TokenChild, Text: t.Text, ChildIndex: t.ChildIndex})
		case "LineStart":
			p.Tokens = append(p.Tokens, model.Token{Kind: model.TokenLineStart})
		default:
			p.Tokens = append(p.Tokens, model.Token{Kind: model.TokenText, Text: t.Text})
		}
	}
	return p
}

// Lookup returns the metadata for id. Unknown ids, and every id on a nil Map,
// resolve to model.Absent.
func (m *Map) Lookup(id string) model.NodeFormat {
	if m == nil {
		return model.Absent{ID: id}
	}
	if f, ok := m.nodes[id]; ok {
		return f
	}
	m.misses++
	m.log.V(1).Info("syntax node missing from source format", "id", id)
	return model.Absent{ID: id}
}

// Len is the number of known syntax nodes.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.nodes)
}

// Misses counts lookups that fell back to Absent.
func (m *Map) Misses() int {
	if m == nil {
		return 0
	}
	return m.misses
}
