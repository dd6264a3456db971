package model

import (
	"strconv"
	"strings"
)

// SourceFile identifies the file a syntax node comes from.
type SourceFile struct {
	Package  string `json:"packageName"`
	FileName string `json:"fileName"`
}

// NodeFormat is the display metadata for one syntax node.
// Implementations: PresentInSourceCode, Absent.
type NodeFormat interface {
	Identifier() string
	isNodeFormat()
}

// Absent marks a node with no source text, or a node the lookup did not know.
type Absent struct {
	ID string
}

// PresentInSourceCode describes a node that maps to a source range.
type PresentInSourceCode struct {
	ID        string
	File      SourceFile
	StartLine int
	EndLine   int
	Prefix    string
	Suffix    string
	Tokens    []Token
	Children  []string
}

func (a Absent) Identifier() string              { return a.ID }
func (p PresentInSourceCode) Identifier() string { return p.ID }

func (Absent) isNodeFormat()              {}
func (PresentInSourceCode) isNodeFormat() {}

// TokenKind tells how a Token contributes to the rendered expression.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenChild
	TokenLineStart
)

// Token is one piece of an expression. ChildIndex is only meaningful for TokenChild.
type Token struct {
	Kind       TokenKind
	Text       string
	ChildIndex int
}

// Text concatenates the token texts, ignoring line starts.
func (p PresentInSourceCode) Text() string {
	var b strings.Builder
	for _, t := range p.Tokens {
		if t.Kind != TokenLineStart {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// StartColumn returns the column encoded in the node identifier
// ("File.java-12:5-12:20"), or -1 when it cannot be read.
func (p PresentInSourceCode) StartColumn() int {
	parts := strings.Split(p.ID, "-")
	if len(parts) < 3 {
		return -1
	}
	lc := strings.SplitN(parts[len(parts)-2], ":", 2)
	if len(lc) != 2 {
		return -1
	}
	col, err := strconv.Atoi(lc[1])
	if err != nil {
		return -1
	}
	return col
}
