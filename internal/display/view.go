package display

import (
	"fmt"
	"strings"

	"jumbotrace/internal/model"
	"jumbotrace/internal/transform"

	"github.com/mattn/go-runewidth"
)

// SpacesPerIndentLevel is the default indentation width.
const SpacesPerIndentLevel = 6

// LineKind tells which kind of event produced a line.
type LineKind int

const (
	LineStatement LineKind = iota
	LineSubStatement
	LineFunction
)

// Line is one rendered row of the trace.
type Line struct {
	EventID     int64
	Kind        LineKind
	Indent      int
	Number      int // source line, 0 when unknown
	Marker      string
	Code        string
	Result      string
	Args        []string
	Writes      []string
	Placeholder bool
}

// ViewEvent is what an event shows before (Start) and after (End) its children.
type ViewEvent struct {
	Start []Line
	End   []Line
}

// Renderer turns events into lines and lines into text.
// Its indentation cache belongs to the renderer, one per session.
type Renderer struct {
	indentWidth int
	indents     map[int]string
	styles      Styles
}

// NewRenderer creates a renderer. A non-positive width uses SpacesPerIndentLevel.
func NewRenderer(indentWidth int, styles Styles) *Renderer {
	if indentWidth <= 0 {
		indentWidth = SpacesPerIndentLevel
	}
	return &Renderer{indentWidth: indentWidth, indents: make(map[int]string), styles: styles}
}

// Indent returns the whitespace for an indentation level.
func (r *Renderer) Indent(level int) string {
	if s, ok := r.indents[level]; ok {
		return s
	}
	s := strings.Repeat(" ", level*r.indentWidth)
	r.indents[level] = s
	return s
}

// ViewFunc renders events according to the display modes m.
func (r *Renderer) ViewFunc(m *Modes) transform.ViewFunc[ItemContext, ItemState, ViewEvent] {
	return func(e *model.Event, state ItemState, ctx ItemContext) ViewEvent {
		if m.Hidden(e.ID) {
			return ViewEvent{}
		}
		switch k := e.Kind.(type) {
		case model.Update:
			return ViewEvent{}
		case model.ControlFlow:
			fc, ok := k.Context.(model.FunctionContext)
			if !ok {
				return ViewEvent{}
			}
			l := Line{EventID: e.ID, Kind: LineFunction, Indent: ctx.Indent, Marker: marker(m, e), Code: fc.Name}
			if m.Mode(e.ID) == Collapsed {
				l.Code += " ..."
			}
			if p, ok := e.Node.(model.PresentInSourceCode); ok {
				l.Number = p.StartLine
			}
			return ViewEvent{Start: []Line{l}}
		default:
			return ViewEvent{End: []Line{stepLine(e, state, ctx, marker(m, e))}}
		}
	}
}

func marker(m *Modes, e *model.Event) string {
	if !collapsible(e) {
		return ""
	}
	if m.Mode(e.ID) == Collapsed {
		return "▸"
	}
	return "▾"
}

func stepLine(e *model.Event, state ItemState, ctx ItemContext, mark string) Line {
	l := Line{EventID: e.ID, Indent: ctx.Indent, Marker: mark}
	if _, ok := e.Kind.(model.SubStatement); ok {
		l.Kind = LineSubStatement
	}

	step, hasStep := e.Step()
	node := e.Node
	if hasStep && step.Node != nil {
		node = step.Node
	}
	switch p := node.(type) {
	case model.PresentInSourceCode:
		l.Number = p.StartLine
		l.Code = code(p)
	default:
		l.Placeholder = true
		id := ""
		if node != nil {
			id = node.Identifier()
		}
		l.Code = fmt.Sprintf("<no source for %s>", id)
	}

	if hasStep {
		switch k := step.Kind.(type) {
		case model.SimpleExpression:
			l.Result = model.DescribeValue(k.Result)
		case model.Call:
			l.Result = model.DescribeValue(k.Result)
			l.Args = describeAll(k.Args)
		case model.VoidCall:
			l.Args = describeAll(k.Args)
		}
	}
	for _, w := range state.Writes {
		if w.Identifier == nil {
			continue
		}
		l.Writes = append(l.Writes, w.String())
	}
	return l
}

func describeAll(values []model.Value) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, model.DescribeValue(v))
	}
	return out
}

func code(p model.PresentInSourceCode) string {
	var b strings.Builder
	b.WriteString(p.Prefix)
	for _, t := range p.Tokens {
		if t.Kind == model.TokenLineStart {
			b.WriteString(" ")
			continue
		}
		b.WriteString(t.Text)
	}
	b.WriteString(p.Suffix)
	return strings.Join(strings.Fields(b.String()), " ")
}

func (r *Renderer) gutter(l Line) string {
	if l.Number <= 0 {
		return "     │ "
	}
	return fmt.Sprintf("%4d │ ", l.Number)
}

func (r *Renderer) body(l Line) (code, result, args, writes string) {
	code = l.Code
	if l.Marker != "" {
		code = l.Marker + " " + code
	}
	if l.Kind == LineSubStatement {
		code = "↳ " + code
	}
	if l.Result != "" {
		result = " ➡ " + l.Result
	}
	if len(l.Args) > 0 {
		args = "  args(" + strings.Join(l.Args, ", ") + ")"
	}
	if len(l.Writes) > 0 {
		writes = "  [" + strings.Join(l.Writes, ", ") + "]"
	}
	return code, result, args, writes
}

// Plain renders a line without styles.
func (r *Renderer) Plain(l Line) string {
	code, result, args, writes := r.body(l)
	return r.gutter(l) + r.Indent(l.Indent) + code + result + args + writes
}

// Render renders a line with styles, truncated to width columns when width > 0.
func (r *Renderer) Render(l Line, width int, selected bool) string {
	var out string
	if plain := r.Plain(l); width > 0 && runewidth.StringWidth(plain) > width {
		out = r.styles.Code.Render(runewidth.Truncate(plain, width, "…"))
	} else {
		code, result, args, writes := r.body(l)
		codeStyle := r.styles.Code
		switch {
		case l.Kind == LineFunction:
			codeStyle = r.styles.Function
		case l.Placeholder:
			codeStyle = r.styles.Placeholder
		}
		out = r.styles.Gutter.Render(r.gutter(l)) + r.Indent(l.Indent) +
			codeStyle.Render(code) + r.styles.Result.Render(result) +
			r.styles.Code.Render(args) + r.styles.Write.Render(writes)
	}
	if selected {
		return r.styles.Selected.Render(out)
	}
	return out
}
