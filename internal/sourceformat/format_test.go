package sourceformat

import (
	"context"
	"testing"

	"jumbotrace/internal/model"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const formatDoc = `{
	"sourceFile": {"packageName": "sim", "fileName": "Main.java"},
	"syntaxNodes": {
		"Main.java-5:9-5:31": {
			"kind": "presentInSourceCode",
			"identifier": "Main.java-5:9-5:31",
			"children": ["Main.java-5:17-5:30"],
			"sourceFile": {"packageName": "sim", "fileName": "Main.java"},
			"startLine": 5,
			"endLine": 5,
			"expression": {"kind": "expression", "tokens": [
				{"kind": "Text", "text": "int y = "},
				{"kind": "Child", "childIndex": 0, "text": "b.step(2)"},
				{"kind": "LineStart"}
			]},
			"prefix": {"kind": "Text", "text": ""},
			"suffix": {"kind": "Text", "text": ";"}
		},
		"absent": {"kind": "absent", "identifier": "absent"}
	}
}`

func TestParse_AndLookup(t *testing.T) {
	m, err := Parse([]byte(formatDoc), logr.Discard())
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "Main.java", m.File.FileName)

	f := m.Lookup("Main.java-5:9-5:31")
	p, ok := f.(model.PresentInSourceCode)
	require.True(t, ok)
	assert.Equal(t, 5, p.StartLine)
	assert.Equal(t, ";", p.Suffix)
	assert.Equal(t, []string{"Main.java-5:17-5:30"}, p.Children)
	require.Len(t, p.Tokens, 3)
	assert.Equal(t, model.Token{Kind: model.TokenChild, Text: "b.step(2)", ChildIndex: 0}, p.Tokens[1])
	assert.Equal(t, model.TokenLineStart, p.Tokens[2].Kind)

	assert.Equal(t, model.Absent{ID: "absent"}, m.Lookup("absent"))

	t.Run("unknown id degrades to absent", func(t *testing.T) {
		assert.Equal(t, model.Absent{ID: "nope"}, m.Lookup("nope"))
		assert.Equal(t, 1, m.Misses())
	})

	t.Run("nil map is total", func(t *testing.T) {
		var empty *Map
		assert.Equal(t, model.Absent{ID: "x"}, empty.Lookup("x"))
		assert.Zero(t, empty.Len())
	})
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse([]byte(`{"syntaxNodes": {"a": {"kind": "weird"}}}`), logr.Discard())
	assert.Error(t, err)
	_, err = Parse([]byte(`[`), logr.Discard())
	assert.Error(t, err)
}

const javaSource = `package sim;

public class Main {
    public static void main(String[] args) {
        Boid b = new Boid(1);
        int y = b.step(2);
    }
}

class Boid {
    int x;
    Boid(int x) { this.x = x; }
    int step(int d) {
        x = x + d;
        return x;
    }
}
`

func TestJavaNamer(t *testing.T) {
	n, err := NewJavaNamer(context.Background(), []byte(javaSource))
	require.NoError(t, err)

	call := model.PresentInSourceCode{
		ID:        "Main.java-6:17-6:26",
		StartLine: 6,
		Tokens:    []model.Token{{Kind: model.TokenText, Text: "b.step(2)"}},
	}
	assert.Equal(t, "Boid.step", n.FunctionName(call))

	ctor := model.PresentInSourceCode{
		ID:        "Main.java-5:18-5:29",
		StartLine: 5,
		Tokens:    []model.Token{{Kind: model.TokenText, Text: "new Boid(1)"}},
	}
	assert.Equal(t, "Boid", n.FunctionName(ctor))

	t.Run("falls back to text off the parsed lines", func(t *testing.T) {
		other := model.PresentInSourceCode{
			ID:        "Other.java-40:1-40:9",
			StartLine: 40,
			Tokens:    []model.Token{{Kind: model.TokenText, Text: "Lib.run()"}},
		}
		assert.Equal(t, "run", n.FunctionName(other))
	})

	assert.Empty(t, n.FunctionName(model.Absent{ID: "x"}))
}

func TestCalleeFromText(t *testing.T) {
	tests := map[string]string{
		"a.b.step(x)":                        "step",
		"new Boid(1)":                        "Boid",
		"y = compute(3)":                     "compute",
		"new java.util.ArrayList<Integer>()": "ArrayList",
	}
	for text, want := range tests {
		p := model.PresentInSourceCode{Tokens: []model.Token{{Kind: model.TokenText, Text: text}}}
		assert.Equal(t, want, CalleeFromText(p), text)
		assert.Equal(t, want, TextNamer{}.FunctionName(p), text)
	}
}
