package label

import (
	"fmt"

	"jumbotrace/internal/model"
	"jumbotrace/internal/wire"
)

// Result returns the result value carried by an END label, or nil.
func (l Label) Result() model.Value {
	for _, f := range l.Payload {
		if r, ok := f.(wire.ResultField); ok {
			return r.Value
		}
	}
	return nil
}

// Owner returns the reference a CALL label is invoked on, or nil.
func (l Label) Owner() model.Reference {
	for _, f := range l.Payload {
		if v, ok := f.(wire.ValueField); ok {
			if ref, ok := v.Value.(model.Reference); ok {
				return ref
			}
		}
	}
	return nil
}

// Args returns the argument values of a CALL label.
func (l Label) Args() []model.Value {
	for _, f := range l.Payload {
		if a, ok := f.(wire.ArgsField); ok {
			return a.Values
		}
	}
	return nil
}

// Write returns the write of an UPDATE label in either of its two encodings.
// The zero Write is returned when the payload was omitted.
func (l Label) Write() model.Write {
	var w model.Write
	for _, f := range l.Payload {
		switch f := f.(type) {
		case wire.WriteField:
			return f.Write
		case wire.IdentifierField:
			w.Identifier = f.Identifier
		case wire.ValueField:
			w.Value = f.Value
		}
	}
	return w
}

// Record is the label as plain JSON-like data, the shape jq queries run against.
func (l Label) Record() map[string]any {
	payload := make([]any, 0, len(l.Payload))
	for _, f := range l.Payload {
		switch f := f.(type) {
		case wire.ResultField:
			payload = append(payload, map[string]any{"result": model.DescribeValue(f.Value)})
		case wire.ArgsField:
			args := make([]any, 0, len(f.Values))
			for _, v := range f.Values {
				args = append(args, model.DescribeValue(v))
			}
			payload = append(payload, map[string]any{"args": args})
		case wire.ValueField:
			payload = append(payload, map[string]any{"value": model.DescribeValue(f.Value)})
		case wire.IdentifierField:
			payload = append(payload, map[string]any{"identifier": fmt.Sprint(f.Identifier)})
		case wire.WriteField:
			payload = append(payload, map[string]any{"write": f.Write.String()})
		}
	}
	return map[string]any{
		"index":    l.Index,
		"position": l.Position.String(),
		"eventId":  int(l.EventID),
		"nodeId":   l.NodeID,
		"kind":     l.Type.Kind,
		"subkind":  l.Type.Subkind,
		"payload":  payload,
	}
}
