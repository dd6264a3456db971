package label

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"jumbotrace/internal/model"
	"jumbotrace/internal/wire"

	"github.com/go-logr/logr"
)

// Label is one typed row of the trace.
type Label struct {
	Index    int
	Position Position
	EventID  int64
	NodeID   string
	Node     model.NodeFormat
	Type     model.EventType
	Payload  []wire.Field
}

// NodeResolver maps syntax node ids to their display metadata.
// Lookup must be total: unknown ids yield model.Absent.
type NodeResolver interface {
	Lookup(id string) model.NodeFormat
}

type absentResolver struct{}

func (absentResolver) Lookup(id string) model.NodeFormat { return model.Absent{ID: id} }

// AbsentResolver resolves every id to model.Absent.
var AbsentResolver NodeResolver = absentResolver{}

type options struct {
	log logr.Logger
}

// Option configures a parse.
type Option func(*options)

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

func newOptions(opts []Option) options {
	o := options{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// row is the format-independent shape of one trace line.
type row struct {
	position string
	eventID  int64
	nodeID   string
	subkind  string
	kind     string
	payload  []json.RawMessage
}

const headerCells = 5

// Parse reads the JSON trace document {"trace": [[position, eventId, nodeId, subkind, kind, ...payload], ...]}.
func Parse(raw []byte, resolver NodeResolver, opts ...Option) ([]Label, error) {
	o := newOptions(opts)

	var doc struct {
		Trace *[]json.RawMessage `json:"trace"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, &model.MalformedTraceError{Row: -1, Reason: "invalid trace document", Err: err}
	}
	if doc.Trace == nil {
		return nil, model.Malformed(-1, "missing trace field")
	}

	rows := make([]row, 0, len(*doc.Trace))
	for i, rawRow := range *doc.Trace {
		r, err := jsonRow(i, rawRow)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return build(rows, resolver, o)
}

// ParseCSV reads the same rows as comma separated records. Payload cells hold JSON objects.
func ParseCSV(r io.Reader, resolver NodeResolver, opts ...Option) ([]Label, error) {
	o := newOptions(opts)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []row
	for i := 0; ; i++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &model.MalformedTraceError{Row: i, Reason: "invalid csv record", Err: err}
		}
		if len(record) < headerCells {
			return nil, model.Malformed(i, "expected at least %d cells, got %d", headerCells, len(record))
		}
		id, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
		if err != nil {
			return nil, &model.MalformedTraceError{Row: i, Reason: "event id is not an integer", Err: err}
		}
		rw := row{
			position: strings.TrimSpace(record[0]),
			eventID:  id,
			nodeID:   strings.TrimSpace(record[2]),
			subkind:  strings.TrimSpace(record[3]),
			kind:     strings.TrimSpace(record[4]),
		}
		cells := record[headerCells:]
		for len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1]) == "" {
			cells = cells[:len(cells)-1]
		}
		for j, cell := range cells {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				return nil, model.Malformed(i, "empty payload cell %d", headerCells+j)
			}
			rw.payload = append(rw.payload, json.RawMessage(cell))
		}
		rows = append(rows, rw)
	}
	return build(rows, resolver, o)
}

func jsonRow(i int, raw json.RawMessage) (row, error) {
	var cells []json.RawMessage
	if err := json.Unmarshal(raw, &cells); err != nil {
		return row{}, &model.MalformedTraceError{Row: i, Reason: "row is not an array", Err: err}
	}
	if len(cells) < headerCells {
		return row{}, model.Malformed(i, "expected at least %d cells, got %d", headerCells, len(cells))
	}

	var r row
	strCells := []*string{&r.position, nil, &r.nodeID, &r.subkind, &r.kind}
	for c, dst := range strCells {
		if dst == nil {
			continue
		}
		if err := json.Unmarshal(cells[c], dst); err != nil {
			return row{}, &model.MalformedTraceError{Row: i, Reason: fmt.Sprintf("cell %d is not a string", c), Err: err}
		}
	}

	dec := json.NewDecoder(bytes.NewReader(cells[1]))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return row{}, &model.MalformedTraceError{Row: i, Reason: "event id is not a number", Err: err}
	}
	id, err := n.Int64()
	if err != nil {
		return row{}, &model.MalformedTraceError{Row: i, Reason: "event id is not an integer", Err: err}
	}
	r.eventID = id
	r.payload = cells[headerCells:]
	return r, nil
}

func build(rows []row, resolver NodeResolver, o options) ([]Label, error) {
	if resolver == nil {
		resolver = AbsentResolver
	}
	labels := make([]Label, 0, len(rows))
	for i, r := range rows {
		l, err := typed(i, r, resolver)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	o.log.V(1).Info("parsed trace labels", "count", len(labels))
	return labels, nil
}

func typed(i int, r row, resolver NodeResolver) (Label, error) {
	pos, ok := ParsePosition(r.position)
	if !ok {
		return Label{}, model.Malformed(i, "unknown position %q", r.position)
	}
	typ := model.EventType{Kind: r.kind, Subkind: r.subkind}
	if !IsEventType(typ) {
		return Label{}, model.Malformed(i, "unknown event type %s", typ)
	}
	alternatives, ok := ExpectedFields(typ, pos)
	if !ok {
		return Label{}, model.Malformed(i, "position %s is not valid for %s", pos, typ)
	}

	fields := make([]wire.Field, 0, len(r.payload))
	for n, raw := range r.payload {
		f, err := wire.DecodeField(raw)
		if err != nil {
			return Label{}, &model.MalformedTraceError{Row: i, Reason: fmt.Sprintf("payload field %d", n), Err: err}
		}
		fields = append(fields, f)
	}
	if !matchesSchema(alternatives, fields) {
		return Label{}, model.Malformed(i, "payload of %s at %s does not match %v", typ, pos, alternatives)
	}

	return Label{
		Index:    i,
		Position: pos,
		EventID:  r.eventID,
		NodeID:   r.nodeID,
		Node:     resolver.Lookup(r.nodeID),
		Type:     typ,
		Payload:  fields,
	}, nil
}
