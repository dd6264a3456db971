package wire

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"jumbotrace/internal/model"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed payload.schema.json
var payloadSchema []byte

const payloadSchemaURL = "https://jumbotrace.local/schema/payload.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(payloadSchemaURL, bytes.NewReader(payloadSchema)); err != nil {
			schemaErr = fmt.Errorf("failed to add payload schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(payloadSchemaURL)
	})
	return compiledSchema, schemaErr
}

// Field is one decoded payload entry of a label.
// Implementations: ResultField, ArgsField, ValueField, IdentifierField, WriteField.
type Field interface {
	isField()
}

type (
	ResultField     struct{ Value model.Value }
	ArgsField       struct{ Values []model.Value }
	ValueField      struct{ Value model.Value }
	IdentifierField struct{ Identifier model.Identifier }
	WriteField      struct{ Write model.Write }
)

func (ResultField) isField()     {}
func (ArgsField) isField()       {}
func (ValueField) isField()      {}
func (IdentifierField) isField() {}
func (WriteField) isField()      {}

// object is the union of every payload shape the producer emits.
type object struct {
	DataType    string            `json:"dataType"`
	Kind        string            `json:"kind"`
	Value       json.RawMessage   `json:"value"`
	Result      json.RawMessage   `json:"result"`
	ClassName   json.RawMessage   `json:"className"`
	ElementType string            `json:"elementType"`
	Pointer     int64             `json:"pointer"`
	Version     int               `json:"version"`
	Name        string            `json:"name"`
	Parent      string            `json:"parent"`
	Owner       json.RawMessage   `json:"owner"`
	Identifier  json.RawMessage   `json:"identifier"`
	Values      []json.RawMessage `json:"values"`
}

// Validate checks raw against the payload schema.
func Validate(raw json.RawMessage) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("invalid payload json: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("payload schema validation failed: %w", err)
	}
	return nil
}

// DecodeField validates one payload object and converts it to model types.
func DecodeField(raw json.RawMessage) (Field, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return o.field()
}

// DecodeValue decodes a payload that must be a value.
func DecodeValue(raw json.RawMessage) (model.Value, error) {
	f, err := DecodeField(raw)
	if err != nil {
		return nil, err
	}
	vf, ok := f.(ValueField)
	if !ok {
		return nil, fmt.Errorf("payload is %T, not a value", f)
	}
	return vf.Value, nil
}

// DecodeIdentifier decodes a payload that must be an identifier.
func DecodeIdentifier(raw json.RawMessage) (model.Identifier, error) {
	f, err := DecodeField(raw)
	if err != nil {
		return nil, err
	}
	idf, ok := f.(IdentifierField)
	if !ok {
		return nil, fmt.Errorf("payload is %T, not an identifier", f)
	}
	return idf.Identifier, nil
}

func (o object) field() (Field, error) {
	switch o.DataType {
	case "result":
		raw := o.Value
		if len(raw) == 0 {
			raw = o.Result
		}
		v, err := decodeValue(raw)
		if err != nil {
			return nil, err
		}
		return ResultField{Value: v}, nil
	case "argsValues":
		values := make([]model.Value, 0, len(o.Values))
		for _, rv := range o.Values {
			v, err := decodeValue(rv)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return ArgsField{Values: values}, nil
	case "write":
		id, err := decodeIdentifier(o.Identifier)
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(o.Value)
		if err != nil {
			return nil, err
		}
		return WriteField{Write: model.Write{Identifier: id, Value: v}}, nil
	case "localIdentifier", "fieldIdentifier":
		id, err := o.identifier()
		if err != nil {
			return nil, err
		}
		return IdentifierField{Identifier: id}, nil
	default:
		v, err := o.value()
		if err != nil {
			return nil, err
		}
		return ValueField{Value: v}, nil
	}
}

func decodeValue(raw json.RawMessage) (model.Value, error) {
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return o.value()
}

func decodeIdentifier(raw json.RawMessage) (model.Identifier, error) {
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("failed to decode identifier: %w", err)
	}
	return o.identifier()
}

func (o object) value() (model.Value, error) {
	switch o.DataType {
	case "literal":
		return literal(model.LiteralKind(o.Kind), o.Value)
	case "instanceRef":
		return model.InstanceReference{Class: className(o.ClassName), Pointer: o.Pointer, Version: o.Version}, nil
	case "arrayRef":
		return model.ArrayReference{ElementType: o.ElementType, Pointer: o.Pointer, Version: o.Version}, nil
	case "staticRef":
		return model.StaticReference{Class: className(o.ClassName), Version: o.Version}, nil
	}
	if model.IsLiteralKind(o.DataType) {
		return literal(model.LiteralKind(o.DataType), o.Value)
	}
	return nil, fmt.Errorf("unknown value dataType %q", o.DataType)
}

func (o object) identifier() (model.Identifier, error) {
	switch o.DataType {
	case "localIdentifier":
		return model.LocalIdentifier{Name: o.Name, Parent: o.Parent}, nil
	case "fieldIdentifier":
		owner, err := decodeValue(o.Owner)
		if err != nil {
			return nil, err
		}
		ref, ok := owner.(model.Reference)
		if !ok {
			return nil, fmt.Errorf("field owner must be a reference, got %T", owner)
		}
		return model.FieldIdentifier{Owner: ref, Name: o.Name}, nil
	}
	return nil, fmt.Errorf("unknown identifier dataType %q", o.DataType)
}

func literal(kind model.LiteralKind, raw json.RawMessage) (model.Literal, error) {
	if kind == model.KindNull {
		return model.Literal{Kind: kind, Raw: "null"}, nil
	}
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return model.Literal{Kind: kind, Raw: "null"}, nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return model.Literal{}, fmt.Errorf("failed to decode %s literal: %w", kind, err)
		}
		return model.Literal{Kind: kind, Raw: s}, nil
	}
	return model.Literal{Kind: kind, Raw: text}, nil
}

func className(raw json.RawMessage) model.ClassName {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return model.ParseClassName(s)
	}
	var c model.ClassName
	_ = json.Unmarshal(raw, &c)
	// the producer keeps the separating dot on the simple name of static owners
	c.Name = strings.TrimPrefix(c.Name, ".")
	return c
}
