package model

import (
	"fmt"
	"strings"
)

// LiteralKind names the primitive type of a Literal.
type LiteralKind string

const (
	KindInt    LiteralKind = "int"
	KindLong   LiteralKind = "long"
	KindBool   LiteralKind = "bool"
	KindString LiteralKind = "string"
	KindChar   LiteralKind = "char"
	KindByte   LiteralKind = "byte"
	KindShort  LiteralKind = "short"
	KindFloat  LiteralKind = "float"
	KindDouble LiteralKind = "double"
	KindNull   LiteralKind = "null"
)

var literalKinds = map[LiteralKind]struct{}{
	KindInt: {}, KindLong: {}, KindBool: {}, KindString: {}, KindChar: {},
	KindByte: {}, KindShort: {}, KindFloat: {}, KindDouble: {}, KindNull: {},
}

// IsLiteralKind reports whether s names a primitive literal type.
func IsLiteralKind(s string) bool {
	_, ok := literalKinds[LiteralKind(s)]
	return ok
}

// Value is a runtime value observed in the trace.
// Implementations: Literal, InstanceReference, ArrayReference, StaticReference.
type Value interface {
	isValue()
}

// Reference is a Value that can own fields or receive calls.
// Implementations: InstanceReference, StaticReference.
type Reference interface {
	Value
	isReference()
}

// ClassName identifies a class by package and simple name.
type ClassName struct {
	Package string `json:"packageName"`
	Name    string `json:"className"`
}

func (c ClassName) String() string {
	if c.Package == "" {
		return c.Name
	}
	return c.Package + "." + c.Name
}

// ParseClassName splits a dotted class name on its last dot.
func ParseClassName(s string) ClassName {
	i := strings.LastIndex(s, ".")
	if i < 0 {
		return ClassName{Name: s}
	}
	return ClassName{Package: s[:i], Name: s[i+1:]}
}

// Literal is a primitive value. Raw holds its canonical text ("5", "true", "null").
type Literal struct {
	Kind LiteralKind
	Raw  string
}

// InstanceReference points at a heap object at a given version.
// The object's fields live in the object store, never here.
type InstanceReference struct {
	Class   ClassName
	Pointer int64
	Version int
}

// ArrayReference points at an array at a given version.
type ArrayReference struct {
	ElementType string
	Pointer     int64
	Version     int
}

// StaticReference is the class itself, used as owner of static fields and calls.
type StaticReference struct {
	Class   ClassName
	Version int
}

func (Literal) isValue()           {}
func (InstanceReference) isValue() {}
func (ArrayReference) isValue()    {}
func (StaticReference) isValue()   {}

func (InstanceReference) isReference() {}
func (StaticReference) isReference()   {}

func (l Literal) String() string {
	if l.Kind == KindNull {
		return "null"
	}
	if l.Kind == KindString {
		return fmt.Sprintf("%q", l.Raw)
	}
	if l.Kind == KindChar {
		return "'" + l.Raw + "'"
	}
	return l.Raw
}

func (r InstanceReference) String() string {
	return fmt.Sprintf("%s$%d", r.Class.Name, r.Pointer)
}

func (r ArrayReference) String() string {
	return fmt.Sprintf("%s[]$%d", r.ElementType, r.Pointer)
}

func (r StaticReference) String() string {
	return r.Class.Name
}

// Identifier names a storage location that can be written.
// Implementations: LocalIdentifier, FieldIdentifier.
type Identifier interface {
	isIdentifier()
}

// LocalIdentifier is a local variable declared by the syntax node Parent.
type LocalIdentifier struct {
	Name   string
	Parent string
}

// FieldIdentifier is a field of an instance or a static field of a class.
type FieldIdentifier struct {
	Owner Reference
	Name  string
}

func (LocalIdentifier) isIdentifier() {}
func (FieldIdentifier) isIdentifier() {}

func (id LocalIdentifier) String() string { return id.Name }

func (id FieldIdentifier) String() string {
	if id.Owner == nil {
		return id.Name
	}
	return fmt.Sprintf("%v.%s", id.Owner, id.Name)
}

// Write is an assignment of Value to Identifier.
// Both fields are nil when the producer omitted the payload.
type Write struct {
	Identifier Identifier
	Value      Value
}

func (w Write) String() string {
	return fmt.Sprintf("%v = %v", w.Identifier, w.Value)
}

// DescribeValue renders v for logs and plain output; nil means "no value".
func DescribeValue(v Value) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
