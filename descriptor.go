// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package structmap

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind identifies a type descriptor variant. The set of kinds is closed:
// descriptors are built once per record type by [Describe] and never
// re-derived from ambient reflection during conversion.
type Kind int

const (
	// KindInvalid is the zero Kind.
	KindInvalid Kind = iota

	// KindBool is a boolean scalar.
	KindBool

	// KindInt is a signed integer scalar (any Go width).
	KindInt

	// KindUint is an unsigned integer scalar (any Go width).
	KindUint

	// KindFloat is a floating-point scalar.
	KindFloat

	// KindString is a string scalar.
	KindString

	// KindBytes is a byte-slice scalar.
	KindBytes

	// KindTime is a time.Time scalar.
	KindTime

	// KindDuration is a time.Duration scalar.
	KindDuration

	// KindEnum is a scalar restricted to a fixed member set.
	KindEnum

	// KindOptional is a value that may be absent (a Go pointer).
	KindOptional

	// KindUnion is an ordered list of alternatives, tried left to right.
	KindUnion

	// KindList is a homogeneous sequence.
	KindList

	// KindMap is a homogeneous mapping.
	KindMap

	// KindTuple is a fixed-arity sequence.
	KindTuple

	// KindRecord is a nested record type. A record descriptor with a nil
	// Record field is dynamic: the concrete type is resolved from the
	// tree's discriminator at decode time.
	KindRecord

	// KindAny is an opaque passthrough.
	KindAny
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	case KindDuration:
		return "duration"
	case KindEnum:
		return "enum"
	case KindOptional:
		return "optional"
	case KindUnion:
		return "union"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindTuple:
		return "tuple"
	case KindRecord:
		return "record"
	case KindAny:
		return "any"
	default:
		return "invalid"
	}
}

// TypeDescriptor describes the shape of a field's type. Descriptors form a
// closed variant: exactly the fields relevant to Kind are populated.
type TypeDescriptor struct {
	Kind   Kind
	GoType reflect.Type // Concrete Go type decoded into; nil for builder-made unions

	Elem  *TypeDescriptor   // Optional/List inner type, Map value type, Tuple element for homogeneous tuples
	Key   *TypeDescriptor   // Map key type
	Alts  []*TypeDescriptor // Union alternatives, in declared order (null first)
	Elems []*TypeDescriptor // Heterogeneous tuple element types
	Len   int               // Tuple arity for fixed homogeneous tuples

	Enum   []any       // Enum member values (underlying scalar representation)
	Record *RecordType // Record descriptor; nil for dynamic records
}

// String renders a readable type expression, used in error messages.
func (d *TypeDescriptor) String() string {
	if d == nil {
		return "<nil>"
	}
	switch d.Kind {
	case KindOptional:
		return "optional[" + d.Elem.String() + "]"
	case KindUnion:
		parts := make([]string, len(d.Alts))
		for i, alt := range d.Alts {
			parts[i] = alt.String()
		}
		return "union[" + strings.Join(parts, "|") + "]"
	case KindList:
		return "list[" + d.Elem.String() + "]"
	case KindMap:
		return "map[" + d.Key.String() + "]" + d.Elem.String()
	case KindTuple:
		if len(d.Elems) > 0 {
			parts := make([]string, len(d.Elems))
			for i, e := range d.Elems {
				parts[i] = e.String()
			}
			return "tuple[" + strings.Join(parts, ",") + "]"
		}
		return fmt.Sprintf("tuple[%d x %s]", d.Len, d.Elem.String())
	case KindEnum:
		parts := make([]string, len(d.Enum))
		for i, m := range d.Enum {
			parts[i] = fmt.Sprintf("%v", m)
		}
		return "enum[" + strings.Join(parts, "|") + "]"
	case KindRecord:
		if d.Record != nil {
			return "record[" + d.Record.Name + "]"
		}
		if d.GoType != nil {
			return "record[" + d.GoType.String() + "]"
		}
		return "record[dynamic]"
	default:
		return d.Kind.String()
	}
}

// scalarKinds maps the kind names accepted in `union=` tag lists.
var scalarKinds = map[string]Kind{
	"bool":     KindBool,
	"int":      KindInt,
	"uint":     KindUint,
	"float":    KindFloat,
	"string":   KindString,
	"bytes":    KindBytes,
	"time":     KindTime,
	"duration": KindDuration,
}

// goTypeForKind returns the canonical Go type a scalar kind decodes into
// when the target field is an interface.
func goTypeForKind(k Kind) reflect.Type {
	switch k {
	case KindBool:
		return reflect.TypeOf(false)
	case KindInt:
		return reflect.TypeOf(int64(0))
	case KindUint:
		return reflect.TypeOf(uint64(0))
	case KindFloat:
		return reflect.TypeOf(float64(0))
	case KindString:
		return reflect.TypeOf("")
	case KindBytes:
		return reflect.TypeOf([]byte(nil))
	case KindTime:
		return timeType
	case KindDuration:
		return durationType
	default:
		return anyType
	}
}

// ScalarOf returns the descriptor for a named scalar kind ("int", "string",
// "time", ...). It panics on an unknown name; the set of names is fixed.
func ScalarOf(name string) *TypeDescriptor {
	k, ok := scalarKinds[name]
	if !ok {
		panic(fmt.Sprintf("structmap: unknown scalar kind %q", name))
	}
	return &TypeDescriptor{Kind: k, GoType: goTypeForKind(k)}
}

// Null is the union alternative matching only nil tree values.
// A union containing Null decodes nil to absence before trying the
// remaining alternatives.
func Null() *TypeDescriptor {
	return &TypeDescriptor{Kind: KindOptional, Elem: &TypeDescriptor{Kind: KindAny, GoType: anyType}, GoType: anyType}
}

// UnionOf builds a union descriptor from the given alternatives.
// Alternatives are tried in the order given, except that a null
// alternative, if present anywhere, is moved to the front. The first
// alternative to decode successfully wins; this first-match policy can mask
// invalid input when an early alternative is permissive, but it is
// deliberately order-dependent so callers control precedence.
func UnionOf(alts ...*TypeDescriptor) *TypeDescriptor {
	ordered := make([]*TypeDescriptor, 0, len(alts))
	var null *TypeDescriptor
	for _, alt := range alts {
		if alt.Kind == KindOptional && alt.Elem != nil && alt.Elem.Kind == KindAny {
			if null == nil {
				null = alt
			}
			continue
		}
		ordered = append(ordered, alt)
	}
	if null != nil {
		ordered = append([]*TypeDescriptor{null}, ordered...)
	}
	return &TypeDescriptor{Kind: KindUnion, GoType: anyType, Alts: ordered}
}

// TupleOf builds a fixed-arity heterogeneous tuple descriptor. Tuples decode
// into []any with exactly len(elems) elements.
func TupleOf(elems ...*TypeDescriptor) *TypeDescriptor {
	return &TypeDescriptor{Kind: KindTuple, GoType: anySliceType, Elems: elems}
}

// RecordOf returns a record descriptor for an already-described record type.
func RecordOf(rt *RecordType) *TypeDescriptor {
	return &TypeDescriptor{Kind: KindRecord, GoType: rt.GoType, Record: rt}
}
