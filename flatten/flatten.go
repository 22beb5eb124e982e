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

// Package flatten derives single-level record types from nested ones and
// converts instances both ways. The flat type is generated with
// reflect.StructOf, carrying the leaf fields' tree keys and defaults, so it
// encodes and decodes with structmap like any hand-written record.
//
// A leaf reached through an optional branch becomes a pointer in the flat
// type. Expanding a flat instance whose optional branch is entirely nil
// leaves that branch nil; a branch where every leaf merely equals its zero
// value is indistinguishable from an absent one, and resolves toward nil.
package flatten

import (
	"fmt"
	"reflect"

	"rivaas.dev/structmap"
)

// Option configures flattening.
type Option func(*config)

type config struct {
	maxDepth int
	name     string
	tolerant bool
}

// WithMaxDepth bounds nesting depth. Zero means structmap.DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithName sets the generated record type's name. Defaults to the source
// name with a "Flat" suffix.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// Flat is a derived single-level record type plus the mapping between
// nested and flat instances. Build one with [Flatten]; a Flat is immutable
// and safe for concurrent use.
type Flat struct {
	// Type is the flat record descriptor, usable with structmap.Encode and
	// structmap.Decode like any other record type.
	Type *structmap.RecordType

	// GoType is the generated flat struct type.
	GoType reflect.Type

	source reflect.Type
	fields []flatField
}

// flatField maps one leaf of the nested type to a flat struct field.
type flatField struct {
	index    int   // field index in the flat struct
	path     []int // concatenated Go field index path from the source root to the leaf
	optional bool  // an optional branch lies on the path
}

// Flatten derives the flat record type for a nested record. Dynamic fields
// (interfaces resolved at decode time) cannot be represented statically and
// fail with [ErrUnresolvedType]; self-referential types fail with
// [ErrSelfReference].
func Flatten(v any, opts ...Option) (*Flat, error) {
	cfg := &config{maxDepth: structmap.DefaultMaxDepth}
	for _, opt := range opts {
		opt(cfg)
	}

	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, &Error{Type: fmt.Sprintf("%T", v), Err: structmap.ErrUnsupportedType}
	}
	rt, err := structmap.DescribeType(t)
	if err != nil {
		return nil, err
	}

	w := &walker{cfg: cfg, root: rt, seenKeys: make(map[string]string)}
	if err := w.walk(rt, nil, false, map[reflect.Type]bool{t: true}, 0); err != nil {
		return nil, err
	}

	flatType := reflect.StructOf(w.structFields)
	name := cfg.name
	if name == "" {
		name = rt.Name + "Flat"
	}
	flatRT, err := structmap.DescribeType(flatType, structmap.WithRecordName(name))
	if err != nil {
		return nil, err
	}

	return &Flat{
		Type:   flatRT,
		GoType: flatType,
		source: t,
		fields: w.fields,
	}, nil
}

type walker struct {
	cfg          *config
	root         *structmap.RecordType
	seenKeys     map[string]string // leaf key -> owning type, for duplicate reporting
	structFields []reflect.StructField
	fields       []flatField
}

func (w *walker) walk(rt *structmap.RecordType, path []int, optional bool, seen map[reflect.Type]bool, depth int) error {
	if depth > w.cfg.maxDepth {
		return &Error{Type: w.root.GoType.String(), Err: ErrRecursionLimit}
	}

	for i := range rt.Fields {
		fd := &rt.Fields[i]
		// fd.Index is the Go field index path within rt, which diverges from
		// the descriptor position when fields are promoted or skipped.
		fieldPath := append(append([]int{}, path...), fd.Index...)

		leaf := fd.Type
		branchOptional := optional
		if leaf.Kind == structmap.KindOptional && leaf.Elem.Kind == structmap.KindRecord {
			branchOptional = true
			leaf = leaf.Elem
		}

		if leaf.Kind == structmap.KindRecord {
			if leaf.Record == nil {
				return &Error{Type: rt.GoType.String(), Field: fd.Name, Err: ErrUnresolvedType}
			}
			nested := leaf.Record.GoType
			if seen[nested] {
				return &Error{Type: rt.GoType.String(), Field: fd.Name, Err: ErrSelfReference}
			}
			seen[nested] = true
			if err := w.walk(leaf.Record, fieldPath, branchOptional, seen, depth+1); err != nil {
				return err
			}
			delete(seen, nested)
			continue
		}

		if owner, dup := w.seenKeys[fd.Key]; dup {
			return &Error{
				Type:  rt.GoType.String(),
				Field: fd.Name,
				Err:   fmt.Errorf("%w: key %q already used by %s", ErrDuplicateField, fd.Key, owner),
			}
		}
		w.seenKeys[fd.Key] = rt.GoType.String()

		goType := fd.GoType
		if optional && !nilable(goType) {
			goType = reflect.PtrTo(goType)
		}
		w.structFields = append(w.structFields, reflect.StructField{
			Name: fd.Name,
			Type: goType,
			Tag:  rebuildTag(fd, fd.Key, optional),
		})
		w.fields = append(w.fields, flatField{
			index:    len(w.structFields) - 1,
			path:     fieldPath,
			optional: optional,
		})
	}
	return nil
}

// Flatten converts a nested instance into an instance of the flat type.
// Leaves under a nil optional branch come out as nil pointers.
func (f *Flat) Flatten(src any) (any, error) {
	rv := reflect.ValueOf(src)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, &Error{Type: f.source.String(), Err: structmap.ErrOutPointerNil}
		}
		rv = rv.Elem()
	}
	if rv.Type() != f.source {
		return nil, &Error{Type: fmt.Sprintf("%T", src), Err: fmt.Errorf("%w: want %s", structmap.ErrTypeMismatch, f.source)}
	}

	out := reflect.New(f.GoType).Elem()
	for _, ff := range f.fields {
		val, present := walkPath(rv, ff.path)
		if !present {
			continue
		}
		dst := out.Field(ff.index)
		if ff.optional && dst.Kind() == reflect.Ptr && val.Kind() != reflect.Ptr {
			p := reflect.New(val.Type())
			p.Elem().Set(val)
			dst.Set(p)
			continue
		}
		dst.Set(val)
	}
	return out.Interface(), nil
}

// Expand converts a flat instance back into the nested struct pointed to by
// out. Optional branches whose leaves are all nil stay nil.
func (f *Flat) Expand(flat any, out any) error {
	fv := reflect.ValueOf(flat)
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return &Error{Type: f.GoType.String(), Err: structmap.ErrOutPointerNil}
		}
		fv = fv.Elem()
	}
	if fv.Type() != f.GoType {
		return &Error{Type: fmt.Sprintf("%T", flat), Err: fmt.Errorf("%w: want %s", structmap.ErrTypeMismatch, f.GoType)}
	}
	ov := reflect.ValueOf(out)
	if ov.Kind() != reflect.Ptr || ov.IsNil() {
		return structmap.ErrOutMustBePointer
	}
	ov = ov.Elem()
	if ov.Type() != f.source {
		return &Error{Type: fmt.Sprintf("%T", out), Err: fmt.Errorf("%w: want *%s", structmap.ErrTypeMismatch, f.source)}
	}

	for _, ff := range f.fields {
		val := fv.Field(ff.index)
		if ff.optional && val.Kind() == reflect.Ptr {
			if val.IsNil() {
				continue
			}
			val = val.Elem()
		}
		dst := allocPath(ov, ff.path)
		if dst.Type() == val.Type() {
			dst.Set(val)
		} else if val.Type().ConvertibleTo(dst.Type()) {
			dst.Set(val.Convert(dst.Type()))
		}
	}
	return nil
}

// walkPath follows a field index path, reporting absence when a nil
// pointer interrupts it.
func walkPath(v reflect.Value, path []int) (reflect.Value, bool) {
	for _, i := range path {
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return reflect.Value{}, false
	}
	return v, true
}

// allocPath follows a field index path, allocating nil pointers so the leaf
// is settable.
func allocPath(v reflect.Value, path []int) reflect.Value {
	for _, i := range path {
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	default:
		return false
	}
}
