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

package flatten

import (
	"fmt"
	"reflect"
	"strconv"

	"rivaas.dev/structmap"
)

// WithDuplicateTolerant makes [Merge] accept conflicting field names by
// renaming later occurrences: the Go field gets a numeric suffix and the
// tree key gets a "_n" suffix, so both values survive with distinct
// identities.
func WithDuplicateTolerant() Option {
	return func(c *config) {
		c.tolerant = true
	}
}

// Merged is a record type combining the top-level fields of several source
// types, with the mapping to move values between them. Build one with
// [Merge].
type Merged struct {
	// Type is the merged record descriptor.
	Type *structmap.RecordType

	// GoType is the generated merged struct type.
	GoType reflect.Type

	sources []reflect.Type
	fields  []mergeField
}

type mergeField struct {
	index    int // field index in the merged struct
	source   int // which source type contributed it
	srcIndex int // field position within the source record type
}

// Merge combines the top-level fields of the given record types into one
// merged type. Earlier types take precedence: a field declared identically
// by a later type is deduplicated onto the earlier one, and a field
// declared with a different Go type is a conflict unless
// [WithDuplicateTolerant] is set. Listing the same type twice always fails.
func Merge(types []any, opts ...Option) (*Merged, error) {
	cfg := &config{maxDepth: structmap.DefaultMaxDepth}
	for _, opt := range opts {
		opt(cfg)
	}

	m := &Merged{}
	seenTypes := make(map[reflect.Type]bool)
	type claim struct {
		goType reflect.Type
		owner  reflect.Type
	}
	claims := make(map[string]claim) // by Go field name
	suffix := make(map[string]int)
	var structFields []reflect.StructField

	for si, v := range types {
		t := reflect.TypeOf(v)
		if t != nil && t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t == nil || t.Kind() != reflect.Struct {
			return nil, &Error{Type: fmt.Sprintf("%T", v), Err: structmap.ErrUnsupportedType}
		}
		if seenTypes[t] {
			return nil, &Error{Type: t.String(), Err: ErrSameType}
		}
		seenTypes[t] = true
		m.sources = append(m.sources, t)

		rt, err := structmap.DescribeType(t)
		if err != nil {
			return nil, err
		}

		for fi := range rt.Fields {
			fd := &rt.Fields[fi]
			name, key := fd.Name, fd.Key

			if prev, taken := claims[name]; taken {
				if prev.goType == fd.GoType {
					// Identical declaration: the earlier type's field
					// carries both.
					continue
				}
				if !cfg.tolerant {
					return nil, &Error{
						Type:  t.String(),
						Field: name,
						Err:   fmt.Errorf("%w: %s and %s both declare %q", ErrFieldConflict, prev.owner, t, name),
					}
				}
				suffix[name]++
				n := suffix[name] + 1
				name += strconv.Itoa(n)
				key += "_" + strconv.Itoa(n)
			}
			claims[name] = claim{goType: fd.GoType, owner: t}

			structFields = append(structFields, reflect.StructField{
				Name: name,
				Type: fd.GoType,
				Tag:  rebuildTag(fd, key, false),
			})
			m.fields = append(m.fields, mergeField{
				index:    len(structFields) - 1,
				source:   si,
				srcIndex: fi,
			})
		}
	}

	m.GoType = reflect.StructOf(structFields)
	name := cfg.name
	if name == "" {
		name = "Merged"
	}
	rt, err := structmap.DescribeType(m.GoType, structmap.WithRecordName(name))
	if err != nil {
		return nil, err
	}
	m.Type = rt
	return m, nil
}

// Combine builds a merged instance from one instance per source type, in
// the order the types were merged.
func (m *Merged) Combine(srcs ...any) (any, error) {
	if len(srcs) != len(m.sources) {
		return nil, &Error{Type: m.GoType.String(), Err: fmt.Errorf("%w: want %d source values, got %d", structmap.ErrLengthMismatch, len(m.sources), len(srcs))}
	}

	vals := make([]reflect.Value, len(srcs))
	for i, src := range srcs {
		rv := reflect.ValueOf(src)
		if rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				return nil, &Error{Type: m.sources[i].String(), Err: structmap.ErrOutPointerNil}
			}
			rv = rv.Elem()
		}
		if rv.Type() != m.sources[i] {
			return nil, &Error{Type: fmt.Sprintf("%T", src), Err: fmt.Errorf("%w: want %s at position %d", structmap.ErrTypeMismatch, m.sources[i], i)}
		}
		vals[i] = rv
	}

	out := reflect.New(m.GoType).Elem()
	for _, mf := range m.fields {
		srcRT, err := structmap.DescribeType(m.sources[mf.source])
		if err != nil {
			return nil, err
		}
		fd := &srcRT.Fields[mf.srcIndex]
		out.Field(mf.index).Set(vals[mf.source].FieldByIndex(fd.Index))
	}
	return out.Interface(), nil
}

// Extract copies a merged instance's fields back into the struct pointed to
// by out, which must be one of the source types. Fields deduplicated onto
// an earlier type are only extracted into that type.
func (m *Merged) Extract(merged any, out any) error {
	mv := reflect.ValueOf(merged)
	if mv.Kind() == reflect.Ptr {
		if mv.IsNil() {
			return &Error{Type: m.GoType.String(), Err: structmap.ErrOutPointerNil}
		}
		mv = mv.Elem()
	}
	if mv.Type() != m.GoType {
		return &Error{Type: fmt.Sprintf("%T", merged), Err: fmt.Errorf("%w: want %s", structmap.ErrTypeMismatch, m.GoType)}
	}
	ov := reflect.ValueOf(out)
	if ov.Kind() != reflect.Ptr || ov.IsNil() {
		return structmap.ErrOutMustBePointer
	}
	ov = ov.Elem()

	si := -1
	for i, t := range m.sources {
		if t == ov.Type() {
			si = i
			break
		}
	}
	if si < 0 {
		return &Error{Type: fmt.Sprintf("%T", out), Err: fmt.Errorf("%w: not one of the merged types", structmap.ErrTypeMismatch)}
	}

	srcRT, err := structmap.DescribeType(m.sources[si])
	if err != nil {
		return err
	}
	for _, mf := range m.fields {
		if mf.source != si {
			continue
		}
		fd := &srcRT.Fields[mf.srcIndex]
		ov.FieldByIndex(fd.Index).Set(mv.Field(mf.index))
	}
	return nil
}
