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
	"encoding/base64"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"time"
)

// Decode converts a tree into the struct pointed to by out. Absent keys take
// the field's default; required fields fail with [ErrMissingField] when
// absent. Unknown keys are ignored unless [WithStrict] is set.
//
// Example:
//
//	var p Point
//	err := structmap.Decode(map[string]any{"x": 3, "y": 4}, &p)
func Decode(tree map[string]any, out any, opts ...Option) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr {
		return ErrOutMustBePointer
	}
	if rv.IsNil() {
		return ErrOutPointerNil
	}
	elem := rv.Elem()
	if elem.Kind() != reflect.Struct {
		return ErrOutMustBePointer
	}

	rt, err := DescribeType(elem.Type())
	if err != nil {
		return err
	}
	d := &decoder{opts: applyOptions(opts)}
	return d.decodeRecord(tree, rt, elem, "", 0, d.opts.Strict)
}

// DecodeValue converts a single tree value according to a type descriptor
// and returns the resulting Go value. Useful for programmatic descriptors
// built with [UnionOf] and [TupleOf].
func DecodeValue(raw any, desc *TypeDescriptor, opts ...Option) (any, error) {
	d := &decoder{opts: applyOptions(opts)}
	v, err := d.decodeValue(raw, desc, "", 0)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}

// DecodeDynamic resolves the tree's "type" discriminator (and "version", if
// present) through the configured resolver, decodes into a fresh instance of
// the resolved type, and returns it. A resolver is required; see
// [WithResolver].
func DecodeDynamic(tree map[string]any, opts ...Option) (any, error) {
	d := &decoder{opts: applyOptions(opts)}
	rt, err := d.resolveDynamic(tree, "")
	if err != nil {
		return nil, err
	}
	rv := reflect.New(rt.GoType).Elem()
	if err := d.decodeRecord(tree, rt, rv, "", 0, d.opts.Strict); err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

type decoder struct {
	opts *Options
}

// decodeRecord fills the struct rv from the tree according to rt.
// strict is passed explicitly because flattened nested records decode from
// the enclosing tree and must not report the outer keys as unknown.
func (d *decoder) decodeRecord(tree map[string]any, rt *RecordType, rv reflect.Value, path string, depth int, strict bool) error {
	if depth > d.opts.MaxDepth {
		return convErr(path, tree, RecordOf(rt), ErrMaxDepthExceeded)
	}

	// The discriminator keys are reserved; when the record stores its type,
	// a mismatched name is a hard error rather than a silent mis-decode.
	if raw, ok := tree[TypeKey]; ok && rt.StoreType != StoreTypeOff {
		name, ok := raw.(string)
		if !ok || (name != rt.Name && name != rt.QualName) {
			return convErr(joinPath(path, TypeKey), raw, RecordOf(rt), ErrTypeMismatch)
		}
	}

	var consumed map[string]bool
	if strict {
		consumed = map[string]bool{TypeKey: true, VersionKey: true}
	}

	for i := range rt.Fields {
		fd := &rt.Fields[i]

		if fd.Flatten {
			if err := d.decodeFlattened(tree, fd, rv, path, depth, consumed); err != nil {
				return err
			}
			continue
		}

		if consumed != nil {
			consumed[fd.Key] = true
		}
		raw, present := tree[fd.Key]
		if fd.ClassLevel {
			// Class-level fields live on the type; incoming values are
			// consumed but never overwrite instance state.
			continue
		}

		fv := fieldByIndexAlloc(rv, fd.Index)
		if !present {
			if fd.Required {
				return convErr(joinPath(path, fd.Key), nil, fd.Type, ErrMissingField)
			}
			if fd.HasDefault {
				dv, err := canonicalToGo(fd.Default, fd.GoType)
				if err != nil {
					return convErr(joinPath(path, fd.Key), fd.Default, fd.Type, err)
				}
				fv.Set(dv)
			}
			continue
		}

		val, err := d.decodeValue(raw, fd.Type, joinPath(path, fd.Key), depth+1)
		if err != nil {
			return err
		}
		if err := setValue(fv, val); err != nil {
			return convErr(joinPath(path, fd.Key), raw, fd.Type, err)
		}
	}

	if strict {
		var unknown []string
		for k := range tree {
			if !consumed[k] {
				unknown = append(unknown, k)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return &UnknownFieldError{Record: rt.Name, Fields: unknown}
		}
	}
	return nil
}

// decodeFlattened decodes a flattened record field whose keys live directly
// in the enclosing tree.
func (d *decoder) decodeFlattened(tree map[string]any, fd *FieldDescriptor, rv reflect.Value, path string, depth int, consumed map[string]bool) error {
	inner := fd.Type
	optional := inner.Kind == KindOptional
	if optional {
		inner = inner.Elem
	}
	nested := inner.Record

	keys, err := consumableKeys(nested, 0)
	if err != nil {
		return convErr(joinPath(path, fd.Key), tree, fd.Type, err)
	}
	present := false
	for _, k := range keys {
		if consumed != nil {
			consumed[k] = true
		}
		if _, ok := tree[k]; ok {
			present = true
		}
	}

	// An absent optional flattened record stays nil. When some flattened
	// values did round-trip from a nil branch (all-default trees are
	// indistinguishable from absence) the ambiguity resolves toward nil.
	if optional && !present {
		return nil
	}

	fv := fieldByIndexAlloc(rv, fd.Index)
	target := fv
	if optional {
		fv.Set(reflect.New(fv.Type().Elem()))
		target = fv.Elem()
	}
	return d.decodeRecord(tree, nested, target, path, depth+1, false)
}

// decodeValue converts a single tree value according to a descriptor.
func (d *decoder) decodeValue(raw any, desc *TypeDescriptor, path string, depth int) (reflect.Value, error) {
	if depth > d.opts.MaxDepth {
		return reflect.Value{}, convErr(path, raw, desc, ErrMaxDepthExceeded)
	}

	switch desc.Kind {
	case KindAny:
		if raw == nil {
			return reflect.Zero(anyType), nil
		}
		return reflect.ValueOf(raw), nil

	case KindOptional:
		if raw == nil {
			return reflect.Zero(goTypeOrAny(desc)), nil
		}
		if desc.GoType == nil || desc.GoType.Kind() != reflect.Ptr {
			// Builder-made null alternative: only nil matches, so unions
			// containing null fall through to the remaining alternatives.
			if desc.Elem != nil && desc.Elem.Kind == KindAny {
				return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
			}
			return d.decodeValue(raw, desc.Elem, path, depth+1)
		}
		elem, err := d.decodeValue(raw, desc.Elem, path, depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(desc.GoType.Elem())
		if err := setValue(p.Elem(), elem); err != nil {
			return reflect.Value{}, convErr(path, raw, desc, err)
		}
		return p, nil

	case KindUnion:
		// First match wins. Alternative errors are not surfaced: with an
		// ordered union the only meaningful failure is full exhaustion.
		for _, alt := range desc.Alts {
			if v, err := d.decodeValue(raw, alt, path, depth+1); err == nil {
				return v, nil
			}
		}
		return reflect.Value{}, convErr(path, raw, desc, ErrUnionExhausted)

	case KindEnum:
		v, err := d.decodeValue(raw, desc.Elem, path, depth)
		if err != nil {
			return reflect.Value{}, err
		}
		// Members are stored in canonical scalar form; strip named types
		// before the membership check.
		canon := canonicalScalar(v)
		for _, m := range desc.Enum {
			if Equal(canon, m) {
				return v, nil
			}
		}
		return reflect.Value{}, convErr(path, raw, desc, ErrNotInEnum)

	case KindList:
		items, ok := raw.([]any)
		if !ok {
			return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
		}
		t := goTypeOrAny(desc)
		if t.Kind() != reflect.Slice {
			t = anySliceType
		}
		out := reflect.MakeSlice(t, len(items), len(items))
		for i, item := range items {
			v, err := d.decodeValue(item, desc.Elem, fmt.Sprintf("%s[%d]", path, i), depth+1)
			if err != nil {
				return reflect.Value{}, err
			}
			if err := setValue(out.Index(i), v); err != nil {
				return reflect.Value{}, convErr(fmt.Sprintf("%s[%d]", path, i), item, desc.Elem, err)
			}
		}
		return out, nil

	case KindTuple:
		return d.decodeTuple(raw, desc, path, depth)

	case KindMap:
		return d.decodeMap(raw, desc, path, depth)

	case KindRecord:
		return d.decodeRecordValue(raw, desc, path, depth)

	default:
		return d.decodeScalar(raw, desc, path)
	}
}

func (d *decoder) decodeTuple(raw any, desc *TypeDescriptor, path string, depth int) (reflect.Value, error) {
	items, ok := raw.([]any)
	if !ok {
		return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
	}

	if len(desc.Elems) > 0 {
		// Heterogeneous tuple: fixed arity, per-position types, decodes
		// into []any.
		if len(items) != len(desc.Elems) {
			return reflect.Value{}, convErr(path, raw, desc, ErrLengthMismatch)
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := d.decodeValue(item, desc.Elems[i], fmt.Sprintf("%s[%d]", path, i), depth+1)
			if err != nil {
				return reflect.Value{}, err
			}
			if v.IsValid() {
				out[i] = v.Interface()
			}
		}
		return reflect.ValueOf(out), nil
	}

	// Homogeneous tuple: a Go array.
	if len(items) != desc.Len {
		return reflect.Value{}, convErr(path, raw, desc, ErrLengthMismatch)
	}
	out := reflect.New(desc.GoType).Elem()
	for i, item := range items {
		v, err := d.decodeValue(item, desc.Elem, fmt.Sprintf("%s[%d]", path, i), depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		if err := setValue(out.Index(i), v); err != nil {
			return reflect.Value{}, convErr(fmt.Sprintf("%s[%d]", path, i), item, desc.Elem, err)
		}
	}
	return out, nil
}

func (d *decoder) decodeMap(raw any, desc *TypeDescriptor, path string, depth int) (reflect.Value, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
	}
	t := goTypeOrAny(desc)
	out := reflect.MakeMapWithSize(t, len(m))
	for k, item := range m {
		kv, err := decodeMapKey(k, t.Key())
		if err != nil {
			return reflect.Value{}, convErr(joinPath(path, k), k, desc.Key, err)
		}
		v, err := d.decodeValue(item, desc.Elem, joinPath(path, k), depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		ev := reflect.New(t.Elem()).Elem()
		if err := setValue(ev, v); err != nil {
			return reflect.Value{}, convErr(joinPath(path, k), item, desc.Elem, err)
		}
		out.SetMapIndex(kv, ev)
	}
	return out, nil
}

func (d *decoder) decodeRecordValue(raw any, desc *TypeDescriptor, path string, depth int) (reflect.Value, error) {
	tree, ok := raw.(map[string]any)
	if !ok {
		return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
	}

	rt := desc.Record
	if rt == nil {
		// Dynamic record: the concrete type comes from the discriminator.
		resolved, err := d.resolveDynamic(tree, path)
		if err != nil {
			return reflect.Value{}, err
		}
		rt = resolved
	}

	out := reflect.New(rt.GoType).Elem()
	if err := d.decodeRecord(tree, rt, out, path, depth+1, d.opts.Strict); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

func (d *decoder) decodeScalar(raw any, desc *TypeDescriptor, path string) (reflect.Value, error) {
	t := goTypeOrAny(desc)
	if t == anyType {
		t = goTypeForKind(desc.Kind)
	}
	out := reflect.New(t).Elem()

	switch desc.Kind {
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
		}
		out.SetBool(b)

	case KindInt:
		i, ok := asInt64(raw)
		if !ok || out.OverflowInt(i) {
			return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
		}
		out.SetInt(i)

	case KindUint:
		u, ok := asUint64(raw)
		if !ok || out.OverflowUint(u) {
			return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
		}
		out.SetUint(u)

	case KindFloat:
		f, ok := asFloat64(raw)
		if !ok {
			return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
		}
		out.SetFloat(f)

	case KindString:
		s, ok := raw.(string)
		if !ok {
			return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
		}
		out.SetString(s)

	case KindBytes:
		switch v := raw.(type) {
		case []byte:
			out.SetBytes(v)
		case string:
			// Serializers without a binary type carry bytes as base64.
			b, err := base64.StdEncoding.DecodeString(v)
			if err != nil {
				return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
			}
			out.SetBytes(b)
		default:
			return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
		}

	case KindTime:
		switch v := raw.(type) {
		case time.Time:
			out.Set(reflect.ValueOf(v))
		case string:
			tm, err := d.parseTime(v)
			if err != nil {
				return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
			}
			out.Set(reflect.ValueOf(tm))
		default:
			return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
		}

	case KindDuration:
		switch v := raw.(type) {
		case time.Duration:
			out.SetInt(int64(v))
		case string:
			dur, err := time.ParseDuration(v)
			if err != nil {
				return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
			}
			out.SetInt(int64(dur))
		default:
			// Bare numbers are nanoseconds.
			if i, ok := asInt64(raw); ok {
				out.SetInt(i)
			} else {
				return reflect.Value{}, convErr(path, raw, desc, ErrTypeMismatch)
			}
		}

	default:
		return reflect.Value{}, convErr(path, raw, desc, ErrUnsupportedType)
	}
	return out, nil
}

// resolveDynamic resolves a tree's discriminator keys to a record type.
func (d *decoder) resolveDynamic(tree map[string]any, path string) (*RecordType, error) {
	if d.opts.Resolver == nil {
		return nil, convErr(path, tree, nil, ErrNoResolver)
	}
	raw, ok := tree[TypeKey]
	if !ok {
		return nil, convErr(joinPath(path, TypeKey), nil, nil, ErrMissingField)
	}
	name, ok := raw.(string)
	if !ok {
		return nil, convErr(joinPath(path, TypeKey), raw, nil, ErrTypeMismatch)
	}

	var (
		t   reflect.Type
		err error
	)
	if rawVer, ok := tree[VersionKey]; ok {
		ver, vok := asInt64(rawVer)
		if !vok {
			return nil, convErr(joinPath(path, VersionKey), rawVer, nil, ErrTypeMismatch)
		}
		t, err = d.opts.Resolver.ResolveNameVersion(name, int(ver))
	} else {
		t, err = d.opts.Resolver.ResolveName(name)
	}
	if err != nil {
		return nil, convErr(joinPath(path, TypeKey), name, nil, err)
	}
	return DescribeType(t)
}

func (d *decoder) parseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range d.opts.TimeLayouts {
		tm, err := time.Parse(layout, s)
		if err == nil {
			return tm, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// canonicalScalar reduces a decoded scalar to its underlying kind's
// canonical representation (string, int64, uint64, float64, bool), so named
// types compare equal to tag literals.
func canonicalScalar(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	default:
		return v.Interface()
	}
}

// setValue assigns val into dst, converting across named types and wrapping
// concrete records into interface fields (taking the address when only the
// pointer satisfies the interface).
func setValue(dst reflect.Value, val reflect.Value) error {
	if !val.IsValid() {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	vt, dt := val.Type(), dst.Type()
	switch {
	case vt.AssignableTo(dt):
		dst.Set(val)
	case dt.Kind() == reflect.Interface && reflect.PtrTo(vt).AssignableTo(dt):
		p := reflect.New(vt)
		p.Elem().Set(val)
		dst.Set(p)
	case vt.ConvertibleTo(dt) && dt.Kind() != reflect.Interface:
		dst.Set(val.Convert(dt))
	default:
		return fmt.Errorf("%w: %s is not assignable to %s", ErrTypeMismatch, vt, dt)
	}
	return nil
}

// fieldByIndexAlloc walks an index path, allocating nil embedded pointers
// along the way.
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for _, i := range index {
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

// decodeMapKey parses a tree map key (always a string) into the Go map's
// key type.
func decodeMapKey(k string, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		out.SetString(k)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(k, 10, 64)
		if err != nil || out.OverflowInt(i) {
			return reflect.Value{}, fmt.Errorf("%w: map key %q", ErrTypeMismatch, k)
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(k, 10, 64)
		if err != nil || out.OverflowUint(u) {
			return reflect.Value{}, fmt.Errorf("%w: map key %q", ErrTypeMismatch, k)
		}
		out.SetUint(u)
	default:
		return reflect.Value{}, fmt.Errorf("%w: map key type %s", ErrUnsupportedType, t)
	}
	return out, nil
}

// canonicalToGo converts a canonical default value (the representation
// produced by tag parsing) into a concrete Go value of type t. Range
// mismatches are reported so describe can reject them up front.
func canonicalToGo(v any, t reflect.Type) (reflect.Value, error) {
	if t.Kind() == reflect.Ptr {
		if v == nil {
			return reflect.Zero(t), nil
		}
		elem, err := canonicalToGo(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	}
	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type() == t {
		return rv, nil
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		b, ok := v.(bool)
		if !ok {
			return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := asInt64(v)
		if !ok || out.OverflowInt(i) {
			return reflect.Value{}, fmt.Errorf("value %v out of range for %s", v, t)
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, ok := asUint64(v)
		if !ok || out.OverflowUint(u) {
			return reflect.Value{}, fmt.Errorf("value %v out of range for %s", v, t)
		}
		out.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, ok := asFloat64(v)
		if !ok {
			return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
		}
		out.SetFloat(f)
	case reflect.String:
		s, ok := v.(string)
		if !ok {
			return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
		}
		out.SetString(s)
	case reflect.Slice:
		switch val := v.(type) {
		case []byte:
			out.SetBytes(val)
		case []any:
			if len(val) != 0 {
				return reflect.Value{}, fmt.Errorf("non-empty default for %s", t)
			}
			out.Set(reflect.MakeSlice(t, 0, 0))
		default:
			return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
		}
	case reflect.Map:
		m, ok := v.(map[string]any)
		if !ok || len(m) != 0 {
			return reflect.Value{}, fmt.Errorf("non-empty default for %s", t)
		}
		out.Set(reflect.MakeMap(t))
	case reflect.Struct:
		if t == timeType {
			tm, ok := v.(time.Time)
			if !ok {
				return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
			}
			out.Set(reflect.ValueOf(tm))
			break
		}
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
	default:
		if rv.Type().ConvertibleTo(t) {
			return rv.Convert(t), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
	}
	return out, nil
}

// goTypeOrAny returns the descriptor's Go type, falling back to any for
// builder-made descriptors.
func goTypeOrAny(d *TypeDescriptor) reflect.Type {
	if d.GoType != nil {
		return d.GoType
	}
	return anyType
}

// joinPath appends a key to a dot-separated field path.
func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}
