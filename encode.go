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
	"strconv"
	"time"
)

// Encode converts a record instance into a tree. Fields equal to their
// defaults are omitted unless [WithFull] is set; required fields are always
// emitted. v may be a struct or a pointer to one.
//
// Example:
//
//	tree, err := structmap.Encode(Point{X: 3, Y: 4})
//	// map[string]any{"x": int64(3), "y": int64(4)}
func Encode(v any, opts ...Option) (map[string]any, error) {
	kvs, err := EncodeOrdered(v, opts...)
	if err != nil {
		return nil, err
	}
	return kvsToMap(kvs), nil
}

// EncodeOrdered is like [Encode] but preserves field declaration order,
// with the "type" and "version" discriminators first. Use it with
// serializers that keep key order.
func EncodeOrdered(v any, opts ...Option) ([]KV, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, ErrOutPointerNil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}

	rt, err := DescribeType(rv.Type())
	if err != nil {
		return nil, err
	}
	e := &encoder{opts: applyOptions(opts)}
	return e.encodeRecord(rv, rt, "", 0, false)
}

// EncodeValue converts a single Go value into its tree representation as
// directed by desc. It is the mirror of [DecodeValue] for callers holding
// descriptors built with [ScalarOf], [UnionOf], or [TupleOf] rather than a
// whole record type.
func EncodeValue(v any, desc *TypeDescriptor, opts ...Option) (any, error) {
	if v == nil {
		return nil, nil
	}
	e := &encoder{opts: applyOptions(opts)}
	return e.encodeValue(reflect.ValueOf(v), desc, "", 0)
}

// Replace returns a copy of v with the given tree-level updates applied:
// the record is encoded in full, the updates are merged over the result,
// and the merged tree is decoded into a fresh instance. Update values use
// tree representations, not Go field values.
func Replace[T any](v T, updates map[string]any, opts ...Option) (T, error) {
	var out T
	tree, err := Encode(v, append(append([]Option{}, opts...), WithFull())...)
	if err != nil {
		return out, err
	}
	for k, val := range updates {
		tree[k] = val
	}
	if err := Decode(tree, &out, opts...); err != nil {
		return out, err
	}
	return out, nil
}

type encoder struct {
	opts *Options
}

// encodeRecord produces ordered key/value pairs for a struct value.
// dynamic forces a type discriminator even when the record type does not
// store one, so interface-held values can be decoded back.
func (e *encoder) encodeRecord(rv reflect.Value, rt *RecordType, path string, depth int, dynamic bool) ([]KV, error) {
	if depth > e.opts.MaxDepth {
		return nil, convErr(path, nil, RecordOf(rt), ErrMaxDepthExceeded)
	}

	kvs := make([]KV, 0, len(rt.Fields)+2)
	if rt.StoreType != StoreTypeOff || dynamic {
		name := rt.Name
		if rt.StoreType == StoreTypeQualName {
			name = rt.QualName
		}
		kvs = append(kvs, KV{Key: TypeKey, Value: name})
	}
	if e.opts.Resolver != nil {
		if ver, ok := e.opts.Resolver.VersionOf(rt.GoType); ok {
			kvs = append(kvs, KV{Key: VersionKey, Value: int64(ver)})
		}
	}

	for i := range rt.Fields {
		fd := &rt.Fields[i]
		if fd.Suppress != nil && *fd.Suppress {
			continue
		}

		fv := rv.FieldByIndex(fd.Index)
		if fd.Flatten {
			sub, err := e.encodeFlattened(fv, fd, path, depth)
			if err != nil {
				return nil, err
			}
			kvs = append(kvs, sub...)
			continue
		}

		val, err := e.encodeValue(fv, fd.Type, joinPath(path, fd.Key), depth+1)
		if err != nil {
			return nil, err
		}

		if fd.Suppress == nil && !e.opts.Full && fd.suppressible && Equal(val, fd.defaultTree) {
			continue
		}
		kvs = append(kvs, KV{Key: fd.Key, Value: val})
	}
	return kvs, nil
}

func (e *encoder) encodeFlattened(fv reflect.Value, fd *FieldDescriptor, path string, depth int) ([]KV, error) {
	inner := fd.Type
	if inner.Kind == KindOptional {
		if fv.IsNil() {
			return nil, nil
		}
		fv = fv.Elem()
		inner = inner.Elem
	}
	return e.encodeRecord(fv, inner.Record, joinPath(path, fd.Key), depth+1, false)
}

// encodeValue converts a Go value into its tree representation.
func (e *encoder) encodeValue(rv reflect.Value, desc *TypeDescriptor, path string, depth int) (any, error) {
	if depth > e.opts.MaxDepth {
		return nil, convErr(path, nil, desc, ErrMaxDepthExceeded)
	}

	switch desc.Kind {
	case KindAny, KindUnion:
		if !rv.IsValid() || (rv.Kind() == reflect.Interface && rv.IsNil()) {
			return nil, nil
		}
		return e.encodeAny(rv.Interface(), path, depth)

	case KindOptional:
		if rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				return nil, nil
			}
			rv = rv.Elem()
		}
		return e.encodeValue(rv, desc.Elem, path, depth+1)

	case KindBool:
		return rv.Bool(), nil
	case KindInt:
		return rv.Int(), nil
	case KindUint:
		return rv.Uint(), nil
	case KindFloat:
		return rv.Float(), nil
	case KindString:
		return rv.String(), nil
	case KindBytes:
		return rv.Bytes(), nil
	case KindTime:
		return rv.Interface().(time.Time), nil
	case KindDuration:
		return time.Duration(rv.Int()).String(), nil

	case KindEnum:
		val, err := e.encodeValue(rv, desc.Elem, path, depth)
		if err != nil {
			return nil, err
		}
		for _, m := range desc.Enum {
			if Equal(val, m) {
				return val, nil
			}
		}
		return nil, convErr(path, val, desc, ErrNotInEnum)

	case KindList:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := e.encodeValue(rv.Index(i), desc.Elem, fmt.Sprintf("%s[%d]", path, i), depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil

	case KindTuple:
		return e.encodeTuple(rv, desc, path, depth)

	case KindMap:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := encodeMapKey(iter.Key())
			item, err := e.encodeValue(iter.Value(), desc.Elem, joinPath(path, k), depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = item
		}
		return out, nil

	case KindRecord:
		return e.encodeRecordValue(rv, desc, path, depth)

	default:
		return nil, convErr(path, rv.Interface(), desc, ErrUnsupportedType)
	}
}

func (e *encoder) encodeTuple(rv reflect.Value, desc *TypeDescriptor, path string, depth int) (any, error) {
	if len(desc.Elems) > 0 {
		if rv.Len() != len(desc.Elems) {
			return nil, convErr(path, rv.Interface(), desc, ErrLengthMismatch)
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item := rv.Index(i)
			if item.Kind() == reflect.Interface {
				item = item.Elem()
			}
			val, err := e.encodeValue(item, desc.Elems[i], fmt.Sprintf("%s[%d]", path, i), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	}

	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		val, err := e.encodeValue(rv.Index(i), desc.Elem, fmt.Sprintf("%s[%d]", path, i), depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

func (e *encoder) encodeRecordValue(rv reflect.Value, desc *TypeDescriptor, path string, depth int) (any, error) {
	dynamic := false
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
		dynamic = true
	}
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	rt := desc.Record
	if rt == nil || rt.GoType != rv.Type() {
		resolved, err := DescribeType(rv.Type())
		if err != nil {
			return nil, convErr(path, rv.Interface(), desc, err)
		}
		rt = resolved
	}

	kvs, err := e.encodeRecord(rv, rt, path, depth+1, dynamic)
	if err != nil {
		return nil, err
	}
	return kvsToMap(kvs), nil
}

// encodeAny converts an arbitrary Go value into a tree value, used for
// interface-typed and union fields where the static descriptor cannot
// direct the conversion.
func (e *encoder) encodeAny(v any, path string, depth int) (any, error) {
	if depth > e.opts.MaxDepth {
		return nil, convErr(path, v, nil, ErrMaxDepthExceeded)
	}

	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool, string, float64, int64, uint64:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint:
		return uint64(val), nil
	case uint8:
		return uint64(val), nil
	case uint16:
		return uint64(val), nil
	case uint32:
		return uint64(val), nil
	case float32:
		return float64(val), nil
	case []byte:
		return val, nil
	case time.Duration:
		return val.String(), nil
	case time.Time:
		return val, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			enc, err := e.encodeAny(item, joinPath(path, k), depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = enc
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			enc, err := e.encodeAny(item, fmt.Sprintf("%s[%d]", path, i), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return nil, nil
		}
		return e.encodeAny(rv.Elem().Interface(), path, depth+1)
	case reflect.Struct:
		rt, err := DescribeType(rv.Type())
		if err != nil {
			return nil, convErr(path, v, nil, err)
		}
		kvs, err := e.encodeRecord(rv, rt, path, depth+1, true)
		if err != nil {
			return nil, err
		}
		return kvsToMap(kvs), nil
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			enc, err := e.encodeAny(rv.Index(i).Interface(), fmt.Sprintf("%s[%d]", path, i), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := encodeMapKey(iter.Key())
			enc, err := e.encodeAny(iter.Value().Interface(), joinPath(path, k), depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = enc
		}
		return out, nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	default:
		return nil, convErr(path, v, nil, ErrUnsupportedType)
	}
}

// encodeMapKey formats a Go map key as a tree key string.
func encodeMapKey(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10)
	default:
		return fmt.Sprintf("%v", k.Interface())
	}
}

func kvsToMap(kvs []KV) map[string]any {
	out := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		out[kv.Key] = kv.Value
	}
	return out
}
