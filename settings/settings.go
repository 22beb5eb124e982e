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

// Package settings resolves consumer-defined field metadata. A record
// field's struct tag is an open namespace: the tree key belongs to the
// converter, and any other tag key can be claimed by a consumer (a CLI
// generator, a schema emitter, a form builder) as its settings namespace.
//
// A consumer declares its settings as a schema struct and resolves it per
// field:
//
//	type CLISettings struct {
//	    Flag       string `tree:"flag"`
//	    Help       string `tree:"help"`
//	    Positional bool   `tree:"positional"`
//	}
//
//	type Request struct {
//	    Verbose bool `tree:"verbose" cli:"flag=-v,help=enable verbose output"`
//	}
//
//	rt, _ := structmap.Describe(Request{})
//	s, err := settings.Resolve[CLISettings](rt.Fields[0], "cli")
package settings

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"rivaas.dev/structmap"
	"rivaas.dev/structmap/flatten"
)

// Static errors for settings resolution.
var (
	// ErrConfiguration means a field declares a setting the schema does not
	// define, or a value that does not parse into the schema's type.
	ErrConfiguration = errors.New("invalid field settings")

	// ErrSchemaConflict means two merged schemas declare the same setting
	// with different types.
	ErrSchemaConflict = errors.New("conflicting settings schemas")
)

// Adapter converts a raw tag value into a schema field's type, overriding
// the built-in conversions for types they cannot handle.
type Adapter func(raw string, to reflect.Type) (any, error)

// Option configures settings resolution.
type Option func(*options)

type options struct {
	adapter Adapter
}

// WithAdapter installs a custom value converter, consulted before the
// built-in conversions.
func WithAdapter(a Adapter) Option {
	return func(o *options) {
		o.adapter = a
	}
}

// Resolve parses the tag namespace claimed by a settings schema S from a
// field descriptor. The namespace value uses the same option grammar as the
// tree tag: comma-separated entries, each "key" (a boolean true) or
// "key=value". Slice-typed settings split their value on semicolons.
//
// Schema fields the tag leaves unset take the schema's own tag defaults; a
// required schema field left unset fails with [ErrConfiguration], as do keys
// not declared by S: a typo in field metadata should surface when the
// consumer reads it, not vanish.
func Resolve[S any](fd structmap.FieldDescriptor, namespace string, opts ...Option) (S, error) {
	var out S

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	schema, err := structmap.Describe(out)
	if err != nil {
		return out, err
	}

	rv := reflect.ValueOf(&out).Elem()
	set := make(map[string]bool)
	raw := fd.Tag.Get(namespace)
	if raw != "" {
		for _, entry := range strings.Split(raw, ",") {
			if entry == "" {
				continue
			}
			key, val, hasVal := strings.Cut(entry, "=")
			sf, ok := schema.FieldByKey(key)
			if !ok {
				return out, fmt.Errorf("%w: %q is not a %q setting", ErrConfiguration, key, namespace)
			}
			target := rv.FieldByIndex(sf.Index)
			if !hasVal {
				// Bare key: a boolean switch.
				if target.Kind() != reflect.Bool {
					return out, fmt.Errorf("%w: setting %q requires a value", ErrConfiguration, key)
				}
				target.SetBool(true)
				set[key] = true
				continue
			}
			parsed, err := convert(val, target.Type(), o.adapter)
			if err != nil {
				return out, fmt.Errorf("%w: setting %q: %v", ErrConfiguration, key, err)
			}
			target.Set(reflect.ValueOf(parsed).Convert(target.Type()))
			set[key] = true
		}
	}

	if err := applySchemaDefaults(schema, rv, set, namespace); err != nil {
		return out, err
	}
	return out, nil
}

// applySchemaDefaults fills unset schema fields from their own tag defaults
// and rejects required schema fields the namespace never set.
func applySchemaDefaults(schema *structmap.RecordType, rv reflect.Value, set map[string]bool, namespace string) error {
	for i := range schema.Fields {
		sf := &schema.Fields[i]
		if set[sf.Key] {
			continue
		}
		if sf.Required {
			return fmt.Errorf("%w: required %q setting %q is not declared", ErrConfiguration, namespace, sf.Key)
		}
		if !sf.HasDefault {
			continue
		}
		def := sf.DefaultValue()
		if def == nil {
			continue
		}
		target := rv.FieldByIndex(sf.Index)
		dv := reflect.ValueOf(def)
		if target.Kind() == reflect.Ptr {
			if !dv.Type().ConvertibleTo(target.Type().Elem()) {
				continue
			}
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(dv.Convert(target.Type().Elem()))
			target.Set(p)
			continue
		}
		if dv.Type().ConvertibleTo(target.Type()) {
			target.Set(dv.Convert(target.Type()))
		}
	}
	return nil
}

// ResolveAll resolves a settings schema for every field of a record type,
// keyed by tree key.
func ResolveAll[S any](rt *structmap.RecordType, namespace string, opts ...Option) (map[string]S, error) {
	out := make(map[string]S, len(rt.Fields))
	for i := range rt.Fields {
		s, err := Resolve[S](rt.Fields[i], namespace, opts...)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", rt.Fields[i].Name, err)
		}
		out[rt.Fields[i].Key] = s
	}
	return out, nil
}

// MergeSchemas combines several settings schema types into one, so a
// consumer built from multiple concerns resolves a single namespace.
// Identical fields deduplicate onto the first declaration; conflicting
// declarations fail with [ErrSchemaConflict].
func MergeSchemas(schemas ...any) (*structmap.RecordType, error) {
	merged, err := flatten.Merge(schemas, flatten.WithName("Settings"))
	if err != nil {
		if errors.Is(err, flatten.ErrFieldConflict) {
			return nil, fmt.Errorf("%w: %v", ErrSchemaConflict, err)
		}
		return nil, err
	}
	return merged.Type, nil
}

// convert parses a raw tag value into a settings field type.
func convert(raw string, t reflect.Type, adapter Adapter) (any, error) {
	if adapter != nil {
		v, err := adapter(raw, t)
		if err == nil && v != nil {
			return v, nil
		}
		if err != nil {
			return nil, err
		}
	}

	switch t.Kind() {
	case reflect.String:
		return raw, nil
	case reflect.Bool:
		return cast.ToBoolE(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cast.ToInt64E(raw)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cast.ToUint64E(raw)
	case reflect.Float32, reflect.Float64:
		return cast.ToFloat64E(raw)
	case reflect.Slice:
		if t.Elem().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported slice setting type %s", t)
		}
		return strings.Split(raw, ";"), nil
	case reflect.Ptr:
		inner, err := convert(raw, t.Elem(), adapter)
		if err != nil {
			return nil, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(reflect.ValueOf(inner).Convert(t.Elem()))
		return p.Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported setting type %s", t)
	}
}
