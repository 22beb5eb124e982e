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
	"strings"
	"time"
)

// Tag names claimed by this package. Other tag keys in a field's metadata
// belong to settings consumers and are ignored here.
const (
	// TagTree is the struct tag key parsed by the converter.
	TagTree = "tree"

	// TagDoc carries a field's documentation text.
	TagDoc = "doc"
)

// Reserved tree keys. They carry the concrete subtype and version of a
// record instance and are always emitted first.
const (
	TypeKey    = "type"
	VersionKey = "version"
)

// StoreTypeMode controls whether a record stores its own type name in the
// encoded tree.
type StoreTypeMode int

const (
	// StoreTypeOff omits the type discriminator (default).
	StoreTypeOff StoreTypeMode = iota

	// StoreTypeName stores the short type name under the "type" key.
	StoreTypeName

	// StoreTypeQualName stores the package-qualified type name under the
	// "type" key. Qualified names survive short-name collisions across
	// packages.
	StoreTypeQualName
)

// Type references for special type handling.
var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	bytesType    = reflect.TypeOf([]byte(nil))
	anyType      = reflect.TypeOf((*any)(nil)).Elem()
	anySliceType = reflect.TypeOf([]any(nil))
)

// FieldDescriptor describes a single record field: its tree key, type
// descriptor, default, and the per-field settings claimed by the converter.
// The full struct tag is retained so settings consumers can claim their own
// metadata keys via the settings package.
type FieldDescriptor struct {
	Name       string            // Go field name
	Key        string            // Tree key (alias from the tag, or the field name)
	Index      []int             // Field index path into the Go struct
	Type       *TypeDescriptor   // Type descriptor, built once at describe time
	GoType     reflect.Type      // Go field type
	Required   bool              // Absent keys fail with ErrMissingField
	HasDefault bool              // A default literal was declared in the tag
	Default    any               // Typed default value (canonical scalar representation)
	ClassLevel bool              // Exists on the type, not per-instance
	Flatten    bool              // Nested record's fields merge into the outer tree
	Suppress   *bool             // Tri-state: nil = default behavior
	Doc        string            // Documentation from the doc tag
	Tag        reflect.StructTag // Full metadata for settings consumers

	// Precomputed at describe time for default suppression during encoding.
	defaultTree  any  // Tree form of the effective default
	suppressible bool // Kind is eligible for default suppression
}

// DefaultValue returns the field's effective default: the declared tag
// default when present, otherwise the zero value of the field's Go type.
// Container defaults are cloned so callers cannot alias shared state.
func (f *FieldDescriptor) DefaultValue() any {
	if f.HasDefault {
		return Clone(f.Default)
	}
	return reflect.Zero(f.GoType).Interface()
}

// RecordType is the descriptor for a named, ordered sequence of fields.
// Build one with [Describe]; descriptors are immutable once built and safe
// for concurrent use.
type RecordType struct {
	Name      string        // Short type name
	QualName  string        // Package-qualified type name
	GoType    reflect.Type  // Underlying Go struct type
	Fields    []FieldDescriptor
	StoreType StoreTypeMode

	byKey  map[string]int
	byName map[string]int
}

// FieldByKey returns the field with the given tree key.
func (rt *RecordType) FieldByKey(key string) (*FieldDescriptor, bool) {
	i, ok := rt.byKey[key]
	if !ok {
		return nil, false
	}
	return &rt.Fields[i], true
}

// FieldByName returns the field with the given Go field name.
func (rt *RecordType) FieldByName(name string) (*FieldDescriptor, bool) {
	i, ok := rt.byName[name]
	if !ok {
		return nil, false
	}
	return &rt.Fields[i], true
}

// DescribeOption configures record type construction.
type DescribeOption func(*describeConfig)

type describeConfig struct {
	storeType StoreTypeMode
	name      string
}

// WithStoreType sets whether and how the record stores its type name in the
// encoded tree. The mode is declared for the type: later describes of the
// same type, including the ones [Encode] and [Decode] issue internally,
// resolve to it. The first declared mode wins.
func WithStoreType(mode StoreTypeMode) DescribeOption {
	return func(c *describeConfig) {
		c.storeType = mode
	}
}

// WithRecordName overrides the record's short name (by default the Go type
// name). The name is what discriminators and registries refer to. Each name
// describes and caches its own descriptor; plain describes of the same type
// are unaffected.
func WithRecordName(name string) DescribeOption {
	return func(c *describeConfig) {
		c.name = name
	}
}

// Describe builds (or retrieves from cache) the record type descriptor for
// the struct type of v. v may be an instance or a pointer to one.
//
// Describing runs all declaration validation up front: tag syntax, default
// literals, alias collisions, and reserved keys. Errors here are
// programming-time defects; use [MustDescribe] during package init to catch
// them at startup.
func Describe(v any, opts ...DescribeOption) (*RecordType, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, &DescribeError{Type: "<nil>", Err: ErrUnsupportedType}
	}
	return DescribeType(t, opts...)
}

// DescribeType is like [Describe] but takes a reflect.Type directly.
func DescribeType(t reflect.Type, opts ...DescribeOption) (*RecordType, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &DescribeError{Type: t.String(), Err: ErrUnsupportedType}
	}

	cfg := &describeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	d := &describer{building: make(map[reflect.Type]*RecordType)}
	rt, err := d.describeStruct(t, cfg)
	if err != nil {
		return nil, err
	}
	if len(d.building) == 0 {
		// Cache hit inside describeStruct.
		return rt, nil
	}
	// Flatten namespaces can only be validated once every in-flight type is
	// fully built.
	for _, built := range d.building {
		if err := validateFlatten(built); err != nil {
			return nil, err
		}
	}

	// Nested types are built with the default name; only the root carries a
	// caller-supplied one.
	publish := make(map[cacheKey]*RecordType, len(d.building))
	for bt, built := range d.building {
		bk := cacheKey{t: bt, store: built.StoreType}
		if bt == t {
			bk.name = cfg.name
		}
		publish[bk] = built
	}
	storeRecords(publish)
	return rt, nil
}

// consumableKeys lists every tree key a record type reads or writes,
// expanding flattened fields recursively. The depth bound catches
// self-referential flatten declarations, which would otherwise claim an
// unbounded key set.
func consumableKeys(rt *RecordType, depth int) ([]string, error) {
	if depth > DefaultMaxDepth {
		return nil, ErrMaxDepthExceeded
	}
	var keys []string
	for i := range rt.Fields {
		fd := &rt.Fields[i]
		if !fd.Flatten {
			keys = append(keys, fd.Key)
			continue
		}
		inner := fd.Type
		if inner.Kind == KindOptional {
			inner = inner.Elem
		}
		sub, err := consumableKeys(inner.Record, depth+1)
		if err != nil {
			return nil, err
		}
		keys = append(keys, sub...)
	}
	return keys, nil
}

// validateFlatten checks that flattened records do not collide with sibling
// keys or with each other.
func validateFlatten(rt *RecordType) error {
	hasFlatten := false
	seen := make(map[string]string)
	for i := range rt.Fields {
		fd := &rt.Fields[i]
		if fd.Flatten {
			hasFlatten = true
			continue
		}
		seen[fd.Key] = fd.Name
	}
	if !hasFlatten {
		return nil
	}
	for i := range rt.Fields {
		fd := &rt.Fields[i]
		if !fd.Flatten {
			continue
		}
		inner := fd.Type
		if inner.Kind == KindOptional {
			inner = inner.Elem
		}
		keys, err := consumableKeys(inner.Record, 1)
		if err != nil {
			return &DescribeError{Type: rt.GoType.String(), Field: fd.Name, Err: err}
		}
		for _, k := range keys {
			if owner, dup := seen[k]; dup {
				return &DescribeError{
					Type:  rt.GoType.String(),
					Field: fd.Name,
					Err:   fmt.Errorf("%w: flattened key %q collides with field %q", ErrDuplicateKey, k, owner),
				}
			}
			seen[k] = fd.Name
		}
	}
	return nil
}

// MustDescribe is like [Describe] but panics on invalid declarations.
// Use during package initialization to validate record types at startup.
func MustDescribe(v any, opts ...DescribeOption) *RecordType {
	rt, err := Describe(v, opts...)
	if err != nil {
		panic("structmap: " + err.Error())
	}
	return rt
}

// describer tracks in-flight record types so self-referential and mutually
// recursive struct types describe without infinite recursion. Recursion
// depth is bounded at conversion time, not here.
type describer struct {
	building map[reflect.Type]*RecordType
}

func (d *describer) describeStruct(t reflect.Type, cfg *describeConfig) (*RecordType, error) {
	store := declaredStoreMode(t, cfg.storeType)
	if rt, ok := cachedRecord(cacheKey{t: t, name: cfg.name, store: store}); ok {
		return rt, nil
	}
	if rt, ok := d.building[t]; ok {
		return rt, nil
	}

	rt := &RecordType{
		Name:      t.Name(),
		QualName:  qualName(t),
		GoType:    t,
		StoreType: store,
		byKey:     make(map[string]int),
		byName:    make(map[string]int),
	}
	if cfg.name != "" {
		rt.Name = cfg.name
	}
	d.building[t] = rt

	if err := d.appendFields(rt, t, nil); err != nil {
		delete(d.building, t)
		return nil, err
	}

	if rt.StoreType != StoreTypeOff {
		if _, ok := rt.byKey[TypeKey]; ok {
			return nil, &DescribeError{Type: t.String(), Field: TypeKey, Err: ErrReservedKey}
		}
	}
	return rt, nil
}

// appendFields walks the struct's exported fields in declaration order,
// inlining anonymous embedded structs the way encoding/json does.
func (d *describer) appendFields(rt *RecordType, t reflect.Type, prefix []int) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" && !f.Anonymous { // unexported
			continue
		}

		tag, err := parseTreeTag(f.Tag.Get(TagTree))
		if err != nil {
			return &DescribeError{Type: t.String(), Field: f.Name, Err: err}
		}
		if tag.skip {
			continue
		}

		index := append(append([]int{}, prefix...), i)

		// Promote fields of untagged anonymous embedded structs, including
		// embedded structs of unexported type, matching encoding/json.
		if f.Anonymous && tag.name == "" && !tag.classLevel {
			ft := f.Type
			if ft.Kind() == reflect.Ptr {
				if f.PkgPath != "" {
					// Cannot allocate through an unexported embedded pointer.
					continue
				}
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && ft != timeType {
				if err := d.appendFields(rt, ft, index); err != nil {
					return err
				}
				continue
			}
		}
		if f.PkgPath != "" {
			// Embedded non-struct of unexported type stays invisible.
			continue
		}

		fd, err := d.buildField(rt.GoType, f, tag, index)
		if err != nil {
			return err
		}
		if _, dup := rt.byKey[fd.Key]; dup {
			return &DescribeError{Type: t.String(), Field: fd.Key, Err: ErrDuplicateKey}
		}
		rt.Fields = append(rt.Fields, *fd)
		rt.byKey[fd.Key] = len(rt.Fields) - 1
		rt.byName[fd.Name] = len(rt.Fields) - 1
	}
	return nil
}

func (d *describer) buildField(owner reflect.Type, f reflect.StructField, tag *treeTag, index []int) (*FieldDescriptor, error) {
	desc, err := d.descriptorFor(f.Type, tag)
	if err != nil {
		return nil, &DescribeError{Type: owner.String(), Field: f.Name, Err: err}
	}

	fd := &FieldDescriptor{
		Name:       f.Name,
		Key:        f.Name,
		Index:      index,
		Type:       desc,
		GoType:     f.Type,
		Required:   tag.required,
		ClassLevel: tag.classLevel,
		Flatten:    tag.flatten,
		Suppress:   tag.suppress,
		Doc:        f.Tag.Get(TagDoc),
		Tag:        f.Tag,
	}
	if tag.name != "" {
		fd.Key = tag.name
	}

	if tag.required && tag.suppress != nil && *tag.suppress {
		return nil, &DescribeError{Type: owner.String(), Field: f.Name, Err: fmt.Errorf("%w: required field cannot be suppressed", ErrInvalidTag)}
	}

	if tag.flatten {
		inner := desc
		if inner.Kind == KindOptional {
			inner = inner.Elem
		}
		if inner.Kind != KindRecord || inner.Record == nil {
			return nil, &DescribeError{Type: owner.String(), Field: f.Name, Err: fmt.Errorf("%w: flatten requires a record field", ErrInvalidTag)}
		}
	}

	if tag.hasDefault {
		if tag.required {
			return nil, &DescribeError{Type: owner.String(), Field: f.Name, Err: ErrRequiredDefault}
		}
		def, err := parseDefault(desc, f.Type, tag.defaultRaw)
		if err != nil {
			return nil, &DescribeError{Type: owner.String(), Field: f.Name, Err: err}
		}
		if def != nil {
			// Validate range fit into the Go field type now, not at decode.
			if _, err := canonicalToGo(def, f.Type); err != nil {
				return nil, &DescribeError{Type: owner.String(), Field: f.Name, Err: fmt.Errorf("%w: %v", ErrInvalidDefault, err)}
			}
		}
		fd.HasDefault = true
		fd.Default = def
	}

	finalizeDefault(fd)
	return fd, nil
}

// finalizeDefault precomputes the tree form of a field's effective default
// and marks whether the field participates in default suppression during
// encoding. Records, tuples, and unions are never suppressed implicitly.
func finalizeDefault(fd *FieldDescriptor) {
	if fd.Required {
		return
	}
	if fd.HasDefault {
		fd.suppressible = true
		fd.defaultTree = treeForm(fd.Default)
		return
	}

	inner := fd.Type
	if inner.Kind == KindOptional {
		// Optional without a declared default suppresses on nil.
		fd.suppressible = true
		fd.defaultTree = nil
		return
	}
	if inner.Kind == KindEnum {
		inner = inner.Elem
	}
	switch inner.Kind {
	case KindBool:
		fd.defaultTree = false
	case KindInt:
		fd.defaultTree = int64(0)
	case KindUint:
		fd.defaultTree = uint64(0)
	case KindFloat:
		fd.defaultTree = float64(0)
	case KindString:
		fd.defaultTree = ""
	case KindBytes:
		fd.defaultTree = []byte(nil)
	case KindTime:
		fd.defaultTree = time.Time{}
	case KindDuration:
		fd.defaultTree = time.Duration(0).String()
	case KindList:
		fd.defaultTree = []any{}
	case KindMap:
		fd.defaultTree = map[string]any{}
	case KindAny:
		fd.defaultTree = nil
	default:
		return
	}
	fd.suppressible = true
}

// treeForm converts a canonical default to its encoded tree representation.
func treeForm(v any) any {
	if d, ok := v.(time.Duration); ok {
		return d.String()
	}
	return v
}

// descriptorFor maps a Go type to its descriptor, applying tag refinements
// (enum membership, union alternatives) at the leaf.
func (d *describer) descriptorFor(t reflect.Type, tag *treeTag) (*TypeDescriptor, error) {
	switch t {
	case timeType:
		return &TypeDescriptor{Kind: KindTime, GoType: t}, nil
	case durationType:
		return &TypeDescriptor{Kind: KindDuration, GoType: t}, nil
	case bytesType:
		return &TypeDescriptor{Kind: KindBytes, GoType: t}, nil
	}

	switch t.Kind() {
	case reflect.Ptr:
		inner, err := d.descriptorFor(t.Elem(), tag)
		if err != nil {
			return nil, err
		}
		return &TypeDescriptor{Kind: KindOptional, GoType: t, Elem: inner}, nil

	case reflect.Bool:
		return d.scalar(KindBool, t, tag)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return d.scalar(KindInt, t, tag)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return d.scalar(KindUint, t, tag)
	case reflect.Float32, reflect.Float64:
		return d.scalar(KindFloat, t, tag)
	case reflect.String:
		return d.scalar(KindString, t, tag)

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return &TypeDescriptor{Kind: KindBytes, GoType: t}, nil
		}
		elem, err := d.descriptorFor(t.Elem(), nil)
		if err != nil {
			return nil, err
		}
		return &TypeDescriptor{Kind: KindList, GoType: t, Elem: elem}, nil

	case reflect.Array:
		elem, err := d.descriptorFor(t.Elem(), nil)
		if err != nil {
			return nil, err
		}
		return &TypeDescriptor{Kind: KindTuple, GoType: t, Elem: elem, Len: t.Len()}, nil

	case reflect.Map:
		key, err := d.mapKeyDescriptor(t.Key())
		if err != nil {
			return nil, err
		}
		elem, err := d.descriptorFor(t.Elem(), nil)
		if err != nil {
			return nil, err
		}
		return &TypeDescriptor{Kind: KindMap, GoType: t, Key: key, Elem: elem}, nil

	case reflect.Struct:
		rt, err := d.describeStruct(t, &describeConfig{})
		if err != nil {
			return nil, err
		}
		return &TypeDescriptor{Kind: KindRecord, GoType: t, Record: rt}, nil

	case reflect.Interface:
		if t == anyType {
			if tag != nil && len(tag.union) > 0 {
				return d.unionFromTag(tag.union)
			}
			return &TypeDescriptor{Kind: KindAny, GoType: t}, nil
		}
		// Non-empty interface: dynamic record resolved from the tree's
		// discriminator at decode time.
		return &TypeDescriptor{Kind: KindRecord, GoType: t}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t.String())
	}
}

func (d *describer) scalar(k Kind, t reflect.Type, tag *treeTag) (*TypeDescriptor, error) {
	desc := &TypeDescriptor{Kind: k, GoType: t}
	if tag != nil && len(tag.enum) > 0 {
		members := make([]any, len(tag.enum))
		for i, raw := range tag.enum {
			m, err := parseScalarLiteral(k, raw)
			if err != nil {
				return nil, fmt.Errorf("%w: enum member %q: %v", ErrInvalidTag, raw, err)
			}
			members[i] = m
		}
		desc.Kind = KindEnum
		desc.Elem = &TypeDescriptor{Kind: k, GoType: t}
		desc.Enum = members
	}
	return desc, nil
}

func (d *describer) mapKeyDescriptor(t reflect.Type) (*TypeDescriptor, error) {
	switch t.Kind() {
	case reflect.String:
		return &TypeDescriptor{Kind: KindString, GoType: t}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &TypeDescriptor{Kind: KindInt, GoType: t}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &TypeDescriptor{Kind: KindUint, GoType: t}, nil
	default:
		return nil, fmt.Errorf("%w: map key %s", ErrUnsupportedType, t.String())
	}
}

func (d *describer) unionFromTag(names []string) (*TypeDescriptor, error) {
	alts := make([]*TypeDescriptor, 0, len(names))
	for _, name := range names {
		if name == "null" {
			alts = append(alts, Null())
			continue
		}
		k, ok := scalarKinds[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown union alternative %q", ErrInvalidTag, name)
		}
		alts = append(alts, &TypeDescriptor{Kind: k, GoType: goTypeForKind(k)})
	}
	return UnionOf(alts...), nil
}

// treeTag is the parsed form of a `tree:"..."` struct tag.
type treeTag struct {
	name       string
	skip       bool
	required   bool
	classLevel bool
	flatten    bool
	suppress   *bool
	hasDefault bool
	defaultRaw string
	enum       []string
	union      []string
}

// parseTreeTag parses the converter's struct tag. Grammar:
//
//	tree:"<name>[,required][,classlevel][,flatten][,suppress[=bool]]
//	     [,default=<literal>][,enum=a|b|c][,union=t1|t2]"
//
// An empty tag uses the Go field name as the tree key; "-" skips the field.
func parseTreeTag(raw string) (*treeTag, error) {
	tag := &treeTag{}
	if raw == "" {
		return tag, nil
	}
	if raw == "-" {
		tag.skip = true
		return tag, nil
	}

	parts := strings.Split(raw, ",")
	tag.name = parts[0]
	for _, opt := range parts[1:] {
		key, val, hasVal := strings.Cut(opt, "=")
		switch key {
		case "required":
			tag.required = true
		case "classlevel":
			tag.classLevel = true
		case "flatten":
			tag.flatten = true
		case "suppress":
			b := true
			if hasVal {
				parsed, err := strconv.ParseBool(val)
				if err != nil {
					return nil, fmt.Errorf("%w: suppress=%q", ErrInvalidTag, val)
				}
				b = parsed
			}
			tag.suppress = &b
		case "default":
			tag.hasDefault = true
			tag.defaultRaw = val
		case "enum":
			if !hasVal || val == "" {
				return nil, fmt.Errorf("%w: empty enum list", ErrInvalidTag)
			}
			tag.enum = strings.Split(val, "|")
		case "union":
			if !hasVal || val == "" {
				return nil, fmt.Errorf("%w: empty union list", ErrInvalidTag)
			}
			tag.union = strings.Split(val, "|")
		case "":
			// tolerate trailing comma
		default:
			return nil, fmt.Errorf("%w: unknown option %q", ErrInvalidTag, key)
		}
	}
	return tag, nil
}

// parseScalarLiteral parses a tag literal into the canonical representation
// for a scalar kind.
func parseScalarLiteral(k Kind, raw string) (any, error) {
	switch k {
	case KindBool:
		return strconv.ParseBool(raw)
	case KindInt:
		return strconv.ParseInt(raw, 10, 64)
	case KindUint:
		return strconv.ParseUint(raw, 10, 64)
	case KindFloat:
		return strconv.ParseFloat(raw, 64)
	case KindString:
		return raw, nil
	case KindDuration:
		return time.ParseDuration(raw)
	case KindTime:
		return time.Parse(time.RFC3339, raw)
	case KindBytes:
		return []byte(raw), nil
	default:
		return nil, fmt.Errorf("literal not supported for %s", k)
	}
}

// parseDefault parses a tag default literal for a field descriptor.
// Containers accept only the empty literals "[]" and "{}" (default
// factories producing fresh empty instances per decode).
func parseDefault(desc *TypeDescriptor, goType reflect.Type, raw string) (any, error) {
	switch desc.Kind {
	case KindOptional:
		if raw == "null" {
			return nil, nil
		}
		return parseDefault(desc.Elem, goType.Elem(), raw)
	case KindEnum:
		v, err := parseScalarLiteral(desc.Elem.Kind, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDefault, err)
		}
		for _, m := range desc.Enum {
			if Equal(m, v) {
				return v, nil
			}
		}
		return nil, fmt.Errorf("%w: %q is not an enum member", ErrInvalidDefault, raw)
	case KindList:
		if raw == "[]" {
			return []any{}, nil
		}
		return nil, fmt.Errorf("%w: list defaults must be %q", ErrInvalidDefault, "[]")
	case KindMap:
		if raw == "{}" {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("%w: map defaults must be %q", ErrInvalidDefault, "{}")
	case KindBool, KindInt, KindUint, KindFloat, KindString, KindBytes, KindTime, KindDuration:
		v, err := parseScalarLiteral(desc.Kind, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDefault, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: defaults not supported for %s fields", ErrInvalidDefault, desc.Kind)
	}
}

// qualName returns the package-qualified name for a type, e.g.
// "rivaas.dev/structmap/internal/demo.Point".
func qualName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
