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

// Package migrate converts record instances between versions of a type
// family. Migration carries fields over by tree key: keys present in both
// versions transfer, keys only in the target take their defaults, and keys
// only in the source are dropped. Migrating down and back up is therefore
// lossy by design.
//
//	v2, err := migrate.To[EventV2](v1, migrate.WithRegistry(reg))
package migrate

import (
	"errors"
	"fmt"
	"reflect"

	"rivaas.dev/structmap"
	"rivaas.dev/structmap/registry"
)

// Static errors for migration operations.
var (
	// ErrMissingRequiredField means the target version requires a field the
	// source version does not carry.
	ErrMissingRequiredField = errors.New("target version requires a field the source lacks")

	// ErrNotVersioned means the source type is not registered as part of a
	// versioned family.
	ErrNotVersioned = errors.New("type is not registered with a version")

	// ErrTargetMustBeStruct means the migration target is not a struct.
	ErrTargetMustBeStruct = errors.New("migration target must be a struct")
)

// MigrationError reports a failed migration with both endpoint types.
type MigrationError struct {
	From string
	To   string
	Err  error
}

// Error returns a formatted error message.
func (e *MigrationError) Error() string {
	return fmt.Sprintf("migrate %s to %s: %v", e.From, e.To, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// Option configures a migration.
type Option func(*Options)

// Options configures migration behavior.
type Options struct {
	// Registry resolves versioned families, both for [Latest] and for
	// nested polymorphic fields. Nil falls back to the default registry.
	Registry *registry.Registry
}

// WithRegistry sets the registry consulted during migration.
func WithRegistry(r *registry.Registry) Option {
	return func(o *Options) {
		o.Registry = r
	}
}

func applyOptions(opts []Option) *Options {
	o := &Options{Registry: registry.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// To migrates a record instance to the target version T. Migrating a value
// that is already a T returns it unchanged.
func To[T any](from any, opts ...Option) (T, error) {
	if same, ok := from.(T); ok {
		return same, nil
	}
	var out T
	if err := Into(from, &out, opts...); err != nil {
		return out, err
	}
	return out, nil
}

// Latest migrates a record instance to the highest version registered for
// its family. An instance already at the latest version is returned
// unchanged.
func Latest(from any, opts ...Option) (any, error) {
	o := applyOptions(opts)

	t := reflect.TypeOf(from)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, ErrTargetMustBeStruct
	}

	name, ok := o.Registry.NameOf(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotVersioned, t)
	}
	if _, versioned := o.Registry.VersionOf(t); !versioned {
		return nil, fmt.Errorf("%w: %s", ErrNotVersioned, t)
	}
	latest, _, err := o.Registry.Latest(name)
	if err != nil {
		return nil, err
	}
	if latest == t {
		return deref(from), nil
	}

	out := reflect.New(latest)
	if err := Into(from, out.Interface(), opts...); err != nil {
		return nil, err
	}
	return out.Elem().Interface(), nil
}

// Into migrates a record instance into the struct pointed to by out.
// Carry-over runs through the tree representation: the source is encoded in
// full and decoded into the target, so nested records and polymorphic
// members convert with the same semantics as a serialization round-trip.
func Into(from any, out any, opts ...Option) error {
	o := applyOptions(opts)

	tree, err := structmap.Encode(from,
		structmap.WithFull(),
		structmap.WithResolver(o.Registry),
	)
	if err != nil {
		return wrapErr(from, out, err)
	}
	// Discriminators describe the source version; the target decodes by
	// structure, not by name.
	delete(tree, structmap.TypeKey)
	delete(tree, structmap.VersionKey)

	if err := structmap.Decode(tree, out, structmap.WithResolver(o.Registry)); err != nil {
		if errors.Is(err, structmap.ErrMissingField) {
			err = fmt.Errorf("%w: %v", ErrMissingRequiredField, err)
		}
		return wrapErr(from, out, err)
	}
	return nil
}

func wrapErr(from, to any, err error) error {
	return &MigrationError{From: typeName(from), To: typeName(to), Err: err}
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Elem().Interface()
	}
	return v
}
