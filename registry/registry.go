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

// Package registry maps logical type names (and versions) to Go record
// types. A Registry satisfies structmap.Resolver, so polymorphic and
// versioned trees decode back into their concrete types:
//
//	reg := registry.New()
//	reg.MustRegister(EventV1{}, registry.WithName("Event"), registry.WithVersion(1))
//	reg.MustRegister(EventV2{}, registry.WithName("Event"), registry.WithVersion(2))
//
//	v, err := structmap.DecodeDynamic(tree, structmap.WithResolver(reg))
package registry

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"rivaas.dev/structmap"
)

// Registry is a concurrency-safe mapping between logical names, versions,
// and Go record types. The zero value is not usable; create with [New].
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	byType    map[reflect.Type]typeInfo
	qualIndex map[string]reflect.Type
}

type entry struct {
	versioned bool
	versions  map[int]reflect.Type
	latest    int
}

type typeInfo struct {
	name      string
	version   int
	versioned bool
}

// Compile-time check that Registry satisfies the resolver seam.
var _ structmap.Resolver = (*Registry)(nil)

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries:   make(map[string]*entry),
		byType:    make(map[reflect.Type]typeInfo),
		qualIndex: make(map[string]reflect.Type),
	}
}

var defaultRegistry = New()

// Default returns the process-wide registry. Prefer an explicit [New]
// registry per subsystem; the default exists for applications with a single
// type namespace.
func Default() *Registry {
	return defaultRegistry
}

// Register registers a type on the default registry.
func Register(v any, opts ...Option) error {
	return defaultRegistry.Register(v, opts...)
}

// MustRegister registers a type on the default registry, panicking on error.
func MustRegister(v any, opts ...Option) {
	defaultRegistry.MustRegister(v, opts...)
}

// Option configures a registration.
type Option func(*regConfig)

type regConfig struct {
	name    string
	version int
}

// WithName sets the logical name a type is registered under. Defaults to
// the Go type's short name. Versioned families share one logical name.
func WithName(name string) Option {
	return func(c *regConfig) {
		c.name = name
	}
}

// WithVersion registers the type as one version of a versioned family.
// Versions must be positive and unique within the family; the highest
// registered version is the family's latest.
func WithVersion(version int) Option {
	return func(c *regConfig) {
		c.version = version
	}
}

// Register adds a record type to the registry. The instance's type is
// described immediately so invalid declarations fail at registration, not
// on first decode.
//
// Registering the same Go type twice fails with [ErrAlreadyRegistered];
// registering a (name, version) pair twice fails with
// [ErrDuplicateVersion].
func (r *Registry) Register(v any, opts ...Option) error {
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("registry: cannot register %T", v)
	}
	if _, err := structmap.DescribeType(t); err != nil {
		return fmt.Errorf("registry: %w", err)
	}

	cfg := &regConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.version < 0 {
		return fmt.Errorf("registry: %w: %d", ErrInvalidVersion, cfg.version)
	}
	name := cfg.name
	if name == "" {
		name = t.Name()
	}
	versioned := cfg.version > 0

	r.mu.Lock()
	defer r.mu.Unlock()

	if info, ok := r.byType[t]; ok {
		return fmt.Errorf("registry: %w: %s as %q", ErrAlreadyRegistered, t, info.name)
	}

	ent, ok := r.entries[name]
	if !ok {
		ent = &entry{versioned: versioned, versions: make(map[int]reflect.Type)}
		r.entries[name] = ent
	} else if ent.versioned != versioned {
		return fmt.Errorf("registry: %w: name %q mixes versioned and unversioned types", ErrDuplicateVersion, name)
	} else if !versioned {
		return fmt.Errorf("registry: %w: name %q", ErrDuplicateVersion, name)
	}
	if _, dup := ent.versions[cfg.version]; dup {
		return fmt.Errorf("registry: %w: %q version %d", ErrDuplicateVersion, name, cfg.version)
	}

	ent.versions[cfg.version] = t
	if cfg.version > ent.latest {
		ent.latest = cfg.version
	}
	r.byType[t] = typeInfo{name: name, version: cfg.version, versioned: versioned}
	r.qualIndex[qualName(t)] = t
	return nil
}

// MustRegister is like [Register] but panics on error. Use in package init
// blocks so misregistrations surface at startup.
func (r *Registry) MustRegister(v any, opts ...Option) {
	if err := r.Register(v, opts...); err != nil {
		panic(err.Error())
	}
}

// Resolve returns the type registered under a logical name at a specific
// version.
func (r *Registry) Resolve(name string, version int) (reflect.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ent, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("registry: %w: %q", ErrUnknownType, name)
	}
	t, ok := ent.versions[version]
	if !ok {
		return nil, fmt.Errorf("registry: %w: %q version %d", ErrUnknownVersion, name, version)
	}
	return t, nil
}

// Latest returns the highest-versioned type registered under a logical
// name, with its version. Unversioned names return version 0.
func (r *Registry) Latest(name string) (reflect.Type, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ent, ok := r.entries[name]
	if !ok {
		return nil, 0, fmt.Errorf("registry: %w: %q", ErrUnknownType, name)
	}
	return ent.versions[ent.latest], ent.latest, nil
}

// Versions returns the sorted versions registered under a name.
func (r *Registry) Versions(name string) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ent, ok := r.entries[name]
	if !ok {
		return nil
	}
	out := make([]int, 0, len(ent.versions))
	for v := range ent.versions {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// NameOf reports the logical name a Go type was registered under.
func (r *Registry) NameOf(t reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.byType[t]
	return info.name, ok
}

// ResolveName implements structmap.Resolver. It accepts a logical name
// (resolving to the latest version), a package-qualified Go type name, or a
// short type name when unambiguous. An ambiguous short name fails with
// [NameResolutionError].
func (r *Registry) ResolveName(name string) (reflect.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ent, ok := r.entries[name]; ok {
		return ent.versions[ent.latest], nil
	}
	if t, ok := r.qualIndex[name]; ok {
		return t, nil
	}

	// Short-name fallback over qualified registrations.
	var matches []string
	var found reflect.Type
	for qual, t := range r.qualIndex {
		if shortName(qual) == name {
			matches = append(matches, qual)
			found = t
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("registry: %w: %q", ErrUnknownType, name)
	case 1:
		return found, nil
	default:
		sort.Strings(matches)
		return nil, &NameResolutionError{Name: name, Matches: matches}
	}
}

// ResolveNameVersion implements structmap.Resolver.
func (r *Registry) ResolveNameVersion(name string, version int) (reflect.Type, error) {
	return r.Resolve(name, version)
}

// VersionOf implements structmap.Resolver. It reports the registered
// version of a type; unversioned and unregistered types report false.
func (r *Registry) VersionOf(t reflect.Type) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.byType[t]
	if !ok || !info.versioned {
		return 0, false
	}
	return info.version, true
}

// Reset removes every registration. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]*entry)
	r.byType = make(map[reflect.Type]typeInfo)
	r.qualIndex = make(map[string]reflect.Type)
}

func qualName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

func shortName(qual string) string {
	if i := strings.LastIndexByte(qual, '.'); i >= 0 {
		return qual[i+1:]
	}
	return qual
}
