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
	"reflect"
	"time"
)

// DefaultMaxDepth is the default recursion limit for encode and decode.
// It bounds structural nesting, not data size.
const DefaultMaxDepth = 100

// Resolver maps type discriminators to concrete Go types. It is consulted
// when decoding into a dynamic record (an interface field, or a tree whose
// "type" key names a subtype) and when encoding versioned records.
//
// There is no ambient global resolver: callers inject one explicitly with
// [WithResolver], typically a registry.Registry.
type Resolver interface {
	// ResolveName returns the Go type registered under a logical name.
	// Unversioned names resolve directly; versioned names resolve to the
	// latest registered version.
	ResolveName(name string) (reflect.Type, error)

	// ResolveNameVersion returns the Go type registered under a logical
	// name at a specific version.
	ResolveNameVersion(name string, version int) (reflect.Type, error)

	// VersionOf reports the registered version of a Go type, if any.
	VersionOf(t reflect.Type) (int, bool)
}

// Options configures encode and decode behavior.
type Options struct {
	// Strict rejects tree keys with no corresponding record field.
	// Default: unknown keys are ignored.
	Strict bool

	// Full disables default-value suppression during encoding: every field
	// is emitted even when it equals its default.
	Full bool

	// MaxDepth bounds structural recursion. Zero means DefaultMaxDepth.
	MaxDepth int

	// Resolver resolves type discriminators for dynamic and versioned
	// records. Nil means discriminator resolution fails with ErrNoResolver.
	Resolver Resolver

	// TimeLayouts are tried in order when decoding a string into a
	// time.Time field. Defaults to RFC 3339 with and without sub-second
	// precision.
	TimeLayouts []string
}

// Option configures encode/decode operations.
type Option func(*Options)

// WithStrict makes decoding fail with [UnknownFieldError] when the tree
// contains keys the record type does not declare.
func WithStrict() Option {
	return func(o *Options) {
		o.Strict = true
	}
}

// WithFull disables default suppression: encoding emits every field,
// including those equal to their defaults. Use when the consumer cannot
// re-apply defaults on read.
func WithFull() Option {
	return func(o *Options) {
		o.Full = true
	}
}

// WithMaxDepth overrides the recursion limit.
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		if depth > 0 {
			o.MaxDepth = depth
		}
	}
}

// WithResolver injects the resolver used for discriminator and version
// resolution. A registry.Registry satisfies Resolver.
func WithResolver(r Resolver) Option {
	return func(o *Options) {
		o.Resolver = r
	}
}

// WithTimeLayouts sets the layouts tried when decoding strings into
// time.Time fields.
func WithTimeLayouts(layouts ...string) Option {
	return func(o *Options) {
		if len(layouts) > 0 {
			o.TimeLayouts = layouts
		}
	}
}

// defaultOptions returns the baseline configuration.
func defaultOptions() *Options {
	return &Options{
		MaxDepth:    DefaultMaxDepth,
		TimeLayouts: []string{time.RFC3339Nano, time.RFC3339},
	}
}

// applyOptions builds an Options from the defaults plus the given options.
func applyOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}
