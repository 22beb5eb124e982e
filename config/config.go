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

package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"reflect"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"rivaas.dev/structmap"
	"rivaas.dev/structmap/codec"
)

// Option is a functional option that configures a Config instance.
type Option func(c *Config) error

// Config manages layered configuration trees. Sources load in order and
// later sources override earlier ones; the merged tree binds to record
// types through structmap.
//
// Config is safe for concurrent use by multiple goroutines.
type Config struct {
	values  *map[string]any
	sources []Source
	binding any
	mu      sync.RWMutex

	schema     *jsonschema.Schema
	validators []func(map[string]any) error
	decodeOpts []structmap.Option
	logger     *slog.Logger
}

// WithSource adds a source to the configuration loader.
func WithSource(loader Source) Option {
	return func(c *Config) error {
		if loader == nil {
			return errors.New("source cannot be nil")
		}
		c.sources = append(c.sources, loader)
		return nil
	}
}

// WithFile loads configuration from a file, detecting the format from the
// extension (.yaml, .yml, .json, .toml). For files without extensions use
// [WithFileAs].
//
// Paths support environment variable expansion using ${VAR} or $VAR syntax.
func WithFile(path string) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)

		format, err := detectFormat(path)
		if err != nil {
			return NewError("file-source", "detect-format", err)
		}
		cd, err := codec.Get(format)
		if err != nil {
			return NewError("file-source", "get-codec", err)
		}
		c.sources = append(c.sources, NewFileSource(path, cd))
		return nil
	}
}

// WithFileAs loads configuration from a file with an explicit format.
func WithFileAs(path string, format codec.Type) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)

		cd, err := codec.Get(format)
		if err != nil {
			return NewError("file-source", "get-codec", err)
		}
		c.sources = append(c.sources, NewFileSource(path, cd))
		return nil
	}
}

// WithContent loads configuration from a byte slice in the given format.
// Useful for embedded defaults:
//
//	cfg, err := config.New(
//	    config.WithContent(defaultsYAML, codec.YAML),
//	    config.WithFile("config.yaml"),
//	)
func WithContent(data []byte, format codec.Type) Option {
	return func(c *Config) error {
		cd, err := codec.Get(format)
		if err != nil {
			return NewError("content-source", "get-codec", err)
		}
		c.sources = append(c.sources, NewContentSource(data, cd))
		return nil
	}
}

// WithEnv loads configuration from environment variables with the given
// prefix. The prefix is stripped, names are lowercased, and underscores
// create nesting: APP_SERVER_PORT=8080 becomes server.port.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, NewEnvSource(prefix))
		return nil
	}
}

// WithBinding binds the merged tree to a record after each load. v must be
// a pointer to a struct; binding runs through structmap.Decode, so the
// record's tree tags, defaults, and required fields apply.
func WithBinding(v any) Option {
	return func(c *Config) error {
		if v == nil {
			return errors.New("binding target cannot be nil")
		}
		if reflect.TypeOf(v).Kind() != reflect.Ptr {
			return errors.New("binding target must be a pointer")
		}
		c.binding = v
		return nil
	}
}

// WithResolver injects the resolver used when binding polymorphic record
// fields.
func WithResolver(r structmap.Resolver) Option {
	return func(c *Config) error {
		c.decodeOpts = append(c.decodeOpts, structmap.WithResolver(r))
		return nil
	}
}

// WithStrict rejects merged keys the binding record does not declare.
func WithStrict() Option {
	return func(c *Config) error {
		c.decodeOpts = append(c.decodeOpts, structmap.WithStrict())
		return nil
	}
}

// WithJSONSchema validates the merged tree against a JSON Schema on every
// load.
func WithJSONSchema(schema []byte) Option {
	return func(c *Config) error {
		// Unique resource name: the compiler caches by name.
		//nolint:gosec // not security sensitive
		schemaName := fmt.Sprintf("inline_%d.json", rand.Int())
		compiler := jsonschema.NewCompiler()

		jsonSchema, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
		if err != nil {
			return err
		}
		if err = compiler.AddResource(schemaName, jsonSchema); err != nil {
			return err
		}
		s, err := compiler.Compile(schemaName)
		if err != nil {
			return err
		}
		c.schema = s
		return nil
	}
}

// WithValidator adds a custom validation function, run against the merged
// tree on every load.
func WithValidator(fn func(map[string]any) error) Option {
	return func(c *Config) error {
		c.validators = append(c.validators, fn)
		return nil
	}
}

// WithLogger sets the logger for load diagnostics. Defaults to a no-op.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = l
		return nil
	}
}

// New creates a Config with the provided options. Option errors are joined
// and returned alongside the partially initialized Config.
func New(options ...Option) (*Config, error) {
	var errs error
	c := &Config{
		values:  &map[string]any{},
		sources: []Source{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(c); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return c, errs
}

// MustNew creates a Config or panics. Use in main() or initialization code
// where failure should halt the program.
func MustNew(options ...Option) *Config {
	cfg, err := New(options...)
	if err != nil {
		panic(fmt.Sprintf("config: failed to create config: %v", err))
	}
	return cfg
}

// Validator is implemented by bindings that validate their own values
// after decoding.
type Validator interface {
	Validate() error
}

// Load loads every source in order, merges the trees with
// override-on-conflict, validates, and atomically swaps the merged values.
// Load is safe to call concurrently.
func (c *Config) Load(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}

	newValues, err := c.loadSources(ctx)
	if err != nil {
		return err
	}

	if c.schema != nil {
		if err = c.schema.Validate(sanitizeForSchema(newValues)); err != nil {
			return NewError("json-schema", "validate", err)
		}
	}
	for i, fn := range c.validators {
		if fn == nil {
			continue
		}
		if err := fn(newValues); err != nil {
			return NewError(fmt.Sprintf("custom-validator[%d]", i), "validate", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.binding != nil {
		// Decode into a scratch instance first so a failed bind leaves the
		// published binding untouched.
		if err := c.bindAndValidate(newValues); err != nil {
			return NewError("binding", "validate", err)
		}
		if err := structmap.Decode(newValues, c.binding, c.decodeOpts...); err != nil {
			return NewError("binding", "bind", err)
		}
	}

	c.values = &newValues
	c.logger.Debug("configuration loaded", "sources", len(c.sources), "keys", len(newValues))
	return nil
}

// MustLoad loads configuration or panics on error.
func (c *Config) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(err)
	}
}

// Bind decodes the current merged tree into the struct pointed to by out.
// Unlike [WithBinding], which re-binds on every load, Bind is a one-shot
// decode of the current snapshot.
func (c *Config) Bind(out any) error {
	c.mu.RLock()
	values := *c.values
	c.mu.RUnlock()

	if err := structmap.Decode(values, out, c.decodeOpts...); err != nil {
		return NewError("binding", "bind", err)
	}
	return nil
}

// Values returns the current merged tree. The returned map is shared;
// callers must not mutate it.
func (c *Config) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.values == nil {
		return map[string]any{}
	}
	return *c.values
}

func (c *Config) loadSources(ctx context.Context) (map[string]any, error) {
	newValues := make(map[string]any)
	for i, src := range c.sources {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		tree, err := src.Load(ctx)
		if err != nil {
			return nil, NewError(fmt.Sprintf("source[%d]", i), "load", err)
		}
		if tree == nil {
			continue
		}

		if err = mergo.Map(&newValues, tree, mergo.WithOverride); err != nil {
			return nil, NewError(fmt.Sprintf("source[%d]", i), "merge", err)
		}
		c.logger.Debug("source merged", "index", i, "keys", len(tree))
	}
	return newValues, nil
}

func (c *Config) bindAndValidate(values map[string]any) error {
	bindingType := reflect.TypeOf(c.binding).Elem()
	scratch := reflect.New(bindingType).Interface()

	if err := structmap.Decode(values, scratch, c.decodeOpts...); err != nil {
		return err
	}
	if v, ok := scratch.(Validator); ok {
		return v.Validate()
	}
	return nil
}

// sanitizeForSchema rewrites tree values the JSON Schema validator cannot
// inspect (it expects the JSON data model).
func sanitizeForSchema(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = sanitizeForSchema(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeForSchema(item)
		}
		return out
	case int:
		return int64(val)
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return v
	}
}
