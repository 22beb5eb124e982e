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
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"rivaas.dev/structmap/codec"
)

// Source loads one layer of configuration as a tree. Load must be safe to
// call concurrently.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// FileSource loads a configuration tree from a file or from in-memory
// content.
type FileSource struct {
	path  string
	data  []byte
	codec codec.Codec
}

// NewFileSource creates a source that reads and parses the file at path on
// every load.
func NewFileSource(path string, c codec.Codec) *FileSource {
	return &FileSource{path: path, codec: c}
}

// NewContentSource creates a source over a fixed byte slice, useful for
// embedded defaults.
func NewContentSource(data []byte, c codec.Codec) *FileSource {
	return &FileSource{data: data, codec: c}
}

// Load implements Source.
func (f *FileSource) Load(context.Context) (map[string]any, error) {
	data := f.data
	if f.path != "" {
		var err error
		data, err = os.ReadFile(f.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}
	tree, err := f.codec.UnmarshalTree(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	return tree, nil
}

// EnvSource loads configuration from environment variables sharing a
// prefix. The prefix is stripped, names are lowercased, and underscores
// create nesting: with prefix "APP_", APP_SERVER_PORT=8080 yields
// server.port = 8080.
//
// Values are inferred like scalar YAML: integers, floats, and booleans
// parse to their types, everything else stays a string.
type EnvSource struct {
	prefix string
}

// NewEnvSource creates an environment variable source with the given
// prefix.
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{prefix: prefix}
}

// Load implements Source.
func (e *EnvSource) Load(context.Context) (map[string]any, error) {
	tree := make(map[string]any)
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, e.prefix) {
			continue
		}
		name, value, ok := strings.Cut(strings.TrimPrefix(env, e.prefix), "=")
		if !ok || name == "" {
			continue
		}

		segments := strings.Split(strings.ToLower(name), "_")
		current := tree
		for _, seg := range segments[:len(segments)-1] {
			next, ok := current[seg].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[seg] = next
			}
			current = next
		}
		current[segments[len(segments)-1]] = inferScalar(value)
	}
	return tree, nil
}

// inferScalar parses an environment value into the richest scalar it
// matches.
func inferScalar(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
