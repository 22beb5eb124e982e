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

// Package codec serializes records through the tree representation. Every
// codec follows the same pipeline: records encode to a tree via structmap,
// the tree marshals to bytes, and incoming bytes parse to a tree that is
// normalized to the canonical value model before decoding into a record.
// Format differences (JSON's float-only numbers, YAML's liberal keys,
// MessagePack's narrow integer widths) are absorbed by normalization, so
// record semantics do not depend on the chosen format.
package codec

import (
	"rivaas.dev/structmap"
)

// Type identifies a serialization format.
type Type string

// Built-in codec types, registered at package initialization.
const (
	JSON    Type = "json"
	TOML    Type = "toml"
	YAML    Type = "yaml"
	MsgPack Type = "msgpack"
	Proto   Type = "proto"
)

// Codec serializes records and trees to a byte format and back.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Marshal serializes v, which may be a record (struct or pointer to
	// one) or an already-built tree.
	Marshal(v any, opts ...structmap.Option) ([]byte, error)

	// Unmarshal parses data and decodes it into the record pointed to by
	// out.
	Unmarshal(data []byte, out any, opts ...structmap.Option) error

	// UnmarshalTree parses data into a normalized tree without decoding
	// into a record.
	UnmarshalTree(data []byte) (map[string]any, error)
}

// Marshal serializes a record with the named codec.
func Marshal(ct Type, v any, opts ...structmap.Option) ([]byte, error) {
	c, err := Get(ct)
	if err != nil {
		return nil, err
	}
	return c.Marshal(v, opts...)
}

// Unmarshal parses data with the named codec into a fresh record of type T.
func Unmarshal[T any](ct Type, data []byte, opts ...structmap.Option) (T, error) {
	var out T
	c, err := Get(ct)
	if err != nil {
		return out, err
	}
	if err := c.Unmarshal(data, &out, opts...); err != nil {
		return out, err
	}
	return out, nil
}

// marshalTree converts a record or tree value into a tree ready for
// serialization. Trees pass through untouched.
func marshalTree(v any, opts []structmap.Option) (any, error) {
	switch v.(type) {
	case map[string]any, []any, nil:
		return v, nil
	}
	return structmap.Encode(v, opts...)
}
