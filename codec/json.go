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

package codec

import (
	"bytes"
	"encoding/json"

	"rivaas.dev/structmap"
)

// JSONCodec serializes trees as JSON. Numbers parse through json.Number so
// integers survive the round trip instead of collapsing to float64.
type JSONCodec struct {
	// Indent, when non-empty, pretty-prints output with the given
	// indentation.
	Indent string
}

// Marshal implements Codec.
func (c *JSONCodec) Marshal(v any, opts ...structmap.Option) ([]byte, error) {
	tree, err := marshalTree(v, opts)
	if err != nil {
		return nil, err
	}
	if c.Indent != "" {
		return json.MarshalIndent(tree, "", c.Indent)
	}
	return json.Marshal(tree)
}

// Unmarshal implements Codec.
func (c *JSONCodec) Unmarshal(data []byte, out any, opts ...structmap.Option) error {
	tree, err := c.UnmarshalTree(data)
	if err != nil {
		return err
	}
	return structmap.Decode(tree, out, opts...)
}

// UnmarshalTree implements Codec.
func (c *JSONCodec) UnmarshalTree(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return normalizeTree(raw)
}
