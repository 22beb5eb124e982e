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

	"github.com/BurntSushi/toml"

	"rivaas.dev/structmap"
)

// TOMLCodec serializes trees as TOML. TOML has no null, so optional fields
// rely on key absence; nil values inside containers cannot be represented
// and fail at marshal time.
type TOMLCodec struct{}

// Marshal implements Codec.
func (c *TOMLCodec) Marshal(v any, opts ...structmap.Option) ([]byte, error) {
	tree, err := marshalTree(v, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal implements Codec.
func (c *TOMLCodec) Unmarshal(data []byte, out any, opts ...structmap.Option) error {
	tree, err := c.UnmarshalTree(data)
	if err != nil {
		return err
	}
	return structmap.Decode(tree, out, opts...)
}

// UnmarshalTree implements Codec.
func (c *TOMLCodec) UnmarshalTree(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return normalizeTree(raw)
}
