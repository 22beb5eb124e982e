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

	"github.com/vmihailenco/msgpack/v5"

	"rivaas.dev/structmap"
)

// MsgPackCodec serializes trees as MessagePack. Unlike the text formats it
// carries []byte natively and preserves the int/float distinction on the
// wire.
type MsgPackCodec struct{}

// Marshal implements Codec.
func (c *MsgPackCodec) Marshal(v any, opts ...structmap.Option) ([]byte, error) {
	tree, err := marshalTree(v, opts)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(tree)
}

// Unmarshal implements Codec.
func (c *MsgPackCodec) Unmarshal(data []byte, out any, opts ...structmap.Option) error {
	tree, err := c.UnmarshalTree(data)
	if err != nil {
		return err
	}
	return structmap.Decode(tree, out, opts...)
}

// UnmarshalTree implements Codec.
func (c *MsgPackCodec) UnmarshalTree(data []byte) (map[string]any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	// Map keys arrive as strings; untyped decoding would produce
	// map[any]any otherwise.
	dec.SetMapDecoder(func(d *msgpack.Decoder) (any, error) {
		return d.DecodeMap()
	})
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return normalizeTree(raw)
}
