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
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"rivaas.dev/structmap"
)

// ProtoCodec serializes trees as protobuf google.protobuf.Struct messages.
// Struct shares JSON's value model, so timestamps travel as RFC 3339
// strings, bytes as base64, and all numbers as float64.
type ProtoCodec struct{}

// Marshal implements Codec.
func (c *ProtoCodec) Marshal(v any, opts ...structmap.Option) ([]byte, error) {
	tree, err := marshalTree(v, opts)
	if err != nil {
		return nil, err
	}
	m, ok := sanitize(tree).(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// Unmarshal implements Codec.
func (c *ProtoCodec) Unmarshal(data []byte, out any, opts ...structmap.Option) error {
	tree, err := c.UnmarshalTree(data)
	if err != nil {
		return err
	}
	return structmap.Decode(tree, out, opts...)
}

// UnmarshalTree implements Codec.
func (c *ProtoCodec) UnmarshalTree(data []byte) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return normalizeTree(s.AsMap())
}

// sanitize rewrites tree values structpb cannot represent directly.
func sanitize(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = sanitize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitize(item)
		}
		return out
	default:
		return v
	}
}
