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
	"fmt"
	"sort"
	"sync"
)

// registry holds the codecs available by type. Registration happens at
// package initialization and from applications adding custom formats.
type registry struct {
	mu     sync.RWMutex
	codecs map[Type]Codec
}

var defaultRegistry = &registry{codecs: make(map[Type]Codec)}

// Register makes a codec available under the given type, replacing any
// previous registration.
func Register(name Type, c Codec) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.codecs[name] = c
}

// Get retrieves the codec registered for the given type.
func Get(name Type) (Codec, error) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()

	c, exists := defaultRegistry.codecs[name]
	if !exists {
		return nil, fmt.Errorf("codec not found for type: %s", name)
	}
	return c, nil
}

// Types returns the registered codec types, sorted.
func Types() []Type {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()

	out := make([]Type, 0, len(defaultRegistry.codecs))
	for t := range defaultRegistry.codecs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func init() {
	Register(JSON, &JSONCodec{})
	Register(TOML, &TOMLCodec{})
	Register(YAML, &YAMLCodec{})
	Register(MsgPack, &MsgPackCodec{})
	Register(Proto, &ProtoCodec{})
}
