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

// Package structmap converts typed records (Go structs) to and from
// schema-less trees (the nested map[string]any value model shared by JSON,
// TOML, YAML, and MessagePack libraries).
//
// A record type is described once with [Describe], which parses struct tags,
// validates the declaration, and caches an immutable [RecordType]. Conversion
// is then driven entirely by the cached descriptors:
//
//	type Point struct {
//	    X int `tree:"x,required"`
//	    Y int `tree:"y,default=0"`
//	}
//
//	tree, _ := structmap.Encode(Point{X: 3})       // map[string]any{"x": int64(3)}
//	var p Point
//	_ = structmap.Decode(map[string]any{"x": 3}, &p)
//
// Encoding omits fields equal to their defaults unless [WithFull] is set.
// Decoding applies defaults for absent keys, fails on absent required
// fields, and ignores unknown keys unless [WithStrict] is set.
//
// Polymorphic trees carry a "type" discriminator (and optionally a
// "version"); resolution goes through a [Resolver] injected with
// [WithResolver], typically a registry.Registry. Tag metadata beyond the
// tree key is open: the settings package resolves consumer-defined tag
// namespaces against the same field descriptors, and the flatten package
// derives single-level record types from nested ones.
package structmap
