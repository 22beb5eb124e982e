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

// Package config loads layered configuration trees and binds them to
// record types. Sources merge in order, later sources overriding earlier
// ones; the merged tree decodes through structmap, so record defaults,
// required fields, and polymorphic members apply to configuration the same
// way they apply to any serialized tree.
//
// # Quick Start
//
//	type AppConfig struct {
//	    Host    string        `tree:"host,default=localhost"`
//	    Port    int           `tree:"port,required"`
//	    Timeout time.Duration `tree:"timeout,default=30s"`
//	}
//
//	var app AppConfig
//	cfg := config.MustNew(
//	    config.WithFile("config.yaml"),
//	    config.WithEnv("APP_"),
//	    config.WithBinding(&app),
//	)
//	cfg.MustLoad(context.Background())
//
// # Sources
//
// Files with automatic format detection (.yaml, .yml, .json, .toml),
// files with explicit formats, embedded content, environment variables
// with a prefix, or any custom [Source] implementation:
//
//	config.WithFile("config.yaml")
//	config.WithFileAs("config", codec.YAML)
//	config.WithContent(defaults, codec.TOML)
//	config.WithEnv("APP_")
//
// # Validation
//
// The merged tree validates before it is published: against a JSON Schema
// with [WithJSONSchema], against custom functions with [WithValidator],
// and through the binding's Validate method when it implements
// [Validator]. A failed validation leaves the previously loaded values in
// place.
//
// # Access
//
// Bound structs give typed access; for ad hoc reads the getters accept
// dot-separated paths:
//
//	port := cfg.IntOr("server.port", 8080)
//	tags := cfg.StringSlice("tags")
//
// Config is safe for concurrent use by multiple goroutines.
package config
