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
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"

	"rivaas.dev/structmap"
)

// Get returns the value at a dot-separated path into the merged tree, or
// nil when absent.
//
// Example:
//
//	port := cfg.Get("server.port")
func (c *Config) Get(key string) any {
	if c == nil || key == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.values == nil {
		return nil
	}
	current := *c.values

	// Direct key match takes priority over traversal.
	if val, ok := current[key]; ok {
		return val
	}

	segments := strings.Split(key, ".")
	for i, segment := range segments {
		val, ok := current[segment]
		if !ok {
			return nil
		}
		if i == len(segments)-1 {
			return val
		}
		nested, ok := val.(map[string]any)
		if !ok {
			return nil
		}
		current = nested
	}
	return nil
}

// String returns the value at key as a string, or "" when absent or not
// convertible.
func (c *Config) String(key string) string {
	return cast.ToString(c.Get(key))
}

// Int returns the value at key as an int, or 0.
func (c *Config) Int(key string) int {
	return cast.ToInt(c.Get(key))
}

// Int64 returns the value at key as an int64, or 0.
func (c *Config) Int64(key string) int64 {
	return cast.ToInt64(c.Get(key))
}

// Float64 returns the value at key as a float64, or 0.
func (c *Config) Float64(key string) float64 {
	return cast.ToFloat64(c.Get(key))
}

// Bool returns the value at key as a bool, or false.
func (c *Config) Bool(key string) bool {
	return cast.ToBool(c.Get(key))
}

// Duration returns the value at key as a time.Duration, or 0.
func (c *Config) Duration(key string) time.Duration {
	return cast.ToDuration(c.Get(key))
}

// Time returns the value at key as a time.Time, or the zero time.
func (c *Config) Time(key string) time.Time {
	return cast.ToTime(c.Get(key))
}

// StringSlice returns the value at key as a []string, or an empty slice.
func (c *Config) StringSlice(key string) []string {
	return cast.ToStringSlice(c.Get(key))
}

// StringMap returns the value at key as a map[string]any, or an empty map.
func (c *Config) StringMap(key string) map[string]any {
	return cast.ToStringMap(c.Get(key))
}

// GetE returns the value at key converted to T, with explicit errors for
// absent keys and failed conversions. Struct-typed T decodes through the
// record engine, so a nested configuration section binds directly:
//
//	db, err := config.GetE[dbConfig](cfg, "database")
func GetE[T any](c *Config, key string) (T, error) {
	var zero T
	val := c.Get(key)
	if val == nil {
		return zero, fmt.Errorf("key %q not found", key)
	}
	if out, ok := val.(T); ok {
		return out, nil
	}

	var err error
	switch p := any(&zero).(type) {
	case *string:
		*p, err = cast.ToStringE(val)
	case *int:
		*p, err = cast.ToIntE(val)
	case *int64:
		*p, err = cast.ToInt64E(val)
	case *float64:
		*p, err = cast.ToFloat64E(val)
	case *bool:
		*p, err = cast.ToBoolE(val)
	case *time.Duration:
		*p, err = cast.ToDurationE(val)
	case *time.Time:
		*p, err = cast.ToTimeE(val)
	case *[]string:
		*p, err = cast.ToStringSliceE(val)
	case *map[string]any:
		*p, err = cast.ToStringMapE(val)
	default:
		tree, ok := val.(map[string]any)
		if !ok || reflect.TypeOf(zero).Kind() != reflect.Struct {
			return zero, fmt.Errorf("cannot convert value at key %q to %T", key, zero)
		}
		err = structmap.Decode(tree, &zero)
	}
	if err != nil {
		return zero, fmt.Errorf("key %q: %w", key, err)
	}
	return zero, nil
}

// StringOr returns the value at key as a string, or defaultVal when absent.
func (c *Config) StringOr(key, defaultVal string) string {
	val := c.Get(key)
	if val == nil {
		return defaultVal
	}
	return cast.ToString(val)
}

// IntOr returns the value at key as an int, or defaultVal when absent.
func (c *Config) IntOr(key string, defaultVal int) int {
	val := c.Get(key)
	if val == nil {
		return defaultVal
	}
	return cast.ToInt(val)
}

// BoolOr returns the value at key as a bool, or defaultVal when absent.
func (c *Config) BoolOr(key string, defaultVal bool) bool {
	val := c.Get(key)
	if val == nil {
		return defaultVal
	}
	return cast.ToBool(val)
}

// DurationOr returns the value at key as a time.Duration, or defaultVal
// when absent.
func (c *Config) DurationOr(key string, defaultVal time.Duration) time.Duration {
	val := c.Get(key)
	if val == nil {
		return defaultVal
	}
	return cast.ToDuration(val)
}
