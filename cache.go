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

package structmap

import (
	"maps"
	"reflect"
	"sync"
	"sync/atomic"
)

// cacheKey identifies one described variant of a struct type. Describe
// options produce distinct descriptors, so the key carries them; the zero
// name and store mode form the default variant used by nested describes.
type cacheKey struct {
	t     reflect.Type
	name  string
	store StoreTypeMode
}

var (
	// RCU pattern: atomic pointer to immutable map
	recordCachePtr atomic.Pointer[map[cacheKey]*RecordType]

	// Write-side lock (only for cache updates)
	recordCacheMu sync.Mutex
)

func init() {
	m := make(map[cacheKey]*RecordType)
	recordCachePtr.Store(&m)
}

// storeModes holds per-type discriminator declarations
// (reflect.Type -> StoreTypeMode). Describing with [WithStoreType] declares
// the mode for the type; later describes, including the plain ones issued
// by Encode and Decode, resolve to the declared mode.
var storeModes sync.Map

// declaredStoreMode resolves the effective store mode for a type: an
// explicit non-default mode declares itself (first declaration wins),
// otherwise a previous declaration applies.
func declaredStoreMode(t reflect.Type, mode StoreTypeMode) StoreTypeMode {
	if mode != StoreTypeOff {
		actual, _ := storeModes.LoadOrStore(t, mode)
		return actual.(StoreTypeMode)
	}
	if declared, ok := storeModes.Load(t); ok {
		return declared.(StoreTypeMode)
	}
	return StoreTypeOff
}

// cachedRecord returns the cached descriptor for a described variant.
// Lock-free read from the current map snapshot.
func cachedRecord(key cacheKey) (*RecordType, bool) {
	m := recordCachePtr.Load()
	rt, ok := (*m)[key]
	return rt, ok
}

// storeRecords publishes a batch of newly built descriptors. A describe call
// may build several mutually recursive types; they are published together so
// readers never observe a half-built graph.
//
// The first successful description of a variant wins. Concurrent describers
// of the same variant build equivalent descriptors, so dropping the loser is
// safe.
func storeRecords(built map[cacheKey]*RecordType) {
	recordCacheMu.Lock()
	defer recordCacheMu.Unlock()

	m := recordCachePtr.Load()
	newMap := make(map[cacheKey]*RecordType, len(*m)+len(built))
	maps.Copy(newMap, *m)
	for key, rt := range built {
		if _, ok := newMap[key]; !ok {
			newMap[key] = rt
		}
	}
	recordCachePtr.Store(&newMap)
}

// WarmupCache pre-describes struct types to populate the descriptor cache.
// Call during application startup after defining your record types.
//
// Invalid types are silently skipped. Use [MustWarmupCache] to panic on
// invalid declarations instead.
func WarmupCache(types ...any) {
	for _, t := range types {
		typ := reflect.TypeOf(t)
		if typ == nil {
			continue
		}
		if typ.Kind() == reflect.Ptr {
			typ = typ.Elem()
		}
		if typ.Kind() != reflect.Struct {
			continue
		}
		_, _ = DescribeType(typ)
	}
}

// MustWarmupCache is like [WarmupCache] but panics on invalid declarations.
// Use during application startup to validate record tags early:
//
//	func init() {
//	    structmap.MustWarmupCache(
//	        UserProfile{},
//	        SearchFilter{},
//	    )
//	}
func MustWarmupCache(types ...any) {
	for _, t := range types {
		MustDescribe(t)
	}
}
