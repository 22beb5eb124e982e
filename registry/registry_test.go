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

package registry

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/structmap"
)

type eventV1 struct {
	ID string `tree:"id,required"`
}

type eventV2 struct {
	ID    string `tree:"id,required"`
	Actor string `tree:"actor,default=system"`
}

type plainRecord struct {
	N int `tree:"n"`
}

func TestRegister_Versioned(t *testing.T) {
	t.Parallel()

	reg := New()
	require.NoError(t, reg.Register(eventV1{}, WithName("Event"), WithVersion(1)))
	require.NoError(t, reg.Register(eventV2{}, WithName("Event"), WithVersion(2)))

	t1, err := reg.Resolve("Event", 1)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(eventV1{}), t1)

	latest, ver, err := reg.Latest("Event")
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(eventV2{}), latest)
	assert.Equal(t, 2, ver)

	assert.Equal(t, []int{1, 2}, reg.Versions("Event"))

	v, ok := reg.VersionOf(reflect.TypeOf(eventV1{}))
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestRegister_Errors(t *testing.T) {
	t.Parallel()

	t.Run("duplicate type", func(t *testing.T) {
		t.Parallel()
		reg := New()
		require.NoError(t, reg.Register(plainRecord{}))
		err := reg.Register(plainRecord{}, WithName("Other"))
		require.ErrorIs(t, err, ErrAlreadyRegistered)
	})

	t.Run("duplicate version", func(t *testing.T) {
		t.Parallel()
		reg := New()
		require.NoError(t, reg.Register(eventV1{}, WithName("Event"), WithVersion(1)))
		err := reg.Register(eventV2{}, WithName("Event"), WithVersion(1))
		require.ErrorIs(t, err, ErrDuplicateVersion)
	})

	t.Run("duplicate unversioned name", func(t *testing.T) {
		t.Parallel()
		reg := New()
		require.NoError(t, reg.Register(eventV1{}, WithName("Event")))
		err := reg.Register(eventV2{}, WithName("Event"))
		require.ErrorIs(t, err, ErrDuplicateVersion)
	})

	t.Run("mixing versioned and unversioned", func(t *testing.T) {
		t.Parallel()
		reg := New()
		require.NoError(t, reg.Register(eventV1{}, WithName("Event"), WithVersion(1)))
		err := reg.Register(eventV2{}, WithName("Event"))
		require.ErrorIs(t, err, ErrDuplicateVersion)
	})

	t.Run("negative version", func(t *testing.T) {
		t.Parallel()
		reg := New()
		err := reg.Register(eventV1{}, WithVersion(-1))
		require.ErrorIs(t, err, ErrInvalidVersion)
	})

	t.Run("non-struct", func(t *testing.T) {
		t.Parallel()
		reg := New()
		require.Error(t, reg.Register(42))
	})

	t.Run("invalid record declaration", func(t *testing.T) {
		t.Parallel()
		reg := New()
		err := reg.Register(struct {
			X int `tree:"x,required,default=1"`
		}{})
		require.ErrorIs(t, err, structmap.ErrRequiredDefault)
	})
}

func TestResolveName(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.MustRegister(eventV1{}, WithName("Event"), WithVersion(1))
	reg.MustRegister(eventV2{}, WithName("Event"), WithVersion(2))
	reg.MustRegister(plainRecord{})

	t.Run("logical name resolves to latest", func(t *testing.T) {
		t.Parallel()
		typ, err := reg.ResolveName("Event")
		require.NoError(t, err)
		assert.Equal(t, reflect.TypeOf(eventV2{}), typ)
	})

	t.Run("qualified Go type name", func(t *testing.T) {
		t.Parallel()
		typ, err := reg.ResolveName("rivaas.dev/structmap/registry.eventV1")
		require.NoError(t, err)
		assert.Equal(t, reflect.TypeOf(eventV1{}), typ)
	})

	t.Run("unambiguous short name", func(t *testing.T) {
		t.Parallel()
		typ, err := reg.ResolveName("eventV1")
		require.NoError(t, err)
		assert.Equal(t, reflect.TypeOf(eventV1{}), typ)
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()
		_, err := reg.ResolveName("Nope")
		require.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("unknown version", func(t *testing.T) {
		t.Parallel()
		_, err := reg.ResolveNameVersion("Event", 9)
		require.ErrorIs(t, err, ErrUnknownVersion)
	})
}

func TestVersionOf_Unversioned(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.MustRegister(plainRecord{})

	_, ok := reg.VersionOf(reflect.TypeOf(plainRecord{}))
	assert.False(t, ok)

	_, ok = reg.VersionOf(reflect.TypeOf(eventV1{}))
	assert.False(t, ok)
}

func TestRegistry_AsResolver(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.MustRegister(eventV2{}, WithName("Event"), WithVersion(2))

	tree, err := structmap.Encode(eventV2{ID: "e1", Actor: "alice"}, structmap.WithResolver(reg))
	require.NoError(t, err)
	assert.Equal(t, int64(2), tree[structmap.VersionKey])

	tree[structmap.TypeKey] = "Event"
	v, err := structmap.DecodeDynamic(tree, structmap.WithResolver(reg))
	require.NoError(t, err)
	assert.Equal(t, eventV2{ID: "e1", Actor: "alice"}, v)
}

func TestReset(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.MustRegister(plainRecord{})
	reg.Reset()

	_, err := reg.ResolveName("plainRecord")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestNameResolutionError_Message(t *testing.T) {
	t.Parallel()

	err := &NameResolutionError{Name: "Event", Matches: []string{"a.Event", "b.Event"}}
	assert.Contains(t, err.Error(), "Event")
	assert.Contains(t, err.Error(), "a.Event")
}
