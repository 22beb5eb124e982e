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
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_DefaultSuppression(t *testing.T) {
	t.Parallel()

	t.Run("defaulted field at its default is omitted", func(t *testing.T) {
		t.Parallel()
		tree, err := Encode(point{X: 3, Y: 0})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"x": int64(3)}, tree)
	})

	t.Run("defaulted field away from its default is emitted", func(t *testing.T) {
		t.Parallel()
		tree, err := Encode(point{X: 3, Y: 4})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"x": int64(3), "y": int64(4)}, tree)
	})

	t.Run("required field is emitted even at zero", func(t *testing.T) {
		t.Parallel()
		tree, err := Encode(point{})
		require.NoError(t, err)
		assert.Contains(t, tree, "x")
	})

	t.Run("full encoding emits everything", func(t *testing.T) {
		t.Parallel()
		tree, err := Encode(point{X: 3}, WithFull())
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"x": int64(3), "y": int64(0)}, tree)
	})

	t.Run("zero-valued plain fields are omitted", func(t *testing.T) {
		t.Parallel()
		tree, err := Encode(profile{Name: "ada"})
		require.NoError(t, err)
		assert.NotContains(t, tree, "email")
		assert.NotContains(t, tree, "tags")
		assert.NotContains(t, tree, "scores")
	})
}

func TestEncode_SuppressOverride(t *testing.T) {
	t.Parallel()

	type creds struct {
		User     string `tree:"user"`
		Password string `tree:"password,suppress"`
		Role     string `tree:"role,suppress=false,default=viewer"`
	}

	tree, err := Encode(creds{User: "u", Password: "hunter2", Role: "viewer"})
	require.NoError(t, err)

	// suppress=true always hides the field, suppress=false always emits it.
	assert.NotContains(t, tree, "password")
	assert.Equal(t, "viewer", tree["role"])
}

func TestEncodeOrdered_DiscriminatorsFirst(t *testing.T) {
	t.Parallel()

	type shape struct {
		Sides int `tree:"sides"`
	}
	_, err := DescribeType(reflect.TypeOf(shape{}), WithStoreType(StoreTypeName))
	require.NoError(t, err)

	kvs, err := EncodeOrdered(shape{Sides: 3})
	require.NoError(t, err)
	require.NotEmpty(t, kvs)
	assert.Equal(t, KV{Key: TypeKey, Value: "shape"}, kvs[0])
}

func TestEncode_VersionFromResolver(t *testing.T) {
	t.Parallel()

	type payloadV2 struct {
		N int `tree:"n"`
	}
	r := &fakeResolver{versions: map[reflect.Type]int{
		reflect.TypeOf(payloadV2{}): 2,
	}}

	tree, err := Encode(payloadV2{N: 1}, WithResolver(r))
	require.NoError(t, err)
	assert.Equal(t, int64(2), tree[VersionKey])
}

func TestEncode_InterfaceFieldStoresType(t *testing.T) {
	t.Parallel()

	type circle struct {
		R float64 `tree:"r,required"`
	}
	type canvas struct {
		Shape any `tree:"shape"`
	}

	tree, err := Encode(canvas{Shape: circle{R: 2}})
	require.NoError(t, err)

	nested, ok := tree["shape"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "circle", nested[TypeKey])
	assert.InDelta(t, 2.0, nested["r"].(float64), 0)
}

func TestEncode_Flatten(t *testing.T) {
	t.Parallel()

	type coords struct {
		Lat float64 `tree:"lat,required"`
		Lng float64 `tree:"lng,required"`
	}
	type place struct {
		Name     string `tree:"name,required"`
		Location coords `tree:"location,flatten"`
	}

	t.Run("nested keys spliced into the outer tree", func(t *testing.T) {
		t.Parallel()
		tree, err := Encode(place{Name: "p", Location: coords{Lat: 1, Lng: 2}})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"name": "p",
			"lat":  float64(1),
			"lng":  float64(2),
		}, tree)
	})

	t.Run("nil optional branch contributes nothing", func(t *testing.T) {
		t.Parallel()
		type sparse struct {
			Name     string  `tree:"name,required"`
			Location *coords `tree:"location,flatten"`
		}
		tree, err := Encode(sparse{Name: "p"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "p"}, tree)
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		in := place{Name: "p", Location: coords{Lat: 1, Lng: 2}}
		tree, err := Encode(in)
		require.NoError(t, err)

		var out place
		require.NoError(t, Decode(tree, &out))
		assert.Equal(t, in, out)
	})
}

func TestEncode_Duration(t *testing.T) {
	t.Parallel()

	type job struct {
		Every time.Duration `tree:"every"`
	}

	tree, err := Encode(job{Every: 90 * time.Second}, WithFull())
	require.NoError(t, err)
	assert.Equal(t, "1m30s", tree["every"])

	tree, err = Encode(job{})
	require.NoError(t, err)
	assert.NotContains(t, tree, "every") // "0s" suppresses
}

func TestEncode_EnumMembership(t *testing.T) {
	t.Parallel()

	type doc struct {
		Color string `tree:"color,enum=red|green|blue"`
	}

	tree, err := Encode(doc{Color: "blue"})
	require.NoError(t, err)
	assert.Equal(t, "blue", tree["color"])

	_, err = Encode(doc{Color: "purple"})
	require.ErrorIs(t, err, ErrNotInEnum)
}

func TestEncode_Errors(t *testing.T) {
	t.Parallel()

	t.Run("non-struct input", func(t *testing.T) {
		t.Parallel()
		_, err := Encode(42)
		require.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("nil pointer input", func(t *testing.T) {
		t.Parallel()
		var p *point
		_, err := Encode(p)
		require.ErrorIs(t, err, ErrOutPointerNil)
	})
}

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	t.Run("scalar", func(t *testing.T) {
		t.Parallel()
		v, err := EncodeValue(7, ScalarOf("int"))
		require.NoError(t, err)
		assert.Equal(t, int64(7), v)
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		v, err := EncodeValue(nil, ScalarOf("string"))
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("tuple", func(t *testing.T) {
		t.Parallel()
		desc := TupleOf(ScalarOf("string"), ScalarOf("int"))
		v, err := EncodeValue([]any{"a", 1}, desc)
		require.NoError(t, err)
		assert.Equal(t, []any{"a", int64(1)}, v)
	})

	t.Run("round trip through DecodeValue", func(t *testing.T) {
		t.Parallel()
		desc := UnionOf(ScalarOf("int"), ScalarOf("string"))
		enc, err := EncodeValue("hello", desc)
		require.NoError(t, err)
		dec, err := DecodeValue(enc, desc)
		require.NoError(t, err)
		assert.Equal(t, "hello", dec)
	})
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	email := "ada@example.com"
	in := profile{
		Name:   "ada",
		Email:  &email,
		Age:    30,
		Tags:   []string{"a", "b"},
		Scores: map[string]int{"math": 100},
		Home:   point{X: 1, Y: 2},
	}

	tree, err := Encode(in)
	require.NoError(t, err)

	var out profile
	require.NoError(t, Decode(tree, &out))
	assert.Equal(t, in, out)
}

// fakeResolver satisfies Resolver for encode-side version stamping.
type fakeResolver struct {
	types    map[string]reflect.Type
	versions map[reflect.Type]int
}

func (f *fakeResolver) ResolveName(name string) (reflect.Type, error) {
	t, ok := f.types[name]
	if !ok {
		return nil, ErrNoResolver
	}
	return t, nil
}

func (f *fakeResolver) ResolveNameVersion(name string, _ int) (reflect.Type, error) {
	return f.ResolveName(name)
}

func (f *fakeResolver) VersionOf(t reflect.Type) (int, bool) {
	v, ok := f.versions[t]
	return v, ok
}
