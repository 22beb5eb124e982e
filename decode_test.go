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

type point struct {
	X int `tree:"x,required"`
	Y int `tree:"y,default=0"`
}

type profile struct {
	Name    string         `tree:"name,required"`
	Email   *string        `tree:"email"`
	Age     int            `tree:"age,default=18"`
	Tags    []string       `tree:"tags"`
	Scores  map[string]int `tree:"scores"`
	Home    point          `tree:"home"`
	Ignored string         `tree:"-"`
}

func TestDecode_ErrorPaths(t *testing.T) {
	t.Parallel()

	t.Run("non-pointer output", func(t *testing.T) {
		t.Parallel()
		var p point
		err := Decode(map[string]any{"x": 1}, p)
		require.ErrorIs(t, err, ErrOutMustBePointer)
	})

	t.Run("nil pointer output", func(t *testing.T) {
		t.Parallel()
		var p *point
		err := Decode(map[string]any{"x": 1}, p)
		require.ErrorIs(t, err, ErrOutPointerNil)
	})

	t.Run("pointer to non-struct", func(t *testing.T) {
		t.Parallel()
		var n int
		err := Decode(map[string]any{"x": 1}, &n)
		require.ErrorIs(t, err, ErrOutMustBePointer)
	})
}

func TestDecode_RequiredAndDefaults(t *testing.T) {
	t.Parallel()

	t.Run("required present, default applied", func(t *testing.T) {
		t.Parallel()
		var p point
		err := Decode(map[string]any{"x": 3}, &p)
		require.NoError(t, err)
		assert.Equal(t, 3, p.X)
		assert.Equal(t, 0, p.Y)
	})

	t.Run("required absent", func(t *testing.T) {
		t.Parallel()
		var p point
		err := Decode(map[string]any{"y": 4}, &p)
		require.Error(t, err)
		require.ErrorIs(t, err, ErrMissingField)

		var convErr *ConversionError
		require.ErrorAs(t, err, &convErr)
		assert.Equal(t, "x", convErr.Path)
	})

	t.Run("non-zero default", func(t *testing.T) {
		t.Parallel()
		var pr profile
		err := Decode(map[string]any{"name": "ada"}, &pr)
		require.NoError(t, err)
		assert.Equal(t, 18, pr.Age)
		assert.Nil(t, pr.Email)
	})
}

func TestDecode_StrictMode(t *testing.T) {
	t.Parallel()

	var p point
	err := Decode(map[string]any{"x": 1, "extra": true, "bogus": 2}, &p, WithStrict())
	require.Error(t, err)

	var unknownErr *UnknownFieldError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "point", unknownErr.Record)
	assert.Equal(t, []string{"bogus", "extra"}, unknownErr.Fields)

	// Without strict mode the same tree decodes.
	require.NoError(t, Decode(map[string]any{"x": 1, "extra": true}, &p))
}

func TestDecode_NestedAndContainers(t *testing.T) {
	t.Parallel()

	tree := map[string]any{
		"name":   "ada",
		"email":  "ada@example.com",
		"tags":   []any{"a", "b"},
		"scores": map[string]any{"math": 100},
		"home":   map[string]any{"x": 1, "y": 2},
	}
	var pr profile
	require.NoError(t, Decode(tree, &pr))

	require.NotNil(t, pr.Email)
	assert.Equal(t, "ada@example.com", *pr.Email)
	assert.Equal(t, []string{"a", "b"}, pr.Tags)
	assert.Equal(t, map[string]int{"math": 100}, pr.Scores)
	assert.Equal(t, point{X: 1, Y: 2}, pr.Home)
}

func TestDecode_NumericWidths(t *testing.T) {
	t.Parallel()

	type nums struct {
		I8  int8    `tree:"i8"`
		U16 uint16  `tree:"u16"`
		F   float64 `tree:"f"`
		I   int     `tree:"i"`
	}

	t.Run("cross-width and integral floats", func(t *testing.T) {
		t.Parallel()
		var n nums
		err := Decode(map[string]any{
			"i8":  int64(7),
			"u16": float64(42), // JSON numbers arrive as float64
			"f":   int(3),
			"i":   uint8(9),
		}, &n)
		require.NoError(t, err)
		assert.Equal(t, int8(7), n.I8)
		assert.Equal(t, uint16(42), n.U16)
		assert.InDelta(t, 3.0, n.F, 0)
		assert.Equal(t, 9, n.I)
	})

	t.Run("fractional float into int", func(t *testing.T) {
		t.Parallel()
		var n nums
		err := Decode(map[string]any{"i": 1.5}, &n)
		require.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("overflow", func(t *testing.T) {
		t.Parallel()
		var n nums
		err := Decode(map[string]any{"i8": 1000}, &n)
		require.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("negative into uint", func(t *testing.T) {
		t.Parallel()
		var n nums
		err := Decode(map[string]any{"u16": -1}, &n)
		require.ErrorIs(t, err, ErrTypeMismatch)
	})
}

func TestDecode_TimeAndDuration(t *testing.T) {
	t.Parallel()

	type event struct {
		At      time.Time     `tree:"at"`
		Timeout time.Duration `tree:"timeout,default=30s"`
	}

	t.Run("time from string and value", func(t *testing.T) {
		t.Parallel()
		want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		var e event
		require.NoError(t, Decode(map[string]any{"at": "2024-05-01T12:00:00Z"}, &e))
		assert.True(t, want.Equal(e.At))

		require.NoError(t, Decode(map[string]any{"at": want}, &e))
		assert.True(t, want.Equal(e.At))
	})

	t.Run("duration forms", func(t *testing.T) {
		t.Parallel()
		var e event
		require.NoError(t, Decode(map[string]any{"timeout": "1m30s"}, &e))
		assert.Equal(t, 90*time.Second, e.Timeout)

		require.NoError(t, Decode(map[string]any{"timeout": int64(time.Second)}, &e))
		assert.Equal(t, time.Second, e.Timeout)

		require.NoError(t, Decode(map[string]any{}, &e))
		assert.Equal(t, 30*time.Second, e.Timeout)
	})
}

func TestDecode_Bytes(t *testing.T) {
	t.Parallel()

	type blob struct {
		Data []byte `tree:"data"`
	}

	var b blob
	require.NoError(t, Decode(map[string]any{"data": []byte{1, 2, 3}}, &b))
	assert.Equal(t, []byte{1, 2, 3}, b.Data)

	// Base64 strings come from formats without a binary type.
	require.NoError(t, Decode(map[string]any{"data": "aGk="}, &b))
	assert.Equal(t, []byte("hi"), b.Data)

	err := Decode(map[string]any{"data": 42}, &b)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestDecode_Enum(t *testing.T) {
	t.Parallel()

	type doc struct {
		Color string `tree:"color,enum=red|green|blue,default=red"`
	}

	var d doc
	require.NoError(t, Decode(map[string]any{"color": "green"}, &d))
	assert.Equal(t, "green", d.Color)

	require.NoError(t, Decode(map[string]any{}, &d))
	assert.Equal(t, "red", d.Color)

	err := Decode(map[string]any{"color": "purple"}, &d)
	require.ErrorIs(t, err, ErrNotInEnum)
}

func TestDecode_Union(t *testing.T) {
	t.Parallel()

	type flexible struct {
		Value any `tree:"value,union=null|int|string"`
	}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "null wins first", in: nil, want: nil},
		{name: "int matches", in: 42, want: int64(42)},
		{name: "string matches", in: "hello", want: "hello"},
		{name: "integral float matches int before string", in: float64(7), want: int64(7)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var f flexible
			require.NoError(t, Decode(map[string]any{"value": tt.in}, &f))
			assert.Equal(t, tt.want, f.Value)
		})
	}

	t.Run("exhausted", func(t *testing.T) {
		t.Parallel()
		var f flexible
		err := Decode(map[string]any{"value": true}, &f)
		require.ErrorIs(t, err, ErrUnionExhausted)
	})
}

func TestDecodeValue_ProgrammaticDescriptors(t *testing.T) {
	t.Parallel()

	t.Run("tuple arity", func(t *testing.T) {
		t.Parallel()
		desc := TupleOf(ScalarOf("string"), ScalarOf("int"))

		v, err := DecodeValue([]any{"a", 1}, desc)
		require.NoError(t, err)
		assert.Equal(t, []any{"a", int64(1)}, v)

		_, err = DecodeValue([]any{"a"}, desc)
		require.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("union order dependence", func(t *testing.T) {
		t.Parallel()
		// float listed first claims integral numbers.
		floatFirst := UnionOf(ScalarOf("float"), ScalarOf("int"))
		v, err := DecodeValue(7, floatFirst)
		require.NoError(t, err)
		assert.Equal(t, float64(7), v)

		intFirst := UnionOf(ScalarOf("int"), ScalarOf("float"))
		v, err = DecodeValue(7, intFirst)
		require.NoError(t, err)
		assert.Equal(t, int64(7), v)
	})
}

func TestDecode_HomogeneousTuple(t *testing.T) {
	t.Parallel()

	type grid struct {
		Corner [2]int `tree:"corner"`
	}

	var g grid
	require.NoError(t, Decode(map[string]any{"corner": []any{1, 2}}, &g))
	assert.Equal(t, [2]int{1, 2}, g.Corner)

	err := Decode(map[string]any{"corner": []any{1, 2, 3}}, &g)
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestDecode_MaxDepth(t *testing.T) {
	t.Parallel()

	type node struct {
		Next *node `tree:"next"`
		V    int   `tree:"v"`
	}

	// Build a tree deeper than the limit.
	tree := map[string]any{"v": 0}
	for i := 0; i < 8; i++ {
		tree = map[string]any{"v": i, "next": tree}
	}

	var n node
	err := Decode(tree, &n, WithMaxDepth(4))
	require.ErrorIs(t, err, ErrMaxDepthExceeded)

	require.NoError(t, Decode(tree, &n, WithMaxDepth(64)))
}

func TestDecode_EmbeddedPromotion(t *testing.T) {
	t.Parallel()

	type base struct {
		ID string `tree:"id,required"`
	}
	type derived struct {
		base
		Name string `tree:"name"`
	}

	var d derived
	require.NoError(t, Decode(map[string]any{"id": "r1", "name": "x"}, &d))
	assert.Equal(t, "r1", d.ID)
	assert.Equal(t, "x", d.Name)

	// Promoted fields keep their tag semantics.
	var missing derived
	require.ErrorIs(t, Decode(map[string]any{"name": "x"}, &missing), ErrMissingField)
}

func TestDecode_EnumNamedType(t *testing.T) {
	t.Parallel()

	type color string
	type level int
	type job struct {
		C color `tree:"c,enum=red|green"`
		L level `tree:"l,enum=1|2|3"`
	}

	var j job
	require.NoError(t, Decode(map[string]any{"c": "red", "l": 2}, &j))
	assert.Equal(t, color("red"), j.C)
	assert.Equal(t, level(2), j.L)

	err := Decode(map[string]any{"c": "mauve", "l": 2}, &j)
	require.ErrorIs(t, err, ErrNotInEnum)
}

func TestDecode_FlattenedField(t *testing.T) {
	t.Parallel()

	type inner struct {
		A int `tree:"a"`
		B int `tree:"b"`
	}
	type outer struct {
		Name  string `tree:"name"`
		Inner inner  `tree:"inner,flatten"`
	}

	t.Run("keys read from the outer level", func(t *testing.T) {
		t.Parallel()
		var o outer
		require.NoError(t, Decode(map[string]any{"name": "n", "a": 1, "b": 2}, &o))
		assert.Equal(t, inner{A: 1, B: 2}, o.Inner)
	})

	t.Run("strict counts flattened keys as known", func(t *testing.T) {
		t.Parallel()
		var o outer
		require.NoError(t, Decode(map[string]any{"a": 1}, &o, WithStrict()))
	})

	t.Run("optional flattened branch stays nil when absent", func(t *testing.T) {
		t.Parallel()
		type optOuter struct {
			Name  string `tree:"name"`
			Inner *inner `tree:"inner,flatten"`
		}
		var o optOuter
		require.NoError(t, Decode(map[string]any{"name": "n"}, &o))
		assert.Nil(t, o.Inner)

		require.NoError(t, Decode(map[string]any{"a": 5}, &o))
		require.NotNil(t, o.Inner)
		assert.Equal(t, 5, o.Inner.A)
	})
}

func TestDecodeDynamic(t *testing.T) {
	t.Parallel()

	type widget struct {
		W int `tree:"w"`
	}
	r := &fakeResolver{types: map[string]reflect.Type{
		"widget": reflect.TypeOf(widget{}),
	}}

	t.Run("resolved from discriminator", func(t *testing.T) {
		t.Parallel()
		v, err := DecodeDynamic(map[string]any{"type": "widget", "w": 3}, WithResolver(r))
		require.NoError(t, err)
		w, ok := v.(widget)
		require.True(t, ok)
		assert.Equal(t, 3, w.W)
	})

	t.Run("no resolver configured", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeDynamic(map[string]any{"type": "widget"})
		require.ErrorIs(t, err, ErrNoResolver)
	})

	t.Run("missing discriminator", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeDynamic(map[string]any{"w": 3}, WithResolver(r))
		require.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeDynamic(map[string]any{"type": "gadget"}, WithResolver(r))
		require.Error(t, err)
	})
}

type sized interface {
	size() int
}

type box struct {
	W int `tree:"w"`
}

func (b box) size() int { return b.W }

func TestDecode_InterfaceField(t *testing.T) {
	t.Parallel()

	type holder struct {
		Item sized `tree:"item"`
	}
	r := &fakeResolver{types: map[string]reflect.Type{
		"box": reflect.TypeOf(box{}),
	}}

	var h holder
	tree := map[string]any{
		"item": map[string]any{"type": "box", "w": 5},
	}
	require.NoError(t, Decode(tree, &h, WithResolver(r)))
	require.NotNil(t, h.Item)
	assert.Equal(t, 5, h.Item.size())
}

func TestReplace(t *testing.T) {
	t.Parallel()

	p, err := Replace(point{X: 1, Y: 2}, map[string]any{"y": 9})
	require.NoError(t, err)
	assert.Equal(t, point{X: 1, Y: 9}, p)

	// Updates are tree-level: bad values fail decoding.
	_, err = Replace(point{X: 1}, map[string]any{"x": "oops"})
	require.ErrorIs(t, err, ErrTypeMismatch)
}
