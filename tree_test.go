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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	t.Parallel()

	est := time.FixedZone("EST", -5*3600)
	noon := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "nils", a: nil, b: nil, want: true},
		{name: "nil vs value", a: nil, b: 0, want: false},
		{name: "cross-width ints", a: int(1), b: int64(1), want: true},
		{name: "int vs float", a: int(1), b: float64(1), want: true},
		{name: "uint vs int", a: uint8(7), b: int64(7), want: true},
		{name: "different numbers", a: 1, b: 2, want: false},
		{name: "number vs string", a: 1, b: "1", want: false},
		{name: "strings", a: "x", b: "x", want: true},
		{name: "bools", a: true, b: true, want: true},
		{name: "times across zones", a: noon, b: noon.In(est), want: true},
		{name: "different times", a: noon, b: noon.Add(time.Second), want: false},
		{name: "bytes", a: []byte("hi"), b: []byte("hi"), want: true},
		{name: "nested slices", a: []any{1, "a"}, b: []any{int64(1), "a"}, want: true},
		{name: "slice length", a: []any{1}, b: []any{1, 2}, want: false},
		{
			name: "nested maps",
			a:    map[string]any{"n": 1, "m": map[string]any{"k": "v"}},
			b:    map[string]any{"n": float64(1), "m": map[string]any{"k": "v"}},
			want: true,
		},
		{
			name: "map key mismatch",
			a:    map[string]any{"n": 1},
			b:    map[string]any{"m": 1},
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a), "Equal must be symmetric")
		})
	}
}

func TestClone(t *testing.T) {
	t.Parallel()

	src := map[string]any{
		"n":    1,
		"list": []any{1, 2},
		"sub":  map[string]any{"k": "v"},
		"data": []byte{1, 2},
	}

	dup, ok := Clone(src).(map[string]any)
	require.True(t, ok)
	assert.True(t, Equal(src, dup))

	// Mutating the clone must not touch the original.
	dup["sub"].(map[string]any)["k"] = "changed"
	dup["list"].([]any)[0] = 99
	dup["data"].([]byte)[0] = 9

	assert.Equal(t, "v", src["sub"].(map[string]any)["k"])
	assert.Equal(t, 1, src["list"].([]any)[0])
	assert.Equal(t, byte(1), src["data"].([]byte)[0])
}
