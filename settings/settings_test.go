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

package settings

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/structmap"
)

type cliSettings struct {
	Flag       string   `tree:"flag"`
	Help       string   `tree:"help"`
	Positional bool     `tree:"positional"`
	Aliases    []string `tree:"aliases"`
	Width      int      `tree:"width"`
}

type request struct {
	Verbose bool   `tree:"verbose" cli:"flag=-v,help=enable verbose output,positional"`
	Path    string `tree:"path" cli:"aliases=p;pth,width=80"`
	Quiet   bool   `tree:"quiet"`
	Broken  bool   `tree:"broken" cli:"nosuch=1"`
}

func field(t *testing.T, name string) structmap.FieldDescriptor {
	t.Helper()
	rt, err := structmap.Describe(request{})
	require.NoError(t, err)
	fd, ok := rt.FieldByName(name)
	require.True(t, ok)
	return *fd
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("values and bare booleans", func(t *testing.T) {
		t.Parallel()
		s, err := Resolve[cliSettings](field(t, "Verbose"), "cli")
		require.NoError(t, err)
		assert.Equal(t, "-v", s.Flag)
		assert.Equal(t, "enable verbose output", s.Help)
		assert.True(t, s.Positional)
	})

	t.Run("semicolon slices and numbers", func(t *testing.T) {
		t.Parallel()
		s, err := Resolve[cliSettings](field(t, "Path"), "cli")
		require.NoError(t, err)
		assert.Equal(t, []string{"p", "pth"}, s.Aliases)
		assert.Equal(t, 80, s.Width)
	})

	t.Run("unclaimed namespace yields the zero schema", func(t *testing.T) {
		t.Parallel()
		s, err := Resolve[cliSettings](field(t, "Quiet"), "cli")
		require.NoError(t, err)
		assert.Equal(t, cliSettings{}, s)
	})

	t.Run("unknown setting key", func(t *testing.T) {
		t.Parallel()
		_, err := Resolve[cliSettings](field(t, "Broken"), "cli")
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("bare key on a non-bool setting", func(t *testing.T) {
		t.Parallel()
		type bad struct {
			X int `tree:"x" cli:"flag"`
		}
		rt := structmap.MustDescribe(bad{})
		fd, _ := rt.FieldByName("X")
		_, err := Resolve[cliSettings](*fd, "cli")
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("unparseable value", func(t *testing.T) {
		t.Parallel()
		type bad struct {
			X int `tree:"x" cli:"width=wide"`
		}
		rt := structmap.MustDescribe(bad{})
		fd, _ := rt.FieldByName("X")
		_, err := Resolve[cliSettings](*fd, "cli")
		require.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestResolve_SchemaDefaultsAndRequired(t *testing.T) {
	t.Parallel()

	type strictSettings struct {
		Flag  string `tree:"flag,required"`
		Help  string `tree:"help,default=no help"`
		Width int    `tree:"width,default=40"`
	}
	type item struct {
		A string `tree:"a" meta:"flag=-a"`
		B string `tree:"b"`
	}
	rt := structmap.MustDescribe(item{})

	t.Run("unset settings take the schema defaults", func(t *testing.T) {
		t.Parallel()
		fd, ok := rt.FieldByName("A")
		require.True(t, ok)
		s, err := Resolve[strictSettings](*fd, "meta")
		require.NoError(t, err)
		assert.Equal(t, "-a", s.Flag)
		assert.Equal(t, "no help", s.Help)
		assert.Equal(t, 40, s.Width)
	})

	t.Run("required setting left unset fails", func(t *testing.T) {
		t.Parallel()
		fd, ok := rt.FieldByName("B")
		require.True(t, ok)
		_, err := Resolve[strictSettings](*fd, "meta")
		require.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestResolve_WithAdapter(t *testing.T) {
	t.Parallel()

	type timed struct {
		After time.Duration `tree:"after"`
	}
	type job struct {
		Run string `tree:"run" sched:"after=5s"`
	}

	adapter := func(raw string, to reflect.Type) (any, error) {
		if to == reflect.TypeOf(time.Duration(0)) {
			return time.ParseDuration(raw)
		}
		return nil, nil
	}

	rt := structmap.MustDescribe(job{})
	fd, _ := rt.FieldByName("Run")
	s, err := Resolve[timed](*fd, "sched", WithAdapter(adapter))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, s.After)
}

func TestResolveAll(t *testing.T) {
	t.Parallel()

	rt, err := structmap.Describe(request{})
	require.NoError(t, err)

	// Broken carries an unknown key, so resolving the whole record fails.
	_, err = ResolveAll[cliSettings](rt, "cli")
	require.ErrorIs(t, err, ErrConfiguration)

	type clean struct {
		Verbose bool `tree:"verbose" cli:"flag=-v"`
		Quiet   bool `tree:"quiet"`
	}
	crt := structmap.MustDescribe(clean{})
	all, err := ResolveAll[cliSettings](crt, "cli")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "-v", all["verbose"].Flag)
	assert.Equal(t, cliSettings{}, all["quiet"])
}

func TestMergeSchemas(t *testing.T) {
	t.Parallel()

	type docSettings struct {
		Help  string `tree:"help"`
		Group string `tree:"group"`
	}

	t.Run("identical fields deduplicate", func(t *testing.T) {
		t.Parallel()
		rt, err := MergeSchemas(cliSettings{}, docSettings{})
		require.NoError(t, err)
		assert.Equal(t, "Settings", rt.Name)

		_, ok := rt.FieldByKey("flag")
		assert.True(t, ok)
		_, ok = rt.FieldByKey("group")
		assert.True(t, ok)
	})

	t.Run("conflicting declarations fail", func(t *testing.T) {
		t.Parallel()
		type clashing struct {
			Help int `tree:"help"`
		}
		_, err := MergeSchemas(cliSettings{}, clashing{})
		require.ErrorIs(t, err, ErrSchemaConflict)
	})
}
