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

package flatten

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"rivaas.dev/structmap"
)

// rebuildTag reconstructs a tree struct tag for a generated flat field from
// its source descriptor, under the given tree key. A leaf under an optional
// branch loses its required marker: the whole branch may legitimately be
// absent.
func rebuildTag(fd *structmap.FieldDescriptor, key string, optional bool) reflect.StructTag {
	opts := []string{key}
	if fd.Required && !optional {
		opts = append(opts, "required")
	}
	if fd.ClassLevel {
		opts = append(opts, "classlevel")
	}
	if fd.Suppress != nil {
		if *fd.Suppress {
			opts = append(opts, "suppress")
		} else {
			opts = append(opts, "suppress=false")
		}
	}
	if fd.HasDefault {
		opts = append(opts, "default="+formatLiteral(fd.Default))
	}

	desc := fd.Type
	if desc.Kind == structmap.KindOptional {
		desc = desc.Elem
	}
	switch desc.Kind {
	case structmap.KindEnum:
		members := make([]string, len(desc.Enum))
		for i, m := range desc.Enum {
			members[i] = formatLiteral(m)
		}
		opts = append(opts, "enum="+strings.Join(members, "|"))
	case structmap.KindUnion:
		names := make([]string, len(desc.Alts))
		for i, alt := range desc.Alts {
			if alt.Kind == structmap.KindOptional {
				names[i] = "null"
			} else {
				names[i] = alt.Kind.String()
			}
		}
		opts = append(opts, "union="+strings.Join(names, "|"))
	}

	tag := fmt.Sprintf("tree:%q", strings.Join(opts, ","))
	if fd.Doc != "" {
		tag += fmt.Sprintf(" doc:%q", fd.Doc)
	}
	return reflect.StructTag(tag)
}

// formatLiteral renders a canonical default back into its tag literal form.
func formatLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return val
	case time.Duration:
		return val.String()
	case time.Time:
		return val.Format(time.RFC3339)
	case []byte:
		return string(val)
	case []any:
		return "[]"
	case map[string]any:
		return "{}"
	default:
		return fmt.Sprintf("%v", v)
	}
}
