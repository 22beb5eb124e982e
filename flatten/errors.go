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
	"errors"
	"fmt"
)

// Static errors for flatten and merge operations.
var (
	// ErrSelfReference means a record type reaches itself through its own
	// fields; a flat view of such a type would need infinitely many fields.
	ErrSelfReference = errors.New("record type refers to itself")

	// ErrRecursionLimit means nesting exceeded the configured depth.
	ErrRecursionLimit = errors.New("nesting exceeds recursion limit")

	// ErrUnresolvedType means a field's concrete type is only known at
	// decode time (a dynamic record), so no static flat field can represent
	// it.
	ErrUnresolvedType = errors.New("cannot flatten a dynamic field")

	// ErrDuplicateField means two leaves would share a name in the flat
	// namespace.
	ErrDuplicateField = errors.New("duplicate field name")

	// ErrFieldConflict means two merged types declare the same field name
	// with different types.
	ErrFieldConflict = errors.New("conflicting field declarations")

	// ErrSameType means the same record type was listed twice in a merge.
	ErrSameType = errors.New("same type listed twice")
)

// Error reports a failed flatten or merge with the offending type and field.
type Error struct {
	Type  string
	Field string
	Err   error
}

// Error returns a formatted error message.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("flatten %s: field %q: %v", e.Type, e.Field, e.Err)
	}
	return fmt.Sprintf("flatten %s: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Err
}
