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
	"errors"
	"fmt"
	"strings"
)

// Static errors for conversion operations.
var (
	ErrOutMustBePointer = errors.New("out must be a pointer to struct")
	ErrOutPointerNil    = errors.New("out pointer is nil")
	ErrTypeMismatch     = errors.New("value does not match expected type")
	ErrMissingField     = errors.New("missing required field")
	ErrUnionExhausted   = errors.New("no union alternative matched")
	ErrLengthMismatch   = errors.New("tuple length mismatch")
	ErrNotInEnum        = errors.New("value is not an enum member")
	ErrMaxDepthExceeded = errors.New("exceeded maximum nesting depth")
	ErrNoResolver       = errors.New("no type resolver configured")
	ErrUnsupportedType  = errors.New("unsupported type")

	// Describe-time errors (programming-time defects in a record declaration).
	ErrInvalidTag      = errors.New("invalid struct tag")
	ErrInvalidDefault  = errors.New("invalid default value")
	ErrDuplicateKey    = errors.New("duplicate field name or alias")
	ErrReservedKey     = errors.New("reserved tree key")
	ErrRequiredDefault = errors.New("field cannot be both required and defaulted")
)

// ConversionError reports a failed decode with field-level context.
// It names the offending raw value, the expected type descriptor, and the
// path to the failing field.
//
// Use [errors.As] to check for ConversionError:
//
//	var convErr *structmap.ConversionError
//	if errors.As(err, &convErr) {
//	    fmt.Printf("Path: %s, Expected: %s\n", convErr.Path, convErr.Type)
//	}
type ConversionError struct {
	Path  string          // Dot-separated field path (e.g., "address.city")
	Value any             // The tree value that failed conversion
	Type  *TypeDescriptor // Expected type descriptor
	Err   error           // Underlying error (one of the sentinels above)
}

// Error returns a formatted error message with the offending value,
// the expected type, and the field path.
func (e *ConversionError) Error() string {
	typeName := "unknown"
	if e.Type != nil {
		typeName = e.Type.String()
	}
	if errors.Is(e.Err, ErrMissingField) {
		if e.Path != "" {
			return fmt.Sprintf("missing required field %q (%s)", e.Path, typeName)
		}
		return fmt.Sprintf("missing required field (%s)", typeName)
	}
	if e.Path != "" {
		return fmt.Sprintf("cannot convert %#v to %s at %q: %v", e.Value, typeName, e.Path, e.Err)
	}
	return fmt.Sprintf("cannot convert %#v to %s: %v", e.Value, typeName, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// convErr builds a ConversionError for the given path, value, and descriptor.
func convErr(path string, val any, d *TypeDescriptor, err error) *ConversionError {
	return &ConversionError{Path: path, Value: val, Type: d, Err: err}
}

// UnknownFieldError is returned by strict decoding when the tree contains
// keys with no corresponding field on the target record type.
type UnknownFieldError struct {
	Record string   // Record type name
	Fields []string // Unknown tree keys, sorted
}

// Error returns a formatted error message.
func (e *UnknownFieldError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("unknown field for %s: %s", e.Record, e.Fields[0])
	}
	return fmt.Sprintf("unknown fields for %s: %s", e.Record, strings.Join(e.Fields, ", "))
}

// DescribeError reports an invalid record declaration discovered while
// building a record type descriptor. These are programming-time defects,
// not data errors, so MustDescribe panics on them.
type DescribeError struct {
	Type  string // Go type being described
	Field string // Offending field, if any
	Err   error
}

// Error returns a formatted error message.
func (e *DescribeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("describe %s: field %q: %v", e.Type, e.Field, e.Err)
	}
	return fmt.Sprintf("describe %s: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *DescribeError) Unwrap() error {
	return e.Err
}
