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
	"errors"
	"fmt"
	"strings"
)

// Static errors for registry operations.
var (
	ErrDuplicateVersion  = errors.New("version already registered for this name")
	ErrAlreadyRegistered = errors.New("type already registered")
	ErrUnknownType       = errors.New("no type registered under this name")
	ErrUnknownVersion    = errors.New("no such version registered for this name")
	ErrInvalidVersion    = errors.New("version must be positive")
)

// NameResolutionError reports an ambiguous short name: more than one
// registered type shares it, so resolution requires the package-qualified
// name.
type NameResolutionError struct {
	Name    string   // The ambiguous short name
	Matches []string // Qualified names that share it, sorted
}

// Error returns a formatted error message.
func (e *NameResolutionError) Error() string {
	return fmt.Sprintf("ambiguous name %q: matches %s", e.Name, strings.Join(e.Matches, ", "))
}
