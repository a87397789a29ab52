// Copyright 2025 Tom Barlow
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

// Package locator maps a dotted option path against a parsed syntax tree
// to a Position: either the byte ranges of an existing binding, or an
// insertion point plus the residual path still to be materialised.
package locator

import "github.com/Modulix-OS/modulix-core-utils/internal/syntax"

// Position is a sum type: it is either an Existing or a NewInsertion,
// never both and never neither. The two shapes dispatch differently at
// the mutator (replace value bytes vs. synthesise nested braces), so
// Position is modelled as an interface with an unexported marker method
// rather than a single struct with optional fields.
type Position interface {
	isPosition()
}

// Existing means the option is already materialised in the source.
type Existing struct {
	// PathRange covers the whole `key = value;` binding, start to end
	// including the trailing semicolon. Useful for deletion.
	PathRange syntax.Range
	// ValueRange covers only the value bytes. Useful for replacement.
	ValueRange syntax.Range
	// IndentLevel is the nesting depth of the attribute set the binding
	// lives in directly (root = 1).
	IndentLevel int
}

func (Existing) isPosition() {}

// NewInsertion means the option does not (fully) exist.
type NewInsertion struct {
	// InsertPos is the byte offset immediately before the closing '}'
	// of the deepest attribute set that matched a proper prefix of the
	// requested path.
	InsertPos int
	// ResidualPath is the unmatched suffix of the requested path,
	// dot-joined.
	ResidualPath string
	// IndentLevel is the nesting depth of that enclosing set.
	IndentLevel int
}

func (NewInsertion) isPosition() {}
