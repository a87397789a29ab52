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

package locator

import (
	"github.com/Modulix-OS/modulix-core-utils/internal/dottedpath"
	"github.com/Modulix-OS/modulix-core-utils/internal/syntax"
	"github.com/Modulix-OS/modulix-core-utils/pkg/mxerrors"
)

// Locate walks tree for path and returns a Position. It never returns
// absence: a syntactically valid tree always yields either an Existing
// for the longest fully matched path, or a NewInsertion at the deepest
// enclosing attribute set. It returns an error only if tree's root is
// not a recognisable attribute set.
func Locate(tree *syntax.Tree, path string) (Position, error) {
	if tree == nil || tree.Root == nil || tree.Root.Kind != syntax.KindAttrSet {
		return nil, mxerrors.New(mxerrors.InvalidFile, "root is not an attribute set")
	}
	return locateInSet(tree, tree.Root, dottedpath.Parse(path), 1), nil
}

// locateInSet implements the ATTR_SET case of §4.1: recurse into every
// binding, let an exact match short-circuit immediately, and otherwise
// keep the NewInsertion with the shortest residual path.
func locateInSet(tree *syntax.Tree, set *syntax.Node, path dottedpath.Path, indentLevel int) Position {
	var best *NewInsertion

	for _, child := range set.Children {
		if child.Kind != syntax.KindAttrPathValue {
			continue
		}
		pos := locateInBinding(tree, child, path, indentLevel)
		if pos == nil {
			continue
		}
		if existing, ok := pos.(Existing); ok {
			return existing
		}
		insertion := pos.(NewInsertion)
		if best == nil || len(dottedpath.Parse(insertion.ResidualPath)) < len(dottedpath.Parse(best.ResidualPath)) {
			best = &insertion
		}
	}

	if best != nil {
		return *best
	}
	return NewInsertion{
		InsertPos:    set.Range.End - 1,
		ResidualPath: path.String(),
		IndentLevel:  indentLevel,
	}
}

// locateInBinding implements the ATTRPATH_VALUE case of §4.1.
func locateInBinding(tree *syntax.Tree, binding *syntax.Node, path dottedpath.Path, indentLevel int) Position {
	pathNode := binding.Children[0]
	valueNode := binding.Children[1]

	segments := dottedpath.Path(tree.Segments(pathNode))
	if !path.HasPrefix(segments) {
		return nil
	}
	exact := segments.Len() == path.Len()

	switch valueNode.Kind {
	case syntax.KindAttrSet:
		if exact {
			return Existing{
				PathRange:   binding.Range,
				ValueRange:  valueNode.Range,
				IndentLevel: indentLevel,
			}
		}
		residual := path.TrimPrefix(segments.Len())
		return locateInSet(tree, valueNode, residual, indentLevel+1)

	case syntax.KindWith:
		body := syntax.WithBody(valueNode)
		if body == nil || body.Kind != syntax.KindList {
			return nil
		}
		if exact {
			return Existing{
				PathRange:   binding.Range,
				ValueRange:  body.Range,
				IndentLevel: indentLevel,
			}
		}
		return nil

	default:
		if exact {
			return Existing{
				PathRange:   binding.Range,
				ValueRange:  valueNode.Range,
				IndentLevel: indentLevel,
			}
		}
		// A strict prefix matched but the value is a leaf: the path
		// cannot be extended further here. Fall back to a NewInsertion
		// at an enclosing set.
		return nil
	}
}
