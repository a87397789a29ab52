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

// Package syntax is a read-only, byte-range-preserving view over the
// subset of a lazy-functional configuration language that the locator and
// mutator need: attribute sets, dotted bindings, lists of simple tokens,
// with-expressions, and leaf values (identifiers, literals, strings, and
// path tokens).
//
// This is deliberately not a general-purpose parser for the language: it
// performs no semantic evaluation, no pretty-printing, and does not
// understand string interpolation, function application, or `let`
// expressions. A single whitespace-free token it cannot otherwise classify
// is kept as an opaque leaf with its original byte range; a value made of
// several tokens (a function application, an operator expression, a let
// block) is rejected as InvalidFile.
package syntax

// Kind identifies the grammar production a Node represents.
type Kind int

const (
	// KindAttrSet is a `{ ... }` block holding zero or more
	// AttrPathValue children.
	KindAttrSet Kind = iota
	// KindAttrPathValue is a `key.path = value;` binding. Its first
	// child is the KindAttrPath, its second is the value node.
	KindAttrPathValue
	// KindAttrPath is the dotted key path of a binding. Its children
	// are KindIdent or KindString segment nodes.
	KindAttrPath
	// KindList is a `[ ... ]` block of whitespace-separated simple
	// element tokens.
	KindList
	// KindWith is a `with EXPR; BODY` expression. Its last child is
	// the body; everything before it is the with-target.
	KindWith
	// KindIdent is a bare identifier token.
	KindIdent
	// KindLiteral is a number, boolean, or null token.
	KindLiteral
	// KindString is a double-quoted string token, quotes included in
	// its range.
	KindString
	// KindPathRelative is a `./...`-style path literal.
	KindPathRelative
	// KindPathAbsolute is a `/...`-style path literal.
	KindPathAbsolute
	// KindPathHome is a `~/...`-style path literal.
	KindPathHome
	// KindPathSearch is a `<...>`-style search-path literal.
	KindPathSearch
)

// String returns a human-readable grammar production name, used in error
// messages and test failure output.
func (k Kind) String() string {
	switch k {
	case KindAttrSet:
		return "ATTR_SET"
	case KindAttrPathValue:
		return "ATTRPATH_VALUE"
	case KindAttrPath:
		return "ATTRPATH"
	case KindList:
		return "LIST"
	case KindWith:
		return "WITH"
	case KindIdent:
		return "IDENT"
	case KindLiteral:
		return "LITERAL"
	case KindString:
		return "STRING"
	case KindPathRelative:
		return "PATH_RELATIVE"
	case KindPathAbsolute:
		return "PATH_ABSOLUTE"
	case KindPathHome:
		return "PATH_HOME"
	case KindPathSearch:
		return "PATH_SEARCH"
	default:
		return "UNKNOWN"
	}
}

// Range is a half-open byte range [Start, End) into a Tree's source.
type Range struct {
	Start int
	End   int
}

// Len reports the number of bytes the range spans.
func (r Range) Len() int {
	return r.End - r.Start
}

// Node is one element of the syntax tree. Every Node carries its exact
// byte range from the source it was parsed from; no text is normalised,
// trimmed, or re-encoded.
type Node struct {
	Kind     Kind
	Range    Range
	Children []*Node

	// Literal is the exact source text of a leaf node (KindIdent,
	// KindString segment, KindLiteral, or a path kind). It is empty for
	// composite nodes (KindAttrSet, KindAttrPathValue, KindAttrPath,
	// KindList, KindWith); use Tree.Text for those.
	Literal string
}

// Tree is a parsed, read-only syntax tree together with the exact source
// bytes it was parsed from. The tree is transient by design: callers
// reparse after every mutation rather than patching offsets in place.
type Tree struct {
	Source []byte
	Root   *Node
}

// Text returns the exact source slice a node's range covers.
func (t *Tree) Text(n *Node) string {
	return string(t.Source[n.Range.Start:n.Range.End])
}

// Segments returns the literal text of each child of an KindAttrPath
// node, in order, quotes included for quoted segments. It does not check
// n.Kind: for any other node it returns the Literal of each child.
func (t *Tree) Segments(n *Node) []string {
	segments := make([]string, len(n.Children))
	for i, child := range n.Children {
		segments[i] = child.Literal
	}
	return segments
}

// WithBody returns the final child of a KindWith node — the expression
// the with-binding scopes over — or nil if the node has no children.
func WithBody(n *Node) *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}
