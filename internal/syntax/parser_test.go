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

package syntax

import (
	"testing"

	"github.com/Modulix-OS/modulix-core-utils/pkg/mxerrors"
)

func TestParse_SimpleBinding(t *testing.T) {
	tree, err := Parse([]byte("{ enable = true; }"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tree.Root.Kind != KindAttrSet {
		t.Fatalf("Root.Kind = %v, want ATTR_SET", tree.Root.Kind)
	}
	if len(tree.Root.Children) != 1 {
		t.Fatalf("len(Root.Children) = %d, want 1", len(tree.Root.Children))
	}

	binding := tree.Root.Children[0]
	if binding.Kind != KindAttrPathValue {
		t.Fatalf("binding.Kind = %v, want ATTRPATH_VALUE", binding.Kind)
	}

	path := binding.Children[0]
	if got := tree.Segments(path); len(got) != 1 || got[0] != "enable" {
		t.Fatalf("Segments() = %v, want [enable]", got)
	}

	value := binding.Children[1]
	if value.Kind != KindLiteral || tree.Text(value) != "true" {
		t.Fatalf("value = %v %q, want LITERAL true", value.Kind, tree.Text(value))
	}
}

func TestParse_DottedPathAndNestedSet(t *testing.T) {
	tree, err := Parse([]byte(`{ services.nginx.enable = true; services = { openssh.enable = true; }; }`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tree.Root.Children) != 2 {
		t.Fatalf("len(Root.Children) = %d, want 2", len(tree.Root.Children))
	}

	first := tree.Root.Children[0]
	if got := tree.Segments(first.Children[0]); len(got) != 3 {
		t.Fatalf("Segments() = %v, want 3 segments", got)
	}

	second := tree.Root.Children[1]
	nested := second.Children[1]
	if nested.Kind != KindAttrSet {
		t.Fatalf("nested value Kind = %v, want ATTR_SET", nested.Kind)
	}
	if len(nested.Children) != 1 {
		t.Fatalf("len(nested.Children) = %d, want 1", len(nested.Children))
	}
}

func TestParse_List(t *testing.T) {
	tree, err := Parse([]byte("{ xs = [ a b c ]; }"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	list := tree.Root.Children[0].Children[1]
	if list.Kind != KindList {
		t.Fatalf("value.Kind = %v, want LIST", list.Kind)
	}
	if len(list.Children) != 3 {
		t.Fatalf("len(list.Children) = %d, want 3", len(list.Children))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got := tree.Text(list.Children[i]); got != want {
			t.Errorf("list.Children[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestParse_WithWrappingList(t *testing.T) {
	tree, err := Parse([]byte("{ xs = with pkgs; [ a b ]; }"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	with := tree.Root.Children[0].Children[1]
	if with.Kind != KindWith {
		t.Fatalf("value.Kind = %v, want WITH", with.Kind)
	}
	body := WithBody(with)
	if body.Kind != KindList {
		t.Fatalf("WithBody().Kind = %v, want LIST", body.Kind)
	}
}

func TestParse_QuotedSegment(t *testing.T) {
	tree, err := Parse([]byte(`{ "services.nginx".enable = true; }`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	path := tree.Root.Children[0].Children[0]
	segments := tree.Segments(path)
	if len(segments) != 2 || segments[0] != `"services.nginx"` {
		t.Fatalf("Segments() = %v, want [\"services.nginx\" enable]", segments)
	}
}

func TestParse_PathLiteralValue(t *testing.T) {
	tree, err := Parse([]byte("{ x = ./foo.nix; }"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	value := tree.Root.Children[0].Children[1]
	if value.Kind != KindPathRelative {
		t.Fatalf("value.Kind = %v, want PATH_RELATIVE", value.Kind)
	}
}

func TestParse_RejectsNonAttrSetRoot(t *testing.T) {
	_, err := Parse([]byte("enable = true;"))
	if !mxerrors.Is(err, mxerrors.InvalidFile) {
		t.Fatalf("Parse() error = %v, want InvalidFile", err)
	}
}

func TestParse_RejectsUnterminatedSet(t *testing.T) {
	_, err := Parse([]byte("{ enable = true; "))
	if !mxerrors.Is(err, mxerrors.InvalidFile) {
		t.Fatalf("Parse() error = %v, want InvalidFile", err)
	}
}

func TestParse_PreservesCommentsOutsideRanges(t *testing.T) {
	src := "{ # a comment\n enable = true; }"
	tree, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	binding := tree.Root.Children[0]
	if tree.Text(binding) != "enable = true;" {
		t.Fatalf("Text(binding) = %q, want %q", tree.Text(binding), "enable = true;")
	}
}
