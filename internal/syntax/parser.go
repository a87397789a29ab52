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
	"strings"

	"github.com/Modulix-OS/modulix-core-utils/pkg/mxerrors"
)

// Parse builds a Tree from src. The root must be a single top-level
// attribute set; anything else (including an empty or truncated file)
// fails with mxerrors.InvalidFile. No byte is normalised: every Node's
// Range is a slice of src, untouched.
//
// This hand-written recursive-descent parser only recognises the subset
// of the language the locator and mutator operate on (§4.1/§4.3): it has
// no notion of string interpolation, function application, let bindings,
// or operators. Any other single whitespace-free token in a value
// position becomes an opaque leaf; a value of several tokens is rejected
// with mxerrors.InvalidFile.
func Parse(src []byte) (*Tree, error) {
	p := &parser{src: src}
	p.skipTrivia()
	if p.pos >= len(p.src) || p.src[p.pos] != '{' {
		return nil, mxerrors.New(mxerrors.InvalidFile, "expected a top-level attribute set")
	}
	root, err := p.parseAttrSet()
	if err != nil {
		return nil, err
	}
	return &Tree{Source: src, Root: root}, nil
}

type parser struct {
	src []byte
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) skipTrivia() {
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case c == '#':
			for !p.eof() && p.src[p.pos] != '\n' {
				p.pos++
			}
		case c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*':
			p.pos += 2
			for p.pos+1 < len(p.src) && !(p.src[p.pos] == '*' && p.src[p.pos+1] == '/') {
				p.pos++
			}
			if p.pos+1 < len(p.src) {
				p.pos += 2
			} else {
				p.pos = len(p.src)
			}
		default:
			return
		}
	}
}

func errInvalid(msg string) error {
	return mxerrors.New(mxerrors.InvalidFile, msg)
}

// parseAttrSet consumes a `{ ... }` block. p.pos must already be at `{`.
func (p *parser) parseAttrSet() (*Node, error) {
	start := p.pos
	p.pos++ // '{'

	var children []*Node
	for {
		p.skipTrivia()
		if p.eof() {
			return nil, errInvalid("unterminated attribute set")
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return &Node{Kind: KindAttrSet, Range: Range{start, p.pos}, Children: children}, nil
		}
		binding, err := p.parseBinding()
		if err != nil {
			return nil, err
		}
		children = append(children, binding)
	}
}

func (p *parser) parseBinding() (*Node, error) {
	path, err := p.parseAttrPath()
	if err != nil {
		return nil, err
	}

	p.skipTrivia()
	if p.eof() || p.src[p.pos] != '=' {
		return nil, errInvalid("expected '=' after attribute path")
	}
	p.pos++

	p.skipTrivia()
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	p.skipTrivia()
	if p.eof() || p.src[p.pos] != ';' {
		return nil, errInvalid("expected ';' after binding value")
	}
	p.pos++

	return &Node{
		Kind:     KindAttrPathValue,
		Range:    Range{path.Range.Start, p.pos},
		Children: []*Node{path, value},
	}, nil
}

func (p *parser) parseAttrPath() (*Node, error) {
	start := p.pos
	seg, err := p.parseSegment()
	if err != nil {
		return nil, err
	}
	segments := []*Node{seg}

	for {
		mark := p.pos
		p.skipTrivia()
		if !p.eof() && p.src[p.pos] == '.' {
			p.pos++
			p.skipTrivia()
			next, err := p.parseSegment()
			if err != nil {
				return nil, err
			}
			segments = append(segments, next)
			continue
		}
		p.pos = mark
		break
	}

	return &Node{
		Kind:     KindAttrPath,
		Range:    Range{start, segments[len(segments)-1].Range.End},
		Children: segments,
	}, nil
}

func (p *parser) parseSegment() (*Node, error) {
	if p.eof() {
		return nil, errInvalid("expected an attribute path segment")
	}
	if p.src[p.pos] == '"' {
		return p.parseQuotedString()
	}
	start := p.pos
	for !p.eof() && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, errInvalid("expected an attribute path segment")
	}
	return &Node{Kind: KindIdent, Range: Range{start, p.pos}, Literal: string(p.src[start:p.pos])}, nil
}

func (p *parser) parseQuotedString() (*Node, error) {
	start := p.pos
	p.pos++ // opening quote
	for {
		if p.eof() {
			return nil, errInvalid("unterminated quoted string")
		}
		c := p.src[p.pos]
		if c == '\\' && p.pos+1 < len(p.src) {
			p.pos += 2
			continue
		}
		p.pos++
		if c == '"' {
			break
		}
	}
	return &Node{Kind: KindString, Range: Range{start, p.pos}, Literal: string(p.src[start:p.pos])}, nil
}

func (p *parser) parseValue() (*Node, error) {
	if p.eof() {
		return nil, errInvalid("expected a value")
	}

	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseAttrSet()
	case c == '[':
		return p.parseList()
	case c == '"':
		return p.parseQuotedString()
	case isIdentStartByte(c):
		if p.peekKeyword("with") {
			return p.parseWith()
		}
		return p.parseLeafToken(";")
	default:
		return p.parseLeafToken(";")
	}
}

func (p *parser) peekKeyword(kw string) bool {
	end := p.pos + len(kw)
	if end > len(p.src) || string(p.src[p.pos:end]) != kw {
		return false
	}
	if end < len(p.src) && isIdentByte(p.src[end]) {
		return false
	}
	return true
}

func (p *parser) parseWith() (*Node, error) {
	start := p.pos
	p.pos += len("with")

	p.skipTrivia()
	target, err := p.parseLeafToken(";")
	if err != nil {
		return nil, err
	}

	p.skipTrivia()
	if p.eof() || p.src[p.pos] != ';' {
		return nil, errInvalid("expected ';' after with-target")
	}
	p.pos++

	p.skipTrivia()
	body, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	return &Node{
		Kind:     KindWith,
		Range:    Range{start, body.Range.End},
		Children: []*Node{target, body},
	}, nil
}

func (p *parser) parseList() (*Node, error) {
	start := p.pos
	p.pos++ // '['

	var children []*Node
	for {
		p.skipTrivia()
		if p.eof() {
			return nil, errInvalid("unterminated list")
		}
		if p.src[p.pos] == ']' {
			p.pos++
			return &Node{Kind: KindList, Range: Range{start, p.pos}, Children: children}, nil
		}
		var elem *Node
		var err error
		if p.src[p.pos] == '"' {
			elem, err = p.parseQuotedString()
		} else {
			elem, err = p.parseLeafToken("]")
		}
		if err != nil {
			return nil, err
		}
		children = append(children, elem)
	}
}

// parseLeafToken scans a whitespace-delimited opaque token and classifies
// it as a literal, a path, or a bare identifier reference. stopExtra
// names additional bytes (beyond whitespace) that terminate the token,
// so a binding value stops at ';' and a list element stops at ']'.
func (p *parser) parseLeafToken(stopExtra string) (*Node, error) {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if isSpaceByte(c) || strings.IndexByte(stopExtra, c) >= 0 {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return nil, errInvalid("expected a value token")
	}
	text := string(p.src[start:p.pos])
	return &Node{Kind: classifyLeaf(text), Range: Range{start, p.pos}, Literal: text}, nil
}

func classifyLeaf(text string) Kind {
	switch text {
	case "true", "false", "null":
		return KindLiteral
	}
	if isNumeric(text) {
		return KindLiteral
	}
	switch {
	case strings.HasPrefix(text, "./") || strings.HasPrefix(text, "../"):
		return KindPathRelative
	case strings.HasPrefix(text, "~/"):
		return KindPathHome
	case strings.HasPrefix(text, "<") && strings.HasSuffix(text, ">"):
		return KindPathSearch
	case strings.HasPrefix(text, "/"):
		return KindPathAbsolute
	default:
		return KindIdent
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '-' {
		i++
	}
	if i == len(s) {
		return false
	}
	sawDigit := false
	sawDot := false
	for ; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
			sawDigit = true
		case s[i] == '.' && !sawDot:
			sawDot = true
		default:
			return false
		}
	}
	return sawDigit
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStartByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentByte(c byte) bool {
	return isIdentStartByte(c) || (c >= '0' && c <= '9') || c == '\'' || c == '-'
}
