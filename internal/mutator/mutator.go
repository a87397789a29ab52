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

// Package mutator rewrites a configuration source buffer to set, clear,
// append to, or remove from an option, synthesising indentation and
// nested braces when the requested path does not yet exist. Every
// operation reparses the buffer fresh through the syntax and locator
// packages before mutating it; the tree is never reused across edits.
package mutator

import (
	"fmt"
	"strings"

	"github.com/Modulix-OS/modulix-core-utils/internal/dottedpath"
	"github.com/Modulix-OS/modulix-core-utils/internal/locator"
	"github.com/Modulix-OS/modulix-core-utils/internal/syntax"
	"github.com/Modulix-OS/modulix-core-utils/pkg/mxerrors"
)

// SetOption replaces the value of path in buf with valueText, or
// synthesises the binding (and any enclosing attribute sets) if path
// does not yet exist. tabWidth is the indentation unit used only when
// inserting new structure.
func SetOption(buf []byte, path string, valueText string, tabWidth int) ([]byte, error) {
	tree, err := syntax.Parse(buf)
	if err != nil {
		return nil, err
	}
	pos, err := locator.Locate(tree, path)
	if err != nil {
		return nil, err
	}

	switch p := pos.(type) {
	case locator.Existing:
		return spliceRange(buf, p.ValueRange.Start, p.ValueRange.End, valueText), nil

	case locator.NewInsertion:
		indent := p.IndentLevel
		if indent <= 0 {
			indent = 1
		}
		leading := countLeadingIndentRun(buf, p.InsertPos)
		block, _ := writeOption(dottedpath.Parse(p.ResidualPath), indent, valueText, tabWidth)
		begin := p.InsertPos - leading
		return spliceRange(buf, begin, p.InsertPos, block), nil

	default:
		return nil, mxerrors.New(mxerrors.InvalidFile, "locator returned neither Existing nor NewInsertion")
	}
}

// writeOption recursively composes the text for a residual path at the
// given nesting depth, following §4.3's single-segment / multi-segment
// split. It returns the composed text and the depth reached for the
// innermost binding (mirroring the original construction; callers of
// SetOption only need the text).
func writeOption(path dottedpath.Path, indent int, valueText string, tabWidth int) (string, int) {
	key := path[0]
	rest := path.TrimPrefix(1)

	if rest.Len() == 0 {
		prefix := fmt.Sprintf("%s%s = ", strings.Repeat(" ", tabWidth*indent), key)
		return fmt.Sprintf("%s%s;\n%s", prefix, valueText, strings.Repeat(" ", tabWidth*(indent-1))), indent
	}

	prefix := fmt.Sprintf("%s%s = {\n", strings.Repeat(" ", tabWidth*indent), key)
	inner, finalIndent := writeOption(rest, indent+1, valueText, tabWidth)
	return fmt.Sprintf("%s%s};\n%s", prefix, inner, strings.Repeat(" ", tabWidth*(indent-1))), finalIndent
}

// GetOption returns the value text of an existing binding at path. It
// fails with OptionNotFound if the locator returns a NewInsertion —
// get_option requires the option to already be materialised.
func GetOption(buf []byte, path string) (string, error) {
	tree, err := syntax.Parse(buf)
	if err != nil {
		return "", err
	}
	pos, err := locator.Locate(tree, path)
	if err != nil {
		return "", err
	}
	existing, ok := pos.(locator.Existing)
	if !ok {
		return "", mxerrors.New(mxerrors.OptionNotFound, path)
	}
	return string(buf[existing.ValueRange.Start:existing.ValueRange.End]), nil
}

// ClearOption erases an existing binding (set_option_to_default in the
// external interface) and reports whether anything was removed. A
// NewInsertion position is a no-op: ClearOption is idempotent, so a
// second call on an already-cleared path returns (buf, false, nil).
func ClearOption(buf []byte, path string) ([]byte, bool, error) {
	tree, err := syntax.Parse(buf)
	if err != nil {
		return nil, false, err
	}
	pos, err := locator.Locate(tree, path)
	if err != nil {
		return nil, false, err
	}

	existing, ok := pos.(locator.Existing)
	if !ok {
		return buf, false, nil
	}

	trimStart := trimWhitespaceRunBackward(buf, existing.PathRange.Start)
	out := spliceRange(buf, trimStart, existing.PathRange.End, "")
	return out, true, nil
}

// ListAdd appends elementText to the list at path, synthesising a fresh
// single-element list via SetOption if the option does not yet exist.
// If dedup is true and the element is already present, ListAdd succeeds
// without mutating buf.
func ListAdd(buf []byte, path string, elementText string, dedup bool, tabWidth int) ([]byte, error) {
	tree, err := syntax.Parse(buf)
	if err != nil {
		return nil, err
	}
	pos, err := locator.Locate(tree, path)
	if err != nil {
		return nil, err
	}

	switch p := pos.(type) {
	case locator.NewInsertion:
		depth := dottedpath.Parse(path).Len()
		listText := fmt.Sprintf("[\n%s%s\n%s]",
			strings.Repeat(" ", tabWidth*(depth+1)), elementText, strings.Repeat(" ", tabWidth*depth))
		return SetOption(buf, path, listText, tabWidth)

	case locator.Existing:
		valueText := string(buf[p.ValueRange.Start:p.ValueRange.End])
		if !isBracketedList(valueText) {
			return nil, mxerrors.New(mxerrors.NotAList, path)
		}

		if dedup {
			for _, elem := range listElementRanges(buf, p.ValueRange) {
				if string(buf[elem.Start:elem.End]) == elementText {
					return buf, nil
				}
			}
		}

		closeAbs := p.ValueRange.Start + strings.LastIndex(valueText, "]")
		var insertText string
		if isPrecededByNewline(buf, closeAbs) {
			insertText = fmt.Sprintf("%s%s\n%s",
				strings.Repeat(" ", tabWidth*(p.IndentLevel+1)), elementText, strings.Repeat(" ", tabWidth*p.IndentLevel))
		} else {
			insertText = fmt.Sprintf("\n%s%s\n%s",
				strings.Repeat(" ", tabWidth*(p.IndentLevel+1)), elementText, strings.Repeat(" ", tabWidth*p.IndentLevel))
		}
		return spliceRange(buf, closeAbs, closeAbs, insertText), nil

	default:
		return nil, mxerrors.New(mxerrors.InvalidFile, "locator returned neither Existing nor NewInsertion")
	}
}

// ListRemove removes the first occurrence of elementText from the list
// at path. A missing option or a missing element is a no-op success; a
// non-list existing option is NotAList. Removing the list's only element
// clears the option entirely (via ClearOption) rather than leaving an
// empty `[]`.
func ListRemove(buf []byte, path string, elementText string) ([]byte, error) {
	tree, err := syntax.Parse(buf)
	if err != nil {
		return nil, err
	}
	pos, err := locator.Locate(tree, path)
	if err != nil {
		return nil, err
	}

	existing, ok := pos.(locator.Existing)
	if !ok {
		return buf, nil
	}

	valueText := string(buf[existing.ValueRange.Start:existing.ValueRange.End])
	if !isBracketedList(valueText) {
		return nil, mxerrors.New(mxerrors.NotAList, path)
	}

	elements := listElementRanges(buf, existing.ValueRange)
	idx := -1
	for i, elem := range elements {
		if string(buf[elem.Start:elem.End]) == elementText {
			idx = i
			break
		}
	}
	if idx == -1 {
		return buf, nil
	}
	if len(elements) == 1 {
		out, _, err := ClearOption(buf, path)
		return out, err
	}

	target := elements[idx]
	trimStart := trimWhitespaceRunBackward(buf, target.Start)
	if trimStart <= existing.ValueRange.Start+1 {
		// the element opened right after '[': trim the run after it
		// instead, so two neighbouring elements don't get glued together.
		trimEnd := target.End
		for trimEnd < existing.ValueRange.End-1 && isSpaceByte(buf[trimEnd]) {
			trimEnd++
		}
		return spliceRange(buf, target.Start, trimEnd, ""), nil
	}
	return spliceRange(buf, trimStart, target.End, ""), nil
}

// GetListElements returns the text of each element of the list at path.
func GetListElements(buf []byte, path string) ([]string, error) {
	tree, err := syntax.Parse(buf)
	if err != nil {
		return nil, err
	}
	pos, err := locator.Locate(tree, path)
	if err != nil {
		return nil, err
	}
	existing, ok := pos.(locator.Existing)
	if !ok {
		return nil, mxerrors.New(mxerrors.OptionNotFound, path)
	}
	valueText := string(buf[existing.ValueRange.Start:existing.ValueRange.End])
	if !isBracketedList(valueText) {
		return nil, mxerrors.New(mxerrors.NotAList, path)
	}
	var out []string
	for _, elem := range listElementRanges(buf, existing.ValueRange) {
		out = append(out, string(buf[elem.Start:elem.End]))
	}
	return out, nil
}

func isBracketedList(valueText string) bool {
	trimmed := strings.TrimSpace(valueText)
	return strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")
}

func listElementRanges(buf []byte, valueRange syntax.Range) []syntax.Range {
	start := valueRange.Start + strings.Index(string(buf[valueRange.Start:valueRange.End]), "[") + 1
	end := valueRange.Start + strings.LastIndex(string(buf[valueRange.Start:valueRange.End]), "]")

	var ranges []syntax.Range
	i := start
	for i < end {
		for i < end && isSpaceByte(buf[i]) {
			i++
		}
		if i >= end {
			break
		}
		tokStart := i
		for i < end && !isSpaceByte(buf[i]) {
			i++
		}
		ranges = append(ranges, syntax.Range{Start: tokStart, End: i})
	}
	return ranges
}

// countLeadingIndentRun counts the whitespace bytes (spaces and tabs
// only) immediately preceding pos, stopping at the first newline or
// non-whitespace byte without consuming it.
func countLeadingIndentRun(buf []byte, pos int) int {
	n := 0
	for pos-1-n >= 0 {
		c := buf[pos-1-n]
		if c == ' ' || c == '\t' {
			n++
			continue
		}
		break
	}
	return n
}

// trimWhitespaceRunBackward returns the start offset after trimming any
// contiguous run of spaces, tabs, and newlines immediately preceding pos.
func trimWhitespaceRunBackward(buf []byte, pos int) int {
	for pos > 0 && isSpaceByte(buf[pos-1]) {
		pos--
	}
	return pos
}

func isPrecededByNewline(buf []byte, pos int) bool {
	i := pos - 1
	for i >= 0 {
		c := buf[i]
		if c == '\n' {
			return true
		}
		if c == ' ' || c == '\t' {
			i--
			continue
		}
		break
	}
	return false
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// spliceRange returns a new buffer with buf[start:end] replaced by
// replacement. It never mutates buf in place so callers holding the
// original slice (e.g. a pristine snapshot) are unaffected.
func spliceRange(buf []byte, start, end int, replacement string) []byte {
	out := make([]byte, 0, len(buf)-(end-start)+len(replacement))
	out = append(out, buf[:start]...)
	out = append(out, replacement...)
	out = append(out, buf[end:]...)
	return out
}
