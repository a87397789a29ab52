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

package modulix

import (
	"github.com/Modulix-OS/modulix-core-utils/internal/directwrite"
	"github.com/Modulix-OS/modulix-core-utils/internal/mutator"
)

// SetOption reads path, sets option to valueText (synthesising the
// binding and any enclosing attribute sets if it does not yet exist),
// and writes the result back to path. On PermissionDenied it retries
// through the configured elevated-write helper.
func SetOption(cfg *Config, path, option, valueText string) error {
	content, err := directwrite.Read(path)
	if err != nil {
		return err
	}
	out, err := mutator.SetOption(content, option, valueText, cfg.TabWidth)
	if err != nil {
		return err
	}
	return directwrite.Write(path, out, cfg.ElevatedWriteHelper)
}

// GetOption reads path and returns the value text of option. It fails
// with OptionNotFound if option is not materialised in the file.
func GetOption(path, option string) (string, error) {
	content, err := directwrite.Read(path)
	if err != nil {
		return "", err
	}
	return mutator.GetOption(content, option)
}

// SetOptionToDefault clears option from path (set_option_to_default in
// the external interface) and reports whether anything was removed.
func SetOptionToDefault(cfg *Config, path, option string) (bool, error) {
	content, err := directwrite.Read(path)
	if err != nil {
		return false, err
	}
	out, removed, err := mutator.ClearOption(content, option)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}
	return true, directwrite.Write(path, out, cfg.ElevatedWriteHelper)
}

// ListAdd appends elementText to the list at option in path, creating
// the list if option does not yet exist. If dedup is true and the
// element is already present, ListAdd succeeds and the content of path
// is unchanged (the same bytes are written back).
func ListAdd(cfg *Config, path, option, elementText string, dedup bool) error {
	content, err := directwrite.Read(path)
	if err != nil {
		return err
	}
	out, err := mutator.ListAdd(content, option, elementText, dedup, cfg.TabWidth)
	if err != nil {
		return err
	}
	return directwrite.Write(path, out, cfg.ElevatedWriteHelper)
}

// ListRemove removes the first occurrence of elementText from the list
// at option in path. A missing option or a missing element is a no-op
// success.
func ListRemove(cfg *Config, path, option, elementText string) error {
	content, err := directwrite.Read(path)
	if err != nil {
		return err
	}
	out, err := mutator.ListRemove(content, option, elementText)
	if err != nil {
		return err
	}
	return directwrite.Write(path, out, cfg.ElevatedWriteHelper)
}

// GetListElements returns the text of each element of the list at
// option in path.
func GetListElements(path, option string) ([]string, error) {
	content, err := directwrite.Read(path)
	if err != nil {
		return nil, err
	}
	return mutator.GetListElements(content, option)
}
