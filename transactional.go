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
	"log/slog"

	"github.com/Modulix-OS/modulix-core-utils/internal/managedfile"
	"github.com/Modulix-OS/modulix-core-utils/internal/mutator"
	"github.com/Modulix-OS/modulix-core-utils/internal/mxconfig"
	"github.com/Modulix-OS/modulix-core-utils/internal/transaction"
)

// Config is the host-overridable set of constants described in spec §6:
// the configuration directory, lock paths, author identity, tab width,
// rebuild command, and elevated-write helper.
type Config = mxconfig.Config

// DefaultConfig returns the literal defaults named in spec §6.
func DefaultConfig() *Config {
	return mxconfig.DefaultConfig()
}

// Transaction groups one or more attached files under a single
// version-controlled commit and rebuild attempt. See package
// transaction for the full state machine.
type Transaction = transaction.Transaction

// ManagedFile owns a single attached file's handle, lock, and buffers.
type ManagedFile = managedfile.ManagedFile

// NewTransaction constructs an idle Transaction. description becomes
// the eventual version-control commit message.
func NewTransaction(cfg *Config, description string, logger *slog.Logger) *Transaction {
	return transaction.New(cfg, description, logger)
}

// TxSetOption applies set_option to mf's in-memory buffer. The change is
// not visible on disk until the owning Transaction commits.
func TxSetOption(mf *ManagedFile, option, valueText string, tabWidth int) error {
	return txMutate(mf, func(buf []byte) ([]byte, error) {
		return mutator.SetOption(buf, option, valueText, tabWidth)
	})
}

// TxGetOption returns the value text of option from mf's current
// in-memory buffer, reflecting every edit already applied within the
// transaction.
func TxGetOption(mf *ManagedFile, option string) (string, error) {
	buf, err := mf.CurrentBytes()
	if err != nil {
		return "", err
	}
	return mutator.GetOption(buf, option)
}

// TxSetOptionToDefault clears option from mf's in-memory buffer and
// reports whether anything was removed.
func TxSetOptionToDefault(mf *ManagedFile, option string) (bool, error) {
	buf, err := mf.CurrentBytes()
	if err != nil {
		return false, err
	}
	out, removed, err := mutator.ClearOption(buf, option)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}
	return true, mf.SetCurrentBytes(out)
}

// TxListAdd appends elementText to the list at option in mf's in-memory
// buffer, creating the list if option does not yet exist.
func TxListAdd(mf *ManagedFile, option, elementText string, dedup bool, tabWidth int) error {
	return txMutate(mf, func(buf []byte) ([]byte, error) {
		return mutator.ListAdd(buf, option, elementText, dedup, tabWidth)
	})
}

// TxListRemove removes the first occurrence of elementText from the
// list at option in mf's in-memory buffer.
func TxListRemove(mf *ManagedFile, option, elementText string) error {
	return txMutate(mf, func(buf []byte) ([]byte, error) {
		return mutator.ListRemove(buf, option, elementText)
	})
}

// TxGetListElements returns the text of each element of the list at
// option in mf's current in-memory buffer.
func TxGetListElements(mf *ManagedFile, option string) ([]string, error) {
	buf, err := mf.CurrentBytes()
	if err != nil {
		return nil, err
	}
	return mutator.GetListElements(buf, option)
}

// txMutate reads mf's current buffer, applies fn, and installs the
// result back onto mf — the shared shape of every mutating transactional
// entry point.
func txMutate(mf *ManagedFile, fn func([]byte) ([]byte, error)) error {
	buf, err := mf.CurrentBytes()
	if err != nil {
		return err
	}
	out, err := fn(buf)
	if err != nil {
		return err
	}
	return mf.SetCurrentBytes(out)
}
