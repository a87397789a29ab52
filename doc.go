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

// Package modulix is the public, programmatic surface of the core
// editing engine: locating a dotted option path inside a configuration
// file, rewriting it, and — when several files must change together —
// coordinating that change with version control and an external rebuild.
//
// Two families of entry points cover the same six operations
// (set/get/clear an option, add/remove/list a list element):
//
//   - the direct functions (SetOption, GetOption, SetOptionToDefault,
//     ListAdd, ListRemove, GetListElements) read and write a path
//     immediately, falling back to an elevated-write helper on
//     PermissionDenied. They are for one-off edits outside a
//     transaction.
//   - the transactional variants take a *Transaction and a *ManagedFile
//     obtained from Transaction.Attach, and operate purely on the
//     attached file's in-memory buffer until the transaction commits.
//
// A caller wiring up a higher-level convenience — for example, declaring
// a filesystem mount the way the out-of-scope "filesystem entry" helper
// does — composes these primitives against a shared prefix:
//
//	tx := modulix.NewTransaction(cfg, "declare /data mount", logger)
//	if err := tx.Begin(); err != nil { ... }
//	mf, err := tx.Attach(filepath.Join(cfg.Directory, "configuration.nix"))
//	prefix := `fileSystems."/data"`
//	_ = modulix.TxSetOption(mf, prefix+".device", `"/dev/disk/by-label/data"`, cfg.TabWidth)
//	_ = modulix.TxSetOption(mf, prefix+".fsType", `"ext4"`, cfg.TabWidth)
//	_, _ = modulix.TxSetOptionToDefault(mf, prefix+".autoResize")
//	_ = modulix.TxListAdd(mf, prefix+".options", `"noatime"`, true, cfg.TabWidth)
//	err = tx.Commit(ctx)
//
// That composition is the clearest end-to-end exercise of the core
// without this package becoming the filesystem-entry helper itself,
// which spec §1 keeps as an external collaborator.
package modulix
