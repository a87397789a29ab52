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
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/Modulix-OS/modulix-core-utils/pkg/mxerrors"
)

func newTestTxConfig(t *testing.T, dir string) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Directory = dir
	cfg.Locks.Build = filepath.Join(dir, "build.lock")
	cfg.Locks.Queue = filepath.Join(dir, "queue.lock")
	cfg.Rebuild.Command = "true"
	return cfg
}

func initTxRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	return dir
}

// commitTxFile records the already-written file name in a commit, so the
// working tree is clean when Begin checks it.
func commitTxFile(t *testing.T, dir, name string) {
	t.Helper()
	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() error = %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("Add(%s) error = %v", name, err)
	}
	sig := &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()}
	if _, err := wt.Commit("fixture", &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
}

func TestTransactionalFacade_CommitsComposedEdits(t *testing.T) {
	dir := initTxRepo(t)
	path := filepath.Join(dir, "configuration.nix")
	if err := os.WriteFile(path, []byte(`{ fileSystems."/data" = { }; }`), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	commitTxFile(t, dir, "configuration.nix")

	cfg := newTestTxConfig(t, dir)
	tx := NewTransaction(cfg, "declare /data mount", nil)
	if err := tx.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	mf, err := tx.Attach(path)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	prefix := `fileSystems."/data"`
	if err := TxSetOption(mf, prefix+".device", `"/dev/disk/by-label/data"`, cfg.TabWidth); err != nil {
		t.Fatalf("TxSetOption(device) error = %v", err)
	}
	if err := TxSetOption(mf, prefix+".fsType", `"ext4"`, cfg.TabWidth); err != nil {
		t.Fatalf("TxSetOption(fsType) error = %v", err)
	}
	if err := TxListAdd(mf, prefix+".options", `"noatime"`, true, cfg.TabWidth); err != nil {
		t.Fatalf("TxListAdd() error = %v", err)
	}

	got, err := TxGetOption(mf, prefix+".fsType")
	if err != nil {
		t.Fatalf("TxGetOption() error = %v", err)
	}
	if got != `"ext4"` {
		t.Errorf("TxGetOption(fsType) = %q, want %q", got, `"ext4"`)
	}

	elems, err := TxGetListElements(mf, prefix+".options")
	if err != nil {
		t.Fatalf("TxGetListElements() error = %v", err)
	}
	if len(elems) != 1 || elems[0] != `"noatime"` {
		t.Errorf("TxGetListElements() = %v, want [\"noatime\"]", elems)
	}

	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	on, err := GetOption(path, prefix+".device")
	if err != nil {
		t.Fatalf("GetOption() after commit error = %v", err)
	}
	if on != `"/dev/disk/by-label/data"` {
		t.Errorf("GetOption(device) after commit = %q", on)
	}
}

func TestTransactionalFacade_RollsBackOnRebuildFailure(t *testing.T) {
	dir := initTxRepo(t)
	path := filepath.Join(dir, "configuration.nix")
	original := "{ enable = true; }"
	if err := os.WriteFile(path, []byte(original), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	commitTxFile(t, dir, "configuration.nix")

	cfg := newTestTxConfig(t, dir)
	cfg.Rebuild.Command = "false" // always exits non-zero

	tx := NewTransaction(cfg, "break the thing", nil)
	if err := tx.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	mf, err := tx.Attach(path)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := TxSetOption(mf, "enable", "false", cfg.TabWidth); err != nil {
		t.Fatalf("TxSetOption() error = %v", err)
	}

	err = tx.Commit(context.Background())
	if !mxerrors.Is(err, mxerrors.InvalidFile) {
		t.Fatalf("Commit() error = %v, want InvalidFile", err)
	}

	on, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(on) != original {
		t.Errorf("disk content after failed commit = %q, want pristine %q", on, original)
	}
}
