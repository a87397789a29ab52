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

// Package transaction groups one or more managed files under a single
// version-controlled commit and rebuild attempt. A Transaction is a
// strict state machine (idle -> open -> commit|rollback -> idle); every
// exit from open releases every attached file's lock, whether the
// commit pipeline succeeded or not.
package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/uuid"

	"github.com/Modulix-OS/modulix-core-utils/internal/lockfile"
	"github.com/Modulix-OS/modulix-core-utils/internal/managedfile"
	"github.com/Modulix-OS/modulix-core-utils/internal/mxconfig"
	"github.com/Modulix-OS/modulix-core-utils/internal/mxlog"
	"github.com/Modulix-OS/modulix-core-utils/pkg/mxerrors"
)

type state int

const (
	stateIdle state = iota
	stateOpen
)

// Transaction coordinates attached ManagedFiles, a version-controlled
// working tree, and an external rebuild subprocess. Files are owned
// exclusively by the Transaction for its lifetime; a ManagedFile never
// holds a back-reference to its owning Transaction.
type Transaction struct {
	id          string
	description string
	cfg         *mxconfig.Config
	logger      *slog.Logger

	state   state
	repo    *git.Repository
	wt      *git.Worktree
	files   map[string]*managedfile.ManagedFile
	watcher *drainWatcher
}

// New constructs an idle Transaction. description is recorded as the
// eventual commit message; cfg supplies the configuration directory,
// lock paths, rebuild command, and author identity.
func New(cfg *mxconfig.Config, description string, logger *slog.Logger) *Transaction {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New().String()
	return &Transaction{
		id:          id,
		description: description,
		cfg:         cfg,
		logger:      mxlog.WithTransaction(logger, description).With(slog.String("transaction_id", id)),
		files:       make(map[string]*managedfile.ManagedFile),
	}
}

// ID returns the transaction's correlation id, used to tag log lines.
func (t *Transaction) ID() string {
	return t.id
}

// IsOpen reports whether the transaction currently holds an open
// working-tree handle.
func (t *Transaction) IsOpen() bool {
	return t.state == stateOpen
}

// Begin opens the configuration directory as a version-controlled
// working tree and requires it to be clean (no tracked-modified or
// untracked files). A dirty tree means some change landed outside this
// system's transactions, and proceeding could fold it into our commit
// or our rollback; both are refused.
func (t *Transaction) Begin() error {
	if t.state == stateOpen {
		return mxerrors.New(mxerrors.InvalidFile, "transaction already open")
	}

	repo, err := git.PlainOpen(t.cfg.Directory)
	if err != nil {
		return mxerrors.Wrap(mxerrors.VcsError, "opening "+t.cfg.Directory, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return mxerrors.Wrap(mxerrors.VcsError, "opening worktree", err)
	}

	status, err := wt.Status()
	if err != nil {
		return mxerrors.Wrap(mxerrors.VcsError, "reading status", err)
	}
	if !status.IsClean() {
		return mxerrors.New(mxerrors.RepositoryDirty, t.cfg.Directory)
	}

	t.repo = repo
	t.wt = wt
	t.state = stateOpen
	if w, err := newDrainWatcher(t.cfg.Directory, t.logger); err == nil {
		t.watcher = w
	} else {
		t.logger.Warn("falling back to polling only, could not start drain watcher", slog.Any("error", err))
	}
	t.logger.Info("transaction begun")
	return nil
}

// Attach opens path read/write, locks it exclusively, and snapshots
// its contents into the transaction's keeping. The transaction must be
// open. Attaching the same path twice returns the existing ManagedFile.
func (t *Transaction) Attach(path string) (*managedfile.ManagedFile, error) {
	if t.state != stateOpen {
		return nil, mxerrors.New(mxerrors.TransactionNotBegun, path)
	}
	if mf, ok := t.files[path]; ok {
		return mf, nil
	}

	mf := managedfile.New(path)
	if err := mf.Attach(); err != nil {
		return nil, err
	}
	t.files[path] = mf
	t.logger.Info("file attached", slog.String(mxlog.FileKey, path))
	return mf, nil
}

// Commit flushes every attached file to disk, stages it in version
// control, waits for the working tree to report clean, attempts a
// coalesced rebuild, and — on success — records a version-control
// commit. Any failure along the way triggers a full rollback before
// the error is returned.
func (t *Transaction) Commit(ctx context.Context) error {
	if t.state != stateOpen {
		return mxerrors.New(mxerrors.TransactionNotBegun, "")
	}

	paths := t.sortedPaths()

	for _, p := range paths {
		if err := t.files[p].Commit(); err != nil {
			t.rollbackAndClose()
			return err
		}
	}

	for _, p := range paths {
		rel, err := filepath.Rel(t.cfg.Directory, p)
		if err != nil {
			t.rollbackAndClose()
			return mxerrors.Wrap(mxerrors.VcsError, "computing relative path for "+p, err)
		}
		if _, err := t.wt.Add(rel); err != nil {
			t.rollbackAndClose()
			return mxerrors.Wrap(mxerrors.VcsError, "staging "+p, err)
		}
	}

	if !t.waitUntilClean(ctx) {
		t.rollbackAndClose()
		return mxerrors.New(mxerrors.InvalidFile, "working tree did not drain")
	}

	if err := t.coordinateRebuild(ctx); err != nil {
		t.rollbackAndClose()
		return err
	}

	if _, err := t.wt.Commit(t.description, &git.CommitOptions{
		Author:    t.signature(),
		Committer: t.signature(),
	}); err != nil {
		t.rollbackAndClose()
		return mxerrors.Wrap(mxerrors.VcsError, "recording commit", err)
	}

	for _, p := range paths {
		_ = t.files[p].Close()
	}
	t.finishIdle()
	t.logger.Info("transaction committed")
	return nil
}

// Rollback restores pristine content on every attached file and
// releases its lock, then returns the transaction to idle.
func (t *Transaction) Rollback() error {
	if t.state != stateOpen {
		return mxerrors.New(mxerrors.TransactionNotBegun, "")
	}
	t.rollbackAndClose()
	t.logger.Info("transaction rolled back")
	return nil
}

func (t *Transaction) rollbackAndClose() {
	for _, p := range t.sortedPaths() {
		mf := t.files[p]
		if err := mf.Rollback(); err != nil {
			t.logger.Error("rollback failed", slog.String(mxlog.FileKey, p), slog.Any("error", err))
		}
		_ = mf.Close()
	}
	t.finishIdle()
}

func (t *Transaction) finishIdle() {
	if t.watcher != nil {
		t.watcher.Close()
		t.watcher = nil
	}
	t.repo = nil
	t.wt = nil
	t.files = make(map[string]*managedfile.ManagedFile)
	t.state = stateIdle
}

// drainWakeup returns the channel that fires when the drain watcher
// observes a filesystem event, or a never-ready channel if no watcher
// is active, so waitUntilClean's select falls through to its poll arm.
func (t *Transaction) drainWakeup() <-chan struct{} {
	if t.watcher == nil {
		return nil
	}
	return t.watcher.events
}

func (t *Transaction) sortedPaths() []string {
	paths := make([]string, 0, len(t.files))
	for p := range t.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (t *Transaction) signature() *object.Signature {
	return &object.Signature{
		Name:  t.cfg.Author.Name,
		Email: t.cfg.Author.Email,
		When:  time.Now(),
	}
}

// waitUntilClean polls the working tree status until no file shows an
// unstaged worktree change (the staged changes themselves stay until the
// commit is recorded), or the configured timeout elapses. Between polls
// it wakes early when the drainWatcher observes a change under .git, and
// otherwise sleeps one poll interval.
func (t *Transaction) waitUntilClean(ctx context.Context) bool {
	deadline := time.Now().Add(t.cfg.Rebuild.Timeout)
	for {
		status, err := t.wt.Status()
		if err == nil {
			drained := true
			for _, fs := range status {
				if fs.Worktree != git.Unmodified {
					drained = false
					break
				}
			}
			if drained {
				return true
			}
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-t.drainWakeup():
			continue
		case <-time.After(t.cfg.Rebuild.PollInterval):
			continue
		}
	}
}

// coordinateRebuild implements the two-level queue/build lock protocol
// from the concurrency model: at most one rebuild runs at a time, and
// at most one more is queued behind it. A transaction that cannot
// acquire the queue lock skips its own rebuild — a transaction already
// queued will pick up our staged changes.
func (t *Transaction) coordinateRebuild(ctx context.Context) error {
	queue, err := lockfile.Open(t.cfg.Locks.Queue)
	if err != nil {
		return err
	}
	defer queue.Close()

	if err := queue.TryLock(); err != nil {
		if mxerrors.Is(err, mxerrors.FailToLock) {
			t.logger.Info("rebuild already queued by another transaction, skipping")
			return nil
		}
		return err
	}

	build, err := lockfile.Open(t.cfg.Locks.Build)
	if err != nil {
		_ = queue.Unlock()
		return err
	}
	if err := build.Lock(); err != nil {
		_ = queue.Unlock()
		build.Close()
		return err
	}
	_ = queue.Unlock()
	defer build.Close()

	success, err := t.rebuild(ctx)
	if err != nil {
		_ = build.Unlock()
		return err
	}
	if err := build.Unlock(); err != nil {
		return err
	}
	if !success {
		return mxerrors.New(mxerrors.InvalidFile, "rebuild subprocess failed")
	}
	return nil
}

// rebuild invokes the external rebuild command and reports whether it
// exited zero. Output is inherited on the process's own descriptors;
// the exit status is the sole success signal.
func (t *Transaction) rebuild(ctx context.Context) (bool, error) {
	flakeRef := fmt.Sprintf("%s#%s", t.cfg.Directory, t.cfg.Name)
	cmd := exec.CommandContext(ctx, t.cfg.Rebuild.Command, string(t.cfg.Rebuild.Mode), "--flake", flakeRef)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	t.logger.Info("invoking rebuild", slog.String("command", t.cfg.Rebuild.Command), slog.String("mode", string(t.cfg.Rebuild.Mode)))
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return false, nil
		}
		return false, mxerrors.Wrap(mxerrors.IOError, "running rebuild", err)
	}
	return true, nil
}
