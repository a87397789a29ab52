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

// Package lockfile wraps an OS-level advisory lock identified by a
// well-known path. It backs both per-file locks on managed configuration
// files and the two named, never-unlinked locks (queue, build) that
// coalesce concurrent rebuilds.
package lockfile

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/Modulix-OS/modulix-core-utils/pkg/mxerrors"
)

// LockFile is an advisory lock backed by a single, stable path. Lock
// files are created with truncation and are never unlinked: their
// identity across process restarts is the path itself, not their
// contents.
type LockFile struct {
	path string
	file *os.File
}

// Open creates (or reopens) the lock file at path without acquiring the
// lock. The returned LockFile must be closed by the caller.
func Open(path string) (*LockFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		if os.IsPermission(err) {
			return nil, mxerrors.Wrap(mxerrors.PermissionDenied, "opening lock file "+path, err)
		}
		return nil, mxerrors.Wrap(mxerrors.IOError, "opening lock file "+path, err)
	}
	return &LockFile{path: path, file: file}, nil
}

// Path returns the lock file's well-known path.
func (l *LockFile) Path() string {
	return l.path
}

// Lock blocks until the exclusive advisory lock is acquired.
func (l *LockFile) Lock() error {
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_EX); err != nil {
		return mxerrors.Wrap(mxerrors.IOError, "acquiring lock on "+l.path, err)
	}
	return nil
}

// TryLock attempts to acquire the exclusive advisory lock without
// blocking. If another process already holds it, TryLock fails with
// mxerrors.FailToLock rather than waiting.
func (l *LockFile) TryLock() error {
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == nil {
		return nil
	}
	if err == unix.EWOULDBLOCK {
		return mxerrors.New(mxerrors.FailToLock, l.path)
	}
	return mxerrors.Wrap(mxerrors.IOError, "acquiring lock on "+l.path, err)
}

// Unlock releases the advisory lock. It does not close the underlying
// file handle; call Close to do both.
func (l *LockFile) Unlock() error {
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		return mxerrors.Wrap(mxerrors.IOError, "releasing lock on "+l.path, err)
	}
	return nil
}

// Close releases the lock (best-effort) and closes the file handle.
// Callers on every exit path — including error paths — should defer
// Close so a panic or an early return can never leak the lock.
func (l *LockFile) Close() error {
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	return l.file.Close()
}

// TryFlock acquires an exclusive advisory lock on an already-open file
// handle without blocking. Unlike LockFile, this operates directly on a
// caller-owned *os.File (a managed configuration file, not a dedicated
// scratch lock path) and never truncates or otherwise touches its
// content. Another process holding the lock surfaces as FailToLock.
func TryFlock(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == nil {
		return nil
	}
	if err == unix.EWOULDBLOCK {
		return mxerrors.New(mxerrors.FailToLock, f.Name())
	}
	return mxerrors.Wrap(mxerrors.IOError, "acquiring lock on "+f.Name(), err)
}

// Unflock releases an advisory lock acquired with TryFlock.
func Unflock(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		return mxerrors.Wrap(mxerrors.IOError, "releasing lock on "+f.Name(), err)
	}
	return nil
}
