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

// Package managedfile owns a single open file handle, its advisory lock,
// and the two buffers (current, pristine) a transaction mutates and can
// restore. A ManagedFile never holds a reference back to the Transaction
// that attached it — the transaction owns the ManagedFile for its
// lifetime and calls back into it for commit, rollback, and close.
package managedfile

import (
	"io"
	"os"

	"github.com/Modulix-OS/modulix-core-utils/internal/lockfile"
	"github.com/Modulix-OS/modulix-core-utils/pkg/mxerrors"
)

// ManagedFile is constructed detached: Attach must succeed before
// CurrentBytes, SetCurrentBytes, Commit, or Rollback may be called.
// Outside the attach..close window, handle is nil and both buffers are
// empty, matching the invariant in the data model.
type ManagedFile struct {
	path     string
	handle   *os.File
	current  []byte
	pristine []byte
}

// New constructs a detached ManagedFile for path. No I/O happens until
// Attach is called.
func New(path string) *ManagedFile {
	return &ManagedFile{path: path}
}

// Path returns the file's path.
func (m *ManagedFile) Path() string {
	return m.path
}

// Attach opens the file read/write (it must already exist — attach never
// creates one), acquires an exclusive advisory lock without blocking,
// and snapshots its full contents into both current and pristine. The
// two buffers are independent clones of a single read, so there is no
// risk of the second read returning empty on platforms where reading a
// freshly opened handle twice does not behave as expected.
func (m *ManagedFile) Attach() error {
	f, err := os.OpenFile(m.path, os.O_RDWR, 0)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return mxerrors.Wrap(mxerrors.FileNotFound, m.path, err)
		case os.IsPermission(err):
			return mxerrors.Wrap(mxerrors.PermissionDenied, m.path, err)
		default:
			return mxerrors.Wrap(mxerrors.IOError, "opening "+m.path, err)
		}
	}

	if err := lockfile.TryFlock(f); err != nil {
		f.Close()
		return err
	}

	content, err := io.ReadAll(f)
	if err != nil {
		_ = lockfile.Unflock(f)
		f.Close()
		return mxerrors.Wrap(mxerrors.IOError, "reading "+m.path, err)
	}

	m.handle = f
	m.pristine = append([]byte(nil), content...)
	m.current = append([]byte(nil), content...)
	return nil
}

// CurrentBytes returns the current in-memory buffer. It fails with
// TransactionNotBegun if the file is detached.
func (m *ManagedFile) CurrentBytes() ([]byte, error) {
	if m.handle == nil {
		return nil, mxerrors.New(mxerrors.TransactionNotBegun, m.path)
	}
	return m.current, nil
}

// SetCurrentBytes replaces the current in-memory buffer, the way a
// mutator operation installs its rewritten content. It fails with
// TransactionNotBegun if the file is detached.
func (m *ManagedFile) SetCurrentBytes(b []byte) error {
	if m.handle == nil {
		return mxerrors.New(mxerrors.TransactionNotBegun, m.path)
	}
	m.current = b
	return nil
}

// Commit writes current to the file handle and releases the lock. It is
// transaction-only: callers outside a transaction should use the direct,
// non-transactional entry points instead.
func (m *ManagedFile) Commit() error {
	if m.handle == nil {
		return mxerrors.New(mxerrors.TransactionNotBegun, m.path)
	}
	if err := writeAll(m.handle, m.current); err != nil {
		return err
	}
	return lockfile.Unflock(m.handle)
}

// Rollback writes pristine to the file handle, restoring it to the
// content observed at Attach. The lock is released at Close, not here.
func (m *ManagedFile) Rollback() error {
	if m.handle == nil {
		return mxerrors.New(mxerrors.TransactionNotBegun, m.path)
	}
	return writeAll(m.handle, m.pristine)
}

// Close releases the lock, clears both buffers, and drops the handle.
// Safe to call on an already-detached ManagedFile.
func (m *ManagedFile) Close() error {
	if m.handle == nil {
		return nil
	}
	_ = lockfile.Unflock(m.handle)
	err := m.handle.Close()
	m.handle = nil
	m.current = nil
	m.pristine = nil
	if err != nil {
		return mxerrors.Wrap(mxerrors.IOError, "closing "+m.path, err)
	}
	return nil
}

func writeAll(f *os.File, data []byte) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return mxerrors.Wrap(mxerrors.IOError, "seeking", err)
	}
	if _, err := f.Write(data); err != nil {
		return mxerrors.Wrap(mxerrors.IOError, "writing", err)
	}
	if err := f.Truncate(int64(len(data))); err != nil {
		return mxerrors.Wrap(mxerrors.IOError, "truncating", err)
	}
	return nil
}
