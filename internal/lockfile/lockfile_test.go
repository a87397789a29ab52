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

package lockfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Modulix-OS/modulix-core-utils/pkg/mxerrors"
)

func TestLockFile_TryLockThenUnlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.lock")

	lf, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer lf.Close()

	if err := lf.TryLock(); err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if err := lf.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
}

func TestLockFile_TryLockFailsWhenAlreadyHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.lock")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open() first error = %v", err)
	}
	defer first.Close()
	if err := first.TryLock(); err != nil {
		t.Fatalf("first TryLock() error = %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("Open() second error = %v", err)
	}
	defer second.Close()

	err = second.TryLock()
	if !mxerrors.Is(err, mxerrors.FailToLock) {
		t.Fatalf("second TryLock() error = %v, want FailToLock", err)
	}
}

func TestLockFile_IsReusableAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.lock")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open() first error = %v", err)
	}
	if err := first.TryLock(); err != nil {
		t.Fatalf("first TryLock() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("Open() second error = %v", err)
	}
	defer second.Close()
	if err := second.TryLock(); err != nil {
		t.Fatalf("second TryLock() error = %v, want nil once the first holder released", err)
	}
}

func TestTryFlock_DoesNotTruncateExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configuration.nix")
	if err := os.WriteFile(path, []byte("{ enable = true; }"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	if err := TryFlock(f); err != nil {
		t.Fatalf("TryFlock() error = %v", err)
	}
	defer Unflock(f)

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(content) != "{ enable = true; }" {
		t.Errorf("content = %q, want unchanged by locking", content)
	}
}

func TestTryFlock_FailsWhenAnotherHandleHoldsIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configuration.nix")
	if err := os.WriteFile(path, []byte("{ }"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	first, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("OpenFile() first error = %v", err)
	}
	defer first.Close()
	if err := TryFlock(first); err != nil {
		t.Fatalf("first TryFlock() error = %v", err)
	}

	second, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("OpenFile() second error = %v", err)
	}
	defer second.Close()

	err = TryFlock(second)
	if !mxerrors.Is(err, mxerrors.FailToLock) {
		t.Fatalf("second TryFlock() error = %v, want FailToLock", err)
	}
}
