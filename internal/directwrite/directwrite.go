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

// Package directwrite backs the non-transactional entry points: reading
// and writing a configuration file directly, with the elevated-write
// fallback described in spec §4.4. It is deliberately not used inside a
// transaction — ManagedFile owns its own handle and lock there.
package directwrite

import (
	"bytes"
	"os"
	"os/exec"

	"github.com/Modulix-OS/modulix-core-utils/pkg/mxerrors"
)

// Read returns the full contents of path, translating the common OS
// errors into the module's closed taxonomy.
func Read(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return nil, mxerrors.Wrap(mxerrors.FileNotFound, path, err)
		case os.IsPermission(err):
			return nil, mxerrors.Wrap(mxerrors.PermissionDenied, path, err)
		default:
			return nil, mxerrors.Wrap(mxerrors.IOError, "reading "+path, err)
		}
	}
	return content, nil
}

// Write writes content to path. If the direct write is refused with
// PermissionDenied, it falls back to streaming content through helper
// (spec default: "pkexec tee <path>") invoked as a subprocess, mirroring
// the reference write_file's elevated-write path.
func Write(path string, content []byte, helper string) error {
	err := os.WriteFile(path, content, 0644)
	if err == nil {
		return nil
	}
	if !os.IsPermission(err) {
		return mxerrors.Wrap(mxerrors.IOError, "writing "+path, err)
	}
	return writeElevated(path, content, helper)
}

// writeElevated streams content to the privileged helper's standard
// input. The helper is invoked as "<helper> tee <path>"; its own stdout
// is discarded since tee's write to path is the side effect we want, not
// its echo to stdout.
func writeElevated(path string, content []byte, helper string) error {
	if helper == "" {
		helper = "pkexec"
	}
	cmd := exec.Command(helper, "tee", path)
	cmd.Stdin = bytes.NewReader(content)
	cmd.Stdout = nil
	if err := cmd.Run(); err != nil {
		return mxerrors.Wrap(mxerrors.PermissionDenied, "elevated write of "+path, err)
	}
	return nil
}
