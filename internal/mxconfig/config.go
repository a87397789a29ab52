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

// Package mxconfig holds the host-overridable constants that the rest of
// the module otherwise treats as fixed defaults: the configuration
// directory, lock paths, the version-control author identity, the tab
// unit used by the mutator, and the rebuild invocation.
package mxconfig

import (
	"errors"
	"time"
)

// ErrInvalidConfig is returned when a Config fails Validate.
var ErrInvalidConfig = errors.New("mxconfig: invalid configuration")

// BuildMode selects which nixos-rebuild subcommand a Transaction invokes.
type BuildMode string

const (
	// BuildModeSwitch activates the new generation immediately.
	BuildModeSwitch BuildMode = "switch"
	// BuildModeBuild only builds the new generation without activating it.
	BuildModeBuild BuildMode = "build"
	// BuildModeBuildVM builds a throwaway VM image; used in development so
	// a failing rebuild never touches the host that is running tests.
	BuildModeBuildVM BuildMode = "build-vm"
)

// LogConfig mirrors the shape mxlog.Config expects, kept here so the whole
// tree's defaults live in one YAML-tagged struct.
type LogConfig struct {
	// Level sets the minimum log level (debug, info, warn, error).
	Level string `yaml:"level"`
	// Format selects json or text output.
	Format string `yaml:"format"`
	// AddSource attaches source file/line to each log record.
	AddSource bool `yaml:"add_source"`
}

// LocksConfig holds the well-known paths of the two advisory locks that
// coalesce concurrent rebuilds, plus a reserved third path for a future
// VCS-level lock.
type LocksConfig struct {
	// Build is held for the duration of a rebuild subprocess.
	Build string `yaml:"build"`
	// Queue coalesces concurrent rebuild requests onto a single waiter.
	Queue string `yaml:"queue"`
	// Vcs is reserved; no component acquires it yet.
	Vcs string `yaml:"vcs"`
}

// RebuildConfig names the external rebuild subprocess and the mode a
// Transaction invokes it with.
type RebuildConfig struct {
	// Command is the rebuild binary's name or path.
	Command string `yaml:"command"`
	// Mode selects switch, build, or build-vm.
	Mode BuildMode `yaml:"mode"`
	// Timeout bounds how long commit() waits for the working tree to
	// report a clean status after staging, before failing InvalidFile.
	Timeout time.Duration `yaml:"timeout"`
	// PollInterval is the fallback poll period used when no filesystem
	// event fires during the drain wait.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// VcsIdentity is the author/committer identity recorded on every
// transaction commit.
type VcsIdentity struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// Config is the complete, YAML-tagged configuration for an embedding
// integrator. DefaultConfig returns the literal defaults named in the
// external-interfaces constants; every field may be overridden.
type Config struct {
	// Version allows future format migrations (1 = initial release).
	Version int `yaml:"version,omitempty"`

	// Directory is the configuration directory whose working tree the
	// transaction manager opens. Default: /etc/nixos.
	Directory string `yaml:"directory"`

	// Name identifies the flake configuration attribute passed to the
	// rebuild subprocess (<dir>#<name>). Default: default.
	Name string `yaml:"name"`

	// TabWidth is the indentation unit (in spaces) the mutator uses when
	// synthesising new bindings and nested braces. Default: 2.
	TabWidth int `yaml:"tab_width"`

	// ElevatedWriteHelper is the argv[0] of the privileged write helper
	// invoked on PermissionDenied outside transactions. Default: pkexec.
	ElevatedWriteHelper string `yaml:"elevated_write_helper"`

	Log     LogConfig     `yaml:"log"`
	Locks   LocksConfig   `yaml:"locks"`
	Rebuild RebuildConfig `yaml:"rebuild"`
	Author  VcsIdentity   `yaml:"author"`
}

// DefaultConfig returns a Config populated with the defaults from §6 of
// the external interfaces: 2-space indentation, /etc/nixos, the
// Modulix-OS author identity, and the well-known /tmp lock paths.
func DefaultConfig() *Config {
	return &Config{
		Version:             1,
		Directory:           "/etc/nixos",
		Name:                "default",
		TabWidth:            2,
		ElevatedWriteHelper: "pkexec",
		Log: LogConfig{
			Level:     "info",
			Format:    "json",
			AddSource: false,
		},
		Locks: LocksConfig{
			Build: "/tmp/mx-build.lock",
			Queue: "/tmp/mx-queue-build.lock",
			Vcs:   "/tmp/mx-git.lock",
		},
		Rebuild: RebuildConfig{
			Command:      "nixos-rebuild",
			Mode:         BuildModeSwitch,
			Timeout:      2 * time.Minute,
			PollInterval: 500 * time.Millisecond,
		},
		Author: VcsIdentity{
			Name:  "Modulix-OS",
			Email: "modulix.os@ik-mail.com",
		},
	}
}

// Validate checks the Config for the minimum coherence the rest of the
// module relies on (non-empty directory/name, a positive tab width, a
// sane timeout/poll relationship).
func (c *Config) Validate() error {
	if c.Directory == "" {
		return ErrInvalidConfig
	}
	if c.Name == "" {
		return ErrInvalidConfig
	}
	if c.TabWidth <= 0 {
		return ErrInvalidConfig
	}
	if c.Rebuild.Timeout <= 0 || c.Rebuild.PollInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.Rebuild.PollInterval > c.Rebuild.Timeout {
		return ErrInvalidConfig
	}
	switch c.Rebuild.Mode {
	case BuildModeSwitch, BuildModeBuild, BuildModeBuildVM:
	default:
		return ErrInvalidConfig
	}
	return nil
}
