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

package mxconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig_Validates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestDefaultConfig_MatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "/etc/nixos", cfg.Directory)
	assert.Equal(t, "default", cfg.Name)
	assert.Equal(t, 2, cfg.TabWidth)
	assert.Equal(t, "pkexec", cfg.ElevatedWriteHelper)
	assert.Equal(t, "/tmp/mx-build.lock", cfg.Locks.Build)
	assert.Equal(t, "/tmp/mx-queue-build.lock", cfg.Locks.Queue)
	assert.Equal(t, "/tmp/mx-git.lock", cfg.Locks.Vcs)
	assert.Equal(t, "nixos-rebuild", cfg.Rebuild.Command)
	assert.Equal(t, BuildModeSwitch, cfg.Rebuild.Mode)
	assert.Equal(t, "Modulix-OS", cfg.Author.Name)
	assert.Equal(t, "modulix.os@ik-mail.com", cfg.Author.Email)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"empty directory", func(c *Config) { c.Directory = "" }, true},
		{"empty name", func(c *Config) { c.Name = "" }, true},
		{"zero tab width", func(c *Config) { c.TabWidth = 0 }, true},
		{"negative timeout", func(c *Config) { c.Rebuild.Timeout = -1 }, true},
		{"poll exceeds timeout", func(c *Config) {
			c.Rebuild.PollInterval = c.Rebuild.Timeout * 2
		}, true},
		{"unknown build mode", func(c *Config) { c.Rebuild.Mode = "destroy" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_YAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Directory = "/var/lib/modulix"
	cfg.Rebuild.Mode = BuildModeBuildVM

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	var round Config
	require.NoError(t, yaml.Unmarshal(data, &round))

	assert.Equal(t, cfg.Directory, round.Directory)
	assert.Equal(t, cfg.Rebuild.Mode, round.Rebuild.Mode)
}
