// Loadout
// Copyright (c) 2026 The Loadout Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Loadout.
//
// Loadout is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Loadout is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Loadout.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"testing"
	"time"

	testhelpers "github.com/LoadoutProject/loadout/pkg/testing/helpers"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_CreatesDefaultFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()

	cfg, err := NewConfig(fs, "/home/user/.config/loadout", BaseDefaults)
	require.NoError(t, err)

	exists, err := afero.Exists(fs, "/home/user/.config/loadout/config.toml")
	require.NoError(t, err)
	assert.True(t, exists, "default config should be written on first run")

	assert.Equal(t, "pkexec", cfg.PrivilegeWrapper())
	assert.Equal(t, "pacman", cfg.PackageManagerBinary())
	assert.Equal(t, 5*time.Minute, cfg.OperationTimeout())
	assert.Equal(t, 10*time.Second, cfg.RefreshTimeout())
	assert.Equal(t, 4, cfg.ProbeConcurrency())
	assert.Equal(t, "/var/lib/pacman/local", cfg.LocalDB())
	assert.True(t, cfg.WatchDB())
	assert.NotEmpty(t, cfg.DeviceID())
	assert.False(t, cfg.ErrorReporting())
}

func TestNewConfig_FileValuesOverrideDefaults(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/config.toml", []byte(`
config_schema = 1
error_reporting = true

[package_manager]
privilege_wrapper = "sudo"
operation_timeout = "90s"

[tui]
theme = "nord"
`), 0o600))

	cfg, err := NewConfig(fs, "/cfg", BaseDefaults)
	require.NoError(t, err)

	assert.Equal(t, "sudo", cfg.PrivilegeWrapper())
	assert.Equal(t, "pacman", cfg.PackageManagerBinary(), "unset keys keep defaults")
	assert.Equal(t, 90*time.Second, cfg.OperationTimeout())
	assert.True(t, cfg.ErrorReporting())
	assert.Equal(t, "nord", cfg.TUITheme())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		content       string
		errorContains string
	}{
		{
			name:          "schema mismatch",
			content:       "config_schema = 99\n",
			errorContains: "schema version mismatch",
		},
		{
			name:          "malformed toml",
			content:       "config_schema = = 1\n",
			errorContains: "failed to unmarshal config",
		},
		{
			name:          "empty wrapper",
			content:       "config_schema = 1\n[package_manager]\nprivilege_wrapper = \"\"\n",
			errorContains: "invalid package_manager config",
		},
		{
			name:          "probe concurrency out of range",
			content:       "config_schema = 1\n[package_manager]\nprobe_concurrency = 0\n",
			errorContains: "invalid package_manager config",
		},
		{
			name:          "bad duration",
			content:       "config_schema = 1\n[package_manager]\noperation_timeout = \"soon\"\n",
			errorContains: "invalid operation_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/cfg/config.toml", []byte(tt.content), 0o600))

			_, err := NewConfig(fs, "/cfg", BaseDefaults)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	cfg, err := NewConfig(fs, "/cfg", BaseDefaults)
	require.NoError(t, err)
	deviceID := cfg.DeviceID()

	cfg.SetErrorReporting(true)
	cfg.SetTUITheme("dracula")
	require.NoError(t, cfg.Save())

	reloaded, err := NewConfig(fs, "/cfg", BaseDefaults)
	require.NoError(t, err)
	assert.True(t, reloaded.ErrorReporting())
	assert.Equal(t, "dracula", reloaded.TUITheme())
	assert.Equal(t, deviceID, reloaded.DeviceID(), "device id must be stable across saves")
}

func TestGetters_FallBackOnInvalidValues(t *testing.T) {
	t.Parallel()

	cfg := &Instance{vals: Values{PackageManager: PackageManager{
		OperationTimeout: "-1s",
		RefreshTimeout:   "",
	}}}

	assert.Equal(t, DefaultOperationTimeout, cfg.OperationTimeout())
	assert.Equal(t, DefaultRefreshTimeout, cfg.RefreshTimeout())
	assert.Equal(t, DefaultProbeConcurrency, cfg.ProbeConcurrency())
	assert.Equal(t, DefaultLocalDB, cfg.LocalDB())
	assert.Equal(t, "default", cfg.TUITheme())
}

func TestNewConfig_EnvOverride(t *testing.T) {
	// Cannot use t.Parallel() - modifies process environment
	t.Setenv(CfgEnv, "/elsewhere/custom.toml")

	fs := afero.NewMemMapFs()
	cfg, err := NewConfig(fs, "/cfg", BaseDefaults)
	require.NoError(t, err)

	assert.Equal(t, "/elsewhere/custom.toml", cfg.Path())
	exists, err := afero.Exists(fs, "/elsewhere/custom.toml")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNewConfig_WatchDBDisabled(t *testing.T) {
	t.Parallel()

	h := testhelpers.NewMemoryFS()
	require.NoError(t, h.CreateConfigFile("/cfg/config.toml", map[string]any{
		"config_schema": SchemaVersion,
		"package_manager": map[string]any{
			"local_db": "/tmp/pacman/local",
			"watch_db": false,
		},
	}))

	cfg, err := NewConfig(h.Fs, "/cfg", BaseDefaults)
	require.NoError(t, err)
	assert.False(t, cfg.WatchDB())
	assert.Equal(t, "/tmp/pacman/local", cfg.LocalDB())

	data, err := h.ReadFile("/cfg/config.toml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "watch_db = false")
}
