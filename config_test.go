// config_test.go: configuration defaults, validation and hot reload
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerConfig_ApplyDefaults(t *testing.T) {
	c := ManagerConfig{ConfigPath: "/tmp/x"}
	c.ApplyDefaults()

	assert.Equal(t, DefaultPollInterval, c.PollInterval)
	assert.Equal(t, DefaultStartupDelay, c.StartupDelay)
	assert.Equal(t, DefaultErrorBackoff, c.ErrorBackoff)
	assert.NotNil(t, c.Enumerator)
}

func TestManagerConfig_DefaultsKeepExplicitValues(t *testing.T) {
	enum := &fakeEnumerator{}
	c := ManagerConfig{
		ConfigPath:   "/tmp/x",
		PollInterval: time.Second,
		Enumerator:   enum,
	}
	c.ApplyDefaults()

	assert.Equal(t, time.Second, c.PollInterval)
	assert.Same(t, enum, c.Enumerator.(*fakeEnumerator))
}

func TestManagerConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ManagerConfig)
		ok     bool
	}{
		{"Valid", func(c *ManagerConfig) {}, true},
		{"EmptyPath", func(c *ManagerConfig) { c.ConfigPath = "  " }, false},
		{"NegativePoll", func(c *ManagerConfig) { c.PollInterval = -1 }, false},
		{"NegativeStartup", func(c *ManagerConfig) { c.StartupDelay = -1 }, false},
		{"NegativeBackoff", func(c *ManagerConfig) { c.ErrorBackoff = -1 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := ManagerConfig{ConfigPath: "/tmp/x"}
			c.ApplyDefaults()
			tc.mutate(&c)
			err := c.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestExpandUser(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, expandUser("~"))
	assert.Equal(t, filepath.Join(home, ".config", "app"), expandUser("~/.config/app"))
	assert.Equal(t, "/etc/app", expandUser("/etc/app"))
	assert.Equal(t, "relative/path", expandUser("relative/path"))
}

func TestLoadRuntimeConfig(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "runtime.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"poll_interval": "5s", "log_level": "debug"}`), 0o644))

		cfg, err := loadRuntimeConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "5s", cfg.PollInterval)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "runtime.yaml")
		require.NoError(t, os.WriteFile(path, []byte("poll_interval: 250ms\n"), 0o644))

		cfg, err := loadRuntimeConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "250ms", cfg.PollInterval)
	})

	t.Run("Malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "runtime.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))

		_, err := loadRuntimeConfig(path)
		assert.Error(t, err)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := loadRuntimeConfig(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})
}

func TestRuntimeConfigWatcher_Apply(t *testing.T) {
	m, err := NewManager(ManagerConfig{
		ConfigPath: t.TempDir(),
		Enumerator: &fakeEnumerator{},
	}, NewTestLogger())
	require.NoError(t, err)
	m.monitor = NewDeviceMonitor(&fakeEnumerator{}, m.config, nil, nil, m.logger)

	w := newRuntimeConfigWatcher(m, "unused", m.logger)

	t.Run("PollInterval", func(t *testing.T) {
		w.apply(&RuntimeConfig{PollInterval: "7s"})
		assert.Equal(t, 7*time.Second, m.monitor.PollInterval())
	})

	t.Run("InvalidIntervalIgnored", func(t *testing.T) {
		w.apply(&RuntimeConfig{PollInterval: "not-a-duration"})
		assert.Equal(t, 7*time.Second, m.monitor.PollInterval())

		w.apply(&RuntimeConfig{PollInterval: "-3s"})
		assert.Equal(t, 7*time.Second, m.monitor.PollInterval())
	})

	t.Run("LogLevelNeedsLogrus", func(t *testing.T) {
		// The manager logs through a TestLogger here; the level change is
		// silently skipped rather than failing.
		w.apply(&RuntimeConfig{LogLevel: "debug"})
	})
}
