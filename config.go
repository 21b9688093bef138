// config.go: manager configuration and defaults
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default timing values. The poll interval is deliberately longer than a
// typical enumeration pass; the startup delay gives the host a beat to
// finish initializing before the first connect events arrive.
const (
	DefaultPollInterval = 3 * time.Second
	DefaultStartupDelay = 1 * time.Second
	DefaultErrorBackoff = 3 * time.Second
)

// pluginsDirName is the subdirectory of the configuration root that holds
// plugin bundles. It is created on demand if absent.
const pluginsDirName = "plugins"

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// ConfigPath is the application configuration root. A leading "~" is
	// expanded to the user's home directory. Required.
	ConfigPath string

	// PollInterval is the device scan period. Defaults to 3s.
	PollInterval time.Duration

	// StartupDelay is the grace delay before the first scan. Defaults to 1s.
	StartupDelay time.Duration

	// ErrorBackoff is the sleep after a failed enumeration. Defaults to 3s.
	ErrorBackoff time.Duration

	// Enumerator overrides the device enumeration backend. Defaults to the
	// HID backend.
	Enumerator Enumerator

	// HIDHandler and SettingsHandler are the host's opaque handlers passed
	// through to panels at construction time.
	HIDHandler      any
	SettingsHandler any

	// RuntimeConfigFile optionally names a JSON or YAML file whose changes
	// are applied live (poll interval, log level). Empty disables the
	// watcher.
	RuntimeConfigFile string
}

// ApplyDefaults fills zero-valued timing fields and the enumerator.
func (c *ManagerConfig) ApplyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.StartupDelay == 0 {
		c.StartupDelay = DefaultStartupDelay
	}
	if c.ErrorBackoff == 0 {
		c.ErrorBackoff = DefaultErrorBackoff
	}
	if c.Enumerator == nil {
		c.Enumerator = NewHIDEnumerator()
	}
}

// Validate checks the configuration after defaults are applied.
func (c *ManagerConfig) Validate() error {
	if strings.TrimSpace(c.ConfigPath) == "" {
		return NewInvalidConfigPathError(c.ConfigPath)
	}
	if c.PollInterval < 0 {
		return NewInvalidIntervalError("poll_interval", c.PollInterval)
	}
	if c.StartupDelay < 0 {
		return NewInvalidIntervalError("startup_delay", c.StartupDelay)
	}
	if c.ErrorBackoff < 0 {
		return NewInvalidIntervalError("error_backoff", c.ErrorBackoff)
	}
	return nil
}

// expandUser expands a leading "~" to the user's home directory. Paths
// without the prefix are returned unchanged; if the home directory cannot
// be resolved the original path is kept.
func expandUser(path string) string {
	if path == "~" || strings.HasPrefix(path, "~"+string(filepath.Separator)) || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
