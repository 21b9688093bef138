// config_watcher.go: runtime configuration hot reload via Argus
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/agilira/argus"
	"gopkg.in/yaml.v3"
)

// RuntimeConfig holds the tunables that can change while the manager is
// running. Everything else requires a restart by design: plugin discovery
// is one-shot and the registry is immutable after load.
type RuntimeConfig struct {
	// PollInterval overrides the device scan period, e.g. "5s".
	PollInterval string `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`

	// LogLevel adjusts the logrus level when the manager logs through a
	// LogrusAdapter ("debug", "info", "warn", "error").
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// RuntimeConfigWatcher applies RuntimeConfig file changes to a running
// manager through Argus file watching. The watcher is fully optional; a
// manager without one simply keeps its startup configuration.
type RuntimeConfigWatcher struct {
	manager *Manager
	path    string
	logger  Logger

	watcher *argus.Watcher
	enabled atomic.Bool
}

// newRuntimeConfigWatcher creates a watcher for the given file.
func newRuntimeConfigWatcher(manager *Manager, path string, logger Logger) *RuntimeConfigWatcher {
	if logger == nil {
		logger = DefaultLogger()
	}
	return &RuntimeConfigWatcher{manager: manager, path: path, logger: logger}
}

// Start begins watching. The file may not exist yet; it is applied on
// first appearance.
func (w *RuntimeConfigWatcher) Start() error {
	if !w.enabled.CompareAndSwap(false, true) {
		return nil
	}

	w.watcher = argus.New(argus.Config{
		PollInterval:         2 * time.Second,
		MaxWatchedFiles:      1,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, filePath string) {
			w.logger.Warn("Runtime config watcher error", "path", filePath, "error", err)
		},
	})

	if err := w.watcher.Watch(w.path, w.handleChange); err != nil {
		w.enabled.Store(false)
		return NewRuntimeConfigWatchError(w.path, err)
	}
	if err := w.watcher.Start(); err != nil {
		w.enabled.Store(false)
		return NewRuntimeConfigWatchError(w.path, err)
	}

	w.logger.Info("Runtime config watcher started", "path", w.path)
	return nil
}

// Stop halts watching. Idempotent.
func (w *RuntimeConfigWatcher) Stop() {
	if w.enabled.CompareAndSwap(true, false) {
		if err := w.watcher.Stop(); err != nil {
			w.logger.Warn("Runtime config watcher stop failed", "error", err)
		}
	}
}

func (w *RuntimeConfigWatcher) handleChange(event argus.ChangeEvent) {
	if event.IsDelete {
		w.logger.Warn("Runtime config file deleted, keeping current settings", "path", event.Path)
		return
	}

	cfg, err := loadRuntimeConfig(event.Path)
	if err != nil {
		w.logger.Warn("Runtime config reload failed", "path", event.Path, "error", err)
		return
	}
	w.apply(cfg)
}

// apply pushes parsed settings into the running manager.
func (w *RuntimeConfigWatcher) apply(cfg *RuntimeConfig) {
	if cfg.PollInterval != "" {
		d, err := time.ParseDuration(cfg.PollInterval)
		if err != nil || d <= 0 {
			w.logger.Warn("Ignoring invalid poll_interval", "value", cfg.PollInterval)
		} else {
			w.manager.setPollInterval(d)
			w.logger.Info("Poll interval updated", "poll_interval", d)
		}
	}

	if cfg.LogLevel != "" {
		if adapter, ok := w.manager.logger.(*LogrusAdapter); ok {
			if err := adapter.SetLevel(cfg.LogLevel); err != nil {
				w.logger.Warn("Ignoring invalid log_level", "value", cfg.LogLevel)
			} else {
				w.logger.Info("Log level updated", "log_level", cfg.LogLevel)
			}
		}
	}
}

// loadRuntimeConfig parses a runtime config file, JSON or YAML by
// extension.
func loadRuntimeConfig(path string) (*RuntimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewRuntimeConfigParseError(path, err)
	}

	var cfg RuntimeConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, NewRuntimeConfigParseError(path, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, NewRuntimeConfigParseError(path, err)
		}
	}
	return &cfg, nil
}
