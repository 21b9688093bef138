// manager.go: plugin registry, device routing and panel lifecycle
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Manager owns the plugin registry and drives the per-plugin panel
// lifecycle in response to device connect/disconnect events.
//
// Lifecycle per plugin record, a 3-state machine:
//   - Idle: no devices matched, no panel. Initial state after load.
//   - Matched-inactive: devices tracked but no panel shown (no UI callback
//     supplied yet, or the panel exists but was flagged inactive).
//   - Active: panel instantiated and flagged active. Reached only once the
//     host supplied a button callback and at least one device is matched.
//
// All mutable state — the registry, each record's device set and panel
// reference — sits behind one manager-wide mutex. The lock is deliberately
// coarse: plugin counts are a handful of bundles, and avoiding torn reads
// while a panel is being instantiated matters more than parallelism.
// Lifecycle events are published while the lock is held, so subscribers
// must not call back into the manager synchronously.
//
// Example usage:
//
//	logger := gopanels.NewLogrusAdapter(nil)
//	manager, err := gopanels.NewManager(gopanels.ManagerConfig{
//	    ConfigPath: "~/.config/deckdash",
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	manager.Events().OnPanelAvailable(func(ev gopanels.PanelAvailableEvent) {
//	    // mount ev.Panel in the UI
//	})
//	if err := manager.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer manager.Stop()
type Manager struct {
	config      ManagerConfig
	configPath  string // expanded root
	pluginsPath string
	logger      Logger
	events      *Events

	mu             sync.Mutex
	plugins        map[string]*PluginRecord
	buttonCallback ButtonCallback

	monitor       *DeviceMonitor
	configWatcher *RuntimeConfigWatcher
	running       atomic.Bool
}

// NewManager validates the configuration and builds a manager. Discovery
// and monitoring do not begin until Start.
func NewManager(config ManagerConfig, logger Logger) (*Manager, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = DefaultLogger()
	}

	configPath := expandUser(config.ConfigPath)
	m := &Manager{
		config:      config,
		configPath:  configPath,
		pluginsPath: filepath.Join(configPath, pluginsDirName),
		logger:      logger,
		events:      newEvents(logger),
		plugins:     make(map[string]*PluginRecord),
	}
	return m, nil
}

// Events returns the manager's lifecycle event publisher. Subscribe before
// calling Start to observe discovery-time load errors.
func (m *Manager) Events() *Events { return m.events }

// PluginsPath returns the directory scanned for plugin bundles.
func (m *Manager) PluginsPath() string { return m.pluginsPath }

// Start creates the plugins directory if absent, runs plugin discovery
// once and launches the device monitor. Idempotent. Discovery happens
// before the monitor starts, so the registry is never mutated concurrently
// with loading.
func (m *Manager) Start() error {
	if !m.running.CompareAndSwap(false, true) {
		return nil
	}

	if err := os.MkdirAll(m.pluginsPath, 0o755); err != nil {
		m.running.Store(false)
		return NewPluginsDirError(m.pluginsPath, err)
	}

	loader := NewLoader(m.pluginsPath, m.logger)
	records, failures, err := loader.Discover()
	if err != nil {
		m.running.Store(false)
		return err
	}
	for _, f := range failures {
		m.events.publishLoadError(f.Plugin, f.Err.Error())
	}

	m.mu.Lock()
	m.plugins = records
	m.mu.Unlock()

	m.monitor = NewDeviceMonitor(m.config.Enumerator, m.config,
		m.handleDeviceConnected, m.handleDeviceDisconnected, m.logger)
	m.monitor.Start()

	if m.config.RuntimeConfigFile != "" {
		m.configWatcher = newRuntimeConfigWatcher(m, m.config.RuntimeConfigFile, m.logger)
		if err := m.configWatcher.Start(); err != nil {
			m.logger.Warn("Runtime config watcher unavailable", "error", err)
		}
	}

	m.logger.Info("Plugin manager started",
		"plugins", len(records), "load_errors", len(failures),
		"plugins_path", m.pluginsPath)
	return nil
}

// Stop halts monitoring and shuts down every instantiated panel. Shutdown
// failures are logged per plugin and never abort the remaining shutdowns.
// Idempotent.
func (m *Manager) Stop() {
	if !m.running.CompareAndSwap(true, false) {
		return
	}

	if m.configWatcher != nil {
		m.configWatcher.Stop()
	}
	if m.monitor != nil {
		m.monitor.Stop()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.plugins {
		if rec.panel != nil {
			if err := rec.panel.Shutdown(); err != nil {
				m.logger.Error("Panel shutdown failed", "plugin", rec.Name, "error", err)
			}
		}
		if rec.closer != nil {
			_ = rec.closer()
		}
	}

	if err := m.config.Enumerator.Close(); err != nil {
		m.logger.Warn("Enumerator close failed", "error", err)
	}

	m.logger.Info("Plugin manager stopped")
}

// IsRunning reports whether Start has been called and Stop has not.
func (m *Manager) IsRunning() bool { return m.running.Load() }

// handleDeviceConnected routes a newly present device to every plugin
// whose rules accept it.
func (m *Manager) handleDeviceConnected(dev DeviceInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.plugins {
		if !rec.matcher.Matches(dev) {
			continue
		}
		rec.devices[dev.Path] = dev
		m.logger.Info("Device matched plugin",
			"plugin", rec.Name, "device", dev.Name, "path", dev.Path)

		if rec.panel == nil {
			// Instantiation replays the device set and activates in one
			// step; forwarding the connect separately here would notify
			// the panel twice.
			if m.buttonCallback != nil {
				m.instantiatePanelLocked(rec)
			}
			continue
		}

		if err := rec.panel.OnDeviceConnected(dev); err != nil {
			m.logger.Error("Panel connect notification failed", "plugin", rec.Name, "error", err)
		}
		if err := rec.panel.Active(SignalActivate); err != nil {
			m.logger.Error("Panel activation failed", "plugin", rec.Name, "error", err)
		}
	}
}

// handleDeviceDisconnected removes the device from every record holding it
// and deactivates panels whose device set became empty. The panel instance
// itself survives for later reconnection.
func (m *Manager) handleDeviceDisconnected(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.plugins {
		dev, ok := rec.devices[path]
		if !ok {
			continue
		}
		delete(rec.devices, path)
		m.logger.Info("Device disconnected from plugin",
			"plugin", rec.Name, "device", dev.Name, "path", path)

		if rec.panel == nil {
			continue
		}
		if err := rec.panel.OnDeviceDisconnected(dev); err != nil {
			m.logger.Error("Panel disconnect notification failed", "plugin", rec.Name, "error", err)
		}
		if len(rec.devices) == 0 {
			if err := rec.panel.Active(SignalDeactivate); err != nil {
				m.logger.Error("Panel deactivation failed", "plugin", rec.Name, "error", err)
			}
			m.events.publishPanelUnavailable(rec.Name)
		}
	}
}

// instantiatePanelLocked creates a record's panel, initializes it
// inactive, replays the already-connected devices and activates it.
// Called with the registry lock held; at most once per record succeeds.
func (m *Manager) instantiatePanelLocked(rec *PluginRecord) {
	ctx := PluginContext{
		HIDHandler:      m.config.HIDHandler,
		SettingsHandler: m.config.SettingsHandler,
		PluginPath:      rec.Path,
		ConfigPath:      m.configPath,
	}

	panel, err := rec.factory.CreatePanel(rec.Title(), m.buttonCallback, ctx)
	if err != nil {
		m.logger.Error("Panel instantiation failed", "plugin", rec.Name, "error", err)
		m.events.publishLoadError(rec.Name, err.Error())
		return
	}
	rec.panel = panel

	// Initialize inactive first so the activation below is observed as a
	// state change, matching the host's built-in panels.
	if err := panel.Active(SignalInitInactive); err != nil {
		m.logger.Error("Panel init failed", "plugin", rec.Name, "error", err)
	}

	for _, dev := range rec.devices {
		if err := panel.OnDeviceConnected(dev); err != nil {
			m.logger.Error("Panel replay notification failed",
				"plugin", rec.Name, "device", dev.Name, "error", err)
		}
	}
	if len(rec.devices) > 0 {
		if err := panel.Active(SignalActivate); err != nil {
			m.logger.Error("Panel activation failed", "plugin", rec.Name, "error", err)
		}
	}

	m.events.publishPanelAvailable(rec.Name, panel)
}

// GetPluginPanels stores the host's button callback and returns the panels
// of every plugin that currently has a matched device, keyed by display
// title. Records whose devices connected before the callback existed get
// their panel instantiated now.
func (m *Manager) GetPluginPanels(callback ButtonCallback) map[string]Panel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buttonCallback = callback

	panels := make(map[string]Panel)
	for _, rec := range m.plugins {
		if len(rec.devices) == 0 {
			continue
		}
		if rec.panel == nil {
			m.instantiatePanelLocked(rec)
		}
		if rec.panel != nil {
			panels[rec.Title()] = rec.panel
		}
	}
	return panels
}

// AllPlugins returns every loaded plugin record regardless of device
// state. The map is a snapshot; records themselves are shared.
func (m *Manager) AllPlugins() map[string]*PluginRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*PluginRecord, len(m.plugins))
	for name, rec := range m.plugins {
		out[name] = rec
	}
	return out
}

// ActivePanels returns the panels of plugins with at least one matched
// device, keyed by the panel's self-reported preset identity.
func (m *Manager) ActivePanels() map[string]Panel {
	m.mu.Lock()
	defer m.mu.Unlock()

	panels := make(map[string]Panel)
	for _, rec := range m.plugins {
		if rec.panel != nil && len(rec.devices) > 0 {
			panels[rec.panel.PresetDeviceName()] = rec.panel
		}
	}
	return panels
}

// PresetSettings fetches preset settings from the panel reporting the
// given preset identity. Lookup is a linear scan — fine while plugin
// counts stay small. Returns an empty map when no panel matches or the
// plugin's own settings call fails.
func (m *Manager) PresetSettings(deviceName string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.plugins {
		if rec.panel == nil || rec.panel.PresetDeviceName() != deviceName {
			continue
		}
		settings, err := rec.panel.PresetSettings()
		if err != nil {
			m.logger.Error("Preset settings fetch failed",
				"plugin", rec.Name, "preset_device_name", deviceName, "error", err)
			return map[string]any{}
		}
		return settings
	}
	return map[string]any{}
}

// ApplyPresetSettings applies preset settings to the panel reporting the
// given preset identity. An unknown identity is logged together with the
// identities currently available, for diagnosis, rather than failing.
func (m *Manager) ApplyPresetSettings(deviceName string, settings map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.plugins {
		if rec.panel == nil || rec.panel.PresetDeviceName() != deviceName {
			continue
		}
		if err := rec.panel.OnPresetLoaded(settings); err != nil {
			m.logger.Error("Preset apply failed",
				"plugin", rec.Name, "preset_device_name", deviceName, "error", err)
			return
		}
		m.logger.Info("Applied preset settings", "preset_device_name", deviceName)
		return
	}

	available := make([]string, 0, len(m.plugins))
	for _, rec := range m.plugins {
		if rec.panel != nil {
			available = append(available, rec.panel.PresetDeviceName())
		}
	}
	m.logger.Warn("No plugin found for preset device",
		"preset_device_name", deviceName, "available", available)
}

// HasActivePlugins reports whether any plugin currently has a matched
// device.
func (m *Manager) HasActivePlugins() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.plugins {
		if len(rec.devices) > 0 {
			return true
		}
	}
	return false
}

// setPollInterval forwards a runtime config change to the monitor.
func (m *Manager) setPollInterval(d time.Duration) {
	if m.monitor != nil {
		m.monitor.SetPollInterval(d)
	}
}
