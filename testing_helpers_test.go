// testing_helpers_test.go: shared fakes for the test suite
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeEnumerator is an in-memory Enumerator whose device list tests can
// swap between polls.
type fakeEnumerator struct {
	mu      sync.Mutex
	devices []DeviceInfo
	err     error
	closed  bool
}

func (f *fakeEnumerator) set(devices ...DeviceInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices = devices
	f.err = nil
}

func (f *fakeEnumerator) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeEnumerator) Enumerate() ([]DeviceInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]DeviceInfo, len(f.devices))
	copy(out, f.devices)
	return out, nil
}

func (f *fakeEnumerator) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// stubPanel records every call the manager makes.
type stubPanel struct {
	mu           sync.Mutex
	connected    []DeviceInfo
	disconnected []DeviceInfo
	signals      []ActiveSignal
	shutdowns    int
	preset       string
	settings     map[string]any
	loaded       map[string]any
	failCalls    bool
}

var errStubFailure = errors.New("stub panel failure")

func (p *stubPanel) OnDeviceConnected(dev DeviceInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failCalls {
		return errStubFailure
	}
	p.connected = append(p.connected, dev)
	return nil
}

func (p *stubPanel) OnDeviceDisconnected(dev DeviceInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failCalls {
		return errStubFailure
	}
	p.disconnected = append(p.disconnected, dev)
	return nil
}

func (p *stubPanel) Active(signal ActiveSignal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signals = append(p.signals, signal)
	return nil
}

func (p *stubPanel) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdowns++
	if p.failCalls {
		return errStubFailure
	}
	return nil
}

func (p *stubPanel) PresetDeviceName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.preset
}

func (p *stubPanel) PresetSettings() (map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failCalls {
		return nil, errStubFailure
	}
	return p.settings, nil
}

func (p *stubPanel) OnPresetLoaded(settings map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failCalls {
		return errStubFailure
	}
	p.loaded = settings
	return nil
}

func (p *stubPanel) connectedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.connected)
}

func (p *stubPanel) lastSignal() ActiveSignal {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.signals) == 0 {
		return 0
	}
	return p.signals[len(p.signals)-1]
}

// stubFactory creates stubPanel instances and counts creations.
type stubFactory struct {
	mu      sync.Mutex
	created int
	panel   *stubPanel
	fail    bool
}

func (f *stubFactory) CreatePanel(title string, callback ButtonCallback, ctx PluginContext) (Panel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errStubFailure
	}
	f.created++
	if f.panel == nil {
		f.panel = &stubPanel{preset: title}
	}
	return f.panel, nil
}

func (f *stubFactory) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

func vidPidRule(vid, pid uint16) DeviceRule {
	v, p := DeviceID(vid), DeviceID(pid)
	return DeviceRule{VendorID: &v, ProductID: &p}
}

func patternRule(pattern string) DeviceRule {
	return DeviceRule{NamePattern: pattern}
}

// testRecord builds a registry entry bound to a stub factory.
func testRecord(t *testing.T, name string, factory PanelFactory, rules ...DeviceRule) *PluginRecord {
	t.Helper()
	matcher, err := NewMatcher(rules)
	if err != nil {
		t.Fatalf("compile rules: %v", err)
	}
	manifest := &PluginManifest{Name: name, PanelClass: "Panel", Devices: rules, devicesPresent: true}
	return newPluginRecord(name, manifest, filepath.Join("/plugins", name), factory, matcher, nil)
}

// writeBundle writes a plugin bundle to dir with the given manifest and
// entry script contents. Empty strings skip the corresponding file.
func writeBundle(t *testing.T, pluginsDir, name, manifest, script string) string {
	t.Helper()
	dir := filepath.Join(pluginsDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bundle: %v", err)
	}
	if manifest != "" {
		if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(manifest), 0o644); err != nil {
			t.Fatalf("write manifest: %v", err)
		}
	}
	if script != "" {
		if err := os.WriteFile(filepath.Join(dir, "init.lua"), []byte(script), 0o644); err != nil {
			t.Fatalf("write script: %v", err)
		}
	}
	return dir
}

// testPanelScript is a complete Lua panel class satisfying the capability
// contract, used by loader and manager integration tests.
const testPanelScript = `
Panel = {}
Panel.__index = Panel

function Panel.new(title, button, ctx)
    local self = setmetatable({}, Panel)
    self.title = title
    self.button = button
    self.ctx = ctx
    self.preset_device_name = "preset-" .. title
    self.devices = {}
    self.device_count = 0
    self.state = 0
    self.settings = { gain = 5, mode = "race" }
    return self
end

function Panel:on_device_connected(dev)
    if self.devices[dev.path] == nil then
        self.device_count = self.device_count + 1
    end
    self.devices[dev.path] = dev
end

function Panel:on_device_disconnected(dev)
    if self.devices[dev.path] ~= nil then
        self.device_count = self.device_count - 1
    end
    self.devices[dev.path] = nil
end

function Panel:active(signal)
    self.state = signal
end

function Panel:shutdown()
    self.down = true
end

function Panel:get_preset_settings()
    return self.settings
end

function Panel:on_preset_loaded(settings)
    self.settings = settings
end
`

// waitFor polls a condition until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}
