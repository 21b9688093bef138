// plugin.go: core panel capability contract and plugin record types
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

// ActiveSignal is passed to Panel.Active to drive panel visibility.
//
// The values mirror the host application's convention for built-in panels:
// a freshly constructed panel is initialized inactive before its first
// activation so that a subsequent activate call observes a state change.
type ActiveSignal int

const (
	// SignalInitInactive initializes a freshly created panel as inactive.
	SignalInitInactive ActiveSignal = -2

	// SignalDeactivate hides the panel when its last device disconnects.
	SignalDeactivate ActiveSignal = -1

	// SignalActivate shows the panel while at least one device is matched.
	SignalActivate ActiveSignal = 1
)

// DeviceInfo is the OS-reported identity of one input device.
//
// A device exists only while the OS reports it present and is identified
// across enumeration passes by its Path.
type DeviceInfo struct {
	// Path is the stable OS path or handle of the device node.
	Path string `json:"path"`

	// Name is the human-readable device name.
	Name string `json:"name"`

	// VendorID is the USB vendor identifier.
	VendorID uint16 `json:"vendor_id"`

	// ProductID is the USB product identifier.
	ProductID uint16 `json:"product_id"`
}

// ButtonCallback is supplied by the host UI and forwarded to panels so
// plugin code can report control interactions back to the application.
type ButtonCallback func(control string, value any)

// PluginContext carries the runtime references a panel receives at
// construction time. The HID and settings handlers are opaque to this
// library; they are owned by the host and only passed through.
type PluginContext struct {
	// HIDHandler is the host's transport for talking to the device.
	HIDHandler any

	// SettingsHandler is the host's settings persistence layer.
	SettingsHandler any

	// PluginPath is the plugin's own bundle directory.
	PluginPath string

	// ConfigPath is the application's configuration directory.
	ConfigPath string
}

// Panel is the capability contract every plugin panel must satisfy.
//
// Implementations are typically Lua tables adapted by LuaPanel, but any Go
// value implementing this interface can be produced by a PanelFactory (the
// test suite does exactly that). All methods may be called from the device
// monitor goroutine or the host thread; the Manager serializes access.
//
// Errors returned by these methods are logged and swallowed by the
// Manager: a misbehaving panel must never destabilize other plugins.
type Panel interface {
	// OnDeviceConnected notifies the panel that a matched device appeared.
	OnDeviceConnected(dev DeviceInfo) error

	// OnDeviceDisconnected notifies the panel that a matched device vanished.
	OnDeviceDisconnected(dev DeviceInfo) error

	// Active drives panel visibility, see ActiveSignal.
	Active(signal ActiveSignal) error

	// Shutdown releases panel resources during manager teardown.
	// It should be idempotent.
	Shutdown() error

	// PresetDeviceName is the panel's self-reported preset identity.
	PresetDeviceName() string

	// PresetSettings returns the panel's current settings for preset capture.
	PresetSettings() (map[string]any, error)

	// OnPresetLoaded applies previously captured preset settings.
	OnPresetLoaded(settings map[string]any) error
}

// PanelFactory creates panel instances for one plugin. The production
// implementation binds a Lua factory table; tests substitute stubs.
type PanelFactory interface {
	// CreatePanel constructs the panel with its display title, the host's
	// button callback and the runtime context.
	CreatePanel(title string, callback ButtonCallback, ctx PluginContext) (Panel, error)
}

// PluginRecord is one entry in the manager's registry: a successfully
// loaded plugin bundle together with its live device set and at most one
// panel instance.
//
// The device set and panel reference are mutated only by the Manager under
// its registry lock. Name, Manifest and Path are immutable after load.
type PluginRecord struct {
	// Name is the registry key, unique among loaded plugins.
	Name string

	// Manifest is the validated bundle metadata.
	Manifest *PluginManifest

	// Path is the bundle directory on disk.
	Path string

	factory PanelFactory
	matcher *Matcher
	closer  func() error // releases the bundle's script state, may be nil

	// Mutable under the manager lock.
	devices map[string]DeviceInfo
	panel   Panel
}

// Title returns the panel display title, defaulting to the plugin name.
func (r *PluginRecord) Title() string {
	if r.Manifest != nil && r.Manifest.PanelTitle != "" {
		return r.Manifest.PanelTitle
	}
	return r.Name
}

// newPluginRecord constructs a record with an empty device set and no panel.
func newPluginRecord(name string, manifest *PluginManifest, path string, factory PanelFactory, matcher *Matcher, closer func() error) *PluginRecord {
	return &PluginRecord{
		Name:     name,
		Manifest: manifest,
		Path:     path,
		factory:  factory,
		matcher:  matcher,
		closer:   closer,
		devices:  make(map[string]DeviceInfo),
	}
}
