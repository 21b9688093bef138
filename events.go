// events.go: typed lifecycle events published to the host application
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// PanelAvailableEvent is published when a plugin's panel has been
// instantiated and is ready for the host UI to mount.
type PanelAvailableEvent struct {
	Plugin string
	Panel  Panel
	At     time.Time
}

// PanelUnavailableEvent is published when a plugin's last matched device
// disconnected and its panel was flagged inactive.
type PanelUnavailableEvent struct {
	Plugin string
	At     time.Time
}

// PluginLoadErrorEvent is published once per bundle that failed to load or
// per panel that failed to instantiate.
type PluginLoadErrorEvent struct {
	Plugin  string
	Message string
	At      time.Time
}

// Events is the typed publish mechanism between the manager and the host.
//
// Three named events with fixed payload shapes replace ad-hoc callbacks so
// the host-facing contract stays enumerable and testable. Dispatch is
// best-effort and synchronous on the publishing goroutine; a panicking
// subscriber is logged and does not affect other subscribers. There is no
// delivery retry — a missed event stays missed.
type Events struct {
	mu               sync.RWMutex
	panelAvailable   []func(PanelAvailableEvent)
	panelUnavailable []func(PanelUnavailableEvent)
	loadError        []func(PluginLoadErrorEvent)
	logger           Logger
}

func newEvents(logger Logger) *Events {
	if logger == nil {
		logger = DefaultLogger()
	}
	return &Events{logger: logger}
}

// OnPanelAvailable subscribes to panel-available events.
func (e *Events) OnPanelAvailable(fn func(PanelAvailableEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panelAvailable = append(e.panelAvailable, fn)
}

// OnPanelUnavailable subscribes to panel-unavailable events.
func (e *Events) OnPanelUnavailable(fn func(PanelUnavailableEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panelUnavailable = append(e.panelUnavailable, fn)
}

// OnLoadError subscribes to plugin-load-error events.
func (e *Events) OnLoadError(fn func(PluginLoadErrorEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadError = append(e.loadError, fn)
}

func (e *Events) publishPanelAvailable(plugin string, panel Panel) {
	ev := PanelAvailableEvent{Plugin: plugin, Panel: panel, At: timecache.CachedTime()}
	e.mu.RLock()
	subs := e.panelAvailable
	e.mu.RUnlock()
	for _, fn := range subs {
		e.dispatch("panel-available", plugin, func() { fn(ev) })
	}
}

func (e *Events) publishPanelUnavailable(plugin string) {
	ev := PanelUnavailableEvent{Plugin: plugin, At: timecache.CachedTime()}
	e.mu.RLock()
	subs := e.panelUnavailable
	e.mu.RUnlock()
	for _, fn := range subs {
		e.dispatch("panel-unavailable", plugin, func() { fn(ev) })
	}
}

func (e *Events) publishLoadError(plugin, message string) {
	ev := PluginLoadErrorEvent{Plugin: plugin, Message: message, At: timecache.CachedTime()}
	e.mu.RLock()
	subs := e.loadError
	e.mu.RUnlock()
	for _, fn := range subs {
		e.dispatch("plugin-load-error", plugin, func() { fn(ev) })
	}
}

// dispatch isolates subscriber panics from the publishing goroutine.
func (e *Events) dispatch(event, plugin string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Event subscriber panicked",
				"event", event, "plugin", plugin, "panic", r)
		}
	}()
	fn()
}
