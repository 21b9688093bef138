// monitor.go: background device polling loop
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"sync/atomic"
	"time"
)

// DeviceMonitor polls the device list on a fixed interval and emits
// connect/disconnect events for the symmetric difference against the
// previously known set.
//
// Polling was chosen over an OS hotplug subscription for portability: one
// goroutine, one enumeration per interval, no platform event plumbing.
// The loop never terminates on a transient enumeration error — it logs,
// backs off for a longer interval and retries. Cancellation is
// cooperative: Stop closes the stop channel and the loop observes it at
// each sleep, so shutdown latency is bounded by the polling interval.
//
// Callbacks run on the monitor goroutine. The Manager takes its registry
// lock inside them.
type DeviceMonitor struct {
	enum         Enumerator
	onConnect    func(DeviceInfo)
	onDisconnect func(path string)
	logger       Logger

	startupDelay time.Duration
	errorBackoff time.Duration
	pollInterval atomic.Int64 // nanoseconds, mutable for hot reload

	running  atomic.Bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewDeviceMonitor creates a monitor. Callbacks may be nil.
func NewDeviceMonitor(enum Enumerator, cfg ManagerConfig, onConnect func(DeviceInfo), onDisconnect func(string), logger Logger) *DeviceMonitor {
	if logger == nil {
		logger = DefaultLogger()
	}
	m := &DeviceMonitor{
		enum:         enum,
		onConnect:    onConnect,
		onDisconnect: onDisconnect,
		logger:       logger,
		startupDelay: cfg.StartupDelay,
		errorBackoff: cfg.ErrorBackoff,
	}
	m.pollInterval.Store(int64(cfg.PollInterval))
	return m
}

// Start launches the polling goroutine. Idempotent.
func (m *DeviceMonitor) Start() {
	if m.running.CompareAndSwap(false, true) {
		m.stopChan = make(chan struct{})
		m.doneChan = make(chan struct{})
		go m.run()
	}
}

// Stop halts polling and waits for the goroutine to finish. Idempotent.
func (m *DeviceMonitor) Stop() {
	if m.running.CompareAndSwap(true, false) {
		close(m.stopChan)
		<-m.doneChan
	}
}

// IsRunning reports whether the polling goroutine is active.
func (m *DeviceMonitor) IsRunning() bool { return m.running.Load() }

// SetPollInterval adjusts the polling interval; takes effect at the next
// iteration. Used by the runtime configuration watcher.
func (m *DeviceMonitor) SetPollInterval(d time.Duration) {
	if d > 0 {
		m.pollInterval.Store(int64(d))
	}
}

// PollInterval returns the current polling interval.
func (m *DeviceMonitor) PollInterval() time.Duration {
	return time.Duration(m.pollInterval.Load())
}

func (m *DeviceMonitor) run() {
	defer close(m.doneChan)

	// Startup grace delay so the host finishes initializing before the
	// first wave of connect events.
	if !m.sleep(m.startupDelay) {
		return
	}

	known := make(map[string]DeviceInfo)

	for {
		devices, err := m.enum.Enumerate()
		if err != nil {
			m.logger.Warn("Device enumeration failed, backing off", "error", err)
			if !m.sleep(m.errorBackoff) {
				return
			}
			continue
		}

		current := make(map[string]DeviceInfo, len(devices))
		for _, dev := range devices {
			current[dev.Path] = dev
		}

		for path, dev := range current {
			if _, ok := known[path]; !ok {
				m.logger.Debug("Device connected", "path", path, "name", dev.Name)
				if m.onConnect != nil {
					m.onConnect(dev)
				}
			}
		}
		for path := range known {
			if _, ok := current[path]; !ok {
				m.logger.Debug("Device disconnected", "path", path)
				if m.onDisconnect != nil {
					m.onDisconnect(path)
				}
			}
		}

		known = current

		if !m.sleep(m.PollInterval()) {
			return
		}
	}
}

// sleep waits for d or until Stop is requested. Returns false on stop.
func (m *DeviceMonitor) sleep(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-m.stopChan:
			return false
		default:
			return true
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-m.stopChan:
		return false
	}
}
