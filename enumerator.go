// enumerator.go: device enumeration boundary
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

// Enumerator lists the input devices currently present on the system.
//
// Backends exist for HID (NewHIDEnumerator) and raw USB
// (NewUSBEnumerator); tests inject in-memory fakes. Implementations must
// skip individual devices that cannot be opened mid-scan — that is an
// expected race under hardware churn, not an error — and return an error
// only when enumeration itself is unavailable.
type Enumerator interface {
	// Enumerate returns all currently present devices.
	Enumerate() ([]DeviceInfo, error)

	// Close releases any resources held by the enumerator.
	Close() error
}
