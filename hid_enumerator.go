// hid_enumerator.go: HID-backed device enumeration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"errors"

	"github.com/karalabe/hid"
)

// HIDEnumerator enumerates HID devices through the platform HID manager.
// This is the default backend: the panels this library manages attach to
// wheels, pads and similar HID-class input hardware.
type HIDEnumerator struct{}

// NewHIDEnumerator creates the HID enumeration backend.
func NewHIDEnumerator() *HIDEnumerator {
	return &HIDEnumerator{}
}

// Enumerate implements Enumerator. Devices without a usable path are
// skipped; the HID layer already omits devices that vanished mid-scan.
func (e *HIDEnumerator) Enumerate() ([]DeviceInfo, error) {
	if !hid.Supported() {
		return nil, NewEnumerationError(errors.New("hid not supported on this platform"))
	}

	infos, err := hid.Enumerate(0, 0)
	if err != nil {
		return nil, NewEnumerationError(err)
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for _, info := range infos {
		if info.Path == "" {
			continue
		}
		name := info.Product
		if name == "" {
			name = info.Manufacturer
		}
		devices = append(devices, DeviceInfo{
			Path:      info.Path,
			Name:      name,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
		})
	}
	return devices, nil
}

// Close implements Enumerator.
func (e *HIDEnumerator) Close() error { return nil }
