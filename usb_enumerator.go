// usb_enumerator.go: raw USB device enumeration via gousb
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

//go:build cgo

package gopanels

import (
	"fmt"

	"github.com/google/gousb"
)

// USBEnumerator enumerates devices on the USB bus directly. Useful for
// hardware that does not expose a HID interface; most setups want the HID
// backend instead.
type USBEnumerator struct {
	ctx *gousb.Context
}

// NewUSBEnumerator creates the raw USB enumeration backend.
func NewUSBEnumerator() *USBEnumerator {
	return &USBEnumerator{ctx: gousb.NewContext()}
}

// Enumerate implements Enumerator. Each device is opened briefly to read
// its product string; devices that fail to open — permission races,
// unplugged mid-scan — are silently skipped, per the enumeration contract.
func (e *USBEnumerator) Enumerate() ([]DeviceInfo, error) {
	devices := make([]DeviceInfo, 0, 8)

	opened, err := e.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return true
	})
	// OpenDevices reports an error when any single open fails while still
	// returning the devices that did open. Only a fully empty result is an
	// enumeration failure.
	if len(opened) == 0 && err != nil {
		return nil, NewEnumerationError(err)
	}

	for _, dev := range opened {
		desc := dev.Desc
		name, nameErr := dev.Product()
		if nameErr != nil || name == "" {
			name = fmt.Sprintf("usb device %s:%s", desc.Vendor, desc.Product)
		}
		devices = append(devices, DeviceInfo{
			Path:      fmt.Sprintf("usb:%03d:%03d", desc.Bus, desc.Address),
			Name:      name,
			VendorID:  uint16(desc.Vendor),
			ProductID: uint16(desc.Product),
		})
		_ = dev.Close()
	}
	return devices, nil
}

// Close implements Enumerator.
func (e *USBEnumerator) Close() error {
	return e.ctx.Close()
}
