// manifest.go: plugin bundle metadata parsing and validation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest file names probed in each plugin bundle, in order.
var manifestFileNames = []string{"plugin.json", "plugin.yaml", "plugin.yml"}

// DeviceID is a USB vendor or product identifier that deserializes from
// either a plain integer (1133) or a hexadecimal string ("0x046d" or
// "046d"). Both spellings denote the same value.
type DeviceID uint16

// UnmarshalJSON implements json.Unmarshaler.
func (d *DeviceID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return d.parseHex(s)
	}

	var n uint16
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("device id must be an integer or hex string: %w", err)
	}
	*d = DeviceID(n)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *DeviceID) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!str" {
		return d.parseHex(value.Value)
	}

	var n uint16
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("device id must be an integer or hex string: %w", err)
	}
	*d = DeviceID(n)
	return nil
}

// parseHex parses a string form as base-16, with or without a 0x prefix.
func (d *DeviceID) parseHex(s string) error {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	n, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return fmt.Errorf("invalid hex device id %q: %w", s, err)
	}
	*d = DeviceID(n)
	return nil
}

// DeviceRule is one plugin-declared matching rule. A rule may declare a
// vendor/product pair, a name pattern, or both; a device satisfying either
// declared condition matches the rule.
type DeviceRule struct {
	VendorID    *DeviceID `json:"vendor_id,omitempty" yaml:"vendor_id,omitempty"`
	ProductID   *DeviceID `json:"product_id,omitempty" yaml:"product_id,omitempty"`
	NamePattern string    `json:"name_pattern,omitempty" yaml:"name_pattern,omitempty"`
}

// PluginManifest is the declared identity of a plugin bundle.
//
// Example plugin.json:
//
//	{
//	  "name": "wheel",
//	  "panel_class": "WheelPanel",
//	  "panel_title": "Racing Wheel",
//	  "devices": [
//	    {"vendor_id": "0x046d", "product_id": "0xc24f"},
//	    {"name_pattern": "racing wheel"}
//	  ]
//	}
type PluginManifest struct {
	Name       string       `json:"name" yaml:"name"`
	PanelClass string       `json:"panel_class" yaml:"panel_class"`
	PanelTitle string       `json:"panel_title,omitempty" yaml:"panel_title,omitempty"`
	Devices    []DeviceRule `json:"devices" yaml:"devices"`

	// devicesPresent records whether the devices key appeared at all, so
	// validation can distinguish a missing field from an empty rule list.
	devicesPresent bool
}

// manifestProbe mirrors PluginManifest with raw fields used only to detect
// which keys were present in the document.
type manifestProbe struct {
	Devices *[]DeviceRule `json:"devices" yaml:"devices"`
}

// findManifest returns the path of the bundle's manifest file, or "" when
// no manifest exists.
func findManifest(bundleDir string) string {
	for _, name := range manifestFileNames {
		p := filepath.Join(bundleDir, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// ParseManifest reads and decodes a manifest file. JSON or YAML is chosen
// by file extension. Syntax errors are returned verbatim so the loader can
// surface the parser's message.
func ParseManifest(path string) (*PluginManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m PluginManifest
	var probe manifestProbe
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, err
		}
	}
	m.devicesPresent = probe.Devices != nil
	return &m, nil
}

// Validate checks the required manifest fields and returns the name of the
// first missing field.
func (m *PluginManifest) Validate() error {
	if m.Name == "" {
		return NewManifestFieldError("name")
	}
	if m.PanelClass == "" {
		return NewManifestFieldError("panel_class")
	}
	if !m.devicesPresent {
		return NewManifestFieldError("devices")
	}
	return nil
}
