// manifest_test.go: manifest parsing and validation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeManifestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDeviceID_Forms(t *testing.T) {
	t.Run("JSONInteger", func(t *testing.T) {
		var id DeviceID
		require.NoError(t, json.Unmarshal([]byte(`1133`), &id))
		assert.Equal(t, DeviceID(0x046d), id)
	})

	t.Run("JSONHexStringWithPrefix", func(t *testing.T) {
		var id DeviceID
		require.NoError(t, json.Unmarshal([]byte(`"0x046d"`), &id))
		assert.Equal(t, DeviceID(0x046d), id)
	})

	t.Run("JSONHexStringBare", func(t *testing.T) {
		var id DeviceID
		require.NoError(t, json.Unmarshal([]byte(`"046d"`), &id))
		assert.Equal(t, DeviceID(0x046d), id)
	})

	t.Run("YAMLHexString", func(t *testing.T) {
		var id DeviceID
		require.NoError(t, yaml.Unmarshal([]byte(`"0x5678"`), &id))
		assert.Equal(t, DeviceID(0x5678), id)
	})

	t.Run("YAMLInteger", func(t *testing.T) {
		var id DeviceID
		require.NoError(t, yaml.Unmarshal([]byte(`4660`), &id))
		assert.Equal(t, DeviceID(0x1234), id)
	})

	t.Run("InvalidString", func(t *testing.T) {
		var id DeviceID
		assert.Error(t, json.Unmarshal([]byte(`"zzzz"`), &id))
	})
}

func TestParseManifest_JSON(t *testing.T) {
	path := writeManifestFile(t, "plugin.json", `{
		"name": "wheel",
		"panel_class": "WheelPanel",
		"panel_title": "Racing Wheel",
		"devices": [
			{"vendor_id": "0x046d", "product_id": 49231},
			{"name_pattern": "wheel"}
		]
	}`)

	m, err := ParseManifest(path)
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	assert.Equal(t, "wheel", m.Name)
	assert.Equal(t, "WheelPanel", m.PanelClass)
	assert.Equal(t, "Racing Wheel", m.PanelTitle)
	require.Len(t, m.Devices, 2)
	assert.Equal(t, DeviceID(0x046d), *m.Devices[0].VendorID)
	assert.Equal(t, DeviceID(0xc04f), *m.Devices[0].ProductID)
	assert.Equal(t, "wheel", m.Devices[1].NamePattern)
}

func TestParseManifest_YAML(t *testing.T) {
	path := writeManifestFile(t, "plugin.yaml", `
name: pad
panel_class: PadPanel
devices:
  - vendor_id: "0x1234"
    product_id: "0x5678"
`)

	m, err := ParseManifest(path)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, "pad", m.Name)
	assert.Equal(t, DeviceID(0x1234), *m.Devices[0].VendorID)
}

func TestParseManifest_SyntaxError(t *testing.T) {
	path := writeManifestFile(t, "plugin.json", `{"name": "broken",`)
	_, err := ParseManifest(path)
	assert.Error(t, err)
}

func TestManifestValidate_MissingFields(t *testing.T) {
	cases := []struct {
		name     string
		manifest string
		field    string
	}{
		{"MissingName", `{"panel_class": "P", "devices": []}`, "name"},
		{"MissingPanelClass", `{"name": "x", "devices": []}`, "panel_class"},
		{"MissingDevices", `{"name": "x", "panel_class": "P"}`, "devices"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeManifestFile(t, "plugin.json", tc.manifest)
			m, err := ParseManifest(path)
			require.NoError(t, err)
			err = m.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestManifestValidate_EmptyDeviceListIsValid(t *testing.T) {
	// The devices key must be present; an empty rule list is legal and
	// simply matches nothing.
	path := writeManifestFile(t, "plugin.json", `{"name": "x", "panel_class": "P", "devices": []}`)
	m, err := ParseManifest(path)
	require.NoError(t, err)
	assert.NoError(t, m.Validate())
}

func TestManifest_TitleDefault(t *testing.T) {
	rec := &PluginRecord{Name: "wheel", Manifest: &PluginManifest{Name: "wheel"}}
	assert.Equal(t, "wheel", rec.Title())

	rec.Manifest.PanelTitle = "Racing Wheel"
	assert.Equal(t, "Racing Wheel", rec.Title())
}
