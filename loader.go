// loader.go: plugin bundle discovery, validation and script loading
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"os"
	"path/filepath"
)

// entryScriptName is the code entry file every bundle must provide.
const entryScriptName = "init.lua"

// LoadFailure reports one bundle that failed to load. Failures are
// per-bundle and non-fatal; discovery always continues with the remaining
// bundles.
type LoadFailure struct {
	// Plugin is the bundle directory name (the manifest may not have
	// parsed, so the declared name is not always available).
	Plugin string

	// Err is the structured load error.
	Err error
}

// Loader scans a plugins directory and produces plugin records.
//
// One bundle per immediate subdirectory. Each bundle needs a manifest
// (plugin.json or plugin.yaml) and an init.lua entry script; the script is
// executed in a sandboxed state scoped to the bundle directory and the
// declared panel class is capability-checked before the record is built.
//
// Discovery runs once at manager startup, before the device monitor
// starts, so it needs no locking of its own.
type Loader struct {
	pluginsPath string
	logger      Logger
}

// NewLoader creates a loader rooted at the plugins directory.
func NewLoader(pluginsPath string, logger Logger) *Loader {
	if logger == nil {
		logger = DefaultLogger()
	}
	return &Loader{pluginsPath: pluginsPath, logger: logger}
}

// Discover loads every bundle under the plugins root. It returns the
// successfully loaded records keyed by declared plugin name, plus one
// LoadFailure per bad bundle. A second bundle declaring an already-loaded
// name overwrites the first; no ordering guarantee is made beyond the
// directory listing order.
//
// The returned error covers only the root directory listing itself; it is
// nil even when every individual bundle fails.
func (l *Loader) Discover() (map[string]*PluginRecord, []LoadFailure, error) {
	entries, err := os.ReadDir(l.pluginsPath)
	if err != nil {
		return nil, nil, NewPluginsDirError(l.pluginsPath, err)
	}

	records := make(map[string]*PluginRecord)
	var failures []LoadFailure

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		bundleDir := filepath.Join(l.pluginsPath, entry.Name())

		record, err := l.loadBundle(entry.Name(), bundleDir)
		if err != nil {
			l.logger.Warn("Plugin failed to load",
				"plugin", entry.Name(), "path", bundleDir, "error", err)
			failures = append(failures, LoadFailure{Plugin: entry.Name(), Err: err})
			continue
		}

		if prev, ok := records[record.Name]; ok {
			l.logger.Warn("Duplicate plugin name, previous bundle overwritten",
				"plugin", record.Name, "previous_path", prev.Path, "path", bundleDir)
			if prev.closer != nil {
				_ = prev.closer()
			}
		}
		records[record.Name] = record

		l.logger.Info("Loaded plugin",
			"plugin", record.Name, "panel_class", record.Manifest.PanelClass,
			"rules", len(record.Manifest.Devices), "path", bundleDir)
	}

	return records, failures, nil
}

// loadBundle validates and loads a single bundle directory.
func (l *Loader) loadBundle(dirName, bundleDir string) (*PluginRecord, error) {
	manifestPath := findManifest(bundleDir)
	if manifestPath == "" {
		return nil, NewMissingManifestError(dirName)
	}

	entryPath := filepath.Join(bundleDir, entryScriptName)
	if st, err := os.Stat(entryPath); err != nil || st.IsDir() {
		return nil, NewMissingEntryScriptError(dirName)
	}

	manifest, err := ParseManifest(manifestPath)
	if err != nil {
		return nil, NewManifestParseError(dirName, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	matcher, err := NewMatcher(manifest.Devices)
	if err != nil {
		return nil, err
	}

	state := NewScriptState(bundleDir)
	if err := state.DoFile(entryPath); err != nil {
		_ = state.Close()
		return nil, NewScriptLoadError(dirName, err)
	}

	factory, err := newLuaPanelFactory(manifest.Name, state, manifest.PanelClass)
	if err != nil {
		_ = state.Close()
		return nil, err
	}

	return newPluginRecord(manifest.Name, manifest, bundleDir, factory, matcher, state.Close), nil
}
