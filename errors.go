// errors.go: structured error definitions for the go-panels system
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"github.com/agilira/go-errors"
)

// Error codes for the go-panels system
const (
	// Configuration errors (1000-1099)
	ErrCodeInvalidConfigPath  = "CONFIG_1001"
	ErrCodeInvalidInterval    = "CONFIG_1002"
	ErrCodeRuntimeConfigParse = "CONFIG_1003"
	ErrCodeRuntimeConfigWatch = "CONFIG_1004"

	// Plugin load errors (1100-1199)
	ErrCodeMissingManifest    = "LOAD_1101"
	ErrCodeMissingEntryScript = "LOAD_1102"
	ErrCodeManifestParse      = "LOAD_1103"
	ErrCodeManifestField      = "LOAD_1104"
	ErrCodeScriptLoad         = "LOAD_1105"
	ErrCodeFactoryNotFound    = "LOAD_1106"
	ErrCodeCapability         = "LOAD_1107"
	ErrCodeRulePattern        = "LOAD_1108"
	ErrCodePluginsDir         = "LOAD_1109"

	// Panel runtime errors (1200-1299)
	ErrCodePanelCreate    = "PANEL_1201"
	ErrCodePanelCall      = "PANEL_1202"
	ErrCodePresetNotFound = "PANEL_1203"

	// Script engine errors (1300-1399)
	ErrCodeScriptStateClosed = "SCRIPT_1301"
	ErrCodeScriptCall        = "SCRIPT_1302"
	ErrCodeScriptValue       = "SCRIPT_1303"

	// Device monitor errors (1400-1499)
	ErrCodeEnumeration = "MONITOR_1401"
)

// Configuration error constructors

func NewInvalidConfigPathError(path string) *errors.Error {
	return errors.New(ErrCodeInvalidConfigPath, "Invalid configuration path").
		WithUserMessage("A configuration root path is required").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewInvalidIntervalError(field string, value any) *errors.Error {
	return errors.New(ErrCodeInvalidInterval, "Invalid interval").
		WithUserMessage("Polling intervals must be positive").
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity("error")
}

func NewRuntimeConfigParseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeRuntimeConfigParse, "Runtime configuration parse error").
		WithUserMessage("Failed to parse runtime configuration file").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewRuntimeConfigWatchError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeRuntimeConfigWatch, "Runtime configuration watch error").
		WithUserMessage("Failed to watch runtime configuration file").
		WithContext("config_path", path).
		WithSeverity("error")
}

// Plugin load error constructors. Load errors are per-bundle and non-fatal:
// the loader reports them individually and continues with other bundles.

func NewMissingManifestError(plugin string) *errors.Error {
	return errors.New(ErrCodeMissingManifest, "Missing plugin.json").
		WithUserMessage("Plugin bundle must contain a plugin.json (or plugin.yaml) manifest").
		WithContext("plugin_name", plugin).
		WithSeverity("error")
}

func NewMissingEntryScriptError(plugin string) *errors.Error {
	return errors.New(ErrCodeMissingEntryScript, "Missing init.lua").
		WithUserMessage("Plugin bundle must contain an init.lua entry script").
		WithContext("plugin_name", plugin).
		WithSeverity("error")
}

func NewManifestParseError(plugin string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeManifestParse, "Invalid plugin manifest").
		WithUserMessage("Failed to parse plugin manifest").
		WithContext("plugin_name", plugin).
		WithSeverity("error")
}

func NewManifestFieldError(field string) *errors.Error {
	return errors.New(ErrCodeManifestField, "Missing required field: "+field).
		WithUserMessage("Plugin manifest is missing a required field").
		WithContext("field", field).
		WithSeverity("error")
}

func NewScriptLoadError(plugin string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeScriptLoad, "Failed to load plugin script").
		WithUserMessage("The plugin entry script raised an error while loading").
		WithContext("plugin_name", plugin).
		WithSeverity("error")
}

func NewFactoryNotFoundError(plugin, factory string) *errors.Error {
	return errors.New(ErrCodeFactoryNotFound, "Panel class not found: "+factory).
		WithUserMessage("The declared panel class does not exist in the plugin script").
		WithContext("plugin_name", plugin).
		WithContext("panel_class", factory).
		WithSeverity("error")
}

func NewCapabilityError(plugin, factory, missing string) *errors.Error {
	return errors.New(ErrCodeCapability, "Panel class must implement panel capability").
		WithUserMessage("The declared panel class does not satisfy the panel contract").
		WithContext("plugin_name", plugin).
		WithContext("panel_class", factory).
		WithContext("missing_method", missing).
		WithSeverity("error")
}

func NewRulePatternError(pattern string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeRulePattern, "Invalid device name pattern").
		WithUserMessage("A device rule's name pattern failed to compile").
		WithContext("name_pattern", pattern).
		WithSeverity("error")
}

func NewPluginsDirError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodePluginsDir, "Plugins directory error").
		WithUserMessage("Failed to create or read the plugins directory").
		WithContext("plugins_path", path).
		WithSeverity("error")
}

// Panel runtime error constructors

func NewPanelCreateError(plugin string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodePanelCreate, "Failed to instantiate panel").
		WithUserMessage("The plugin's panel constructor failed").
		WithContext("plugin_name", plugin).
		WithSeverity("error")
}

func NewPanelCallError(plugin, method string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodePanelCall, "Panel call failed: "+method).
		WithUserMessage("The plugin's panel raised an error").
		WithContext("plugin_name", plugin).
		WithContext("method", method).
		WithSeverity("warning")
}

func NewPresetNotFoundError(deviceName string) *errors.Error {
	return errors.New(ErrCodePresetNotFound, "No plugin found for preset device").
		WithUserMessage("No active panel reports the requested preset identity").
		WithContext("preset_device_name", deviceName).
		WithSeverity("warning")
}

// Script engine error constructors

func NewScriptStateClosedError(plugin string) *errors.Error {
	return errors.New(ErrCodeScriptStateClosed, "Script state is closed").
		WithUserMessage("The plugin's script engine has been shut down").
		WithContext("plugin_name", plugin).
		WithSeverity("error")
}

func NewScriptCallError(name string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeScriptCall, "Script call failed: "+name).
		WithUserMessage("A plugin script function raised an error").
		WithContext("function", name).
		WithSeverity("warning")
}

func NewScriptValueError(name, expected string) *errors.Error {
	return errors.New(ErrCodeScriptValue, "Unexpected script value: "+name).
		WithUserMessage("A plugin script returned a value of the wrong type").
		WithContext("name", name).
		WithContext("expected", expected).
		WithSeverity("warning")
}

// Device monitor error constructors

func NewEnumerationError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeEnumeration, "Device enumeration failed").
		WithUserMessage("The device subsystem is temporarily unavailable").
		WithSeverity("warning").
		AsRetryable()
}
