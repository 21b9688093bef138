// lua_panel.go: binds a Lua panel class to the Panel capability contract
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	lua "github.com/yuin/gopher-lua"
)

// panelMethods is the capability contract a Lua panel class must expose.
// The loader verifies every entry before the plugin is registered, so a
// missing method is a load error rather than a crash at first dispatch.
var panelMethods = []string{
	"new",
	"on_device_connected",
	"on_device_disconnected",
	"active",
	"shutdown",
	"get_preset_settings",
	"on_preset_loaded",
}

// LuaPanelFactory binds a resolved Lua panel class to the PanelFactory
// interface. The class is a global table in the bundle's script state with
// a `new(title, button, context)` constructor returning the panel table.
type LuaPanelFactory struct {
	plugin string
	state  *ScriptState
	class  *lua.LTable
}

// newLuaPanelFactory validates the panel capability contract on the class
// table and returns the factory. The returned error names the first
// missing method.
func newLuaPanelFactory(plugin string, state *ScriptState, className string) (*LuaPanelFactory, error) {
	v := state.Global(className)
	if v == lua.LNil {
		return nil, NewFactoryNotFoundError(plugin, className)
	}
	class, ok := v.(*lua.LTable)
	if !ok {
		return nil, NewCapabilityError(plugin, className, "new")
	}

	err := state.with(func(L *lua.LState) error {
		for _, m := range panelMethods {
			if L.GetField(class, m).Type() != lua.LTFunction {
				return NewCapabilityError(plugin, className, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &LuaPanelFactory{plugin: plugin, state: state, class: class}, nil
}

// CreatePanel calls the class constructor with the display title, a button
// callback bridge and a context table carrying the bundle and config paths
// plus the host's opaque handlers as userdata.
func (f *LuaPanelFactory) CreatePanel(title string, callback ButtonCallback, ctx PluginContext) (Panel, error) {
	var self *lua.LTable

	err := f.state.with(func(L *lua.LState) error {
		button := lua.LValue(lua.LNil)
		if callback != nil {
			cb := callback
			button = L.NewFunction(func(L *lua.LState) int {
				control := L.CheckString(1)
				var value any
				if L.GetTop() >= 2 {
					value = luaToGo(L.Get(2))
				}
				cb(control, value)
				return 0
			})
		}

		ctxTbl := L.NewTable()
		ctxTbl.RawSetString("plugin_path", lua.LString(ctx.PluginPath))
		ctxTbl.RawSetString("config_path", lua.LString(ctx.ConfigPath))
		if ctx.HIDHandler != nil {
			ud := L.NewUserData()
			ud.Value = ctx.HIDHandler
			ctxTbl.RawSetString("hid_handler", ud)
		}
		if ctx.SettingsHandler != nil {
			ud := L.NewUserData()
			ud.Value = ctx.SettingsHandler
			ctxTbl.RawSetString("settings_handler", ud)
		}

		newFn := L.GetField(f.class, "new")
		results, err := f.state.pcall(newFn, lua.LString(title), button, ctxTbl)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return NewScriptValueError("new", "panel table")
		}
		tbl, ok := results[0].(*lua.LTable)
		if !ok {
			return NewScriptValueError("new", "panel table")
		}
		self = tbl
		return nil
	})
	if err != nil {
		return nil, NewPanelCreateError(f.plugin, err)
	}

	return &LuaPanel{plugin: f.plugin, title: title, state: f.state, self: self}, nil
}

// LuaPanel adapts one instantiated Lua panel table to the Panel interface.
// Method lookups honor metatable inheritance, so class-style plugins work.
type LuaPanel struct {
	plugin string
	title  string
	state  *ScriptState
	self   *lua.LTable
}

// call invokes self:name(build(L)...) under a single state lock.
func (p *LuaPanel) call(name string, build func(L *lua.LState) []lua.LValue) ([]lua.LValue, error) {
	var out []lua.LValue
	err := p.state.with(func(L *lua.LState) error {
		fn := L.GetField(p.self, name)
		if fn.Type() != lua.LTFunction {
			return NewScriptValueError(name, "function")
		}
		args := []lua.LValue{p.self}
		if build != nil {
			args = append(args, build(L)...)
		}
		results, err := p.state.pcall(fn, args...)
		if err != nil {
			return err
		}
		out = results
		return nil
	})
	if err != nil {
		return nil, NewScriptCallError(name, err)
	}
	return out, nil
}

func deviceToLua(L *lua.LState, dev DeviceInfo) lua.LValue {
	t := L.NewTable()
	t.RawSetString("path", lua.LString(dev.Path))
	t.RawSetString("name", lua.LString(dev.Name))
	t.RawSetString("vendor_id", lua.LNumber(dev.VendorID))
	t.RawSetString("product_id", lua.LNumber(dev.ProductID))
	return t
}

// OnDeviceConnected implements Panel.
func (p *LuaPanel) OnDeviceConnected(dev DeviceInfo) error {
	_, err := p.call("on_device_connected", func(L *lua.LState) []lua.LValue {
		return []lua.LValue{deviceToLua(L, dev)}
	})
	return err
}

// OnDeviceDisconnected implements Panel.
func (p *LuaPanel) OnDeviceDisconnected(dev DeviceInfo) error {
	_, err := p.call("on_device_disconnected", func(L *lua.LState) []lua.LValue {
		return []lua.LValue{deviceToLua(L, dev)}
	})
	return err
}

// Active implements Panel.
func (p *LuaPanel) Active(signal ActiveSignal) error {
	_, err := p.call("active", func(L *lua.LState) []lua.LValue {
		return []lua.LValue{lua.LNumber(signal)}
	})
	return err
}

// Shutdown implements Panel.
func (p *LuaPanel) Shutdown() error {
	_, err := p.call("shutdown", nil)
	return err
}

// PresetDeviceName implements Panel. The identity comes from the panel's
// preset_device_name field and falls back to the display title.
func (p *LuaPanel) PresetDeviceName() string {
	name := p.title
	_ = p.state.with(func(L *lua.LState) error {
		if v, ok := L.GetField(p.self, "preset_device_name").(lua.LString); ok && v != "" {
			name = string(v)
		}
		return nil
	})
	return name
}

// PresetSettings implements Panel.
func (p *LuaPanel) PresetSettings() (map[string]any, error) {
	results, err := p.call("get_preset_settings", nil)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 || results[0] == lua.LNil {
		return map[string]any{}, nil
	}
	settings, ok := luaToGo(results[0]).(map[string]any)
	if !ok {
		return nil, NewScriptValueError("get_preset_settings", "table")
	}
	return settings, nil
}

// OnPresetLoaded implements Panel.
func (p *LuaPanel) OnPresetLoaded(settings map[string]any) error {
	_, err := p.call("on_preset_loaded", func(L *lua.LState) []lua.LValue {
		return []lua.LValue{goToLua(L, settings)}
	})
	return err
}
