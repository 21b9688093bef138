// lua_state.go: sandboxed Lua script state for plugin bundles
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// ScriptState wraps one gopher-lua state scoped to a single plugin bundle.
//
// gopher-lua's LState is not goroutine-safe; every operation on a
// ScriptState takes its mutex, so panel calls from the device monitor and
// the host thread serialize here as well as under the manager lock. Lua
// panics are recovered into errors and never escape to the caller.
//
// The sandbox opens only the base, table, string and math libraries. The
// io, os, debug and package libraries stay closed; sibling imports within
// the bundle go through a bundle-scoped require that refuses to escape the
// plugin directory.
type ScriptState struct {
	L *lua.LState

	mu     sync.Mutex
	dir    string
	closed bool
}

// NewScriptState creates a sandboxed state rooted at the bundle directory.
func NewScriptState(bundleDir string) *ScriptState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	s := &ScriptState{L: L, dir: filepath.Clean(bundleDir)}
	s.installRequire()
	return s
}

// installRequire replaces require with a loader confined to the bundle
// directory. Module names use dot separators and resolve to .lua files;
// results are cached like stock require.
func (s *ScriptState) installRequire() {
	loaded := s.L.NewTable()
	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if cached := loaded.RawGetString(name); cached != lua.LNil {
			L.Push(cached)
			return 1
		}

		rel := strings.ReplaceAll(name, ".", string(filepath.Separator)) + ".lua"
		path := filepath.Join(s.dir, rel)
		if !strings.HasPrefix(path, s.dir+string(filepath.Separator)) {
			L.RaiseError("module %q escapes the plugin directory", name)
			return 0
		}

		fn, err := L.LoadFile(path)
		if err != nil {
			L.RaiseError("cannot load module %q: %v", name, err)
			return 0
		}
		L.Push(fn)
		L.Call(0, 1)
		ret := L.Get(-1)
		L.Pop(1)
		if ret == lua.LNil {
			ret = lua.LTrue
		}
		loaded.RawSetString(name, ret)
		L.Push(ret)
		return 1
	}))
}

// DoFile executes a Lua file synchronously with panic recovery.
func (s *ScriptState) DoFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewScriptStateClosedError(filepath.Base(s.dir))
	}
	return recovered(func() error { return s.L.DoFile(path) })
}

// Global returns a global value from the script environment.
func (s *ScriptState) Global(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// CallMethod invokes tbl[name](tbl, args...) and returns the results.
func (s *ScriptState) CallMethod(tbl *lua.LTable, name string, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewScriptStateClosedError(filepath.Base(s.dir))
	}

	fn := tbl.RawGetString(name)
	if fn.Type() != lua.LTFunction {
		return nil, NewScriptValueError(name, "function")
	}
	return s.pcall(fn, append([]lua.LValue{tbl}, args...)...)
}

// CallFunction invokes a Lua function value with the given arguments.
func (s *ScriptState) CallFunction(fn lua.LValue, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewScriptStateClosedError(filepath.Base(s.dir))
	}
	return s.pcall(fn, args...)
}

// pcall pushes and calls fn, collecting all return values. Callers hold mu.
func (s *ScriptState) pcall(fn lua.LValue, args ...lua.LValue) ([]lua.LValue, error) {
	top := s.L.GetTop()

	s.L.Push(fn)
	for _, a := range args {
		s.L.Push(a)
	}

	err := recovered(func() error { return s.L.PCall(len(args), lua.MultRet, nil) })
	if err != nil {
		s.L.SetTop(top)
		return nil, err
	}

	n := s.L.GetTop() - top
	if n <= 0 {
		return []lua.LValue{}, nil
	}
	results := make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		results[i] = s.L.Get(top + i + 1)
	}
	s.L.Pop(n)
	return results, nil
}

// with runs fn with the raw state while holding the mutex. Used by the
// panel binding to build argument tables in the owning state.
func (s *ScriptState) with(fn func(L *lua.LState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewScriptStateClosedError(filepath.Base(s.dir))
	}
	return recovered(func() error { return fn(s.L) })
}

// Close releases the Lua state. Idempotent.
func (s *ScriptState) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}

func recovered(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// goToLua converts a Go value into a Lua value. Maps with string keys and
// slices become tables; unsupported types become nil.
func goToLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case uint16:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case map[string]any:
		t := L.NewTable()
		for k, val := range x {
			t.RawSetString(k, goToLua(L, val))
		}
		return t
	case []any:
		t := L.NewTable()
		for _, val := range x {
			t.Append(goToLua(L, val))
		}
		return t
	default:
		return lua.LNil
	}
}

// luaToGo converts a Lua value into a Go value. Tables with contiguous
// 1-based integer keys become []any, all other tables become
// map[string]any. Cycles are broken by returning nil for revisited tables.
func luaToGo(v lua.LValue) any {
	return luaToGoVisited(v, make(map[*lua.LTable]bool))
}

func luaToGoVisited(v lua.LValue, visited map[*lua.LTable]bool) any {
	switch x := v.(type) {
	case lua.LBool:
		return bool(x)
	case lua.LString:
		return string(x)
	case lua.LNumber:
		f := float64(x)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case *lua.LTable:
		if visited[x] {
			return nil
		}
		visited[x] = true
		return tableToGo(x, visited)
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	maxN := 0
	isArray := true
	t.ForEach(func(k, _ lua.LValue) {
		n, ok := k.(lua.LNumber)
		if !ok || float64(n) != float64(int(n)) || int(n) < 1 {
			isArray = false
			return
		}
		if int(n) > maxN {
			maxN = int(n)
		}
	})

	if isArray && maxN > 0 {
		arr := make([]any, 0, maxN)
		for i := 1; i <= maxN; i++ {
			arr = append(arr, luaToGoVisited(t.RawGetInt(i), visited))
		}
		return arr
	}

	m := make(map[string]any)
	t.ForEach(func(k, val lua.LValue) {
		m[k.String()] = luaToGoVisited(val, visited)
	})
	return m
}
