// Package script runs Lua hooks against a running machine. A script may
// define on_frame(n), called after every completed frame; returning true
// from it asks the host to stop.
//
// Globals available to scripts:
//
//	read8(addr)       -> byte
//	write8(addr, v)
//	reg(name)         -> value of A..L, AF..HL, SP or PC
//	frame()           -> frames completed so far
package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

const hookName = "on_frame"

// Host is the machine surface a script can see.
type Host interface {
	Read8(addr uint16) byte
	Write8(addr uint16, v byte)
	Register(name string) (uint16, bool)
	Frames() uint64
}

type Script struct {
	L    *lua.LState
	host Host
}

// Load runs the file at path once and returns the script ready for OnFrame.
func Load(path string, h Host) (*Script, error) {
	s := newScript(h)
	if err := s.L.DoFile(path); err != nil {
		s.Close()
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	return s, nil
}

// LoadString is Load for source held in memory.
func LoadString(src string, h Host) (*Script, error) {
	s := newScript(h)
	if err := s.L.DoString(src); err != nil {
		s.Close()
		return nil, fmt.Errorf("script: %w", err)
	}
	return s, nil
}

func newScript(h Host) *Script {
	s := &Script{L: lua.NewState(), host: h}
	s.L.SetGlobal("read8", s.L.NewFunction(s.read8))
	s.L.SetGlobal("write8", s.L.NewFunction(s.write8))
	s.L.SetGlobal("reg", s.L.NewFunction(s.reg))
	s.L.SetGlobal("frame", s.L.NewFunction(s.frame))
	return s
}

// HasHook reports whether the script defined on_frame.
func (s *Script) HasHook() bool {
	return s.L.GetGlobal(hookName).Type() == lua.LTFunction
}

// OnFrame calls on_frame with the current frame count. It is a no-op when
// the script has no hook.
func (s *Script) OnFrame() (stop bool, err error) {
	fn := s.L.GetGlobal(hookName)
	if fn.Type() != lua.LTFunction {
		return false, nil
	}
	err = s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LNumber(s.host.Frames()))
	if err != nil {
		return false, fmt.Errorf("%s: %w", hookName, err)
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)
	return lua.LVAsBool(ret), nil
}

func (s *Script) Close() { s.L.Close() }

func (s *Script) read8(L *lua.LState) int {
	addr := checkAddr(L, 1)
	L.Push(lua.LNumber(s.host.Read8(addr)))
	return 1
}

func (s *Script) write8(L *lua.LState) int {
	addr := checkAddr(L, 1)
	v := L.CheckInt(2)
	if v < 0 || v > 0xFF {
		L.ArgError(2, "value out of range")
		return 0
	}
	s.host.Write8(addr, byte(v))
	return 0
}

func (s *Script) reg(L *lua.LState) int {
	name := L.CheckString(1)
	v, ok := s.host.Register(name)
	if !ok {
		L.ArgError(1, "unknown register "+name)
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (s *Script) frame(L *lua.LState) int {
	L.Push(lua.LNumber(s.host.Frames()))
	return 1
}

func checkAddr(L *lua.LState, n int) uint16 {
	addr := L.CheckInt(n)
	if addr < 0 || addr > 0xFFFF {
		L.ArgError(n, "address out of range")
		return 0
	}
	return uint16(addr)
}
