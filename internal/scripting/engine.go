package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for tunable formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script under the known
// subdirectories of scriptsDir. Missing directories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	for _, sub := range []string{"core", "threat"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source. Used by tests and the console.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// HasFunction reports whether a global Lua function is defined.
func (e *Engine) HasFunction(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// CalcThreatLevel calls calc_threat_level(distance). ok is false when the
// function is missing, fails, or returns something other than a number.
func (e *Engine) CalcThreatLevel(distance float64) (level int, ok bool) {
	v, ok := e.callNumberFunc("calc_threat_level", distance)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// ThreatLevelFunc returns a level function backed by calc_threat_level,
// using fallback whenever the script cannot answer. Without the function it
// returns fallback itself.
func (e *Engine) ThreatLevelFunc(fallback func(float64) int) func(float64) int {
	if !e.HasFunction("calc_threat_level") {
		e.log.Info("lua calc_threat_level not defined, using built-in threat levels")
		return fallback
	}
	return func(distance float64) int {
		if lvl, ok := e.CalcThreatLevel(distance); ok {
			return lvl
		}
		return fallback(distance)
	}
}

// callNumberFunc calls a Lua function with number args and returns a number.
func (e *Engine) callNumberFunc(name string, args ...float64) (float64, bool) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return 0, false
	}

	lArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lArgs[i] = lua.LNumber(a)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lArgs...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return 0, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua function returned non-number",
			zap.String("func", name),
			zap.String("type", result.Type().String()),
		)
		return 0, false
	}
	return float64(n), true
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
