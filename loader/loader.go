// Package loader layers Lua economy scripts over the built-in definitions.
// The Lua VM is discarded after loading; nothing runs Lua at runtime.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/econcore/engine/state"
)

// collector accumulates Lua definitions during file execution, in source
// order.
type collector struct {
	economy     []*lua.LTable
	items       []rawDef
	loans       []rawDef
	investments []rawDef
	shops       []rawDef
	handlers    []rawHandler
}

// Option configures Load.
type Option func(*options)

type options struct {
	log  *slog.Logger
	base *state.Defs
}

// WithLogger sets where validation warnings are logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithBase layers the scripts over defs instead of state.DefaultDefs. defs
// is modified in place.
func WithBase(defs *state.Defs) Option {
	return func(o *options) { o.base = defs }
}

// Load runs every .lua file in dir over the base definitions and returns
// the validated result. An empty dir returns the base unchanged.
func Load(dir string, opts ...Option) (*state.Defs, error) {
	o := options{log: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}
	log := o.log.With("component", "loader")

	defs := o.base
	if defs == nil {
		defs = state.DefaultDefs()
	}
	if dir == "" {
		return defs, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scripts directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		log.Warn("no scripts found, using built-in economy", "dir", dir)
		return defs, nil
	}
	files = sortedLuaFiles(files)

	L := newVM()
	defer L.Close()
	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range files {
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	if err := compile(coll, defs); err != nil {
		return nil, fmt.Errorf("compiling economy scripts: %w", err)
	}
	warnings, err := validate(defs)
	for _, w := range warnings {
		log.Warn("script warning", "detail", w)
	}
	if err != nil {
		return nil, err
	}
	log.Info("economy scripts loaded", "dir", dir, "files", len(files),
		"items", len(defs.Items), "shops", len(defs.Shops), "handlers", len(defs.Handlers))
	return defs, nil
}

func newVM() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	return L
}

// openSafeLibs opens base, table, string and math only.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach the filesystem or bypass metatables.
func sandbox(L *lua.LState) {
	for _, name := range []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require", "module",
	} {
		L.SetGlobal(name, lua.LNil)
	}
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("randomseed", lua.LNil)
	}
}

// sortedLuaFiles puts economy.lua first, the rest alphabetical.
func sortedLuaFiles(files []string) []string {
	out := append([]string(nil), files...)
	sort.Slice(out, func(i, j int) bool {
		if out[i] == "economy.lua" {
			return out[j] != "economy.lua"
		}
		if out[j] == "economy.lua" {
			return false
		}
		return out[i] < out[j]
	})
	return out
}
