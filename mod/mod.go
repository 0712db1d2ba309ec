// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mod resolves import statements. Two kinds of module exist: a
// sibling .mda source file, whose function declarations are loaded
// directly, and a compiled addon directory holding a wasm binary plus
// a module.toml manifest, whose exports are bound as external
// functions through the wazero runtime.
package mod // import "madola.dev/madola/mod"

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/naoina/toml"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"madola.dev/madola/ast"
	"madola.dev/madola/config"
	"madola.dev/madola/exec"
	"madola.dev/madola/parse"
	"madola.dev/madola/scan"
	"madola.dev/madola/value"
)

// Manifest describes a compiled addon module. The generator writes it
// as module.toml next to the wasm binary; the resolver reads it back to
// learn the exported functions and their arities.
type Manifest struct {
	Name      string         `toml:"name"`
	Wasm      string         `toml:"wasm"`
	Functions []ManifestFunc `toml:"functions"`
}

type ManifestFunc struct {
	Name  string `toml:"name"`
	Arity int    `toml:"arity"`
}

// Resolver loads modules for import statements. Search order is the
// directory of the importing file, then the configured module path.
type Resolver struct {
	conf *config.Config
	dir  string // directory of the file being executed

	runtime wazero.Runtime
}

// NewResolver returns a resolver rooted at the importing file's
// directory. An empty dir means the current directory.
func NewResolver(conf *config.Config, dir string) *Resolver {
	if dir == "" {
		dir = "."
	}
	return &Resolver{conf: conf, dir: dir}
}

// Close releases the wazero runtime, if one was started.
func (r *Resolver) Close() error {
	if r.runtime == nil {
		return nil
	}
	return r.runtime.Close(context.Background())
}

// Import satisfies eval.Importer. Errors panic as value.Error, matching
// the evaluator's error flow.
func (r *Resolver) Import(ctx *exec.Context, imp *ast.Import) {
	// A sibling source file takes priority over a compiled module of
	// the same name.
	src := filepath.Join(r.dir, imp.Module+".mda")
	if _, err := os.Stat(src); err == nil {
		r.importSource(ctx, imp, src)
		return
	}
	for _, dir := range r.conf.ModulePath() {
		manifest := filepath.Join(dir, imp.Module, "module.toml")
		if _, err := os.Stat(manifest); err == nil {
			r.importAddon(ctx, imp, filepath.Join(dir, imp.Module))
			return
		}
	}
	value.Errorf("module not found: %s", imp.Module)
}

// importSource parses a sibling .mda file and loads its function
// declarations. The file is not executed; only declarations carry over.
func (r *Resolver) importSource(ctx *exec.Context, imp *ast.Import, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		value.Errorf("cannot import %s: %v", imp.Module, err)
	}
	p := parse.NewParser(r.conf, scan.New(r.conf, path, string(data)))
	prog, err := p.Program()
	if err != nil {
		value.Errorf("cannot import %s: %v", imp.Module, err)
	}
	funcs := make(map[string]*exec.Function)
	for _, s := range prog.Stmts {
		switch s := s.(type) {
		case *ast.FuncDecl:
			funcs[s.Name] = &exec.Function{
				Name:       s.Name,
				Params:     s.Params,
				Body:       s.Body,
				Decorators: s.Decorators,
			}
		case *ast.PiecewiseDecl:
			funcs[s.Name] = &exec.Function{
				Name:      s.Name,
				Params:    s.Params,
				Piecewise: s.Cases,
			}
		}
	}
	if len(imp.Items) == 0 {
		for _, fn := range funcs {
			ctx.Define(fn)
		}
		return
	}
	for _, item := range imp.Items {
		fn, ok := funcs[item.Name]
		if !ok {
			value.Errorf("module %s has no function %s", imp.Module, item.Name)
		}
		renamed := *fn
		renamed.Name = item.Bound()
		ctx.Define(&renamed)
	}
}

// importAddon instantiates a compiled wasm module and binds its exports
// as external functions.
func (r *Resolver) importAddon(ctx *exec.Context, imp *ast.Import, dir string) {
	data, err := os.ReadFile(filepath.Join(dir, "module.toml"))
	if err != nil {
		value.Errorf("cannot import %s: %v", imp.Module, err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		value.Errorf("cannot import %s: bad manifest: %v", imp.Module, err)
	}
	wasmFile := m.Wasm
	if wasmFile == "" {
		wasmFile = m.Name + ".wasm"
	}
	bin, err := os.ReadFile(filepath.Join(dir, wasmFile))
	if err != nil {
		value.Errorf("cannot import %s: %v", imp.Module, err)
	}

	instance, err := r.instantiate(imp.Module, bin)
	if err != nil {
		value.Errorf("cannot import %s: %v", imp.Module, err)
	}

	externals := make(map[string]exec.External)
	for _, f := range m.Functions {
		wfn := instance.ExportedFunction(f.Name)
		if wfn == nil {
			value.Errorf("cannot import %s: %s not exported by wasm module", imp.Module, f.Name)
		}
		externals[f.Name] = wasmExternal(f.Name, f.Arity, wfn)
	}
	if len(imp.Items) == 0 {
		for name, ext := range externals {
			ctx.Externals[name] = ext
		}
		return
	}
	for _, item := range imp.Items {
		ext, ok := externals[item.Name]
		if !ok {
			value.Errorf("module %s has no function %s", imp.Module, item.Name)
		}
		ctx.Externals[item.Bound()] = ext
	}
}

// envModule is a minimal wasm module exporting the memory and funcref
// table that generated addons import from the env namespace. wazero
// host modules cannot export memories, so the environment is a real
// module, assembled by hand.
var envModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x04, 0x04, 0x01, 0x70, 0x00, 0x00, // table: funcref, min 0
	0x05, 0x03, 0x01, 0x00, 0x01, // memory: min 1 page
	0x07, 0x12, 0x02, // exports
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x05, 't', 'a', 'b', 'l', 'e', 0x01, 0x00,
}

// instantiate starts the wazero runtime on first use, installs the env
// module, and instantiates the addon.
func (r *Resolver) instantiate(name string, bin []byte) (api.Module, error) {
	bg := context.Background()
	if r.runtime == nil {
		rt := wazero.NewRuntime(bg)
		if _, err := rt.InstantiateWithConfig(bg, envModule, wazero.NewModuleConfig().WithName("env")); err != nil {
			rt.Close(bg)
			return nil, fmt.Errorf("installing wasm environment: %v", err)
		}
		r.runtime = rt
	}
	return r.runtime.InstantiateWithConfig(bg, bin, wazero.NewModuleConfig().WithName(name))
}

// wasmExternal wraps an exported wasm function as an External. All
// parameters and the result are f64.
func wasmExternal(name string, arity int, fn api.Function) exec.External {
	return func(args []value.Value) value.Value {
		if len(args) != arity {
			value.Errorf("%s takes %d arguments, have %d", name, arity, len(args))
		}
		raw := make([]uint64, len(args))
		for i, a := range args {
			n, ok := a.(value.Number)
			if !ok {
				value.Errorf("%s: argument %d is %s, not a number", name, i+1, value.TypeName(a))
			}
			raw[i] = api.EncodeF64(n.Val)
		}
		res, err := fn.Call(context.Background(), raw...)
		if err != nil {
			value.Errorf("%s: %v", name, err)
		}
		if len(res) == 0 {
			return nil
		}
		return value.Num(api.DecodeF64(res[0]))
	}
}

// WriteManifest writes a module.toml for a generated addon.
func WriteManifest(dir string, m *Manifest) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %v", err)
	}
	return os.WriteFile(filepath.Join(dir, "module.toml"), data, 0o666)
}
