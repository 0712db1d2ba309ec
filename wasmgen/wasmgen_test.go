// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasmgen_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"madola.dev/madola/ast"
	"madola.dev/madola/config"
	"madola.dev/madola/exec"
	"madola.dev/madola/mod"
	"madola.dev/madola/parse"
	"madola.dev/madola/scan"
	"madola.dev/madola/value"
	"madola.dev/madola/wasmgen"
)

// compile parses declarations into functions ready for generation.
func compile(t *testing.T, src string) []*exec.Function {
	t.Helper()
	conf := &config.Config{}
	prog, err := parse.NewParser(conf, scan.New(conf, "test", src)).Program()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var fns []*exec.Function
	for _, s := range prog.Stmts {
		switch d := s.(type) {
		case *ast.FuncDecl:
			fns = append(fns, &exec.Function{Name: d.Name, Params: d.Params, Body: d.Body})
		case *ast.PiecewiseDecl:
			fns = append(fns, &exec.Function{Name: d.Name, Params: d.Params, Piecewise: d.Cases})
		default:
			t.Fatalf("statement is %T, not a declaration", s)
		}
	}
	return fns
}

// load generates an addon module and binds its exports through the
// resolver, returning the externals table.
func load(t *testing.T, conf *config.Config, name, src string) map[string]exec.External {
	t.Helper()
	dir, err := wasmgen.Generate(conf, name, compile(t, src))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, f := range []string{name + ".wasm", "module.toml"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Fatalf("missing generated file %s: %v", f, err)
		}
	}

	r := mod.NewResolver(conf, t.TempDir())
	t.Cleanup(func() { r.Close() })
	ctx := exec.NewContext(conf)
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				e, ok := rec.(value.Error)
				if !ok {
					panic(rec)
				}
				t.Fatalf("import: %s", e)
			}
		}()
		r.Import(ctx, &ast.Import{Module: name})
	}()
	return ctx.Externals
}

func testConf(t *testing.T) *config.Config {
	t.Helper()
	conf := &config.Config{}
	conf.SetBaseDir(t.TempDir())
	conf.SetModulePath([]string{conf.TroveDir()})
	return conf
}

func callNum(t *testing.T, ext exec.External, args ...float64) float64 {
	t.Helper()
	vals := make([]value.Value, len(args))
	for i, a := range args {
		vals[i] = value.Num(a)
	}
	res, ok := ext(vals).(value.Number)
	if !ok {
		t.Fatal("external did not return a number")
	}
	return res.Val
}

func TestRoundTrip(t *testing.T) {
	const src = `
fn dbl(x) { return 2 * x; }
fn hyp(a, b) { return sqrt(a ^ 2 + b ^ 2); }
fn tri(n) { acc := 0; for k in 1...n { acc := acc + k; } return acc; }
fn rem(a, b) { return a % b; }
sgn(x) := piecewise { (1, x > 0), (-1, x < 0), (0, otherwise) };
`
	ext := load(t, testConf(t), "mathmod", src)
	for _, name := range []string{"dbl", "hyp", "tri", "rem", "sgn"} {
		if ext[name] == nil {
			t.Fatalf("%s not bound after import", name)
		}
	}

	cases := []struct {
		fn   string
		args []float64
		want float64
	}{
		{"dbl", []float64{7}, 14},
		{"hyp", []float64{3, 4}, 5},
		{"tri", []float64{10}, 55},
		{"tri", []float64{0}, 0},
		{"rem", []float64{7, 3}, 1},
		{"rem", []float64{-7, 3}, -1},
		{"sgn", []float64{5}, 1},
		{"sgn", []float64{-5}, -1},
		{"sgn", []float64{0}, 0},
	}
	for _, c := range cases {
		got := callNum(t, ext[c.fn], c.args...)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s(%v) = %v, want %v", c.fn, c.args, got, c.want)
		}
	}
}

func TestPowerExponents(t *testing.T) {
	const src = `
fn p(b, e) { return b ^ e; }
`
	ext := load(t, testConf(t), "powmod", src)
	cases := []struct{ b, e, want float64 }{
		{2, 10, 1024},
		{3, 0, 1},
		{2, -2, 0.25},
		{1.5, 2, 2.25},
	}
	for _, c := range cases {
		got := callNum(t, ext["p"], c.b, c.e)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("p(%v, %v) = %v, want %v", c.b, c.e, got, c.want)
		}
	}
	// A fractional exponent only surfaces at call time; the result is
	// NaN rather than a silently truncated power.
	if got := callNum(t, ext["p"], 2, 0.5); !math.IsNaN(got) {
		t.Errorf("p(2, 0.5) = %v, want NaN", got)
	}
	if got := callNum(t, ext["p"], 2, -1.5); !math.IsNaN(got) {
		t.Errorf("p(2, -1.5) = %v, want NaN", got)
	}
}

func TestControlFlowAndCalls(t *testing.T) {
	const src = `
fn clamp(x, lo, hi) {
	if (x < lo) { return lo; }
	if (x > hi) { return hi; }
	return x;
}
fn count(x) {
	n := 0;
	while (x > 1) {
		x := x / 2;
		n := n + 1;
		if (n > 60) { break; }
	}
	return n;
}
fn both(x) { return clamp(x, 0, 10) + count(16); }
`
	ext := load(t, testConf(t), "flowmod", src)
	if got := callNum(t, ext["clamp"], 15, 0, 10); got != 10 {
		t.Errorf("clamp(15, 0, 10) = %v, want 10", got)
	}
	if got := callNum(t, ext["clamp"], -3, 0, 10); got != 0 {
		t.Errorf("clamp(-3, 0, 10) = %v, want 0", got)
	}
	if got := callNum(t, ext["count"], 16); got != 4 {
		t.Errorf("count(16) = %v, want 4", got)
	}
	// Intra-module calls resolve by index.
	if got := callNum(t, ext["both"], 25); got != 14 {
		t.Errorf("both(25) = %v, want 14", got)
	}
}

func TestShortCircuit(t *testing.T) {
	// Both functions recurse on the right-hand side. The base case
	// only terminates if the right side is skipped once the left has
	// decided, so eager evaluation would exhaust the call stack.
	const src = `
fn down(n) { return (n > 0) && down(n - 1); }
fn up(n) { return (n <= 0) || up(n - 1); }
`
	ext := load(t, testConf(t), "scmod", src)
	if got := callNum(t, ext["down"], 3); got != 0 {
		t.Errorf("down(3) = %v, want 0", got)
	}
	if got := callNum(t, ext["up"], 3); got != 1 {
		t.Errorf("up(3) = %v, want 1", got)
	}
}

func TestMathMethods(t *testing.T) {
	const src = `
fn f(a, b) { return math.max(math.abs(a), math.sqr(b)) + math.mod(a, b); }
`
	ext := load(t, testConf(t), "methmod", src)
	// max(abs(-7), sqr(2)) + mod(-7, 2) = 7 + (-1) = 6.
	if got := callNum(t, ext["f"], -7, 2); math.Abs(got-6) > 1e-9 {
		t.Errorf("f(-7, 2) = %v, want 6", got)
	}
}

func TestUnsupportedConstruct(t *testing.T) {
	conf := testConf(t)
	_, err := wasmgen.Generate(conf, "bad", compile(t, `fn f(x) { return x + "s"; }`))
	if err == nil {
		t.Fatal("generated a module from a string expression")
	}
	if !strings.Contains(err.Error(), "cannot generate") {
		t.Errorf("error %q does not name the construct", err)
	}
}

func TestGlueAndManifest(t *testing.T) {
	conf := testConf(t)
	dir, err := wasmgen.Generate(conf, "gluemod", compile(t, "fn dbl(x) { return 2 * x; }"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	glue, err := os.ReadFile(filepath.Join(dir, "dbl.js"))
	if err != nil {
		t.Fatalf("read glue: %v", err)
	}
	for _, want := range []string{"WebAssembly", "gluemod.wasm", "dbl"} {
		if !strings.Contains(string(glue), want) {
			t.Errorf("glue missing %q:\n%s", want, glue)
		}
	}
	manifest, err := os.ReadFile(filepath.Join(dir, "module.toml"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	for _, want := range []string{"gluemod", "dbl"} {
		if !strings.Contains(string(manifest), want) {
			t.Errorf("manifest missing %q:\n%s", want, manifest)
		}
	}
}
