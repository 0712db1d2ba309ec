// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mod_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"madola.dev/madola/ast"
	"madola.dev/madola/config"
	"madola.dev/madola/exec"
	"madola.dev/madola/mod"
	"madola.dev/madola/value"
)

const geometrySrc = `
fn area(w, h) { return w * h; }
fn perimeter(w, h) { return 2 * (w + h); }
sgn(x) := piecewise { (1, x > 0), (-1, x < 0), (0, otherwise) };
`

// resolverAt writes the source as geometry.mda in a fresh directory and
// returns a resolver rooted there.
func resolverAt(t *testing.T, src string) (*mod.Resolver, *exec.Context) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "geometry.mda"), []byte(src), 0o666); err != nil {
		t.Fatal(err)
	}
	conf := &config.Config{}
	conf.SetBaseDir(t.TempDir())
	conf.SetModulePath([]string{conf.TroveDir()})
	r := mod.NewResolver(conf, dir)
	t.Cleanup(func() { r.Close() })
	return r, exec.NewContext(conf)
}

// importErr runs an import and returns the error text, if any.
func importErr(r *mod.Resolver, ctx *exec.Context, imp *ast.Import) (errText string) {
	defer func() {
		if rec := recover(); rec != nil {
			e, ok := rec.(value.Error)
			if !ok {
				panic(rec)
			}
			errText = string(e)
		}
	}()
	r.Import(ctx, imp)
	return ""
}

func TestImportAll(t *testing.T) {
	r, ctx := resolverAt(t, geometrySrc)
	if errText := importErr(r, ctx, &ast.Import{Module: "geometry"}); errText != "" {
		t.Fatalf("import: %s", errText)
	}
	for _, name := range []string{"area", "perimeter", "sgn"} {
		if ctx.Func(name) == nil {
			t.Errorf("%s not defined after import", name)
		}
	}
	if fn := ctx.Func("area"); fn != nil && len(fn.Params) != 2 {
		t.Errorf("area has %d params, want 2", len(fn.Params))
	}
	if fn := ctx.Func("sgn"); fn != nil && fn.Piecewise == nil {
		t.Error("sgn lost its piecewise body")
	}
}

func TestFromImportAlias(t *testing.T) {
	r, ctx := resolverAt(t, geometrySrc)
	imp := &ast.Import{
		Module: "geometry",
		Items: []ast.ImportItem{
			{Name: "area"},
			{Name: "perimeter", Alias: "perim"},
		},
	}
	if errText := importErr(r, ctx, imp); errText != "" {
		t.Fatalf("import: %s", errText)
	}
	if ctx.Func("area") == nil {
		t.Error("area not defined")
	}
	if ctx.Func("perim") == nil {
		t.Error("alias perim not defined")
	}
	if ctx.Func("perimeter") != nil {
		t.Error("aliased import also bound the original name")
	}
	if ctx.Func("sgn") != nil {
		t.Error("from-import bound a name it did not ask for")
	}
}

func TestMissingItem(t *testing.T) {
	r, ctx := resolverAt(t, geometrySrc)
	imp := &ast.Import{Module: "geometry", Items: []ast.ImportItem{{Name: "volume"}}}
	errText := importErr(r, ctx, imp)
	if !strings.Contains(errText, "no function volume") {
		t.Errorf("error %q does not name the missing function", errText)
	}
}

func TestModuleNotFound(t *testing.T) {
	r, ctx := resolverAt(t, geometrySrc)
	errText := importErr(r, ctx, &ast.Import{Module: "nowhere"})
	if !strings.Contains(errText, "module not found") {
		t.Errorf("error %q, want module not found", errText)
	}
}

func TestBadSource(t *testing.T) {
	r, ctx := resolverAt(t, "fn broken( { }")
	errText := importErr(r, ctx, &ast.Import{Module: "geometry"})
	if !strings.Contains(errText, "cannot import geometry") {
		t.Errorf("error %q, want parse failure report", errText)
	}
}
