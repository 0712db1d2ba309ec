// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package run provides execution control for madola. It is factored out
// of main so it can be used for tests: parse, execute statement by
// statement with error recovery, then run the code generators over
// whatever the program marked for generation.
package run // import "madola.dev/madola/run"

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"madola.dev/madola/ast"
	"madola.dev/madola/config"
	"madola.dev/madola/cppgen"
	"madola.dev/madola/eval"
	"madola.dev/madola/exec"
	"madola.dev/madola/mod"
	"madola.dev/madola/parse"
	"madola.dev/madola/scan"
	"madola.dev/madola/value"
	"madola.dev/madola/wasmgen"
)

// File executes one .mda source file. It returns true if every
// statement and generator pass succeeded; execution continues past
// failed statements, so a false return can still mean most of the file
// ran.
func File(conf *config.Config, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		errorf(conf, "%v", err)
		return false
	}
	ctx := exec.NewContext(conf)
	ev := eval.New(conf, ctx)
	resolver := mod.NewResolver(conf, filepath.Dir(path))
	defer resolver.Close()
	ev.Modules = resolver
	return Source(ev, path, string(data), false)
}

// Source parses and executes source text against an existing
// evaluator. Interactive mode relaxes the version requirement and
// prints bare expression results.
func Source(ev *eval.Evaluator, name, src string, interactive bool) bool {
	conf := ev.Context().Config()
	p := parse.NewParser(conf, scan.New(conf, name, src))
	prog, err := p.Program()
	if err != nil {
		errorf(conf, "%v", err)
		return false
	}
	if !interactive && !hasVersion(prog) {
		errorf(conf, "%s: missing @version declaration", name)
		return false
	}
	ok := Program(ev, prog, interactive)
	// Interactive sources have pseudo names like <repl-3>; addons
	// generated there go under a fixed importable module name.
	module := moduleName(name)
	if interactive {
		module = "repl"
	}
	if !generate(ev.Context(), module) {
		ok = false
	}
	return ok
}

func hasVersion(prog *ast.Program) bool {
	for _, s := range prog.Stmts {
		if _, ok := s.(*ast.Version); ok {
			return true
		}
	}
	return false
}

// moduleName derives the addon module name from the source file name.
func moduleName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Program runs the statements of a parsed program one at a time,
// recovering from execution errors so one bad statement does not stop
// the document.
func Program(ev *eval.Evaluator, prog *ast.Program, interactive bool) (success bool) {
	conf := ev.Context().Config()
	var html *HTML
	if conf.HTML() {
		html = NewHTML(conf.Output(), moduleName(prog.Name))
		defer html.End()
	}
	success = true
	skip := false
	for _, s := range prog.Stmts {
		if _, ok := s.(*ast.Skip); ok {
			skip = true
			continue
		}
		if skip {
			skip = false
			continue
		}
		switch s := s.(type) {
		case *ast.Heading:
			if html != nil {
				html.Heading(s.Level, s.Style, s.Text)
			} else {
				fmt.Fprintln(conf.Output(), s.Text)
			}
			continue
		case *ast.Paragraph:
			if html != nil {
				html.Paragraph(s.Style, s.Text)
			} else {
				fmt.Fprintln(conf.Output(), s.Text)
			}
			continue
		}
		if !statement(ev, s, html, interactive) {
			success = false
		}
	}
	return success
}

// statement executes one statement, catching value.Error panics.
func statement(ev *eval.Evaluator, s ast.Statement, html *HTML, interactive bool) (ok bool) {
	conf := ev.Context().Config()
	defer func() {
		if conf.Debug("panic") {
			return
		}
		r := recover()
		if r == nil {
			return
		}
		verr, isValue := r.(value.Error)
		if !isValue {
			panic(r)
		}
		if html != nil {
			html.Error(string(verr))
		}
		errorf(conf, "%s", verr)
		ok = false
	}()

	var buf bytes.Buffer
	if html != nil {
		// Capture print output so it can be wrapped in markup.
		saved := conf.Output()
		conf.SetOutput(&buf)
		defer func() {
			conf.SetOutput(saved)
			html.Result(buf.String())
		}()
	}

	// In the REPL a bare expression prints its value.
	if es, isExpr := s.(*ast.ExprStmt); interactive && isExpr {
		ev.Statement(&ast.Print{Base: ast.Base{At: es.Pos()}, X: es.X})
		return true
	}
	ev.Statement(s)
	return true
}

// generate runs the code generators over everything the program marked
// with a generator decorator.
func generate(ctx *exec.Context, module string) (success bool) {
	conf := ctx.Config()
	success = true
	var addons []*exec.Function
	for _, p := range ctx.Pending() {
		switch p.Tag {
		case "gen_cpp":
			path, err := cppgen.Generate(conf, p.Fn)
			if err != nil {
				errorf(conf, "%v", err)
				success = false
				continue
			}
			fmt.Fprintf(conf.Output(), "generated %s\n", path)
		case "gen_addon":
			addons = append(addons, p.Fn)
		}
	}
	if len(addons) > 0 {
		dir, err := wasmgen.Generate(conf, module, addons)
		if err != nil {
			errorf(conf, "%v", err)
			success = false
		} else {
			fmt.Fprintf(conf.Output(), "generated addon module %s\n", dir)
		}
	}
	ctx.ClearPending()
	return success
}

var errPrefix = color.New(color.FgRed, color.Bold)

// errorf reports an error on the configured error stream, in color when
// that stream is a terminal.
func errorf(conf *config.Config, format string, args ...interface{}) {
	w := conf.ErrOutput()
	prefix := "madola: "
	if f, isFile := w.(*os.File); isFile && isatty.IsTerminal(f.Fd()) {
		prefix = errPrefix.Sprint("madola: ")
	}
	fmt.Fprintf(w, prefix+format+"\n", args...)
}
