// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the configuration for a madola run. A single Config
// is threaded by pointer through the scanner, parser, evaluator, and both
// code generators, so there is no ambient global state.
package config // import "madola.dev/madola/config"

import (
	"io"
	"os"
	"path/filepath"
)

// LanguageVersion is the language version accepted by the @version directive.
const LanguageVersion = "0.01"

type Config struct {
	output    io.Writer
	errOutput io.Writer
	html      bool
	debug     map[string]bool
	base      string   // base directory for user-scoped artifacts; "" means $HOME/.madola
	modPath   []string // portable-module search path; nil means default
}

// Output returns the writer to be used for program output (print traces).
func (c *Config) Output() io.Writer {
	if c.output == nil {
		return os.Stdout
	}
	return c.output
}

func (c *Config) SetOutput(w io.Writer) {
	c.output = w
}

// ErrOutput returns the writer to be used for error output.
func (c *Config) ErrOutput() io.Writer {
	if c.errOutput == nil {
		return os.Stderr
	}
	return c.errOutput
}

func (c *Config) SetErrOutput(w io.Writer) {
	c.errOutput = w
}

// HTML reports whether output should be rendered as an HTML document
// instead of a plain execution trace.
func (c *Config) HTML() bool {
	return c.html
}

func (c *Config) SetHTML(on bool) {
	c.html = on
}

func (c *Config) Debug(s string) bool {
	return c.debug[s]
}

func (c *Config) SetDebug(s string, state bool) {
	if c.debug == nil {
		c.debug = make(map[string]bool)
	}
	c.debug[s] = state
}

// SetBaseDir overrides the user-scoped artifact directory. Tests use this to
// point generation and import resolution at a temporary directory.
func (c *Config) SetBaseDir(dir string) {
	c.base = dir
}

func (c *Config) baseDir() string {
	if c.base != "" {
		return c.base
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".madola")
}

// GenDir returns the directory for generated native sources, creating it
// if necessary.
func (c *Config) GenDir() string {
	dir := filepath.Join(c.baseDir(), "gen_cpp")
	os.MkdirAll(dir, 0o755)
	return dir
}

// TroveDir returns the user-scoped portable-module cache directory,
// creating it if necessary.
func (c *Config) TroveDir() string {
	dir := filepath.Join(c.baseDir(), "trove")
	os.MkdirAll(dir, 0o755)
	return dir
}

// ModulePath returns the portable-module search path: the current working
// directory first, then the module cache. First match wins.
func (c *Config) ModulePath() []string {
	if c.modPath != nil {
		return c.modPath
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return []string{cwd, c.TroveDir()}
}

func (c *Config) SetModulePath(dirs []string) {
	c.modPath = dirs
}
