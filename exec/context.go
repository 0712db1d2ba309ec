// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exec holds the execution context for a program run: the
// scoped variable bindings, the function table, externally imported
// callables, and the registry of functions awaiting code generation.
package exec // import "madola.dev/madola/exec"

import (
	"math"

	"madola.dev/madola/ast"
	"madola.dev/madola/config"
	"madola.dev/madola/value"
)

// Symtab is a symbol table, a map of names to values.
type Symtab map[string]value.Value

// Function is a declared function: block-bodied or piecewise.
type Function struct {
	Name       string
	Params     []string
	Body       []ast.Statement // nil for piecewise functions
	Piecewise  *ast.Piecewise  // non-nil for piecewise functions
	Decorators []ast.Decorator
}

// HasDecorator reports whether the function carries the named decorator.
func (f *Function) HasDecorator(name string) bool {
	for _, d := range f.Decorators {
		if d.Name == name {
			return true
		}
	}
	return false
}

// External is a callable imported from outside the program, such as a
// portable-module export. Arguments and result are numeric.
type External func(args []value.Value) value.Value

// Pending is one function registered for code generation.
type Pending struct {
	Tag string // decorator that requested generation
	Fn  *Function
}

// Context holds execution state. The stack has the global symbol table
// at its base and one frame per active function call; lookups check the
// current frame then fall back to the globals, with no intermediate
// lexical scopes.
type Context struct {
	config *config.Config

	Stack     []Symtab
	Funcs     map[string]*Function
	Externals map[string]External

	pending []Pending
}

// NewContext returns a new execution context with the predeclared
// constants bound in the global scope.
func NewContext(conf *config.Config) *Context {
	c := &Context{
		config:    conf,
		Stack:     []Symtab{make(Symtab)},
		Funcs:     make(map[string]*Function),
		Externals: make(map[string]External),
	}
	c.SetConstants()
	return c
}

func (c *Context) Config() *config.Config {
	return c.config
}

// SetConstants binds the predeclared constants. They live in the global
// scope and may be shadowed, so a loop variable named i works as usual.
func (c *Context) SetConstants() {
	syms := c.Stack[0]
	syms["pi"] = value.Num(math.Pi)
	syms["e"] = value.Num(math.E)
	syms["i"] = value.Complex{Im: 1}
}

// Lookup returns the value of a symbol, or nil if it is not bound.
// Only the current frame and the globals are visible.
func (c *Context) Lookup(name string) value.Value {
	last := len(c.Stack) - 1
	if v, ok := c.Stack[last][name]; ok {
		return v
	}
	if last > 0 {
		if v, ok := c.Stack[0][name]; ok {
			return v
		}
	}
	return nil
}

// Assign binds a value to a name. Inside a function, a name already
// bound globally is updated globally; new names become locals.
func (c *Context) Assign(name string, val value.Value) {
	last := len(c.Stack) - 1
	if last > 0 {
		if _, ok := c.Stack[last][name]; ok {
			c.Stack[last][name] = val
			return
		}
		if _, ok := c.Stack[0][name]; ok {
			c.Stack[0][name] = val
			return
		}
	}
	c.Stack[last][name] = val
}

// AssignLocal binds a value in the current frame unconditionally.
// Parameter binding and loop variables use it.
func (c *Context) AssignLocal(name string, val value.Value) {
	c.Stack[len(c.Stack)-1][name] = val
}

// UnassignLocal removes a binding from the current frame. It undoes a
// temporary binding made by AssignLocal.
func (c *Context) UnassignLocal(name string) {
	delete(c.Stack[len(c.Stack)-1], name)
}

// Push starts a new function call frame.
func (c *Context) Push() {
	c.Stack = append(c.Stack, make(Symtab))
}

// Pop ends the current function call frame.
func (c *Context) Pop() {
	c.Stack = c.Stack[:len(c.Stack)-1]
}

// Define registers a function declaration, replacing any previous
// definition of the same name, and queues it for code generation if a
// generator decorator is present.
func (c *Context) Define(fn *Function) {
	c.Funcs[fn.Name] = fn
	for _, d := range fn.Decorators {
		switch d.Name {
		case "gen_cpp", "gen_addon":
			c.pending = append(c.pending, Pending{Tag: d.Name, Fn: fn})
		}
	}
}

// Func returns the named function, or nil.
func (c *Context) Func(name string) *Function {
	return c.Funcs[name]
}

// Pending returns the functions queued for code generation, in
// declaration order. Each generator filters by tag.
func (c *Context) Pending() []Pending {
	return c.pending
}

// ClearPending empties the code generation queue. The driver calls it
// after both generators have run.
func (c *Context) ClearPending() {
	c.pending = nil
}
