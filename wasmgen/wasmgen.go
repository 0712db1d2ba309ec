// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wasmgen compiles functions marked @gen_addon into a
// WebAssembly module. All numbers are f64; every marked function in a
// source file lands in one module, exported under its own name, with a
// module.toml manifest and a JavaScript loader written alongside the
// binary so the addon is usable both from imports and from the web.
package wasmgen // import "madola.dev/madola/wasmgen"

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"madola.dev/madola/ast"
	"madola.dev/madola/config"
	"madola.dev/madola/exec"
	"madola.dev/madola/mod"
	"madola.dev/madola/value"
)

// Generate compiles the functions into <name>.wasm under a module
// directory in the trove and returns that directory. A function using
// a construct with no wasm lowering fails the whole module with an
// error naming the function and the construct.
func Generate(conf *config.Config, name string, fns []*exec.Function) (dir string, err error) {
	defer func() {
		if r := recover(); r != nil {
			if verr, ok := r.(value.Error); ok {
				err = fmt.Errorf("gen_addon %s: %s", name, verr)
				return
			}
			panic(r)
		}
	}()

	bin := compile(fns)

	dir = filepath.Join(conf.TroveDir(), name)
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, name+".wasm"), bin, 0o666); err != nil {
		return "", err
	}

	m := &mod.Manifest{Name: name, Wasm: name + ".wasm"}
	for _, fn := range fns {
		m.Functions = append(m.Functions, mod.ManifestFunc{Name: fn.Name, Arity: len(fn.Params)})
	}
	if err := mod.WriteManifest(dir, m); err != nil {
		return "", err
	}
	for _, fn := range fns {
		glue := jsGlue(name, fn)
		if err := os.WriteFile(filepath.Join(dir, fn.Name+".js"), []byte(glue), 0o666); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// compile assembles the complete module binary. The function index
// space is the marked functions in order, then the power helper.
func compile(fns []*exec.Function) []byte {
	powIndex := uint32(len(fns))

	// One type per distinct arity, plus the two-argument helper type.
	typeIndex := make(map[int]uint32)
	var arities []int
	for _, fn := range fns {
		if _, ok := typeIndex[len(fn.Params)]; !ok {
			typeIndex[len(fn.Params)] = uint32(len(arities))
			arities = append(arities, len(fn.Params))
		}
	}
	if _, ok := typeIndex[2]; !ok {
		typeIndex[2] = uint32(len(arities))
		arities = append(arities, 2)
	}

	types := &wbuf{}
	types.uleb(uint32(len(arities)))
	for _, a := range arities {
		types.funcType(a)
	}

	funcsec := &wbuf{}
	funcsec.uleb(uint32(len(fns) + 1))
	for _, fn := range fns {
		funcsec.uleb(typeIndex[len(fn.Params)])
	}
	funcsec.uleb(typeIndex[2])

	exports := &wbuf{}
	exports.uleb(uint32(len(fns)))
	for i, fn := range fns {
		exports.name(fn.Name)
		exports.byte(0x00) // function export
		exports.uleb(uint32(i))
	}

	index := make(map[string]uint32)
	arity := make(map[string]int)
	for i, fn := range fns {
		index[fn.Name] = uint32(i)
		arity[fn.Name] = len(fn.Params)
	}

	code := &wbuf{}
	code.uleb(uint32(len(fns) + 1))
	for _, fn := range fns {
		body := compileFunc(fn, index, arity, powIndex)
		code.uleb(uint32(len(body)))
		code.bytes(body)
	}
	helper := powHelper()
	code.uleb(uint32(len(helper)))
	code.bytes(helper)

	w := &wbuf{}
	w.bytes([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})
	w.section(secType, types)
	w.section(secImport, importSection())
	w.section(secFunction, funcsec)
	w.section(secExport, exports)
	w.section(secCode, code)
	return w.b
}

// funcCompiler lowers one function body. Expressions always leave one
// f64 on the stack; conditions are converted to i32 at the branch.
type funcCompiler struct {
	fn       *exec.Function
	index    map[string]uint32
	arity    map[string]int
	powIndex uint32

	locals    map[string]uint32
	forLimits map[*ast.For]uint32
	scratch   [2]uint32 // temporaries for mod and sqr lowering
	numLocals uint32    // beyond the parameters

	code  wbuf
	depth int   // open labels
	loops []int // label position of the exit block per open loop
}

func compileFunc(fn *exec.Function, index map[string]uint32, arity map[string]int, powIndex uint32) []byte {
	c := &funcCompiler{
		fn:        fn,
		index:     index,
		arity:     arity,
		powIndex:  powIndex,
		locals:    make(map[string]uint32),
		forLimits: make(map[*ast.For]uint32),
	}
	for i, p := range fn.Params {
		c.locals[p] = uint32(i)
	}
	c.collectLocals(fn.Body)
	c.scratch[0] = c.newLocal()
	c.scratch[1] = c.newLocal()

	if fn.Piecewise != nil {
		c.piecewise(fn.Piecewise)
	} else {
		c.stmts(fn.Body)
	}
	// Fallthrough result when no return fired.
	c.code.byte(opF64Const)
	c.code.f64(0)
	c.code.byte(opEnd)

	body := &wbuf{}
	if c.numLocals > 0 {
		body.uleb(1)
		body.uleb(c.numLocals)
		body.byte(valF64)
	} else {
		body.uleb(0)
	}
	body.bytes(c.code.b)
	return body.b
}

func (c *funcCompiler) fail(what string) {
	value.Errorf("%s: cannot generate %s", c.fn.Name, what)
}

func (c *funcCompiler) newLocal() uint32 {
	idx := uint32(len(c.fn.Params)) + c.numLocals
	c.numLocals++
	return idx
}

// collectLocals assigns slots to every variable the body binds, plus a
// hidden slot per for loop holding the evaluated upper bound.
func (c *funcCompiler) collectLocals(stmts []ast.Statement) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.Assign:
			if _, ok := c.locals[s.Name]; !ok {
				c.locals[s.Name] = c.newLocal()
			}
		case *ast.For:
			if _, ok := c.locals[s.Var]; !ok {
				c.locals[s.Var] = c.newLocal()
			}
			c.forLimits[s] = c.newLocal()
			c.collectLocals(s.Body)
		case *ast.While:
			c.collectLocals(s.Body)
		case *ast.If:
			c.collectLocals(s.Then)
			c.collectLocals(s.Else)
		}
	}
}

func (c *funcCompiler) localGet(idx uint32) {
	c.code.byte(opLocalGet)
	c.code.uleb(idx)
}

func (c *funcCompiler) localSet(idx uint32) {
	c.code.byte(opLocalSet)
	c.code.uleb(idx)
}

func (c *funcCompiler) constF64(f float64) {
	c.code.byte(opF64Const)
	c.code.f64(f)
}

// enter opens a label and returns its position for later branches.
func (c *funcCompiler) enter(op byte) int {
	c.code.byte(op)
	c.code.byte(blockVoid)
	pos := c.depth
	c.depth++
	return pos
}

func (c *funcCompiler) leave() {
	c.code.byte(opEnd)
	c.depth--
}

// br emits a branch to the label opened at position pos.
func (c *funcCompiler) br(op byte, pos int) {
	c.code.byte(op)
	c.code.uleb(uint32(c.depth - pos - 1))
}

func (c *funcCompiler) stmts(list []ast.Statement) {
	for _, s := range list {
		c.stmt(s)
	}
}

func (c *funcCompiler) stmt(s ast.Statement) {
	switch s := s.(type) {
	case *ast.Assign:
		c.expr(s.X)
		c.localSet(c.locals[s.Name])

	case *ast.Return:
		if s.X == nil {
			c.constF64(0)
		} else {
			c.expr(s.X)
		}
		c.code.byte(opReturn)

	case *ast.Break:
		if len(c.loops) == 0 {
			c.fail("break outside loop")
		}
		c.br(opBr, c.loops[len(c.loops)-1])

	case *ast.If:
		c.cond(s.Cond)
		c.enter(opIf)
		c.stmts(s.Then)
		if len(s.Else) > 0 {
			c.code.byte(opElse)
			c.stmts(s.Else)
		}
		c.leave()

	case *ast.While:
		exit := c.enter(opBlock)
		c.loops = append(c.loops, exit)
		loop := c.enter(opLoop)
		c.cond(s.Cond)
		c.code.byte(opI32Eqz)
		c.br(opBrIf, exit)
		c.stmts(s.Body)
		c.br(opBr, loop)
		c.leave()
		c.leave()
		c.loops = c.loops[:len(c.loops)-1]

	case *ast.For:
		v := c.locals[s.Var]
		limit := c.forLimits[s]
		c.expr(s.From)
		c.localSet(v)
		c.expr(s.To)
		c.localSet(limit)
		exit := c.enter(opBlock)
		c.loops = append(c.loops, exit)
		loop := c.enter(opLoop)
		// Bounds are inclusive: leave once v exceeds the limit.
		c.localGet(v)
		c.localGet(limit)
		c.code.byte(opF64Gt)
		c.br(opBrIf, exit)
		c.stmts(s.Body)
		c.localGet(v)
		c.constF64(1)
		c.code.byte(opF64Add)
		c.localSet(v)
		c.br(opBr, loop)
		c.leave()
		c.leave()
		c.loops = c.loops[:len(c.loops)-1]

	case *ast.Skip:
		// Nothing to emit.

	default:
		c.fail(fmt.Sprintf("%T statement", s))
	}
}

// piecewise lowers a piecewise function as a chain of early returns.
func (c *funcCompiler) piecewise(p *ast.Piecewise) {
	for _, cs := range p.Cases {
		if cs.Cond == nil {
			c.expr(cs.Value)
			c.code.byte(opReturn)
			return
		}
		c.cond(cs.Cond)
		c.enter(opIf)
		c.expr(cs.Value)
		c.code.byte(opReturn)
		c.leave()
	}
}

// cond evaluates an expression and leaves its truth as i32.
func (c *funcCompiler) cond(x ast.Expr) {
	c.expr(x)
	c.constF64(0)
	c.code.byte(opF64Ne)
}

// bool converts the f64 on the stack to i32 truth.
func (c *funcCompiler) toBool() {
	c.constF64(0)
	c.code.byte(opF64Ne)
}

var cmpOps = map[string]byte{
	"==": opF64Eq,
	"!=": opF64Ne,
	"<":  opF64Lt,
	">":  opF64Gt,
	"<=": opF64Le,
	">=": opF64Ge,
}

var arithOps = map[string]byte{
	"+": opF64Add,
	"-": opF64Sub,
	"*": opF64Mul,
	"/": opF64Div,
}

func (c *funcCompiler) expr(x ast.Expr) {
	switch x := x.(type) {
	case *ast.Num:
		c.constF64(x.Val)

	case *ast.Ident:
		idx, ok := c.locals[x.Name]
		if !ok {
			c.fail(fmt.Sprintf("reference to %s, which is not a local", x.Name))
		}
		c.localGet(idx)

	case *ast.Binary:
		c.binary(x)

	case *ast.Unary:
		c.expr(x.X)
		switch x.Op {
		case "-":
			c.code.byte(opF64Neg)
		case "+":
			// Nothing to do.
		case "!":
			c.toBool()
			c.code.byte(opI32Eqz)
			c.code.byte(opF64ConvertI32U)
		default:
			c.fail("unary " + x.Op)
		}

	case *ast.Call:
		c.call(x)

	case *ast.Method:
		c.method(x)

	default:
		c.fail(fmt.Sprintf("%T expression", x))
	}
}

func (c *funcCompiler) binary(x *ast.Binary) {
	if op, ok := arithOps[x.Op]; ok {
		c.expr(x.L)
		c.expr(x.R)
		c.code.byte(op)
		return
	}
	if op, ok := cmpOps[x.Op]; ok {
		c.expr(x.L)
		c.expr(x.R)
		c.code.byte(op)
		c.code.byte(opF64ConvertI32U)
		return
	}
	switch x.Op {
	case "^":
		if n, ok := x.R.(*ast.Num); ok && n.Val != math.Trunc(n.Val) {
			c.fail("non-integer exponent")
		}
		c.expr(x.L)
		c.expr(x.R)
		c.code.byte(opCall)
		c.code.uleb(c.powIndex)
	case "%":
		// a % b lowers to a - b*trunc(a/b).
		c.expr(x.L)
		c.expr(x.R)
		c.localSet(c.scratch[1])
		c.localSet(c.scratch[0])
		c.localGet(c.scratch[0])
		c.localGet(c.scratch[1])
		c.localGet(c.scratch[0])
		c.localGet(c.scratch[1])
		c.code.byte(opF64Div)
		c.code.byte(opF64Trunc)
		c.code.byte(opF64Mul)
		c.code.byte(opF64Sub)
	case "&&", "||":
		// Short-circuit: the right side runs only when the left does
		// not decide the answer.
		c.expr(x.L)
		c.toBool()
		c.code.byte(opIf)
		c.code.byte(valF64)
		if x.Op == "&&" {
			c.expr(x.R)
			c.toBool()
			c.code.byte(opF64ConvertI32U)
			c.code.byte(opElse)
			c.constF64(0)
		} else {
			c.constF64(1)
			c.code.byte(opElse)
			c.expr(x.R)
			c.toBool()
			c.code.byte(opF64ConvertI32U)
		}
		c.code.byte(opEnd)
	default:
		c.fail("operator " + x.Op)
	}
}

func (c *funcCompiler) call(x *ast.Call) {
	if x.Name == "sqrt" {
		if len(x.Args) != 1 {
			c.fail("call to sqrt with more than one argument")
		}
		c.expr(x.Args[0])
		c.code.byte(opF64Sqrt)
		return
	}
	idx, ok := c.index[x.Name]
	if !ok {
		c.fail(fmt.Sprintf("call to %s, which is not in this module", x.Name))
	}
	if len(x.Args) != c.arity[x.Name] {
		c.fail(fmt.Sprintf("call to %s with %d arguments, want %d", x.Name, len(x.Args), c.arity[x.Name]))
	}
	for _, a := range x.Args {
		c.expr(a)
	}
	c.code.byte(opCall)
	c.code.uleb(idx)
}

func (c *funcCompiler) method(x *ast.Method) {
	id, ok := x.Recv.(*ast.Ident)
	if !ok || id.Name != "math" {
		c.fail("method call")
	}
	unary := func(op byte) {
		if len(x.Args) != 1 {
			c.fail("call to math." + x.Name)
		}
		c.expr(x.Args[0])
		c.code.byte(op)
	}
	switch x.Name {
	case "sqrt":
		unary(opF64Sqrt)
	case "abs":
		unary(opF64Abs)
	case "floor":
		unary(opF64Floor)
	case "ceil":
		unary(opF64Ceil)
	case "sqr":
		if len(x.Args) != 1 {
			c.fail("call to math.sqr")
		}
		c.expr(x.Args[0])
		c.localSet(c.scratch[0])
		c.localGet(c.scratch[0])
		c.localGet(c.scratch[0])
		c.code.byte(opF64Mul)
	case "max", "min":
		if len(x.Args) != 2 {
			c.fail("call to math." + x.Name)
		}
		c.expr(x.Args[0])
		c.expr(x.Args[1])
		if x.Name == "max" {
			c.code.byte(opF64Max)
		} else {
			c.code.byte(opF64Min)
		}
	case "mod":
		if len(x.Args) != 2 {
			c.fail("call to math.mod")
		}
		c.binary(&ast.Binary{Op: "%", L: x.Args[0], R: x.Args[1]})
	default:
		c.fail("call to math." + x.Name)
	}
}

// powHelper is the module-internal (base, exp) -> base^exp routine.
// Only integer exponents are defined; anything else returns NaN.
// Negative exponents invert the result. Locals: 0 base, 1 exp,
// 2 result, 3 count.
func powHelper() []byte {
	c := &wbuf{}
	emit := func(bs ...byte) { c.bytes(bs) }
	f64const := func(f float64) {
		c.byte(opF64Const)
		c.f64(f)
	}
	get := func(i uint32) { c.byte(opLocalGet); c.uleb(i) }
	set := func(i uint32) { c.byte(opLocalSet); c.uleb(i) }

	get(1)
	get(1)
	emit(opF64Trunc, opF64Ne, opIf, blockVoid)
	f64const(math.NaN())
	emit(opReturn, opEnd)

	f64const(1)
	set(2)
	get(1)
	emit(opF64Abs, opF64Trunc)
	set(3)

	emit(opBlock, blockVoid)
	emit(opLoop, blockVoid)
	get(3)
	f64const(0)
	emit(opF64Le, opBrIf)
	c.uleb(1)
	get(2)
	get(0)
	emit(opF64Mul)
	set(2)
	get(3)
	f64const(1)
	emit(opF64Sub)
	set(3)
	emit(opBr)
	c.uleb(0)
	emit(opEnd, opEnd)

	get(1)
	f64const(0)
	emit(opF64Lt, opIf, blockVoid)
	f64const(1)
	get(2)
	emit(opF64Div)
	set(2)
	emit(opEnd)

	get(2)
	emit(opEnd)

	body := &wbuf{}
	body.uleb(1)
	body.uleb(2) // two f64 locals beyond the parameters
	body.byte(valF64)
	body.bytes(c.b)
	return body.b
}

// jsGlue writes a small ES module that loads the addon and exposes one
// exported function.
func jsGlue(module string, fn *exec.Function) string {
	params := ""
	for i, p := range fn.Params {
		if i > 0 {
			params += ", "
		}
		params += p
	}
	return fmt.Sprintf(`// Generated loader for %s.%s.

const env = {
    memory: new WebAssembly.Memory({ initial: 1 }),
    table: new WebAssembly.Table({ initial: 0, element: "anyfunc" }),
};

let instance;

async function load() {
    if (!instance) {
        const url = new URL("./%s.wasm", import.meta.url);
        const result = await WebAssembly.instantiateStreaming(fetch(url), { env });
        instance = result.instance;
    }
    return instance;
}

export async function %s(%s) {
    const inst = await load();
    return inst.exports.%s(%s);
}
`, module, fn.Name, module, fn.Name, params, fn.Name, params)
}
