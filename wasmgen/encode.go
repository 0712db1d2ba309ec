// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasmgen

import (
	"encoding/binary"
	"math"
)

// Binary encoding of a WebAssembly module, per the wasm 1.0 spec.
// Only the pieces the generator emits are covered.

const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secExport   = 7
	secCode     = 10
)

const (
	typeFunc = 0x60
	valF64   = 0x7c
	valI32   = 0x7f
)

// Opcodes.
const (
	opBlock          = 0x02
	opLoop           = 0x03
	opIf             = 0x04
	opElse           = 0x05
	opEnd            = 0x0b
	opBr             = 0x0c
	opBrIf           = 0x0d
	opReturn         = 0x0f
	opCall           = 0x10
	opLocalGet       = 0x20
	opLocalSet       = 0x21
	opI32Eqz         = 0x45
	opF64Const       = 0x44
	opF64Eq          = 0x61
	opF64Ne          = 0x62
	opF64Lt          = 0x63
	opF64Gt          = 0x64
	opF64Le          = 0x65
	opF64Ge          = 0x66
	opF64Abs         = 0x99
	opF64Neg         = 0x9a
	opF64Ceil        = 0x9b
	opF64Floor       = 0x9c
	opF64Trunc       = 0x9d
	opF64Sqrt        = 0x9f
	opF64Add         = 0xa0
	opF64Sub         = 0xa1
	opF64Mul         = 0xa2
	opF64Div         = 0xa3
	opF64Min         = 0xa4
	opF64Max         = 0xa5
	opF64ConvertI32S = 0xb7
	opF64ConvertI32U = 0xb8
)

// blockVoid is the empty block type; blocks that yield a value name
// their result type instead.
const blockVoid = 0x40

// wbuf accumulates little pieces of a wasm module.
type wbuf struct {
	b []byte
}

func (w *wbuf) byte(b byte) {
	w.b = append(w.b, b)
}

func (w *wbuf) bytes(b []byte) {
	w.b = append(w.b, b...)
}

// uleb appends an unsigned LEB128 integer.
func (w *wbuf) uleb(v uint32) {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		w.b = append(w.b, c)
		if v == 0 {
			return
		}
	}
}

// sleb appends a signed LEB128 integer.
func (w *wbuf) sleb(v int32) {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0)
		if !done {
			c |= 0x80
		}
		w.b = append(w.b, c)
		if done {
			return
		}
	}
}

// f64 appends an IEEE 754 double, little-endian.
func (w *wbuf) f64(f float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	w.b = append(w.b, buf[:]...)
}

// name appends a length-prefixed UTF-8 name.
func (w *wbuf) name(s string) {
	w.uleb(uint32(len(s)))
	w.b = append(w.b, s...)
}

// section appends a numbered section with a size-prefixed payload.
func (w *wbuf) section(id byte, payload *wbuf) {
	w.byte(id)
	w.uleb(uint32(len(payload.b)))
	w.bytes(payload.b)
}

// funcType appends a function type of n f64 parameters returning f64.
func (w *wbuf) funcType(arity int) {
	w.byte(typeFunc)
	w.uleb(uint32(arity))
	for i := 0; i < arity; i++ {
		w.byte(valF64)
	}
	w.uleb(1)
	w.byte(valF64)
}

// importSection declares the host environment every generated module
// expects: a memory and a funcref table under the env namespace.
func importSection() *wbuf {
	p := &wbuf{}
	p.uleb(2)

	p.name("env")
	p.name("memory")
	p.byte(0x02) // memory import
	p.byte(0x00) // limits: min only
	p.uleb(1)

	p.name("env")
	p.name("table")
	p.byte(0x01) // table import
	p.byte(0x70) // funcref
	p.byte(0x00) // limits: min only
	p.uleb(0)

	return p
}
