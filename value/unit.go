// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"sort"
	"strconv"
	"strings"
)

// Dimension is the physical quantity family a unit belongs to.
type Dimension int

const (
	Length Dimension = iota
	Mass
	Force
	Pressure
	Area
	Volume
	Time
	Temperature
)

// unitDef defines one unit symbol: its dimension and the factor
// converting it to the dimension's base unit.
type unitDef struct {
	dim    Dimension
	factor float64
}

var unitDefs = map[string]unitDef{
	// Length (base: meter)
	"m":  {Length, 1.0},
	"mm": {Length, 0.001},
	"cm": {Length, 0.01},
	"km": {Length, 1000.0},
	"in": {Length, 0.0254},
	"ft": {Length, 0.3048},
	"yd": {Length, 0.9144},
	"mi": {Length, 1609.34},

	// Mass (base: kilogram)
	"kg":  {Mass, 1.0},
	"g":   {Mass, 0.001},
	"mg":  {Mass, 0.000001},
	"lb":  {Mass, 0.453592},
	"oz":  {Mass, 0.0283495},
	"ton": {Mass, 907.185},

	// Force (base: newton)
	"N":   {Force, 1.0},
	"kN":  {Force, 1000.0},
	"lbf": {Force, 4.44822},
	"kip": {Force, 4448.22},

	// Pressure and stress (base: pascal)
	"Pa":  {Pressure, 1.0},
	"kPa": {Pressure, 1000.0},
	"MPa": {Pressure, 1e6},
	"GPa": {Pressure, 1e9},
	"psi": {Pressure, 6894.76},
	"ksi": {Pressure, 6.89476e6},

	// Area (base: square meter)
	"m2":  {Area, 1.0},
	"mm2": {Area, 1e-6},
	"cm2": {Area, 1e-4},
	"in2": {Area, 0.00064516},
	"ft2": {Area, 0.092903},

	// Volume (base: cubic meter)
	"m3":  {Volume, 1.0},
	"mm3": {Volume, 1e-9},
	"cm3": {Volume, 1e-6},
	"in3": {Volume, 1.63871e-5},
	"ft3": {Volume, 0.0283168},
	"L":   {Volume, 0.001},
	"gal": {Volume, 0.00378541},

	// Time (base: second)
	"s":   {Time, 1.0},
	"ms":  {Time, 0.001},
	"min": {Time, 60.0},
	"h":   {Time, 3600.0},

	// Temperature (base: kelvin)
	"K": {Temperature, 1.0},
	"C": {Temperature, 1.0},
	"F": {Temperature, 0.555556},
}

// KnownUnit reports whether sym is a recognized unit symbol.
// The scanner uses it to resolve number-letter adjacency.
func KnownUnit(sym string) bool {
	_, ok := unitDefs[sym]
	return ok
}

// Unit is one symbol^exp term of a possibly compound unit.
type Unit struct {
	Sym string
	Exp int
}

// Units is a compound unit: the product of its terms. Terms with
// negative exponents form the denominator. Empty means dimensionless.
type Units []Unit

// MakeUnits builds a single-term unit tag, or nil for exponent zero.
func MakeUnits(sym string, exp int) Units {
	if exp == 0 {
		return nil
	}
	return Units{{sym, exp}}
}

// dims returns the dimension vector of u.
func (u Units) dims() map[Dimension]int {
	d := make(map[Dimension]int)
	for _, t := range u {
		d[unitDefs[t.Sym].dim] += t.Exp
	}
	for k, v := range d {
		if v == 0 {
			delete(d, k)
		}
	}
	return d
}

// Factor returns the factor converting a quantity in u to base units.
func (u Units) Factor() float64 {
	f := 1.0
	for _, t := range u {
		def := unitDefs[t.Sym]
		for i := 0; i < t.Exp; i++ {
			f *= def.factor
		}
		for i := 0; i > t.Exp; i-- {
			f /= def.factor
		}
	}
	return f
}

// Compatible reports whether quantities in u and v may be added,
// subtracted, or compared: equal dimension vectors.
func (u Units) Compatible(v Units) bool {
	du, dv := u.dims(), v.dims()
	if len(du) != len(dv) {
		return false
	}
	for k, e := range du {
		if dv[k] != e {
			return false
		}
	}
	return true
}

// Mul returns the product unit of u and v, with matching symbols merged
// and zero exponents dropped.
func (u Units) Mul(v Units) Units {
	out := make(Units, 0, len(u)+len(v))
	out = append(out, u...)
outer:
	for _, t := range v {
		for i := range out {
			if out[i].Sym == t.Sym {
				out[i].Exp += t.Exp
				continue outer
			}
		}
		out = append(out, t)
	}
	trimmed := out[:0]
	for _, t := range out {
		if t.Exp != 0 {
			trimmed = append(trimmed, t)
		}
	}
	if len(trimmed) == 0 {
		return nil
	}
	return trimmed
}

// Div returns the quotient unit u/v.
func (u Units) Div(v Units) Units {
	inv := make(Units, len(v))
	for i, t := range v {
		inv[i] = Unit{t.Sym, -t.Exp}
	}
	return u.Mul(inv)
}

// Pow returns u with every exponent scaled by n.
func (u Units) Pow(n int) Units {
	if n == 0 {
		return nil
	}
	out := make(Units, len(u))
	for i, t := range u {
		out[i] = Unit{t.Sym, t.Exp * n}
	}
	return out
}

// unitOrder ranks symbols for display: force before length before the
// rest, the engineering convention for moment units like kip-in.
func unitOrder(sym string) int {
	switch sym {
	case "kip", "lbf", "N", "kN":
		return 0
	case "in", "ft", "m", "mm", "cm":
		return 1
	}
	return 2
}

// String renders the compound unit: numerator terms joined with '-',
// a '/' before the denominator, exponents as sym^n.
func (u Units) String() string {
	var num, den []Unit
	for _, t := range u {
		if t.Exp > 0 {
			num = append(num, t)
		} else if t.Exp < 0 {
			den = append(den, Unit{t.Sym, -t.Exp})
		}
	}
	sort.SliceStable(num, func(i, j int) bool { return unitOrder(num[i].Sym) < unitOrder(num[j].Sym) })
	sort.SliceStable(den, func(i, j int) bool { return unitOrder(den[i].Sym) < unitOrder(den[j].Sym) })

	var sb strings.Builder
	if len(num) == 0 && len(den) > 0 {
		sb.WriteString("1")
	}
	for i, t := range num {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteString(t.Sym)
		if t.Exp != 1 {
			sb.WriteByte('^')
			sb.WriteString(strconv.Itoa(t.Exp))
		}
	}
	for i, t := range den {
		if i == 0 {
			sb.WriteByte('/')
		} else {
			sb.WriteByte('-')
		}
		sb.WriteString(t.Sym)
		if t.Exp != 1 {
			sb.WriteByte('^')
			sb.WriteString(strconv.Itoa(t.Exp))
		}
	}
	return sb.String()
}
