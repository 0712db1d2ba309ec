// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan

import (
	"testing"

	"madola.dev/madola/config"
)

var testConf config.Config

// tok is a compact expected token for table entries.
type tok struct {
	typ  Type
	text string
}

func scanAll(t *testing.T, input string) []Token {
	t.Helper()
	s := New(&testConf, "test", input)
	var toks []Token
	for {
		token := s.Next()
		if token.Type == EOF {
			return toks
		}
		toks = append(toks, token)
		if token.Type == Error {
			return toks
		}
		if len(toks) > 200 {
			t.Fatalf("scanner did not terminate on %q", input)
		}
	}
}

func check(t *testing.T, input string, want []tok) {
	t.Helper()
	toks := scanAll(t, input)
	if len(toks) != len(want) {
		t.Fatalf("%q: got %d tokens %v, want %d", input, len(toks), toks, len(want))
	}
	for i, w := range want {
		if toks[i].Type != w.typ || toks[i].Text != w.text {
			t.Errorf("%q token %d: got %s %q, want %s %q", input, i, toks[i].Type, toks[i].Text, w.typ, w.text)
		}
	}
}

func TestBasicTokens(t *testing.T) {
	check(t, "x := 3 + 4;", []tok{
		{Identifier, "x"},
		{Assign, ":="},
		{Number, "3"},
		{Operator, "+"},
		{Number, "4"},
		{Semicolon, ";"},
	})
}

func TestOperators(t *testing.T) {
	check(t, "a != b >= c <= d == e && f || g", []tok{
		{Identifier, "a"},
		{Operator, "!="},
		{Identifier, "b"},
		{Operator, ">="},
		{Identifier, "c"},
		{Operator, "<="},
		{Identifier, "d"},
		{Operator, "=="},
		{Identifier, "e"},
		{Operator, "&&"},
		{Identifier, "f"},
		{Operator, "||"},
		{Identifier, "g"},
	})
}

func TestPipeIsSingleBar(t *testing.T) {
	check(t, "y | x:2", []tok{
		{Identifier, "y"},
		{Operator, "|"},
		{Identifier, "x"},
		{Colon, ":"},
		{Number, "2"},
	})
}

func TestUnitNumbers(t *testing.T) {
	check(t, "w := 5kg; a := 3m^2;", []tok{
		{Identifier, "w"},
		{Assign, ":="},
		{UnitNumber, "5kg"},
		{Semicolon, ";"},
		{Identifier, "a"},
		{Assign, ":="},
		{UnitNumber, "3m^2"},
		{Semicolon, ";"},
	})
}

func TestUnknownUnit(t *testing.T) {
	toks := scanAll(t, "x := 5zorps;")
	last := toks[len(toks)-1]
	if last.Type != Error {
		t.Fatalf("expected scan error for unknown unit, got %v", toks)
	}
}

func TestImaginary(t *testing.T) {
	check(t, "z := 2i + 3;", []tok{
		{Identifier, "z"},
		{Assign, ":="},
		{Imaginary, "2i"},
		{Operator, "+"},
		{Number, "3"},
		{Semicolon, ";"},
	})
}

func TestLatexIdentifiers(t *testing.T) {
	check(t, `\alpha := \beta_{1};`, []tok{
		{Identifier, `\alpha`},
		{Assign, ":="},
		{Identifier, `\beta_{1}`},
		{Semicolon, ";"},
	})
}

func TestLatexFrac(t *testing.T) {
	check(t, `\frac{a}{b}`, []tok{
		{Identifier, `\frac{a}{b}`},
	})
}

func TestDecorators(t *testing.T) {
	check(t, "@gen_cpp fn f(x) { }", []tok{
		{Decorator, "gen_cpp"},
		{Identifier, "fn"},
		{Identifier, "f"},
		{LeftParen, "("},
		{Identifier, "x"},
		{RightParen, ")"},
		{LeftBrace, "{"},
		{RightBrace, "}"},
	})
}

func TestLayoutDecoratorDims(t *testing.T) {
	check(t, "@array 2 x 3", []tok{
		{Decorator, "array2x3"},
	})
	check(t, "@layout2x2", []tok{
		{Decorator, "layout2x2"},
	})
}

func TestString(t *testing.T) {
	check(t, `s := "a\nb";`, []tok{
		{Identifier, "s"},
		{Assign, ":="},
		{String, "a\nb"},
		{Semicolon, ";"},
	})
}

func TestComments(t *testing.T) {
	check(t, "x // trailing\n/* block\n comment */ y", []tok{
		{Identifier, "x"},
		{Identifier, "y"},
	})
}

func TestRawBrace(t *testing.T) {
	s := New(&testConf, "test", "@h1 {Results {nested} here} x")
	if got := s.Next(); got.Type != Decorator || got.Text != "h1" {
		t.Fatalf("got %v, want decorator h1", got)
	}
	raw, ok := s.ScanRawBrace()
	if !ok {
		t.Fatal("ScanRawBrace failed")
	}
	if raw != "Results {nested} here" {
		t.Fatalf("raw text %q", raw)
	}
	if got := s.Next(); got.Type != Identifier || got.Text != "x" {
		t.Fatalf("after raw brace got %v, want identifier x", got)
	}
}

func TestPositions(t *testing.T) {
	toks := scanAll(t, "a :=\n  b;")
	if toks[0].Line != 1 || toks[0].Col != 1 {
		t.Errorf("a at %d:%d, want 1:1", toks[0].Line, toks[0].Col)
	}
	b := toks[2]
	if b.Line != 2 || b.Col != 3 {
		t.Errorf("b at %d:%d, want 2:3", b.Line, b.Col)
	}
}
