// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Madola is an interpreter for a mathematical notation language, with
code generators that export decorated functions as C++ source or as
WebAssembly addon modules. Source files use the .mda extension and mix
executable statements with documentation text.

Statements end with a semicolon. Assignment uses :=, and print writes
one line per call:

	x := 3;
	print(x ^ 2 + 1);

Numbers are double precision. A number written directly against a
recognized unit symbol carries that unit through arithmetic, with
automatic conversion inside a dimension and an error across
dimensions:

	d := 100m;
	t := 8s;
	print(d / t);        // 12.5 m/s
	print(1m + 100cm);   // 2 m

Complex numbers use the i suffix (2 + 3i); the identifier i is
predeclared as the imaginary unit and may be shadowed. Arrays are
written [1, 2, 3] (row) or [1; 2; 3] (column), and a column of rows is
a matrix:

	m := [[1, 2]; [3, 4]];
	print(m.det());
	print(m * m);

Functions come in two forms, block-bodied and piecewise:

	fn area(w, h) { return w * h; }
	sgn(x) := piecewise { (1, x > 0), (-1, x < 0), (0, otherwise) };

Control flow is for over an inclusive integer range, while, if/else,
break, and return:

	s := 0;
	for k in 1...10 { s := s + k; }

The pipe operator evaluates an expression with temporary
substitutions: (a ^ 2 + b) | a:3, b:1 is 10, and leaves a and b as
they were.

Decorator lines begin with @ and attach to the statement that follows.
@h1 through @h4 and @p hold documentation text rendered as headings and
paragraphs (as HTML with run -emit-html), @version declares the
language version a file is written against, and @skip suppresses the
next statement. On a function declaration, @gen_cpp writes equivalent
C++ source to the generation directory, and @gen_addon compiles the
function into a WebAssembly module in the module cache, alongside a
module.toml manifest and a JavaScript loader per export. Generated
addon modules can be imported back:

	import mathmod;
	from geometry import area, perimeter as perim;

Imports resolve against a sibling .mda file first, then against the
module search path (the working directory, then the cache).

Invocation:

	madola run [-emit-html] [-debug names] file.mda...
	madola repl
	madola version
*/
package main
