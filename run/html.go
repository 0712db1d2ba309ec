// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package run

import (
	"fmt"
	"html"
	"io"
)

// HTML renders an executed document as a standalone HTML page.
// Headings and paragraphs become their markup equivalents; computed
// output is wrapped in pre blocks in document order.
type HTML struct {
	w     io.Writer
	ended bool
}

// NewHTML starts a document and writes its header.
func NewHTML(w io.Writer, title string) *HTML {
	h := &HTML{w: w}
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n", html.EscapeString(title))
	return h
}

// End closes the document. Safe to call more than once.
func (h *HTML) End() {
	if h.ended {
		return
	}
	h.ended = true
	fmt.Fprint(h.w, "</body>\n</html>\n")
}

// styleAttr renders an optional inline style from a decorator.
func styleAttr(style string) string {
	if style == "" {
		return ""
	}
	return fmt.Sprintf(" style=%q", style)
}

// Heading writes an h1 through h4 element.
func (h *HTML) Heading(level int, style, text string) {
	if level < 1 {
		level = 1
	}
	if level > 4 {
		level = 4
	}
	fmt.Fprintf(h.w, "<h%d%s>%s</h%d>\n", level, styleAttr(style), html.EscapeString(text), level)
}

// Paragraph writes a p element.
func (h *HTML) Paragraph(style, text string) {
	fmt.Fprintf(h.w, "<p%s>%s</p>\n", styleAttr(style), html.EscapeString(text))
}

// Result writes captured statement output, if any.
func (h *HTML) Result(text string) {
	if text == "" {
		return
	}
	fmt.Fprintf(h.w, "<pre>%s</pre>\n", html.EscapeString(text))
}

// Error writes a failed statement's message.
func (h *HTML) Error(msg string) {
	fmt.Fprintf(h.w, "<pre class=\"error\">%s</pre>\n", html.EscapeString(msg))
}
