package svg

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// escapeXML escapes text for use in element content and attribute values.
// Characters XML 1.0 does not allow, invalid UTF-8 included, become U+FFFD.
func escapeXML(s string) string {
	return xmlEscaper.Replace(strings.Map(xmlChar, s))
}

func xmlChar(r rune) rune {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return r
	case r >= 0x20 && r <= 0xD7FF:
		return r
	case r >= 0xE000 && r <= 0xFFFD:
		return r
	case r >= 0x10000 && r <= 0x10FFFF:
		return r
	}
	return utf8.RuneError
}

// num formats a coordinate with at most two decimals and no trailing zeros
func num(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // normalize -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// attr is one XML attribute; values are escaped on output
type attr struct {
	name  string
	value string
}

func kv(name, value string) attr {
	return attr{name, value}
}

func kvf(name string, v float64) attr {
	return attr{name, num(v)}
}

// document accumulates SVG markup in memory
type document struct {
	buf   bytes.Buffer
	depth int
}

func (d *document) indent() {
	for i := 0; i < d.depth; i++ {
		d.buf.WriteString("  ")
	}
}

func (d *document) writeAttrs(attrs []attr) {
	for _, at := range attrs {
		fmt.Fprintf(&d.buf, ` %s="%s"`, at.name, escapeXML(at.value))
	}
}

// open starts an element that will contain children
func (d *document) open(name string, attrs ...attr) {
	d.indent()
	d.buf.WriteString("<" + name)
	d.writeAttrs(attrs)
	d.buf.WriteString(">\n")
	d.depth++
}

func (d *document) close(name string) {
	d.depth--
	d.indent()
	d.buf.WriteString("</" + name + ">\n")
}

// empty writes a self-closing element
func (d *document) empty(name string, attrs ...attr) {
	d.indent()
	d.buf.WriteString("<" + name)
	d.writeAttrs(attrs)
	d.buf.WriteString("/>\n")
}

// text writes an element with escaped character data
func (d *document) text(name, content string, attrs ...attr) {
	d.indent()
	d.buf.WriteString("<" + name)
	d.writeAttrs(attrs)
	d.buf.WriteString(">")
	d.buf.WriteString(escapeXML(content))
	d.buf.WriteString("</" + name + ">\n")
}

func (d *document) raw(s string) {
	d.buf.WriteString(s)
}

func (d *document) Bytes() []byte {
	return d.buf.Bytes()
}
