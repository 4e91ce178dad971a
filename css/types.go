package css

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// cssEscapeDoubleQuoted escapes a string for use inside CSS double quotes.
// Backslashes and double quotes are escaped per CSS syntax: \" and \\.
func cssEscapeDoubleQuoted(s string) string {
	// Fast path: nothing to escape.
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Declaration is a single "property: value" pair. Value keeps tokens as
// they were in the source, whitespace normalized.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Declarations keeps declarations in source order, repeated properties included.
type Declarations []Declaration

// Get returns value of the last declaration of the property (the one which wins in CSS).
func (d Declarations) Get(property string) (string, bool) {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].Property == property {
			return d[i].Value, true
		}
	}
	return "", false
}

// Set replaces value of every declaration of the property, appending new
// declaration when property is absent.
func (d *Declarations) Set(property, value string) {
	found := false
	for i := range *d {
		if (*d)[i].Property == property {
			(*d)[i].Value = value
			found = true
		}
	}
	if !found {
		*d = append(*d, Declaration{Property: property, Value: value})
	}
}

// Clone returns independent copy.
func (d Declarations) Clone() Declarations {
	if d == nil {
		return nil
	}
	out := make(Declarations, len(d))
	copy(out, d)
	return out
}

// Rule is a qualified rule: selector list and its declarations.
type Rule struct {
	Selectors    []string
	Declarations Declarations
}

// Clone returns deep copy of the rule.
func (r *Rule) Clone() *Rule {
	return &Rule{
		Selectors:    append([]string(nil), r.Selectors...),
		Declarations: r.Declarations.Clone(),
	}
}

// ClassName returns class name when rule has exactly one selector and it is
// a single class selector (".name").
func (r *Rule) ClassName() (string, bool) {
	if len(r.Selectors) != 1 {
		return "", false
	}
	sel := r.Selectors[0]
	if len(sel) < 2 || sel[0] != '.' || !isIdent(sel[1:]) {
		return "", false
	}
	return sel[1:], true
}

// isIdent reports if s could be used as CSS identifier without escaping.
func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r >= 0x80:
		case r == '-':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return s != "" && s != "-"
}

// FontFace represents an @font-face block.
type FontFace struct {
	Declarations Declarations
}

// Clone returns deep copy of the font face.
func (f *FontFace) Clone() *FontFace {
	return &FontFace{Declarations: f.Declarations.Clone()}
}

// Family returns font-family value without quotes.
func (f *FontFace) Family() string {
	v, _ := f.Declarations.Get("font-family")
	return unquote(v)
}

// URLs returns every url() reference of src declarations in source order.
func (f *FontFace) URLs() []string {
	var urls []string
	for _, d := range f.Declarations {
		if d.Property != "src" {
			continue
		}
		for _, sub := range urlRewritePattern.FindAllStringSubmatch(d.Value, -1) {
			u := sub[1]
			if u == "" {
				u = sub[2]
			}
			urls = append(urls, strings.TrimSpace(u))
		}
	}
	return urls
}

// RewriteURLs replaces every url() reference in src declarations with
// result of fn. First error stops rewriting and is returned, font face is
// left partially rewritten in this case.
func (f *FontFace) RewriteURLs(fn func(originalURL string) (string, error)) error {
	for i := range f.Declarations {
		if f.Declarations[i].Property != "src" {
			continue
		}
		value, err := rewriteURLsInValue(f.Declarations[i].Value, fn)
		if err != nil {
			return err
		}
		f.Declarations[i].Value = value
	}
	return nil
}

// AtRule is any at-rule other than @font-face. It is kept for diagnostics
// and to be able to reproduce stylesheet faithfully.
type AtRule struct {
	Name         string // with leading '@', lowercased
	Prelude      string
	Block        bool
	Declarations Declarations
	Items        []Item
}

// Item is a single top-level item in a stylesheet.
// Exactly one of Rule, FontFace, or AtRule is non-nil.
type Item struct {
	Rule     *Rule
	FontFace *FontFace
	AtRule   *AtRule
}

// Stylesheet represents a parsed CSS stylesheet.
type Stylesheet struct {
	Items    []Item   // All top-level items in source order
	Warnings []string // Recoverable problems found while parsing
}

// urlRewritePattern matches url() references in CSS values.
// Handles: url("path"), url('path'), url(path)
var urlRewritePattern = regexp.MustCompile(`url\s*\(\s*(?:["']([^"']*)["']|([^)"']*))\s*\)`)

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	writeItems(cw, s.Items, "")
	return cw.n, cw.err
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// countingWriter remembers first error, so writing code does not have to
// check every call.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countingWriter) printf(format string, args ...any) {
	if cw.err != nil {
		return
	}
	n, err := fmt.Fprintf(cw.w, format, args...)
	cw.n += int64(n)
	cw.err = err
}

func writeItems(cw *countingWriter, items []Item, indent string) {
	for i, item := range items {
		switch {
		case item.Rule != nil:
			cw.printf("%s%s {\n", indent, strings.Join(item.Rule.Selectors, ", "))
			writeDeclarations(cw, item.Rule.Declarations, indent+"  ")
			cw.printf("%s}\n", indent)
		case item.FontFace != nil:
			cw.printf("%s@font-face {\n", indent)
			writeDeclarations(cw, item.FontFace.Declarations, indent+"  ")
			cw.printf("%s}\n", indent)
		case item.AtRule != nil:
			writeAtRule(cw, item.AtRule, indent)
		}
		// Blank line between items (except after last)
		if i < len(items)-1 {
			cw.printf("\n")
		}
	}
}

func writeAtRule(cw *countingWriter, at *AtRule, indent string) {
	head := at.Name
	if at.Prelude != "" {
		head += " " + at.Prelude
	}
	if !at.Block {
		cw.printf("%s%s;\n", indent, head)
		return
	}
	cw.printf("%s%s {\n", indent, head)
	writeDeclarations(cw, at.Declarations, indent+"  ")
	writeItems(cw, at.Items, indent+"  ")
	cw.printf("%s}\n", indent)
}

func writeDeclarations(cw *countingWriter, decls Declarations, indent string) {
	for _, d := range decls {
		if d.Important {
			cw.printf("%s%s: %s !important;\n", indent, d.Property, d.Value)
			continue
		}
		cw.printf("%s%s: %s;\n", indent, d.Property, d.Value)
	}
}

// rewriteURLsInValue replaces url() references in a CSS value string.
func rewriteURLsInValue(value string, fn func(string) (string, error)) (string, error) {
	var firstErr error
	out := urlRewritePattern.ReplaceAllStringFunc(value, func(match string) string {
		if firstErr != nil {
			return match
		}
		sub := urlRewritePattern.FindStringSubmatch(match)
		if len(sub) < 3 {
			return match
		}
		// Group 1 is quoted URL, group 2 is unquoted URL
		originalURL := sub[1]
		if originalURL == "" {
			originalURL = sub[2]
		}
		newURL, err := fn(strings.TrimSpace(originalURL))
		if err != nil {
			firstErr = err
			return match
		}
		return fmt.Sprintf("url(\"%s\")", cssEscapeDoubleQuoted(newURL))
	})
	if firstErr != nil {
		return value, firstErr
	}
	return out, nil
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
