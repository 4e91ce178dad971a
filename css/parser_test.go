package css

import (
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))))
}

func countItems(sheet *Stylesheet) (rules, faces int) {
	for _, item := range sheet.Items {
		switch {
		case item.Rule != nil:
			rules++
		case item.FontFace != nil:
			faces++
		}
	}
	return rules, faces
}

func mustParse(t *testing.T, src string) *Stylesheet {
	t.Helper()
	sheet, err := newTestParser(t).Parse([]byte(src), "test.css")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return sheet
}

const converterSheet = `.ff0{font-family:sans-serif;visibility:hidden;}
@font-face{font-family:ff1;src:url(f1.woff)format("woff");}.ff1{font-family:ff1;line-height:0.938000;font-style:normal;font-weight:normal;visibility:visible;}
.m0{transform:matrix(0.250000,0.000000,0.000000,0.250000,0,0);}
.sc_,.sc0{text-shadow:none;}
@media print{.v0{vertical-align:0.000000pt;}}
`

func TestParse_ConverterStylesheet(t *testing.T) {
	sheet := mustParse(t, converterSheet)

	if len(sheet.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", sheet.Warnings)
	}
	if len(sheet.Items) != 6 {
		t.Fatalf("got %d items, want 6: %s", len(sheet.Items), sheet)
	}

	if r := sheet.Items[0].Rule; r == nil || !reflect.DeepEqual(r.Selectors, []string{".ff0"}) {
		t.Errorf("item 0 = %+v, want rule .ff0", sheet.Items[0])
	}

	ff := sheet.Items[1].FontFace
	if ff == nil {
		t.Fatalf("item 1 = %+v, want font face", sheet.Items[1])
	}
	if ff.Family() != "ff1" {
		t.Errorf("Family() = %q, want ff1", ff.Family())
	}
	if src, _ := ff.Declarations.Get("src"); src != `url(f1.woff)format("woff")` {
		t.Errorf("src = %q", src)
	}
	if urls := ff.URLs(); !reflect.DeepEqual(urls, []string{"f1.woff"}) {
		t.Errorf("URLs() = %v", urls)
	}

	ff1 := sheet.Items[2].Rule
	if ff1 == nil || len(ff1.Declarations) != 5 {
		t.Fatalf("item 2 = %+v, want .ff1 with 5 declarations", sheet.Items[2])
	}
	if v, _ := ff1.Declarations.Get("font-family"); v != "ff1" {
		t.Errorf("font-family = %q, want ff1", v)
	}
	if ff1.Declarations[1].Property != "line-height" || ff1.Declarations[4].Property != "visibility" {
		t.Errorf("declaration order is not preserved: %+v", ff1.Declarations)
	}

	if v, _ := sheet.Items[3].Rule.Declarations.Get("transform"); v != "matrix(0.250000,0.000000,0.000000,0.250000,0,0)" {
		t.Errorf("transform = %q", v)
	}

	if r := sheet.Items[4].Rule; r == nil || !reflect.DeepEqual(r.Selectors, []string{".sc_", ".sc0"}) {
		t.Errorf("item 4 = %+v, want grouped rule", sheet.Items[4])
	}

	at := sheet.Items[5].AtRule
	if at == nil || at.Name != "@media" || at.Prelude != "print" || !at.Block {
		t.Fatalf("item 5 = %+v, want @media print block", sheet.Items[5])
	}
	if len(at.Items) != 1 || at.Items[0].Rule == nil || at.Items[0].Rule.Selectors[0] != ".v0" {
		t.Errorf("media block items = %+v", at.Items)
	}

	rules, faces := countItems(sheet)
	if rules != 4 {
		t.Errorf("parsed %d rules, want 4", rules)
	}
	if faces != 1 {
		t.Errorf("parsed %d font faces, want 1", faces)
	}
}

func TestParse_Important(t *testing.T) {
	sheet := mustParse(t, `.a{color:red !important;margin:0}`)
	decls := sheet.Items[0].Rule.Declarations
	if len(decls) != 2 {
		t.Fatalf("got %d declarations, want 2", len(decls))
	}
	if decls[0].Value != "red" || !decls[0].Important {
		t.Errorf("declaration = %+v, want important red", decls[0])
	}
	if decls[1].Important {
		t.Errorf("margin must not be important")
	}
	if got := sheet.String(); got != ".a {\n  color: red !important;\n  margin: 0;\n}\n" {
		t.Errorf("String() = %q", got)
	}
}

func TestParse_RecoversFromSyntaxErrors(t *testing.T) {
	sheet := mustParse(t, `.a{color red;margin:0}.b{top:1px}`)

	if len(sheet.Warnings) != 1 {
		t.Errorf("got %d warnings, want 1: %v", len(sheet.Warnings), sheet.Warnings)
	}
	if len(sheet.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(sheet.Items))
	}
	decls := sheet.Items[0].Rule.Declarations
	if len(decls) != 1 || decls[0].Property != "margin" {
		t.Errorf("declarations = %+v, want only margin", decls)
	}
}

func TestParse_AtRules(t *testing.T) {
	sheet := mustParse(t, `@import url(base.css);@page{margin:0}`)
	if len(sheet.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(sheet.Items))
	}

	imp := sheet.Items[0].AtRule
	if imp == nil || imp.Name != "@import" || imp.Prelude != "url(base.css)" || imp.Block {
		t.Errorf("item 0 = %+v, want @import", imp)
	}
	page := sheet.Items[1].AtRule
	if page == nil || page.Name != "@page" || !page.Block {
		t.Fatalf("item 1 = %+v, want @page block", page)
	}
	if v, ok := page.Declarations.Get("margin"); !ok || v != "0" {
		t.Errorf("@page margin = %q, %v", v, ok)
	}
	if got := sheet.String(); got != "@import url(base.css);\n\n@page {\n  margin: 0;\n}\n" {
		t.Errorf("String() = %q", got)
	}
}

func TestStylesheet_WriteTo(t *testing.T) {
	sheet := mustParse(t, `.a,.b{color:red}@font-face{font-family:ff1;src:url(f1.woff)}`)
	want := ".a, .b {\n  color: red;\n}\n\n@font-face {\n  font-family: ff1;\n  src: url(f1.woff);\n}\n"
	if got := sheet.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestStylesheet_RoundTrip(t *testing.T) {
	first := mustParse(t, converterSheet)
	text := first.String()

	second := mustParse(t, text)
	if !reflect.DeepEqual(first.Items, second.Items) {
		t.Errorf("re-parsed stylesheet differs:\n%s\n---\n%s", text, second)
	}
	if second.String() != text {
		t.Errorf("writing is not stable:\n%s\n---\n%s", text, second)
	}
}

func TestRule_ClassName(t *testing.T) {
	tests := []struct {
		selectors []string
		want      string
		ok        bool
	}{
		{[]string{".ff1"}, "ff1", true},
		{[]string{".sc_"}, "sc_", true},
		{[]string{".-x"}, "-x", true},
		{[]string{".a.b"}, "", false},
		{[]string{".a:hover"}, "", false},
		{[]string{".a .b"}, "", false},
		{[]string{"#pf1 .a"}, "", false},
		{[]string{"div"}, "", false},
		{[]string{".1a"}, "", false},
		{[]string{"."}, "", false},
		{[]string{".a", ".b"}, "", false},
		{nil, "", false},
	}
	for _, tt := range tests {
		r := &Rule{Selectors: tt.selectors}
		got, ok := r.ClassName()
		if got != tt.want || ok != tt.ok {
			t.Errorf("ClassName(%v) = %q, %v; want %q, %v", tt.selectors, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDeclarations_GetSet(t *testing.T) {
	d := Declarations{
		{Property: "color", Value: "red"},
		{Property: "font-family", Value: "ff1"},
		{Property: "color", Value: "blue"},
	}

	if v, ok := d.Get("color"); !ok || v != "blue" {
		t.Errorf("Get(color) = %q, %v; want last value blue", v, ok)
	}
	if _, ok := d.Get("margin"); ok {
		t.Error("Get(margin) should report absence")
	}

	clone := d.Clone()
	clone.Set("color", "green")
	if d[0].Value != "red" || d[2].Value != "blue" {
		t.Error("Set on clone modified original")
	}
	if clone[0].Value != "green" || clone[2].Value != "green" {
		t.Errorf("Set did not replace every occurrence: %+v", clone)
	}

	clone.Set("margin", "0")
	if len(clone) != 4 || clone[3].Property != "margin" {
		t.Errorf("Set did not append absent property: %+v", clone)
	}
}

func TestRule_Clone(t *testing.T) {
	r := &Rule{Selectors: []string{".a"}, Declarations: Declarations{{Property: "color", Value: "red"}}}
	c := r.Clone()
	c.Selectors[0] = "#pf1 .a"
	c.Declarations.Set("color", "blue")

	if r.Selectors[0] != ".a" {
		t.Error("clone shares selectors with original")
	}
	if v, _ := r.Declarations.Get("color"); v != "red" {
		t.Error("clone shares declarations with original")
	}
}

func TestFontFace_RewriteURLs(t *testing.T) {
	sheet := mustParse(t, `@font-face{font-family:"ff1";src:url(f1.woff)format("woff"),url('f1.ttf');font-weight:bold}`)
	ff := sheet.Items[0].FontFace.Clone()

	if ff.Family() != "ff1" {
		t.Errorf("Family() = %q, want unquoted ff1", ff.Family())
	}

	err := ff.RewriteURLs(func(u string) (string, error) {
		return "https://cdn.example.com/fonts/" + u, nil
	})
	if err != nil {
		t.Fatalf("RewriteURLs() error = %v", err)
	}

	src, _ := ff.Declarations.Get("src")
	want := `url("https://cdn.example.com/fonts/f1.woff")format("woff"),url("https://cdn.example.com/fonts/f1.ttf")`
	if src != want {
		t.Errorf("src = %q, want %q", src, want)
	}
	if v, _ := sheet.Items[0].FontFace.Declarations.Get("src"); v == want {
		t.Error("rewriting clone modified original")
	}
	if w, _ := ff.Declarations.Get("font-weight"); w != "bold" {
		t.Errorf("font-weight = %q, other declarations must be untouched", w)
	}
}

func TestFontFace_RewriteURLsError(t *testing.T) {
	ff := &FontFace{Declarations: Declarations{{Property: "src", Value: "url(f9.woff)"}}}
	errMissing := errors.New("missing")

	err := ff.RewriteURLs(func(string) (string, error) { return "", errMissing })
	if !errors.Is(err, errMissing) {
		t.Fatalf("RewriteURLs() error = %v, want %v", err, errMissing)
	}
	if v, _ := ff.Declarations.Get("src"); v != "url(f9.woff)" {
		t.Errorf("src = %q, must stay untouched on error", v)
	}
}

func TestCssEscapeDoubleQuoted(t *testing.T) {
	tests := map[string]string{
		"plain":        "plain",
		`with"quote`:   `with\"quote`,
		`back\slash`:   `back\\slash`,
		`both\"`:       `both\\\"`,
		"":             "",
		"unicode-тест": "unicode-тест",
	}
	for in, want := range tests {
		if got := cssEscapeDoubleQuoted(in); got != want {
			t.Errorf("cssEscapeDoubleQuoted(%q) = %q, want %q", in, got, want)
		}
	}
}
