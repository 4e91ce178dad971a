// Package scope builds page stylesheet out of the converter stylesheet: only
// rules the page uses are kept, selectors are scoped to page root and fonts
// are renamed to their content addressed names.
package scope

import (
	"strings"

	"pdfpages/common"
	"pdfpages/css"
	"pdfpages/fonts"
	"pdfpages/markup"
)

// Build produces page scoped stylesheet. Source stylesheet is not modified.
// Only single class rules and font faces used by the page are kept, in
// original order.
func Build(sheet *css.Stylesheet, marker *markup.Marker, mapping fonts.Mapping) (*css.Stylesheet, error) {
	out := &css.Stylesheet{Items: make([]css.Item, 0)}
	root := "#" + marker.RootID

	for _, item := range sheet.Items {
		switch {
		case item.Rule != nil:
			if r := scopeRule(item.Rule, root, marker, mapping); r != nil {
				out.Items = append(out.Items, css.Item{Rule: r})
			}
		case item.FontFace != nil:
			ff, err := scopeFontFace(item.FontFace, marker, mapping)
			if err != nil {
				return nil, err
			}
			if ff != nil {
				out.Items = append(out.Items, css.Item{FontFace: ff})
			}
		}
	}
	return out, nil
}

func scopeRule(rule *css.Rule, root string, marker *markup.Marker, mapping fonts.Mapping) *css.Rule {
	name, ok := rule.ClassName()
	if !ok || !marker.HasClass(name) {
		return nil
	}

	r := rule.Clone()
	sel := "." + name
	r.Selectors = r.Selectors[:0]
	if marker.IsRootClass(name) {
		r.Selectors = append(r.Selectors, root+sel)
	}
	r.Selectors = append(r.Selectors, root+" "+sel)

	if family, ok := r.Declarations.Get("font-family"); ok {
		if a, ok := mapping.ForFamily(strings.Trim(family, `"'`)); ok {
			r.Declarations.Set("font-family", a.Family)
		}
	}
	return r
}

func scopeFontFace(face *css.FontFace, marker *markup.Marker, mapping fonts.Mapping) (*css.FontFace, error) {
	family := face.Family()
	if family == "" || !marker.HasClass(family) {
		return nil, nil
	}

	a, ok := mapping.ForFamily(family)
	if !ok {
		return nil, common.NewError(common.ErrorKindFontReferenceMissing, "no font file for font family %q", family)
	}

	ff := face.Clone()
	ff.Declarations.Set("font-family", a.Family)
	err := ff.RewriteURLs(func(u string) (string, error) {
		a, ok := mapping.Lookup(u)
		if !ok {
			return "", common.NewError(common.ErrorKindFontReferenceMissing, "font family %q refers to unknown font file %q", family, u)
		}
		return a.URL, nil
	})
	if err != nil {
		return nil, err
	}
	return ff, nil
}
