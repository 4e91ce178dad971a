package scope

import (
	"pdfpages/css"
	"pdfpages/markup"
	"pdfpages/utils/debug"
)

// Dump describes how page stylesheet was built, used in debug report.
func Dump(pageNumber int, marker *markup.Marker, scoped *css.Stylesheet) []byte {
	tw := debug.NewTreeWriter()
	tw.Line(0, "page %d", pageNumber)
	tw.Value(1, "root", marker.RootID)
	tw.Value(1, "data-page-no", marker.PageNo)
	tw.List(1, "root classes", marker.RootClasses)
	tw.List(1, "classes", marker.Classes())

	var selectors, families, urls []string
	for _, item := range scoped.Items {
		switch {
		case item.Rule != nil:
			selectors = append(selectors, item.Rule.Selectors...)
		case item.FontFace != nil:
			families = append(families, item.FontFace.Family())
			urls = append(urls, item.FontFace.URLs()...)
		}
	}
	tw.List(1, "selectors", selectors)
	tw.List(1, "font faces", families)
	tw.List(1, "font urls", urls)
	return tw.Bytes()
}
