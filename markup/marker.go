// Package markup works with page fragments produced by the converter: finds
// page root element, collects classes in use and rewrites references.
package markup

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"

	"pdfpages/common"
)

const (
	attrPageNo = "data-page-no"
	attrClass  = "class"
	attrID     = "id"
)

// Marker describes page root element and classes page uses.
type Marker struct {
	RootID      string
	RootClasses []string // in order of appearance, no duplicates
	PageNo      string   // data-page-no of the root element

	classes   []string
	classSet  map[string]struct{}
	rootSet   map[string]struct{}
	rootFound bool
}

func newMarker() *Marker {
	return &Marker{
		classSet: make(map[string]struct{}),
		rootSet:  make(map[string]struct{}),
	}
}

// Classes returns every distinct class token used in the page in order of
// appearance.
func (m *Marker) Classes() []string {
	return append([]string(nil), m.classes...)
}

// HasClass reports if class token is used anywhere in the page.
func (m *Marker) HasClass(name string) bool {
	_, ok := m.classSet[name]
	return ok
}

// IsRootClass reports if class token is listed in root element own class
// attribute.
func (m *Marker) IsRootClass(name string) bool {
	_, ok := m.rootSet[name]
	return ok
}

func (m *Marker) addClasses(value string) {
	for _, c := range strings.Fields(value) {
		if _, ok := m.classSet[c]; ok {
			continue
		}
		m.classSet[c] = struct{}{}
		m.classes = append(m.classes, c)
	}
}

// tryRoot checks if element is page root, first matching element wins.
func (m *Marker) tryRoot(attrs []html.Attribute) bool {
	if m.rootFound {
		return false
	}
	var (
		pageNo, class, id   string
		hasPageNo, hasClass bool
	)
	for _, a := range attrs {
		switch a.Key {
		case attrPageNo:
			pageNo, hasPageNo = a.Val, true
		case attrClass:
			class, hasClass = a.Val, true
		case attrID:
			id = a.Val
		}
	}
	if !hasPageNo || !hasClass {
		return false
	}
	m.rootFound = true
	m.RootID, m.PageNo = id, pageNo
	for _, c := range strings.Fields(class) {
		if _, ok := m.rootSet[c]; ok {
			continue
		}
		m.rootSet[c] = struct{}{}
		m.RootClasses = append(m.RootClasses, c)
	}
	return true
}

// Extract finds page root and collects classes without changing markup.
func Extract(data []byte) (*Marker, error) {
	res, err := scan(data, nil)
	if err != nil {
		return nil, err
	}
	return res.Marker, nil
}

// visitor is called for every start tag, it returns true when attributes
// were changed and tag has to be serialized again.
type visitor func(tok *html.Token, root bool) bool

func scan(data []byte, visit visitor) (*Rewritten, error) {
	m := newMarker()

	var out bytes.Buffer
	if visit != nil {
		out.Grow(len(data))
	}

	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, common.WrapError(common.ErrorKindInternal, err, "unable to tokenize page markup")
			}
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			if visit != nil {
				out.Write(z.Raw())
			}
			continue
		}

		// Raw() is only valid until Token() is called
		raw := append([]byte(nil), z.Raw()...)
		tok := z.Token()

		root := m.tryRoot(tok.Attr)
		for _, a := range tok.Attr {
			if a.Key == attrClass {
				m.addClasses(a.Val)
			}
		}
		if visit == nil {
			continue
		}
		if visit(&tok, root) {
			out.WriteString(tok.String())
		} else {
			out.Write(raw)
		}
	}

	if !m.rootFound {
		return nil, common.NewError(common.ErrorKindRootMarkerNotFound, "page root element with %s and %s attributes not found", attrPageNo, attrClass)
	}
	return &Rewritten{HTML: out.Bytes(), Marker: m}, nil
}
