package pages

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	xhtml "golang.org/x/net/html"
)

const (
	mimeHTML = "text/html"
	mimeCSS  = "text/css"
)

// Converter text runs are laid out with white-space:pre and spacer spans, so
// every whitespace character of a text node is kept. Minifier always collapses
// whitespace runs outside of pre elements, text node whitespace is hidden
// behind private use runes for the duration of the pass.
var (
	whitespaceGuards = map[byte]rune{
		' ':  '\uE000',
		'\t': '\uE001',
		'\n': '\uE002',
		'\r': '\uE003',
		'\f': '\uE004',
	}
	whitespaceRestorer = strings.NewReplacer(
		"\uE000", " ",
		"\uE001", "\t",
		"\uE002", "\n",
		"\uE003", "\r",
		"\uE004", "\f",
	)
)

// newMinifier prepares minifier for page fragments. Fragments are embedded
// into other documents so end tags and attribute quotes are never dropped.
func newMinifier() *minify.M {
	m := minify.New()
	m.Add(mimeHTML, &html.Minifier{
		KeepDefaultAttrVals: true,
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
		KeepWhitespace:      true,
	})
	m.AddFunc(mimeCSS, css.Minify)
	return m
}

func minifyBytes(m *minify.M, mime string, data []byte) ([]byte, error) {
	if mime == mimeHTML {
		return minifyMarkup(m, data)
	}
	out, err := m.Bytes(mime, data)
	if err != nil {
		return nil, fmt.Errorf("unable to minify %s: %w", mime, err)
	}
	return out, nil
}

func minifyMarkup(m *minify.M, data []byte) ([]byte, error) {
	if bytes.ContainsFunc(data, isWhitespaceGuard) {
		// cannot guard, leave markup as is
		return data, nil
	}
	guarded, err := guardWhitespace(data)
	if err != nil {
		return nil, fmt.Errorf("unable to minify %s: %w", mimeHTML, err)
	}
	out, err := m.Bytes(mimeHTML, guarded)
	if err != nil {
		return nil, fmt.Errorf("unable to minify %s: %w", mimeHTML, err)
	}
	return []byte(whitespaceRestorer.Replace(string(out))), nil
}

func isWhitespaceGuard(r rune) bool {
	return r >= '\uE000' && r <= '\uE004'
}

// guardWhitespace replaces whitespace in text nodes, script and style content
// is left alone.
func guardWhitespace(data []byte) ([]byte, error) {
	var (
		out bytes.Buffer
		raw bool
	)
	out.Grow(len(data) + len(data)/4)

	z := xhtml.NewTokenizer(bytes.NewReader(data))
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return nil, err
			}
			return out.Bytes(), nil
		}
		text := z.Raw()
		if tt == xhtml.TextToken && !raw {
			for _, b := range text {
				if r, ok := whitespaceGuards[b]; ok {
					out.WriteRune(r)
					continue
				}
				out.WriteByte(b)
			}
			continue
		}
		out.Write(text)

		// TagName lowercases token buffer in place, raw bytes are already written
		switch tt {
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			raw = string(name) == "script" || string(name) == "style"
		case xhtml.EndTagToken:
			raw = false
		}
	}
}
