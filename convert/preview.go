package convert

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"slices"

	sprig "github.com/go-task/slim-sprig/v3"

	"pdfpages/pages"
)

//go:embed preview.html.tmpl
var previewTemplate string

const previewName = "index.html"

type previewPage struct {
	Number     int
	Stylesheet string
	Markup     template.HTML
}

// previewValues is what is available for preview template expansion.
type previewValues struct {
	Title  string
	Folder string
	Pages  []previewPage
}

// writePreview creates document in working folder showing all processed
// pages one after another with converter base styles.
func writePreview(title, tmp string, results []*pages.Result) (string, error) {
	tmpl, err := template.New(previewName).Funcs(sprig.FuncMap()).Parse(previewTemplate)
	if err != nil {
		return "", fmt.Errorf("unable to parse preview template: %w", err)
	}

	values := previewValues{Title: title, Folder: filepath.ToSlash(tmp)}
	for _, r := range results {
		values.Pages = append(values.Pages, previewPage{
			Number:     r.Number,
			Stylesheet: filepath.ToSlash(r.CSSFilePath),
			Markup:     template.HTML(r.HTML),
		})
	}
	slices.SortFunc(values.Pages, func(a, b previewPage) int { return a.Number - b.Number })

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", fmt.Errorf("unable to expand preview template: %w", err)
	}

	name := filepath.Join(tmp, previewName)
	if err := os.WriteFile(name, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("unable to write preview: %w", err)
	}
	return name, nil
}
