package pages

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/tdewolff/minify/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pdfpages/common"
	"pdfpages/config"
	"pdfpages/css"
	"pdfpages/fonts"
	"pdfpages/job"
	"pdfpages/manifest"
	"pdfpages/markup"
	"pdfpages/scope"
	"pdfpages/utils/fsutil"
)

// Options describe converter output and how pages are published.
type Options struct {
	SourceFolder   string // converter output folder, page images are there
	PagesFolder    string // converter page fragments
	StylesheetPath string // global converter stylesheet
	StoragePrefix  string
	ImageFormat    string
	Workers        int
}

// Result is a page which was successfully processed.
type Result struct {
	Number      int
	Page        *job.PageConfig
	HTML        []byte
	CSSFilePath string
}

// Pipeline processes every generated page of a single run.
type Pipeline struct {
	opts     Options
	job      *job.Job
	locator  *Locator
	warnings *manifest.WarningLog
	rpt      *config.Report
	log      *zap.Logger

	minifier  *minify.M
	sheet     *css.Stylesheet
	generated []GeneratedPage
	tolerant  bool
}

// NewPipeline creates page pipeline for the job. Report may be nil.
func NewPipeline(j *job.Job, opts Options, locator *Locator, warnings *manifest.WarningLog, rpt *config.Report, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{
		opts:     opts,
		job:      j,
		locator:  locator,
		warnings: warnings,
		rpt:      rpt,
		log:      log.Named("pages"),
		minifier: newMinifier(),
	}
}

// Prepare lists generated pages, reconciles them with declared ones and
// parses global stylesheet. It does not depend on fonts and could be called
// before fonts are hashed.
func (p *Pipeline) Prepare() error {
	generated, err := ListGenerated(p.opts.PagesFolder, p.log)
	if err != nil {
		return err
	}

	declared := len(p.job.Pages)
	if !Reconcile(declared, len(generated), p.warnings) {
		p.log.Warn("Number of pages does not match configuration",
			zap.Int("declared", declared), zap.Int("generated", len(generated)))
	}
	p.tolerant = len(generated) > declared

	data, err := os.ReadFile(p.opts.StylesheetPath)
	if err != nil {
		return common.WrapError(common.ErrorKindInternal, err, "unable to read converter stylesheet")
	}
	sheet, err := css.NewParser(p.log).Parse(data, filepath.Base(p.opts.StylesheetPath))
	if err != nil {
		return common.WrapError(common.ErrorKindInternal, err, "unable to parse converter stylesheet")
	}
	for _, w := range sheet.Warnings {
		p.log.Debug("Stylesheet", zap.String("warning", w))
	}

	p.generated = generated
	p.sheet = sheet
	return nil
}

// Run processes all generated pages using font mapping for stylesheets. The
// first failure stops processing. Results are ordered by page number.
func (p *Pipeline) Run(ctx context.Context, mapping fonts.Mapping) ([]*Result, error) {
	if p.sheet == nil {
		if err := p.Prepare(); err != nil {
			return nil, err
		}
	}

	results := make([]*Result, len(p.generated))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, gp := range p.generated {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := p.processPage(gp, mapping)
			if err != nil {
				return common.WrapError(common.KindOf(err), err, "page %d (%s)", gp.Number, filepath.Base(gp.Path))
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results = slices.DeleteFunc(results, func(r *Result) bool { return r == nil })
	p.log.Debug("Pages processed", zap.Int("pages", len(results)))
	return results, nil
}

func (p *Pipeline) processPage(gp GeneratedPage, mapping fonts.Mapping) (*Result, error) {
	page, err := p.locator.Resolve(gp.Number)
	if err != nil {
		if p.tolerant && errors.Is(err, common.ErrKind(common.ErrorKindPageNotFound)) {
			p.log.Warn("Skipping page without configuration", zap.Int("page", gp.Number))
			return nil, nil
		}
		return nil, err
	}

	data, err := os.ReadFile(gp.Path)
	if err != nil {
		return nil, common.WrapError(common.ErrorKindInternal, err, "unable to read page")
	}

	id := page.ID.String()
	rewritten, err := markup.Rewrite(data, markup.RewriteOptions{
		PageID:        id,
		StoragePrefix: p.opts.StoragePrefix,
		ImageFormat:   p.opts.ImageFormat,
		SourceFolder:  p.opts.SourceFolder,
		ImageFolder:   page.PageImageFolderPath,
	})
	if err != nil {
		return nil, err
	}
	htmlData, err := minifyBytes(p.minifier, mimeHTML, rewritten.HTML)
	if err != nil {
		return nil, err
	}

	scoped, err := scope.Build(p.sheet, rewritten.Marker, mapping)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := scoped.WriteTo(&buf); err != nil {
		return nil, err
	}
	cssData, err := minifyBytes(p.minifier, mimeCSS, buf.Bytes())
	if err != nil {
		return nil, err
	}

	htmlPath := filepath.Join(page.PageFolderPath, id+".html")
	cssPath := filepath.Join(page.PageFolderPath, id+".css")
	if err := os.WriteFile(htmlPath, htmlData, 0644); err != nil {
		return nil, common.WrapError(common.ErrorKindInternal, err, "unable to write page markup")
	}
	if err := os.WriteFile(cssPath, cssData, 0644); err != nil {
		return nil, common.WrapError(common.ErrorKindInternal, err, "unable to write page stylesheet")
	}

	images := make([]string, 0, len(rewritten.Images))
	for _, img := range rewritten.Images {
		if err := fsutil.CopyFile(img.Source, img.Destination); err != nil {
			return nil, common.WrapError(common.ErrorKindInternal, err, "unable to copy page image %q", filepath.Base(img.Source))
		}
		images = append(images, img.Destination)
	}

	page.Processed = true
	page.HTMLFilePath = htmlPath
	page.CSSFilePath = cssPath
	page.ImageFilePaths = images

	p.rpt.StoreData(fmt.Sprintf("scope/page-%d.txt", gp.Number), scope.Dump(gp.Number, rewritten.Marker, scoped))
	p.log.Debug("Page processed",
		zap.Int("page", gp.Number),
		zap.String("id", id),
		zap.Int("rules", len(scoped.Items)),
		zap.Int("images", len(images)))

	return &Result{Number: gp.Number, Page: page, HTML: htmlData, CSSFilePath: cssPath}, nil
}
