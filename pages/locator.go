// Package pages turns converter page fragments into self-contained page
// bundles: scoped stylesheet, rewritten markup and page images.
package pages

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"pdfpages/common"
	"pdfpages/job"
	"pdfpages/manifest"
	"pdfpages/utils/fsutil"
)

var pageFileName = regexp.MustCompile(`^page-(\d+)\.html$`)

// GeneratedPage is a page fragment file produced by the converter.
type GeneratedPage struct {
	Number int
	Path   string
}

// ListGenerated returns page fragments found in dir ordered by page number.
// Files not following converter page naming are ignored.
func ListGenerated(dir string, log *zap.Logger) ([]GeneratedPage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, common.WrapError(common.ErrorKindInternal, err, "unable to read converter pages folder")
	}

	var pages []GeneratedPage
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		m := pageFileName.FindStringSubmatch(e.Name())
		if m == nil {
			log.Debug("Ignoring unexpected file in pages folder", zap.String("file", e.Name()))
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			log.Debug("Ignoring page with unusable number", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		pages = append(pages, GeneratedPage{Number: n, Path: filepath.Join(dir, e.Name())})
	}
	slices.SortFunc(pages, func(a, b GeneratedPage) int { return a.Number - b.Number })
	return pages, nil
}

// Reconcile compares number of declared and generated pages and records
// warning when they differ. It returns true when counts match.
func Reconcile(declared, generated int, warnings *manifest.WarningLog) bool {
	if declared == generated {
		return true
	}
	warnings.Add(manifest.PageCountMismatch(declared, generated))
	return false
}

// Locator maps generated pages to declared page configuration.
type Locator struct {
	job           *job.Job
	createFolders bool
	log           *zap.Logger
}

// NewLocator creates locator for job pages. When createFolders is set absent
// page folders are created, otherwise they are reported as missing.
func NewLocator(j *job.Job, createFolders bool, log *zap.Logger) *Locator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Locator{job: j, createFolders: createFolders, log: log}
}

// Resolve returns declared configuration of the page making sure its output
// folders are available.
func (l *Locator) Resolve(number int) (*job.PageConfig, error) {
	page := l.job.Page(number)
	if page == nil {
		return nil, common.NewError(common.ErrorKindPageNotFound, "no configuration found for page %d", number)
	}
	for _, dir := range []string{page.PageFolderPath, page.PageImageFolderPath} {
		existed := fsutil.DirExists(dir)
		if err := fsutil.EnsureDir(dir, l.createFolders); err != nil {
			return nil, err
		}
		if !existed {
			l.log.Debug("Created page folder", zap.Int("page", number), zap.String("folder", dir))
		}
	}
	return page, nil
}
