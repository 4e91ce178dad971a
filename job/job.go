// Package job loads and validates description of a single textbook
// conversion: where the PDF is, which pages are expected and where every
// produced artifact goes.
package job

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	validator "github.com/go-playground/validator/v10"
	"github.com/rupor-github/gencfg"

	"pdfpages/common"
)

// PageConfig is declared page configuration. Fields below the blank line are
// filled while page is processed and end up in the manifest.
type PageConfig struct {
	Number              int        `json:"number" validate:"gte=1"`
	ID                  Identifier `json:"id"`
	PageFolderPath      string     `json:"page_folder_path" validate:"required"`
	PageImageFolderPath string     `json:"page_image_folder_path" validate:"required"`

	Processed      bool     `json:"processed"`
	HTMLFilePath   string   `json:"html_file_path,omitempty"`
	CSSFilePath    string   `json:"css_file_path,omitempty"`
	ImageFilePaths []string `json:"image_file_paths,omitempty"`

	unknown map[string]json.RawMessage
}

// Job is the input configuration of a run.
type Job struct {
	TextbookFolderPath      string        `json:"textbook_folder_path" validate:"required"`
	TextbookPagesFolderPath string        `json:"textbook_pages_folder_path" validate:"required"`
	TextbookFontsFolderPath string        `json:"textbook_fonts_folder_path" validate:"required"`
	PDFFilePath             string        `json:"pdf_file_path" validate:"required"`
	StoragePrefix           string        `json:"storage_prefix"`
	TextbookID              Identifier    `json:"textbook_id"`
	ManifestFilePath        string        `json:"manifest_file_path" validate:"required"`
	PageNumber              int           `json:"page_number,omitempty" validate:"gte=0"`
	DataDir                 string        `json:"data_dir,omitempty"`
	UseFallback             bool          `json:"use_fallback,omitempty"`
	Pages                   []*PageConfig `json:"pages" validate:"dive,required"`

	unknown map[string]json.RawMessage
}

// Load reads job file, every problem is reported as configuration error.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.WrapError(common.ErrorKindConfiguration, err, "unable to read job file")
	}
	return Parse(data)
}

// Parse decodes and validates job description.
func Parse(data []byte) (*Job, error) {
	j := &Job{}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(j); err != nil {
		return nil, common.WrapError(common.ErrorKindConfiguration, err, "unable to decode job")
	}
	if err := j.collectUnknown(data); err != nil {
		return nil, common.WrapError(common.ErrorKindConfiguration, err, "unable to decode job")
	}
	j.clean()
	if err := gencfg.Validate(j, gencfg.WithAdditionalChecks(validateJob)); err != nil {
		return nil, common.WrapError(common.ErrorKindConfiguration, err, "invalid job")
	}
	return j, nil
}

// clean normalizes all paths.
func (j *Job) clean() {
	for _, p := range []*string{&j.TextbookFolderPath, &j.TextbookPagesFolderPath, &j.TextbookFontsFolderPath, &j.PDFFilePath, &j.ManifestFilePath} {
		if *p != "" {
			*p = filepath.Clean(*p)
		}
	}
	for _, page := range j.Pages {
		if page == nil {
			continue
		}
		if page.PageFolderPath != "" {
			page.PageFolderPath = filepath.Clean(page.PageFolderPath)
		}
		if page.PageImageFolderPath != "" {
			page.PageImageFolderPath = filepath.Clean(page.PageImageFolderPath)
		}
	}
}

// validateJob checks what could not be expressed with tags.
func validateJob(sl validator.StructLevel) {
	j := sl.Current().Interface().(Job)

	if j.TextbookID.IsZero() {
		sl.ReportError(j.TextbookID, "TextbookID", "TextbookID", "required", "")
	}
	numbers := make(map[int]struct{}, len(j.Pages))
	ids := make(map[string]struct{}, len(j.Pages))
	for i, p := range j.Pages {
		if p == nil {
			continue
		}
		name := fmt.Sprintf("Pages[%d]", i)
		if p.ID.IsZero() {
			sl.ReportError(p.ID, name+".ID", name+".ID", "required", "")
		} else if _, dup := ids[p.ID.String()]; dup {
			sl.ReportError(p.ID, name+".ID", name+".ID", "unique", p.ID.String())
		}
		if _, dup := numbers[p.Number]; dup {
			sl.ReportError(p.Number, name+".Number", name+".Number", "unique", fmt.Sprint(p.Number))
		}
		ids[p.ID.String()] = struct{}{}
		numbers[p.Number] = struct{}{}
	}
	if j.PageNumber > 0 && len(j.Pages) > 0 && j.Page(j.PageNumber) == nil {
		sl.ReportError(j.PageNumber, "PageNumber", "PageNumber", "declared", fmt.Sprint(j.PageNumber))
	}
}

// Page returns declared page configuration by its number or nil.
func (j *Job) Page(number int) *PageConfig {
	for _, p := range j.Pages {
		if p != nil && p.Number == number {
			return p
		}
	}
	return nil
}

// SinglePage reports if only one page of the PDF is to be converted.
func (j *Job) SinglePage() bool {
	return j.PageNumber > 0
}

// TmpFolderPath returns converter working folder inside textbook folder.
func (j *Job) TmpFolderPath(name string) string {
	return filepath.Join(j.TextbookFolderPath, name)
}
