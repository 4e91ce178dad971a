package convert

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"pdfpages/common"
	"pdfpages/config"
	"pdfpages/state"
)

const testStylesheet = `.pf{position:relative}
@font-face{font-family:ff1;src:url('f1.woff')format("woff");}
@font-face{font-family:ff2;src:url('f2.woff')format("woff");}
.ff1{font-family:ff1}
.ff2{font-family:ff2}
.t{color:red}
`

func pageHTML(no string) string {
	return `<div id="pf` + no + `" class="pf w0" data-page-no="` + no + `">` +
		`<img class="bi" src="bg` + no + `.png"/><div class="t ff1">page ` + no + `</div></div>`
}

// fakeConverter pretends to be pdf2htmlEX producing files in destination
// folder.
type fakeConverter struct {
	files      map[string]string
	versionErr error
	convertErr error
	calls      [][]string
}

func (f *fakeConverter) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, slices.Clone(args))
	if len(args) == 1 && args[0] == "--version" {
		return nil, []byte("pdf2htmlEX version 0.18.8.rc1\n"), f.versionErr
	}
	if f.convertErr != nil {
		return nil, []byte("Error: broken pdf\n"), f.convertErr
	}
	dest := args[slices.Index(args, "--dest-dir")+1]
	for name, content := range f.files {
		if err := os.WriteFile(filepath.Join(dest, name), []byte(content), 0644); err != nil {
			return nil, nil, err
		}
	}
	return []byte("Working: 2/2\n"), nil, nil
}

func defaultFiles() map[string]string {
	files := map[string]string{
		"manual.css":    testStylesheet,
		"base.min.css":  ".pf{margin:0}",
		"fancy.min.css": ".t{position:absolute}",
		"f1.woff":       "same-font",
		"f2.woff":       "same-font",
		"bg1.png":       "image-1",
		"bg2.png":       "image-2",
	}
	files[filepath.Join("pages", "page-1.html")] = pageHTML("1")
	files[filepath.Join("pages", "page-2.html")] = pageHTML("2")
	return files
}

type fixture struct {
	base     string
	jobPath  string
	manifest string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{base: base, jobPath: filepath.Join(base, "job.json"), manifest: filepath.Join(base, "out", "manifest.json")}

	if err := os.WriteFile(filepath.Join(base, "book.pdf"), []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}
	j := map[string]any{
		"textbook_folder_path":       base,
		"textbook_pages_folder_path": filepath.Join(base, "pages"),
		"textbook_fonts_folder_path": filepath.Join(base, "fonts"),
		"pdf_file_path":              filepath.Join(base, "book.pdf"),
		"storage_prefix":             "https://cdn.example.com/books/42",
		"textbook_id":                42,
		"manifest_file_path":         f.manifest,
		"pages": []map[string]any{
			{"number": 1, "id": "p1", "page_folder_path": filepath.Join(base, "pages", "p1"), "page_image_folder_path": filepath.Join(base, "pages", "p1", "images")},
			{"number": 2, "id": 1002, "page_folder_path": filepath.Join(base, "pages", "1002"), "page_image_folder_path": filepath.Join(base, "pages", "1002", "images")},
		},
	}
	data, err := json.Marshal(j)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.jobPath, data, 0644); err != nil {
		t.Fatal(err)
	}
	return f
}

func testContext(t *testing.T, createFolders, preview bool) context.Context {
	t.Helper()
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Cfg = &config.Config{
		Version: 1,
		Converter: config.ConverterConfig{
			Binary:        "pdf2htmlEX",
			ImageFormat:   "png",
			FontExtension: "woff",
			CSSFileName:   "manual.css",
			TmpFolderName: ".tmp",
			Workers:       2,
		},
	}
	env.Log = zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	env.CreateFolders = createFolders
	env.Preview = preview
	return ctx
}

func readManifest(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("manifest was not written: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("manifest is not valid json: %v", err)
	}
	return m
}

func TestProcess(t *testing.T) {
	f := newFixture(t)
	runner := &fakeConverter{files: defaultFiles()}

	if err := Process(testContext(t, true, true), f.jobPath, runner); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	m := readManifest(t, f.manifest)
	if m["exit_code"].(float64) != 0 {
		t.Errorf("exit_code = %v, want 0", m["exit_code"])
	}
	if _, ok := m["error_message"]; ok {
		t.Error("error_message must be absent on success")
	}
	if m["pdf2htmlex_version"] != "pdf2htmlEX version 0.18.8.rc1" {
		t.Errorf("pdf2htmlex_version = %v", m["pdf2htmlex_version"])
	}
	if m["textbook_id"].(float64) != 42 {
		t.Errorf("textbook_id = %v, want number 42", m["textbook_id"])
	}
	if m["tmp_folder_path"] != filepath.Join(f.base, ".tmp") {
		t.Errorf("tmp_folder_path = %v", m["tmp_folder_path"])
	}
	if !strings.HasSuffix(m["process_time"].(string), " ms") {
		t.Errorf("process_time = %v", m["process_time"])
	}

	pages := m["pages"].([]any)
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(pages))
	}
	for _, p := range pages {
		page := p.(map[string]any)
		if page["processed"] != true {
			t.Errorf("page %v is not processed", page["number"])
		}
	}
	second := pages[1].(map[string]any)
	if second["id"].(float64) != 1002 {
		t.Errorf("page id = %v, want number 1002", second["id"])
	}
	if second["html_file_path"] != filepath.Join(f.base, "pages", "1002", "1002.html") {
		t.Errorf("html_file_path = %v", second["html_file_path"])
	}

	fontPaths := m["font_file_paths"].([]any)
	if len(fontPaths) != 1 {
		t.Fatalf("font_file_paths = %v, want single file", fontPaths)
	}
	if _, err := os.Stat(fontPaths[0].(string)); err != nil {
		t.Errorf("font file was not copied: %v", err)
	}

	warnings := m["warnings"].([]any)
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	w := warnings[0].(map[string]any)
	if w["error"] != "duplicate_font" {
		t.Errorf("warning = %v", w)
	}
	if fonts := w["fonts"].([]any); len(fonts) != 2 || fonts[0] != "f1.woff" || fonts[1] != "f2.woff" {
		t.Errorf("warning fonts = %v", fonts)
	}

	css, err := os.ReadFile(filepath.Join(f.base, "pages", "p1", "p1.css"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(css), "#pf-p1 .t") || !strings.Contains(string(css), "ff_42_") {
		t.Errorf("page stylesheet = %q", css)
	}

	preview, err := os.ReadFile(filepath.Join(f.base, ".tmp", "index.html"))
	if err != nil {
		t.Fatalf("preview was not written: %v", err)
	}
	for _, want := range []string{"base.min.css", "fancy.min.css", "p1.css", "1002.css", `id="pf-p1"`, `id="pf-1002"`} {
		if !strings.Contains(string(preview), want) {
			t.Errorf("preview does not contain %q", want)
		}
	}
	if strings.Index(string(preview), "pf-p1") > strings.Index(string(preview), "pf-1002") {
		t.Error("preview pages must be in page order")
	}

	if len(runner.calls) != 2 {
		t.Errorf("converter calls = %d, want 2", len(runner.calls))
	}
}

func TestProcess_NoRootMarker(t *testing.T) {
	f := newFixture(t)
	files := defaultFiles()
	files[filepath.Join("pages", "page-2.html")] = `<div id="pf2" class="pf w0"><div class="t">no marker</div></div>`

	err := Process(testContext(t, true, false), f.jobPath, &fakeConverter{files: files})
	if common.KindOf(err) != common.ErrorKindRootMarkerNotFound {
		t.Fatalf("Process() error = %v, want root marker not found", err)
	}

	m := readManifest(t, f.manifest)
	if m["exit_code"].(float64) == 0 {
		t.Error("manifest exit_code must be non zero")
	}
	if m["exit_code"].(float64) != float64(common.ExitCode(err)) {
		t.Errorf("manifest exit_code = %v, want %d", m["exit_code"], common.ExitCode(err))
	}
	if msg, _ := m["error_message"].(string); !strings.Contains(msg, "page 2") {
		t.Errorf("error_message = %q", msg)
	}
}

func TestProcess_ConverterFailure(t *testing.T) {
	f := newFixture(t)
	err := Process(testContext(t, true, false), f.jobPath, &fakeConverter{convertErr: errors.New("exit status 1")})
	if common.KindOf(err) != common.ErrorKindConverterUnavailable {
		t.Fatalf("Process() error = %v, want converter unavailable", err)
	}
	m := readManifest(t, f.manifest)
	if m["exit_code"].(float64) != -1 {
		t.Errorf("exit_code = %v, want -1", m["exit_code"])
	}
	for _, p := range m["pages"].([]any) {
		if p.(map[string]any)["processed"] != false {
			t.Error("no page may be processed after converter failure")
		}
	}
}

func TestProcess_ConverterUnavailable(t *testing.T) {
	f := newFixture(t)
	runner := &fakeConverter{versionErr: errors.New("executable file not found")}
	err := Process(testContext(t, true, false), f.jobPath, runner)
	if common.KindOf(err) != common.ErrorKindConverterUnavailable {
		t.Fatalf("Process() error = %v, want converter unavailable", err)
	}
	if len(runner.calls) != 1 {
		t.Errorf("conversion must not start, calls = %v", runner.calls)
	}
	if m := readManifest(t, f.manifest); m["exit_code"].(float64) != -1 {
		t.Errorf("exit_code = %v, want -1", m["exit_code"])
	}
}

func TestProcess_MissingPDF(t *testing.T) {
	f := newFixture(t)
	if err := os.Remove(filepath.Join(f.base, "book.pdf")); err != nil {
		t.Fatal(err)
	}
	err := Process(testContext(t, true, false), f.jobPath, &fakeConverter{files: defaultFiles()})
	if common.ExitCode(err) != 404 {
		t.Fatalf("Process() error = %v, want 404", err)
	}
	if m := readManifest(t, f.manifest); m["exit_code"].(float64) != 404 {
		t.Errorf("exit_code = %v, want 404", m["exit_code"])
	}
}

func TestProcess_MissingDestination(t *testing.T) {
	f := newFixture(t)
	err := Process(testContext(t, false, false), f.jobPath, &fakeConverter{files: defaultFiles()})
	if common.KindOf(err) != common.ErrorKindDestinationMissing {
		t.Fatalf("Process() error = %v, want destination missing", err)
	}
	if m := readManifest(t, f.manifest); m["exit_code"].(float64) != 404 {
		t.Errorf("exit_code = %v, want 404", m["exit_code"])
	}
}

func TestProcess_BadJob(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(f.jobPath, []byte(`{"pages": [`), 0644); err != nil {
		t.Fatal(err)
	}
	err := Process(testContext(t, true, false), f.jobPath, &fakeConverter{})
	if common.ExitCode(err) != 404 {
		t.Fatalf("Process() error = %v, want 404", err)
	}
	if _, err := os.Stat(f.manifest); !os.IsNotExist(err) {
		t.Error("manifest must not be written when job could not be loaded")
	}
}
