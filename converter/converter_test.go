package converter

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"pdfpages/common"
	"pdfpages/config"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	stdout string
	stderr string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{name: name, args: slices.Clone(args)})
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func testConfig() *config.ConverterConfig {
	return &config.ConverterConfig{
		Binary:        "pdf2htmlEX",
		ImageFormat:   "png",
		FontExtension: "woff",
		CSSFileName:   "manual.css",
		TmpFolderName: ".tmp",
		Workers:       1,
	}
}

func newTestConverter(t *testing.T, cfg *config.ConverterConfig, runner CommandRunner) *Converter {
	t.Helper()
	return New(cfg, runner, zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))))
}

func TestVersion(t *testing.T) {
	runner := &fakeRunner{stderr: "pdf2htmlEX version 0.18.8.rc1\nCopyright 2012-2015 Lu Wang\n"}
	c := newTestConverter(t, testConfig(), runner)

	got, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if want := "pdf2htmlEX version 0.18.8.rc1\nCopyright 2012-2015 Lu Wang"; got != want {
		t.Errorf("Version() = %q, want %q", got, want)
	}
	if want := []call{{name: "pdf2htmlEX", args: []string{"--version"}}}; !reflect.DeepEqual(runner.calls, want) {
		t.Errorf("calls = %v, want %v", runner.calls, want)
	}
}

func TestVersion_Stdout(t *testing.T) {
	c := newTestConverter(t, testConfig(), &fakeRunner{stdout: "pdf2htmlEX 0.18\n"})
	got, err := c.Version(context.Background())
	if err != nil || got != "pdf2htmlEX 0.18" {
		t.Errorf("Version() = %q, %v", got, err)
	}
}

func TestVersion_Unavailable(t *testing.T) {
	c := newTestConverter(t, testConfig(), &fakeRunner{err: errors.New("executable file not found in $PATH")})
	_, err := c.Version(context.Background())
	if common.KindOf(err) != common.ErrorKindConverterUnavailable {
		t.Fatalf("Version() error = %v, want converter unavailable", err)
	}
	if common.ExitCode(err) != -1 {
		t.Errorf("ExitCode = %d, want -1", common.ExitCode(err))
	}
}

func TestArgs(t *testing.T) {
	base := []string{
		"--fallback", "0",
		"--bg-format", "png",
		"--debug", "0",
		"--optimize-text", "0",
		"--process-outline", "1",
		"--process-nontext", "1",
		"--space-as-offset", "0",
		"--embed-font", "0",
		"--embed-image", "0",
		"--embed-css", "0",
		"--printing", "0",
		"--space-threshold", "0.125",
		"--heps", "1",
		"--veps", "1",
		"--split-pages", "1",
		"--css-filename", "manual.css",
		"--page-filename", "pages/page-%d.html",
		"--dest-dir", "/books/42/.tmp",
	}

	t.Run("defaults", func(t *testing.T) {
		c := newTestConverter(t, testConfig(), &fakeRunner{})
		got := c.Args(Options{PDFPath: "/books/42/book.pdf", DestDir: "/books/42/.tmp"})
		want := append(slices.Clone(base), "/books/42/book.pdf")
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Args() =\n%v\nwant\n%v", got, want)
		}
	})

	t.Run("single page with data dir", func(t *testing.T) {
		cfg := testConfig()
		cfg.DataDir = "/usr/share/pdf2htmlEX"
		cfg.ExtraArgs = []string{"--zoom", "1.5"}
		c := newTestConverter(t, cfg, &fakeRunner{})
		got := c.Args(Options{
			PDFPath:     "/books/42/book.pdf",
			DestDir:     "/books/42/.tmp",
			PageNumber:  7,
			DataDir:     "/opt/data",
			UseFallback: true,
			Debug:       true,
		})
		want := []string{"--data-dir", "/opt/data", "-f", "7", "-l", "7"}
		want = append(want, base...)
		want[7], want[11] = "1", "1" // --fallback, --debug
		want = append(want, "--zoom", "1.5", "/books/42/book.pdf")
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Args() =\n%v\nwant\n%v", got, want)
		}
	})

	t.Run("configured data dir", func(t *testing.T) {
		cfg := testConfig()
		cfg.DataDir = "/usr/share/pdf2htmlEX"
		c := newTestConverter(t, cfg, &fakeRunner{})
		got := c.Args(Options{PDFPath: "b.pdf", DestDir: "/books/42/.tmp"})
		if got[0] != "--data-dir" || got[1] != "/usr/share/pdf2htmlEX" {
			t.Errorf("Args() = %v, configured data dir expected first", got)
		}
	})
}

func TestConvert(t *testing.T) {
	runner := &fakeRunner{stdout: "Working: 1/1", stderr: "Preprocessing: 1/1\n"}
	c := newTestConverter(t, testConfig(), runner)

	out, err := c.Convert(context.Background(), Options{PDFPath: "book.pdf", DestDir: "tmp"})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got := string(out.Bytes()); got != "Working: 1/1\nPreprocessing: 1/1\n" {
		t.Errorf("Output.Bytes() = %q", got)
	}
	if len(runner.calls) != 1 || runner.calls[0].name != "pdf2htmlEX" || runner.calls[0].args[len(runner.calls[0].args)-1] != "book.pdf" {
		t.Errorf("unexpected calls %v", runner.calls)
	}
}

func TestConvert_Failure(t *testing.T) {
	runner := &fakeRunner{stderr: "Error: Cannot read the file\n", err: errors.New("exit status 1")}
	c := newTestConverter(t, testConfig(), runner)

	out, err := c.Convert(context.Background(), Options{PDFPath: "book.pdf", DestDir: "tmp"})
	if common.KindOf(err) != common.ErrorKindConverterUnavailable {
		t.Fatalf("Convert() error = %v, want converter unavailable", err)
	}
	if common.ExitCode(err) != -1 {
		t.Errorf("ExitCode = %d, want -1", common.ExitCode(err))
	}
	if string(out.Bytes()) != "Error: Cannot read the file\n" {
		t.Errorf("output must be kept on failure, got %q", out.Bytes())
	}
}

func TestConvert_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newTestConverter(t, testConfig(), &fakeRunner{err: errors.New("signal: killed")})
	if _, err := c.Convert(ctx, Options{PDFPath: "book.pdf"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Convert() error = %v, want context canceled", err)
	}
}

func TestOutputBytes_Nil(t *testing.T) {
	var o *Output
	if o.Bytes() != nil {
		t.Error("nil output must produce nil")
	}
}
