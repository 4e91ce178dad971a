// Package converter runs pdf2htmlEX producing page fragments, global
// stylesheet, fonts and page background images in working folder.
package converter

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"pdfpages/common"
	"pdfpages/config"
)

// PageFilePattern is how converter names page fragments inside destination
// folder.
const PageFilePattern = "pages/page-%d.html"

// Options describe single conversion.
type Options struct {
	PDFPath     string
	DestDir     string
	PageNumber  int    // when positive only this page is converted
	DataDir     string // overrides configured data dir
	UseFallback bool
	Debug       bool
}

// Output is what converter printed while running.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// Bytes returns both streams one after another.
func (o *Output) Bytes() []byte {
	if o == nil {
		return nil
	}
	var buf bytes.Buffer
	buf.Write(o.Stdout)
	if len(o.Stdout) > 0 && len(o.Stderr) > 0 && !bytes.HasSuffix(o.Stdout, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.Write(o.Stderr)
	return buf.Bytes()
}

// Converter invokes external pdf2htmlEX.
type Converter struct {
	cfg    *config.ConverterConfig
	runner CommandRunner
	log    *zap.Logger
}

// New creates converter, nil runner means programs are executed directly.
func New(cfg *config.ConverterConfig, runner CommandRunner, log *zap.Logger) *Converter {
	if runner == nil {
		runner = &ExecRunner{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{cfg: cfg, runner: runner, log: log.Named("converter")}
}

// Version returns what converter reports about itself. pdf2htmlEX prints
// version information to stderr.
func (c *Converter) Version(ctx context.Context) (string, error) {
	stdout, stderr, err := c.runner.Run(ctx, c.cfg.Binary, "--version")
	if err != nil {
		return "", common.WrapError(common.ErrorKindConverterUnavailable, err, "checking %s version", c.cfg.Binary)
	}
	version := strings.TrimSpace(string(stderr))
	if len(version) == 0 {
		version = strings.TrimSpace(string(stdout))
	}
	c.log.Debug("Converter found", zap.String("binary", c.cfg.Binary), zap.String("version", firstLine(version)))
	return version, nil
}

// Args returns converter command line for the conversion.
func (c *Converter) Args(opts Options) []string {
	var args []string

	dataDir := opts.DataDir
	if len(dataDir) == 0 {
		dataDir = c.cfg.DataDir
	}
	if len(dataDir) > 0 {
		args = append(args, "--data-dir", dataDir)
	}
	if opts.PageNumber > 0 {
		n := strconv.Itoa(opts.PageNumber)
		args = append(args, "-f", n, "-l", n)
	}
	args = append(args,
		"--fallback", flag(opts.UseFallback),
		"--bg-format", c.cfg.ImageFormat,
		"--debug", flag(opts.Debug),
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
		"--css-filename", c.cfg.CSSFileName,
		"--page-filename", PageFilePattern,
		"--dest-dir", opts.DestDir,
	)
	args = append(args, c.cfg.ExtraArgs...)
	return append(args, opts.PDFPath)
}

// Convert runs the conversion. Output is returned even when conversion fails.
func (c *Converter) Convert(ctx context.Context, opts Options) (*Output, error) {
	args := c.Args(opts)
	c.log.Debug("Running converter", zap.String("binary", c.cfg.Binary), zap.Strings("args", args))

	stdout, stderr, err := c.runner.Run(ctx, c.cfg.Binary, args...)
	out := &Output{Stdout: stdout, Stderr: stderr}
	if err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		return out, common.WrapError(common.ErrorKindConverterUnavailable, err, "conversion of %q failed", opts.PDFPath)
	}
	return out, nil
}

func flag(on bool) string {
	if on {
		return "1"
	}
	return "0"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
