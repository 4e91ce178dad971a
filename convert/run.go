// Package convert drives a single run: converter invocation, fonts and pages
// processing and the manifest.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"

	"pdfpages/common"
	"pdfpages/converter"
	"pdfpages/job"
	"pdfpages/manifest"
	"pdfpages/misc"
	"pdfpages/state"
	"pdfpages/utils/fsutil"
)

// Run is the action of "process" subcommand.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	env.CreateFolders = cmd.Bool("folder")
	env.Preview = cmd.Bool("test")
	if env.Verbose = cmd.Count("verbose"); env.Verbose > 0 {
		env.Cfg.Logging.SetVerbose()
	}

	runner := &converter.ExecRunner{}
	if env.StreamConverterOutput() {
		w := &zapio.Writer{Log: env.Log.Named("pdf2htmlEX"), Level: zap.InfoLevel}
		defer func() {
			err = multierr.Append(err, w.Close())
		}()
		runner.Output = w
	}

	src := cmd.String("input")
	if cmd.Args().Len() > 0 {
		env.Log.Warn("Malformed command line, unexpected arguments", zap.Strings("ignoring", cmd.Args().Slice()))
	}
	return Process(ctx, src, runner)
}

// Process handles the job independently of CLI framework. After manifest is
// initialized it is always written, failures included.
func Process(ctx context.Context, jobPath string, runner converter.CommandRunner) (err error) {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")
	cfg := &env.Cfg.Converter

	j, err := job.Load(jobPath)
	if err != nil {
		return fmt.Errorf("unable to load job from %q: %w", jobPath, err)
	}
	env.Rpt.Store(filepath.Join("job", filepath.Base(jobPath)), jobPath)

	if err := fsutil.EnsureDir(j.TextbookFolderPath, env.CreateFolders); err != nil {
		return fmt.Errorf("textbook folder: %w", err)
	}

	tmp := j.TmpFolderPath(cfg.TmpFolderName)
	man, err := manifest.New(j, env.Start(), misc.GetVersion(), tmp)
	if err != nil {
		return err
	}

	log.Info("Processing starting", zap.String("job", jobPath), zap.String("pdf", j.PDFFilePath), zap.String("textbook", j.TextbookID.String()))
	defer func() {
		man.Finish(err, time.Now())
		if er := man.Write(j.ManifestFilePath); er != nil {
			err = multierr.Append(err, er)
			return
		}
		env.Rpt.Store("manifest.json", j.ManifestFilePath)
		if er := env.Rpt.StoreCopy("converter", tmp); er != nil {
			log.Warn("Unable to store converter output in report", zap.Error(er))
		}
		log.Info("Processing completed",
			zap.Duration("elapsed", time.Since(man.StartAt)),
			zap.Int("exit code", man.ExitCode),
			zap.Int("warnings", len(man.Warnings)),
			zap.String("manifest", j.ManifestFilePath))
	}()

	conv := converter.New(cfg, runner, env.Log)
	if man.ConverterVersion, err = conv.Version(ctx); err != nil {
		return err
	}

	if err := prepareFolders(j, tmp, env.CreateFolders); err != nil {
		return err
	}

	if j.SinglePage() {
		env.Log.Info("Converting single page", zap.Int("page", j.PageNumber))
	}
	out, err := conv.Convert(ctx, converter.Options{
		PDFPath:     j.PDFFilePath,
		DestDir:     tmp,
		PageNumber:  j.PageNumber,
		DataDir:     j.DataDir,
		UseFallback: j.UseFallback,
		Debug:       env.StreamConverterOutput(),
	})
	env.Rpt.StoreData("converter.log", out.Bytes())
	if err != nil {
		return err
	}

	results, err := processPhases(ctx, env, j, man, tmp)
	if err != nil {
		return err
	}

	if env.Preview {
		name, err := writePreview(j.TextbookID.String(), tmp, results)
		if err != nil {
			return err
		}
		log.Info("Preview document created", zap.String("file", name))
	}
	return nil
}

// prepareFolders resets converter working folder and checks run input and
// destinations.
func prepareFolders(j *job.Job, tmp string, create bool) error {
	if err := fsutil.ResetDir(tmp); err != nil {
		return common.WrapError(common.ErrorKindInternal, err, "unable to reset working folder")
	}
	if err := os.MkdirAll(filepath.Join(tmp, "pages"), 0755); err != nil {
		return common.WrapError(common.ErrorKindInternal, err, "unable to create working folder")
	}
	if !fsutil.FileExists(j.PDFFilePath) {
		return common.NewError(common.ErrorKindConfiguration, "pdf file %q does not exist", j.PDFFilePath)
	}
	if err := fsutil.EnsureDir(j.TextbookPagesFolderPath, create); err != nil {
		return fmt.Errorf("pages folder: %w", err)
	}
	if err := fsutil.EnsureDir(j.TextbookFontsFolderPath, create); err != nil {
		return fmt.Errorf("fonts folder: %w", err)
	}
	return nil
}
