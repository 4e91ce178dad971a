package convert

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"pdfpages/fonts"
	"pdfpages/job"
	"pdfpages/manifest"
	"pdfpages/pages"
	"pdfpages/state"
)

// processPhases runs fonts and pages processing at the same time. Pages
// wait only for font mapping, not for font files to be copied.
func processPhases(ctx context.Context, env *state.LocalEnv, j *job.Job, man *manifest.Manifest, tmp string) ([]*pages.Result, error) {
	cfg := &env.Cfg.Converter

	store := fonts.NewStore(fonts.Options{
		Extension:     cfg.FontExtension,
		Destination:   j.TextbookFontsFolderPath,
		StoragePrefix: j.StoragePrefix,
		DeploymentID:  j.TextbookID.String(),
		Workers:       cfg.Workers,
	}, man.Log(), env.Log)

	pipeline := pages.NewPipeline(j, pages.Options{
		SourceFolder:   tmp,
		PagesFolder:    filepath.Join(tmp, "pages"),
		StylesheetPath: filepath.Join(tmp, cfg.CSSFileName),
		StoragePrefix:  j.StoragePrefix,
		ImageFormat:    cfg.ImageFormat,
		Workers:        cfg.Workers,
	}, pages.NewLocator(j, env.CreateFolders, env.Log.Named("locator")), man.Log(), env.Rpt, env.Log)

	var (
		results  []*pages.Result
		mappings = make(chan fonts.Mapping, 1)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := store.Scan(ctx, tmp)
		if err != nil {
			return err
		}
		mappings <- m
		man.FontFilePaths = m.Files()
		return store.Copy(ctx, m)
	})
	g.Go(func() error {
		if err := pipeline.Prepare(); err != nil {
			return err
		}
		var m fonts.Mapping
		select {
		case m = <-mappings:
		case <-ctx.Done():
			return ctx.Err()
		}
		var err error
		results, err = pipeline.Run(ctx, m)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
