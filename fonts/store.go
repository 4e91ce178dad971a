// Package fonts content-addresses font files produced by the converter and
// publishes them into textbook fonts folder.
package fonts

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pdfpages/common"
	"pdfpages/manifest"
	"pdfpages/utils/fsutil"
)

// Asset is a single font produced by the converter.
type Asset struct {
	SourceName string // name in converter output folder, e.g. "f1.woff"
	SourcePath string
	Hash       string // hex MD5 of the content
	FileName   string // "{hash}.{ext}"
	Path       string // final location
	URL        string // public location
	Family     string // page-scoped font family name
}

// Options define where fonts are published and how they are named.
type Options struct {
	Extension     string // without dot
	Destination   string // textbook fonts folder
	StoragePrefix string
	DeploymentID  string // used to namespace font family names
	Workers       int
}

// Store handles font assets of a single run.
type Store struct {
	opts     Options
	warnings *manifest.WarningLog
	log      *zap.Logger
}

// NewStore creates font store, duplicates are reported to warnings log.
func NewStore(opts Options, warnings *manifest.WarningLog, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	opts.Extension = strings.TrimPrefix(opts.Extension, ".")
	return &Store{opts: opts, warnings: warnings, log: log.Named("fonts")}
}

// FamilyName returns page-scoped font family for the font content hash.
func FamilyName(deploymentID, hash string) string {
	return fmt.Sprintf("ff_%s_%s", slug.Make(deploymentID), hash)
}

// Scan finds and hashes every font file in dir.
func (s *Store) Scan(ctx context.Context, dir string) (Mapping, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Mapping{}, common.WrapError(common.ErrorKindInternal, err, "unable to read converter output folder")
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), "."+s.opts.Extension) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(natural.StringSlice(names))

	assets := make([]Asset, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := s.makeAsset(filepath.Join(dir, name))
			if err != nil {
				return err
			}
			assets[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Mapping{}, err
	}

	m := newMapping(s.opts.Extension, assets)
	s.log.Debug("Fonts scanned", zap.String("folder", dir), zap.Int("fonts", len(assets)), zap.Int("files", len(m.Files())))
	return m, nil
}

func (s *Store) makeAsset(path string) (Asset, error) {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return Asset{}, common.WrapError(common.ErrorKindInternal, err, "unable to read font %q", name)
	}
	if !filetype.Is(data, s.opts.Extension) {
		s.log.Warn("Font content does not match its extension", zap.String("font", name), zap.String("ext", s.opts.Extension))
	}

	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])
	fileName := hash + "." + s.opts.Extension

	return Asset{
		SourceName: name,
		SourcePath: path,
		Hash:       hash,
		FileName:   fileName,
		Path:       filepath.Join(s.opts.Destination, fileName),
		URL:        common.JoinURL(s.opts.StoragePrefix, "fonts", fileName),
		Family:     FamilyName(s.opts.DeploymentID, hash),
	}, nil
}

// Copy publishes fonts to their final location. Every final file is written
// once. Final files produced by several source fonts or present before the
// copy are reported as duplicates.
func (s *Store) Copy(ctx context.Context, m Mapping) error {
	groups := m.groups()

	files := make([]string, 0, len(groups))
	for f := range groups {
		files = append(files, f)
	}
	sort.Sort(natural.StringSlice(files))

	// all existence checks have to be done before anything is copied
	for _, f := range files {
		group := groups[f]
		_, err := os.Stat(group[0].Path)
		existed := err == nil
		if len(group) > 1 || existed {
			contributors := make([]string, 0, len(group))
			for _, a := range group {
				contributors = append(contributors, a.SourceName)
			}
			s.warnings.Add(manifest.DuplicateFont(f, contributors))
			s.log.Warn("Duplicate font", zap.String("file", f), zap.Strings("fonts", contributors), zap.Bool("existed", existed))
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, f := range files {
		a := groups[f][0]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fsutil.CopyFile(a.SourcePath, a.Path); err != nil {
				return common.WrapError(common.ErrorKindInternal, err, "unable to copy font %q", a.SourceName)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Debug("Fonts copied", zap.String("folder", s.opts.Destination), zap.Int("files", len(files)))
	return nil
}
