package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"pdfpages/misc"
	"pdfpages/utils/fsutil"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty report archive at configured destination or, when it
// is not writable, in temporary folder.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	return &Report{entries: make(map[string]entry), file: f}, nil
}

// entry is a single item of the report: either data kept in memory or file
// system path (file or folder) read when report is closed.
type entry struct {
	source string // what was requested to be stored
	path   string // what will be archived
	data   []byte
	stamp  time.Time
}

func (e entry) describe() string {
	switch {
	case len(e.path) == 0:
		return fmt.Sprintf("data, %d bytes", len(e.data))
	case e.source == e.path:
		return e.source
	default:
		return e.source + " (copy)"
	}
}

// Report accumulates everything which could help troubleshooting and puts it
// into single zip archive on Close. All methods could be called on nil report
// and from several goroutines.
type Report struct {
	mu      sync.Mutex
	entries map[string]entry
	file    *os.File
	scratch string // folder with copies made by StoreCopy
}

// Name returns name of the report archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

func (r *Report) add(name string, e entry) {
	if old, exists := r.entries[name]; exists && (len(e.path) == 0 || old.source != e.source) {
		panic(fmt.Sprintf("report entry [%s] is stored twice", name))
	}
	r.entries[name] = e
}

// Store remembers path to file or folder, its content is archived when
// report is closed.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e := entry{source: path, path: path}
	if p, err := filepath.Abs(path); err == nil {
		e.path = p
	}
	r.add(name, e)
}

// StoreData puts data into report under requested name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.add(name, entry{source: name, data: data, stamp: time.Now()})
}

// StoreCopy takes snapshot of file or folder as it is now. Storing under the
// same name again adds timestamp suffix to the name.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	src, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	now := time.Now()
	if _, exists := r.entries[name]; exists {
		name += "-" + strconv.FormatInt(now.UnixNano(), 10)
	}

	if len(r.scratch) == 0 {
		if r.scratch, err = os.MkdirTemp("", misc.GetAppName()+"-r-"); err != nil {
			return err
		}
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	dst := filepath.Join(r.scratch, strconv.Itoa(len(r.entries)))
	if err := copyTree(src, dst); err != nil {
		return err
	}
	if !info.IsDir() {
		dst = filepath.Join(dst, filepath.Base(src))
	}
	r.add(name, entry{source: path, path: dst, stamp: now})
	return nil
}

// Close writes report archive and removes all temporary copies.
func (r *Report) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.scratch) > 0 {
		defer os.RemoveAll(r.scratch)
	}
	if r.file == nil {
		return nil
	}
	defer r.file.Close()

	arc := zip.NewWriter(r.file)
	if err := r.write(arc); err != nil {
		arc.Close()
		return err
	}
	return arc.Close()
}

func (r *Report) write(arc *zip.Writer) error {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)

	now := time.Now()
	index := new(bytes.Buffer)
	for _, name := range names {
		e := r.entries[name]
		stamp := e.stamp
		if stamp.IsZero() {
			stamp = now
		}
		fmt.Fprintf(index, "%s\t%s\t%s\n", stamp.UTC().Format(time.RFC3339), name, e.describe())
	}
	if err := addFile(arc, "MANIFEST", now, index); err != nil {
		return err
	}

	for _, name := range names {
		e := r.entries[name]
		if len(e.path) == 0 {
			if err := addFile(arc, name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}
		if err := addTree(arc, name, e.path); err != nil {
			return err
		}
	}
	return nil
}

// copyTree copies file or folder preserving modification times. Only regular
// files are copied.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if rel == "." {
			target = filepath.Join(dst, filepath.Base(src))
		}
		if err := os.MkdirAll(filepath.Dir(target), 0700); err != nil {
			return err
		}
		if err := fsutil.CopyFile(path, target); err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return os.Chtimes(target, info.ModTime(), info.ModTime())
	})
}

// addTree puts file or folder content into archive under name. Absent paths
// are skipped, report is best effort.
func addTree(arc *zip.Writer, name, root string) error {
	if _, err := os.Stat(root); err != nil {
		return nil
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entryName := name
		if rel != "." {
			entryName = filepath.ToSlash(filepath.Join(name, rel))
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return addFile(arc, entryName, info.ModTime(), f)
	})
}

func addFile(arc *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := arc.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
