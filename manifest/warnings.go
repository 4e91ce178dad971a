package manifest

import (
	"encoding/json"
	"slices"
	"sync"

	"pdfpages/common"
)

// Warning is a non fatal condition found during the run.
type Warning struct {
	Kind common.WarningKind

	// duplicate_font
	File  string
	Fonts []string

	// page_count_mismatch
	Message        string
	DeclaredPages  int
	GeneratedPages int
}

// DuplicateFont reports final font file produced from several source fonts
// or already present in destination folder.
func DuplicateFont(file string, fonts []string) Warning {
	return Warning{Kind: common.WarningKindDuplicateFont, File: file, Fonts: slices.Clone(fonts)}
}

// PageCountMismatch reports difference between declared and generated pages.
func PageCountMismatch(declared, generated int) Warning {
	w := Warning{Kind: common.WarningKindPageCountMismatch, DeclaredPages: declared, GeneratedPages: generated}
	if generated > declared {
		w.Message = "more pages are generated than declared"
	} else {
		w.Message = "more pages are declared than generated"
	}
	return w
}

func (w Warning) MarshalJSON() ([]byte, error) {
	switch w.Kind {
	case common.WarningKindDuplicateFont:
		return json.Marshal(struct {
			Kind  common.WarningKind `json:"error"`
			File  string             `json:"file"`
			Fonts []string           `json:"fonts"`
		}{w.Kind, w.File, w.Fonts})
	case common.WarningKindPageCountMismatch:
		return json.Marshal(struct {
			Kind           common.WarningKind `json:"error"`
			Message        string             `json:"msg"`
			DeclaredPages  int                `json:"nb_declared_pages"`
			GeneratedPages int                `json:"nb_generated_pages"`
		}{w.Kind, w.Message, w.DeclaredPages, w.GeneratedPages})
	default:
		return json.Marshal(struct {
			Kind    common.WarningKind `json:"error"`
			Message string             `json:"msg,omitempty"`
		}{w.Kind, w.Message})
	}
}

// WarningLog is append-only list of warnings shared by concurrently running
// stages.
type WarningLog struct {
	mu    sync.Mutex
	items []Warning
}

// Add appends warning to the log.
func (l *WarningLog) Add(w Warning) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, w)
}

// Items returns snapshot of collected warnings in order they were added.
func (l *WarningLog) Items() []Warning {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// Len returns number of collected warnings.
func (l *WarningLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}
