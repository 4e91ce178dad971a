package fonts

import (
	"sort"

	"github.com/maruel/natural"
)

// Mapping is immutable lookup of font assets by source font name.
type Mapping struct {
	ext    string
	assets map[string]Asset
}

func newMapping(ext string, assets []Asset) Mapping {
	m := Mapping{ext: ext, assets: make(map[string]Asset, len(assets))}
	for _, a := range assets {
		m.assets[a.SourceName] = a
	}
	return m
}

// NewMapping builds mapping out of prepared assets, ext is font files
// extension without dot.
func NewMapping(ext string, assets ...Asset) Mapping {
	return newMapping(ext, assets)
}

// Lookup returns asset by source font name.
func (m Mapping) Lookup(name string) (Asset, bool) {
	a, ok := m.assets[name]
	return a, ok
}

// ForFamily returns asset converter font family refers to. Converter names
// families after font files dropping first letter: family "ff1" is "f1.woff".
func (m Mapping) ForFamily(family string) (Asset, bool) {
	if len(family) < 2 {
		return Asset{}, false
	}
	return m.Lookup(family[1:] + "." + m.ext)
}

// Files returns distinct final font paths in natural order.
func (m Mapping) Files() []string {
	seen := make(map[string]struct{}, len(m.assets))
	files := make([]string, 0, len(m.assets))
	for _, a := range m.assets {
		if _, ok := seen[a.Path]; ok {
			continue
		}
		seen[a.Path] = struct{}{}
		files = append(files, a.Path)
	}
	sort.Sort(natural.StringSlice(files))
	return files
}

// sourceNames returns source font names in natural order.
func (m Mapping) sourceNames() []string {
	names := make([]string, 0, len(m.assets))
	for n := range m.assets {
		names = append(names, n)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

// groups returns assets grouped by final file name, every group is in
// natural order of source names.
func (m Mapping) groups() map[string][]Asset {
	groups := make(map[string][]Asset)
	for _, n := range m.sourceNames() {
		a := m.assets[n]
		groups[a.FileName] = append(groups[a.FileName], a)
	}
	return groups
}
