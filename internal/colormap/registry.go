package colormap

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Registry is the ordered, read-only collection of available colormaps.
// Order is fixed at build time: built-ins, then synthetic gradients, then
// file LUTs sorted by filename. Only the caller's selection index moves.
type Registry struct {
	maps []*Map
}

// NewRegistry assembles a registry from explicit maps, in the given order.
func NewRegistry(maps ...*Map) *Registry {
	return &Registry{maps: maps}
}

// Build assembles the full registry. Built-ins and gradients are
// unconditional, so the registry is never empty. Each *.lut file in lutDir
// is loaded independently; a malformed file is skipped with a warning and
// never aborts the build.
func Build(lutDir string) *Registry {
	maps := builtins()
	maps = append(maps, gradients()...)

	for _, path := range lutPaths(lutDir) {
		m, err := loadLUTFile(path)
		if err != nil {
			slog.Warn("skipping malformed lut file", "path", path, "error", err)
			continue
		}
		maps = append(maps, m)
		slog.Info("loaded custom lut", "name", m.Name(), "path", path)
	}

	slog.Info("colormap registry built", "count", len(maps))
	return &Registry{maps: maps}
}

// lutPaths lists *.lut files under dir, sorted by filename for a
// deterministic registry order. A missing or unreadable directory just
// yields no custom LUTs.
func lutPaths(dir string) []string {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("lut directory not readable", "dir", dir, "error", err)
		return nil
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".lut") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of registered colormaps.
func (r *Registry) Len() int { return len(r.maps) }

// At returns the colormap at index i.
func (r *Registry) At(i int) *Map { return r.maps[i] }

// Advance returns the index following current, wrapping at the end.
// Advancing Len() times from any index returns to that index, visiting
// every entry exactly once.
func (r *Registry) Advance(current int) int {
	return (current + 1) % len(r.maps)
}
