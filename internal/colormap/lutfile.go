package colormap

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LUT files are plain text holding a bracketed list of exactly 256 RGB
// triples, e.g. `[(0, 0, 0), (1, 0, 2), ...]`. A file that does not parse
// to exactly 256 well-formed triples is rejected as a whole; it must never
// produce a short table.

// ParseLUT parses LUT file contents into a colormap named after the file.
func ParseLUT(name string, data []byte) (*Map, error) {
	text := strings.TrimSpace(string(data))
	if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
		return nil, fmt.Errorf("lut %s: contents are not a bracketed list", name)
	}
	body := strings.TrimSpace(text[1 : len(text)-1])

	m := &Map{name: strings.ToUpper(name)}
	count := 0
	for body != "" {
		open := strings.IndexByte(body, '(')
		if open != 0 {
			return nil, fmt.Errorf("lut %s: unexpected text before triple %d", name, count)
		}
		closing := strings.IndexByte(body, ')')
		if closing < 0 {
			return nil, fmt.Errorf("lut %s: unterminated triple %d", name, count)
		}

		triple, err := parseTriple(body[1:closing])
		if err != nil {
			return nil, fmt.Errorf("lut %s: triple %d: %w", name, count, err)
		}
		if count >= Entries {
			return nil, fmt.Errorf("lut %s: more than %d entries", name, Entries)
		}
		m.table[count] = triple
		count++

		body = strings.TrimSpace(body[closing+1:])
		body = strings.TrimPrefix(body, ",")
		body = strings.TrimSpace(body)
	}

	if count != Entries {
		return nil, fmt.Errorf("lut %s: expected %d entries, got %d", name, Entries, count)
	}
	return m, nil
}

func parseTriple(s string) (RGB, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return RGB{}, fmt.Errorf("expected 3 channels, got %d", len(parts))
	}
	var vals [3]uint8
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return RGB{}, fmt.Errorf("channel %d: %w", i, err)
		}
		if n < 0 || n > 255 {
			return RGB{}, fmt.Errorf("channel %d out of range: %d", i, n)
		}
		vals[i] = uint8(n)
	}
	return RGB{R: vals[0], G: vals[1], B: vals[2]}, nil
}

// loadLUTFile reads and parses one .lut file, naming the map after the
// file's base name.
func loadLUTFile(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lut %s: %w", path, err)
	}
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return ParseLUT(name, data)
}
