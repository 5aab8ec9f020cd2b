package colormap

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/dannen/lepton-viewer-rpi/internal/types"
)

// writeLUT writes a LUT file with n sequential triples.
func writeLUT(t *testing.T, dir, name string, n int) {
	t.Helper()
	body := "["
	for i := 0; i < n; i++ {
		if i > 0 {
			body += ", "
		}
		v := i % 256
		body += fmt.Sprintf("(%d, %d, %d)", v, v, v)
	}
	body += "]"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildOrder(t *testing.T) {
	dir := t.TempDir()
	writeLUT(t, dir, "ironbow.lut", 256)
	writeLUT(t, dir, "arctic.lut", 256)

	r := Build(dir)

	want := []string{
		"HOT", "BONE", "COOL", "OCEAN", "VIRIDIS",
		"RED_GRADIENT", "GREEN_GRADIENT", "BLUE_GRADIENT",
		"ARCTIC", "IRONBOW", // file LUTs sorted by filename
	}
	if r.Len() != len(want) {
		t.Fatalf("registry length = %d, want %d", r.Len(), len(want))
	}
	for i, name := range want {
		if got := r.At(i).Name(); got != name {
			t.Errorf("registry[%d] = %s, want %s", i, got, name)
		}
	}
}

func TestAdvanceWrapsVisitingEveryIndex(t *testing.T) {
	r := Build(t.TempDir())

	for start := 0; start < r.Len(); start++ {
		seen := make(map[int]bool, r.Len())
		idx := start
		for i := 0; i < r.Len(); i++ {
			idx = r.Advance(idx)
			if seen[idx] {
				t.Fatalf("index %d visited twice starting from %d", idx, start)
			}
			seen[idx] = true
		}
		if idx != start {
			t.Fatalf("advance x%d from %d ended at %d", r.Len(), start, idx)
		}
	}
}

func TestMalformedLUTFilesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	writeLUT(t, dir, "short.lut", 255)
	writeLUT(t, dir, "long.lut", 257)
	if err := os.WriteFile(filepath.Join(dir, "garbage.lut"), []byte("not a lut"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeLUT(t, dir, "good.lut", 256)

	base := Build(t.TempDir()).Len()
	r := Build(dir)

	if r.Len() != base+1 {
		t.Fatalf("registry length = %d, want %d (only the valid file added)", r.Len(), base+1)
	}
	if got := r.At(r.Len() - 1).Name(); got != "GOOD" {
		t.Errorf("last entry = %s, want GOOD", got)
	}
}

func TestGradientEndpointsAndMonotonicity(t *testing.T) {
	cases := []struct {
		ch      Channel
		extract func(RGB) uint8
	}{
		{ChannelRed, func(c RGB) uint8 { return c.R }},
		{ChannelGreen, func(c RGB) uint8 { return c.G }},
		{ChannelBlue, func(c RGB) uint8 { return c.B }},
	}

	for _, tc := range cases {
		g := Gradient(tc.ch)

		if c := g.Lookup(0); c != (RGB{}) {
			t.Errorf("%s: lookup(0) = %+v, want black", g.Name(), c)
		}
		if v := tc.extract(g.Lookup(255)); v != 255 {
			t.Errorf("%s: lookup(255) channel = %d, want 255", g.Name(), v)
		}

		prev := tc.extract(g.Lookup(0))
		for i := 1; i < Entries; i++ {
			cur := tc.extract(g.Lookup(uint8(i)))
			if cur < prev {
				t.Fatalf("%s: channel decreases at %d (%d -> %d)", g.Name(), i, prev, cur)
			}
			prev = cur
		}
	}
}

func TestNormalizeStretchesRange(t *testing.T) {
	frame := types.Frame{Width: 4, Height: 1, Data: []byte{100, 110, 120, 130}}

	out := Normalize(frame)

	if out[0] != 0 || out[3] != 255 {
		t.Errorf("normalize endpoints = %d..%d, want 0..255", out[0], out[3])
	}
	if frame.Data[0] != 100 {
		t.Error("normalize must not modify the input frame")
	}
}

func TestNormalizeFlatFramePassesThrough(t *testing.T) {
	frame := types.Frame{Width: 3, Height: 1, Data: []byte{42, 42, 42}}

	out := Normalize(frame)

	for i, v := range out {
		if v != 42 {
			t.Fatalf("flat frame changed at %d: %d", i, v)
		}
	}
}

func TestApplyPacksRGBA(t *testing.T) {
	g := Gradient(ChannelRed)

	out := Apply(g, []byte{0, 255})

	if len(out) != 8 {
		t.Fatalf("output length = %d, want 8", len(out))
	}
	if out[0] != 0 || out[3] != 0xff {
		t.Errorf("pixel 0 = %v, want black opaque", out[:4])
	}
	if out[4] != 255 || out[7] != 0xff {
		t.Errorf("pixel 1 = %v, want full red opaque", out[4:])
	}
}
