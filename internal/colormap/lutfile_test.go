package colormap

import (
	"fmt"
	"strings"
	"testing"
)

func lutBody(n int) string {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "(%d, 0, %d)", i%256, 255-i%256)
	}
	b.WriteString("]")
	return b.String()
}

func TestParseLUTValid(t *testing.T) {
	m, err := ParseLUT("ironbow", []byte(lutBody(256)))
	if err != nil {
		t.Fatalf("ParseLUT failed: %v", err)
	}
	if m.Name() != "IRONBOW" {
		t.Errorf("name = %s, want IRONBOW", m.Name())
	}
	if c := m.Lookup(10); c != (RGB{R: 10, G: 0, B: 245}) {
		t.Errorf("lookup(10) = %+v", c)
	}
}

func TestParseLUTRejectsWrongCounts(t *testing.T) {
	for _, n := range []int{0, 1, 255, 257} {
		if _, err := ParseLUT("bad", []byte(lutBody(n))); err == nil {
			t.Errorf("ParseLUT accepted %d entries", n)
		}
	}
}

func TestParseLUTRejectsMalformedInput(t *testing.T) {
	cases := []string{
		"",
		"not a list",
		"[(1, 2)]",
		"[(1, 2, 3, 4)]",
		"[(256, 0, 0)]",
		"[(-1, 0, 0)]",
		"[(a, b, c)]",
		strings.TrimSuffix(lutBody(256), "]"),
	}
	for _, in := range cases {
		if _, err := ParseLUT("bad", []byte(in)); err == nil {
			t.Errorf("ParseLUT accepted %q", in)
		}
	}
}
