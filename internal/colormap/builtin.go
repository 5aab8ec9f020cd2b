package colormap

// Built-in palettes matching the OpenCV colormaps the original viewer
// shipped with. Each is computed once at registry build time.

// builtins returns the unconditional palettes in their fixed registry order.
func builtins() []*Map {
	return []*Map{
		buildHot(),
		buildBone(),
		buildCool(),
		buildOcean(),
		buildViridis(),
	}
}

// ramp maps x in [0,1] linearly onto [0,1] over the segment
// [start, start+width], clamping outside it.
func ramp(x, start, width float64) float64 {
	v := (x - start) / width
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func to8(v float64) uint8 {
	n := int(v*255 + 0.5)
	if n < 0 {
		n = 0
	}
	if n > 255 {
		n = 255
	}
	return uint8(n)
}

func buildHot() *Map {
	m := &Map{name: "HOT"}
	for i := 0; i < Entries; i++ {
		x := float64(i) / (Entries - 1)
		m.table[i] = RGB{
			R: to8(ramp(x, 0, 0.375)),
			G: to8(ramp(x, 0.375, 0.375)),
			B: to8(ramp(x, 0.75, 0.25)),
		}
	}
	return m
}

func buildBone() *Map {
	// bone = (7*gray + hot with channels reversed) / 8
	m := &Map{name: "BONE"}
	for i := 0; i < Entries; i++ {
		x := float64(i) / (Entries - 1)
		m.table[i] = RGB{
			R: to8((7*x + ramp(x, 0.75, 0.25)) / 8),
			G: to8((7*x + ramp(x, 0.375, 0.375)) / 8),
			B: to8((7*x + ramp(x, 0, 0.375)) / 8),
		}
	}
	return m
}

func buildCool() *Map {
	m := &Map{name: "COOL"}
	for i := 0; i < Entries; i++ {
		x := float64(i) / (Entries - 1)
		m.table[i] = RGB{R: to8(x), G: to8(1 - x), B: 255}
	}
	return m
}

func buildOcean() *Map {
	m := &Map{name: "OCEAN"}
	for i := 0; i < Entries; i++ {
		x := float64(i) / (Entries - 1)
		m.table[i] = RGB{
			R: to8(ramp(x, 2.0/3.0, 1.0/3.0)),
			G: to8(ramp(x, 1.0/3.0, 2.0/3.0)),
			B: to8(x),
		}
	}
	return m
}

// viridisAnchors samples the matplotlib viridis palette at nine evenly
// spaced points; intermediate entries are linearly interpolated.
var viridisAnchors = [9]RGB{
	{68, 1, 84},
	{72, 40, 120},
	{62, 74, 137},
	{49, 104, 142},
	{38, 130, 142},
	{31, 158, 137},
	{53, 183, 121},
	{109, 205, 89},
	{253, 231, 37},
}

func buildViridis() *Map {
	m := &Map{name: "VIRIDIS"}
	segments := len(viridisAnchors) - 1
	for i := 0; i < Entries; i++ {
		pos := float64(i) / (Entries - 1) * float64(segments)
		seg := int(pos)
		if seg >= segments {
			seg = segments - 1
		}
		t := pos - float64(seg)
		a, b := viridisAnchors[seg], viridisAnchors[seg+1]
		m.table[i] = RGB{
			R: to8((float64(a.R)*(1-t) + float64(b.R)*t) / 255),
			G: to8((float64(a.G)*(1-t) + float64(b.G)*t) / 255),
			B: to8((float64(a.B)*(1-t) + float64(b.B)*t) / 255),
		}
	}
	return m
}
