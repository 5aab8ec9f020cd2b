package colormap

// Channel identifies the color channel a synthetic gradient ramps over.
type Channel int

const (
	ChannelRed Channel = iota
	ChannelGreen
	ChannelBlue
)

func (c Channel) String() string {
	switch c {
	case ChannelRed:
		return "RED"
	case ChannelGreen:
		return "GREEN"
	case ChannelBlue:
		return "BLUE"
	default:
		return "UNKNOWN"
	}
}

// Gradient builds a 256-entry linear ramp over one channel: entry 0 is
// black and entry 255 carries the channel at full intensity.
func Gradient(ch Channel) *Map {
	m := &Map{name: ch.String() + "_GRADIENT"}
	for i := 0; i < Entries; i++ {
		v := uint8(i)
		switch ch {
		case ChannelRed:
			m.table[i] = RGB{R: v}
		case ChannelGreen:
			m.table[i] = RGB{G: v}
		case ChannelBlue:
			m.table[i] = RGB{B: v}
		}
	}
	return m
}

// gradients returns the synthetic ramps in their fixed registry order.
func gradients() []*Map {
	return []*Map{
		Gradient(ChannelRed),
		Gradient(ChannelGreen),
		Gradient(ChannelBlue),
	}
}
