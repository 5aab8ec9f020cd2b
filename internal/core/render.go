package core

import "image"

// scaleNearest stretches a packed RGBA plane of srcW*srcH pixels onto the
// destination image with nearest-neighbour sampling. The camera frame is
// small (160x120) next to the panel, so quality-wise there is nothing to
// gain from filtering at this scale factor.
func scaleNearest(dst *image.RGBA, src []byte, srcW, srcH int) {
	if srcW <= 0 || srcH <= 0 {
		return
	}

	b := dst.Bounds()
	dw, dh := b.Dx(), b.Dy()
	for y := 0; y < dh; y++ {
		sy := y * srcH / dh
		srcRow := sy * srcW * 4
		dstRow := dst.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < dw; x++ {
			si := srcRow + (x*srcW/dw)*4
			di := dstRow + x*4
			copy(dst.Pix[di:di+4], src[si:si+4])
		}
	}
}
