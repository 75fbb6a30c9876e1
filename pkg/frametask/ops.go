package frametask

import (
	"image"

	"github.com/fogleman/gg"
)

// boxBlur applies a uniform box blur of kernel side 2r+1, one axis at a
// time, sampling clamped to the frame edges. r == 0 is a no-op.
func boxBlur(img *image.RGBA, radius int) {
	if radius <= 0 {
		return
	}
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	side := 2*radius + 1

	src := img.Pix
	tmp := make([]byte, len(src))

	// Horizontal pass.
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			var r, g, b, a int
			for k := -radius; k <= radius; k++ {
				sx := clamp(x+k, 0, w-1)
				o := row + sx*4
				r += int(src[o])
				g += int(src[o+1])
				b += int(src[o+2])
				a += int(src[o+3])
			}
			o := row + x*4
			tmp[o] = byte(r / side)
			tmp[o+1] = byte(g / side)
			tmp[o+2] = byte(b / side)
			tmp[o+3] = byte(a / side)
		}
	}

	// Vertical pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b, a int
			for k := -radius; k <= radius; k++ {
				sy := clamp(y+k, 0, h-1)
				o := sy*img.Stride + x*4
				r += int(tmp[o])
				g += int(tmp[o+1])
				b += int(tmp[o+2])
				a += int(tmp[o+3])
			}
			o := y*img.Stride + x*4
			src[o] = byte(r / side)
			src[o+1] = byte(g / side)
			src[o+2] = byte(b / side)
			src[o+3] = byte(a / side)
		}
	}
}

// saturate scales chroma around the BT.601 luma of each pixel.
func saturate(img *image.RGBA, factor float64) {
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		r := float64(pix[i])
		g := float64(pix[i+1])
		b := float64(pix[i+2])
		luma := 0.2989*r + 0.587*g + 0.114*b
		pix[i] = clampByte(luma + (r-luma)*factor)
		pix[i+1] = clampByte(luma + (g-luma)*factor)
		pix[i+2] = clampByte(luma + (b-luma)*factor)
	}
}

// overlay composites a solid color over the whole frame, source-over.
func overlay(img *image.RGBA, color [4]uint8) {
	dc := gg.NewContextForRGBA(img)
	dc.SetRGBA255(int(color[0]), int(color[1]), int(color[2]), int(color[3]))
	dc.DrawRectangle(0, 0, float64(img.Rect.Dx()), float64(img.Rect.Dy()))
	dc.Fill()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}
