package attractor

import (
	"fmt"
	"image/color"
)

// RenderHistogram unfolds h into dst through pal and returns the histogram
// statistics.
//
// dst must be h.Size() x h.Size(). The seam column lands on the image
// center column half-1 with its count doubled; stored column x > 0 is
// written to both center-x and center+x. Every pixel of dst is written, so
// rendering the same histogram twice yields identical frames. An empty
// histogram renders fully transparent.
func RenderHistogram(h *Histogram, pal *Palette, dst *Pixmap) (Stats, error) {
	if dst.Width() != h.size || dst.Height() != h.size {
		return Stats{}, fmt.Errorf("%w: have %dx%d, want %dx%d",
			ErrSizeMismatch, dst.Width(), dst.Height(), h.size, h.size)
	}

	stats := h.Stats()
	if stats.Max == 0 {
		dst.Clear()
		return stats, nil
	}

	m := float64(pal.Len()-1) / float64(stats.Max)
	center := h.half - 1
	stride := dst.Stride()
	for y := 0; y < h.size; y++ {
		row := h.counts[y*h.half : (y+1)*h.half]
		line := dst.data[y*stride : (y+1)*stride]

		putPixel(line, center, pal.At(int(float64(row[0])*2*m)))
		for x := 1; x < h.half; x++ {
			c := pal.At(int(float64(row[x]) * m))
			if center+x < h.size {
				putPixel(line, center+x, c)
			}
			putPixel(line, center-x, c)
		}
	}
	return stats, nil
}

func putPixel(line []uint8, x int, c color.RGBA) {
	i := x * 4
	line[i+0] = c.R
	line[i+1] = c.G
	line[i+2] = c.B
	line[i+3] = c.A
}
