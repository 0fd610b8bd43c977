package attractor

import (
	"image/color"
	"math"
)

// Palette maps a normalized density index to a color.
//
// Index 0 is fully transparent and marks untouched cells. Every other index
// i of an N-entry palette maps each channel through a power curve,
// (1 - (i/(N-1))^exp) * 255, fading from white towards black with full
// opacity. Lower exponents darken a channel sooner, so the default
// exponents (0.2, 0.5, 0.8) produce a warm-to-dark gradient.
type Palette struct {
	colors           []color.RGBA
	expR, expG, expB float64
}

// NewPalette builds a palette with n samples (at least 2) and the given
// per-channel exponents.
func NewPalette(n int, expR, expG, expB float64) *Palette {
	if n < 2 {
		n = 2
	}
	p := &Palette{
		colors: make([]color.RGBA, n),
		expR:   expR,
		expG:   expG,
		expB:   expB,
	}
	last := float64(n - 1)
	for i := 1; i < n; i++ {
		v := float64(i) / last
		p.colors[i] = color.RGBA{
			R: channel(v, expR),
			G: channel(v, expG),
			B: channel(v, expB),
			A: 255,
		}
	}
	return p
}

// DefaultPalette returns a palette with DefaultPaletteSize samples and the
// default exponents.
func DefaultPalette() *Palette {
	return NewPalette(DefaultPaletteSize, DefaultPaletteExpR, DefaultPaletteExpG, DefaultPaletteExpB)
}

func channel(v, exp float64) uint8 {
	c := (1 - math.Pow(v, exp)) * 255
	if c <= 0 {
		return 0
	}
	if c >= 255 {
		return 255
	}
	//nolint:gosec // G115: c is clamped to [0,255] range
	return uint8(c)
}

// Len returns the number of samples.
func (p *Palette) Len() int {
	return len(p.colors)
}

// At returns the color for index i, clamped to [0, Len()-1].
func (p *Palette) At(i int) color.RGBA {
	if i <= 0 {
		return p.colors[0]
	}
	if i >= len(p.colors) {
		return p.colors[len(p.colors)-1]
	}
	return p.colors[i]
}

// Exponents returns the per-channel exponents.
func (p *Palette) Exponents() (r, g, b float64) {
	return p.expR, p.expG, p.expB
}

// Resized returns a palette with the same exponents and n samples, or p
// itself when it already has n samples.
func (p *Palette) Resized(n int) *Palette {
	if n == len(p.colors) {
		return p
	}
	return NewPalette(n, p.expR, p.expG, p.expB)
}
