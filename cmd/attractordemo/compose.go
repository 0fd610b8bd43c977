package main

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/message"

	"github.com/gogpu/attractor"
)

// captionPadding is the space around the caption text in pixels.
const captionPadding = 6

var (
	background  = color.NRGBA{A: 255}
	captionInk  = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	captionFace = basicfont.Face7x13
)

// captionText describes a finished run with grouped digits.
func captionText(p *message.Printer, res attractor.Result) string {
	cfg := res.Config
	return p.Sprintf("%d points  fraction %.6f  %d agents  %d cycles  mean/max %.5f",
		cfg.Points, cfg.Fraction, cfg.MaxAgents, res.Cycles, res.Stats.Ratio())
}

// compose scales frame to width (frame width when width <= 0) over an
// opaque background and appends a caption strip when caption is not
// empty.
func compose(frame *attractor.Pixmap, width int, caption string) *image.NRGBA {
	if width <= 0 {
		width = frame.Width()
	}
	height := width
	if caption != "" {
		height += captionFace.Metrics().Height.Ceil() + 2*captionPadding
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	src := frame.ToImage()
	square := image.Rect(0, 0, width, width)
	if width == frame.Width() {
		draw.Draw(dst, square, src, image.Point{}, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, square, src, src.Bounds(), draw.Over, nil)
	}

	if caption != "" {
		drawCaption(dst, width, caption)
	}
	return dst
}

// drawCaption centers text in the strip below the square image, cutting it
// to fit.
func drawCaption(dst *image.NRGBA, width int, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(captionInk),
		Face: captionFace,
	}
	limit := fixed.I(width - 2*captionPadding)
	for len(text) > 0 && d.MeasureString(text) > limit {
		text = text[:len(text)-1]
	}
	adv := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: (fixed.I(width) - adv) / 2,
		Y: fixed.I(width + captionPadding + captionFace.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}
