package attractor

import (
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestPixmapSetRGBA(t *testing.T) {
	pm := NewPixmap(10, 10)
	pm.SetRGBA(5, 5, color.RGBA{R: 128, G: 64, B: 32, A: 255})

	i := (5*10 + 5) * 4
	data := pm.Data()
	if data[i+0] != 128 || data[i+1] != 64 || data[i+2] != 32 || data[i+3] != 255 {
		t.Errorf("raw data mismatch: got (%d, %d, %d, %d), want (128, 64, 32, 255)",
			data[i+0], data[i+1], data[i+2], data[i+3])
	}

	r, g, b, a := pm.At(5, 5).RGBA()
	if r != 128*257 || g != 64*257 || b != 32*257 || a != 255*257 {
		t.Errorf("At() mismatch: got (%d, %d, %d, %d)", r, g, b, a)
	}
}

// TestPixmapSetRGBA_OutOfBounds verifies out-of-bounds coordinates are silently ignored.
func TestPixmapSetRGBA_OutOfBounds(t *testing.T) {
	pm := NewPixmap(10, 10)
	oob := []struct{ x, y int }{
		{-1, 5}, {10, 5}, {5, -1}, {5, 10},
		{-100, -100}, {100, 100},
	}
	for _, c := range oob {
		pm.SetRGBA(c.x, c.y, color.RGBA{R: 255, A: 255})
		if got := pm.RGBAAt(c.x, c.y); got != (color.RGBA{}) {
			t.Errorf("RGBAAt(%d, %d) = %v, want transparent", c.x, c.y, got)
		}
	}
	for i, v := range pm.Data() {
		if v != 0 {
			t.Fatalf("out-of-bounds write modified data at index %d", i)
		}
	}
}

func TestPixmapClear(t *testing.T) {
	pm := NewPixmap(4, 3)
	pm.SetRGBA(1, 1, color.RGBA{R: 1, G: 2, B: 3, A: 4})
	pm.Clear()
	for i, v := range pm.Data() {
		if v != 0 {
			t.Fatalf("byte %d = %d after Clear", i, v)
		}
	}
	if pm.Stride() != 16 {
		t.Errorf("Stride() = %d, want 16", pm.Stride())
	}
}

func TestPixmapCopyFrom(t *testing.T) {
	src := NewPixmap(3, 3)
	src.SetRGBA(2, 1, color.RGBA{R: 9, A: 255})
	dst := NewPixmap(3, 3)
	if err := dst.CopyFrom(src); err != nil {
		t.Fatalf("CopyFrom() error = %v", err)
	}
	if dst.RGBAAt(2, 1) != src.RGBAAt(2, 1) {
		t.Error("CopyFrom did not copy pixels")
	}
	if err := NewPixmap(2, 3).CopyFrom(src); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("CopyFrom(mismatched) error = %v, want ErrSizeMismatch", err)
	}
}

func TestPixmapSavePNG(t *testing.T) {
	pm := NewPixmap(8, 6)
	pm.SetRGBA(3, 2, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := pm.SavePNG(path); err != nil {
		t.Fatalf("SavePNG() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
		t.Errorf("decoded bounds = %v, want 8x6", b)
	}
	r, g, b, a := img.At(3, 2).RGBA()
	if r>>8 != 200 || g>>8 != 100 || b>>8 != 50 || a>>8 != 255 {
		t.Errorf("decoded pixel = (%d, %d, %d, %d)", r>>8, g>>8, b>>8, a>>8)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Errorf("background alpha = %d, want 0", a)
	}
}

func TestPixmapImageInterface(t *testing.T) {
	pm := NewPixmap(5, 7)
	if pm.Bounds().Dx() != 5 || pm.Bounds().Dy() != 7 {
		t.Errorf("Bounds() = %v", pm.Bounds())
	}
	if pm.ColorModel() != color.NRGBAModel {
		t.Error("ColorModel() should be NRGBAModel")
	}
	img := pm.ToImage()
	img.Pix[0] = 42
	if pm.Data()[0] != 0 {
		t.Error("ToImage must not share memory with the pixmap")
	}
}
