package attractor

// Histogram is the symmetry-folded visit counter grid.
//
// Only the right half of the canvas is stored: Half() = Size()/2+1 columns
// by Size() rows, row-major. Column 0 is the mirror seam shared by both
// halves of the image; column x > 0 stands for the two image columns at
// distance x from the center. Counters only ever increase.
type Histogram struct {
	half   int
	size   int
	counts []uint32
}

// NewHistogram returns a zeroed histogram for a size x size canvas.
func NewHistogram(size int) *Histogram {
	half := size/2 + 1
	return &Histogram{
		half:   half,
		size:   size,
		counts: make([]uint32, half*size),
	}
}

// Half returns the number of stored columns.
func (h *Histogram) Half() int { return h.half }

// Size returns the canvas edge length (and number of rows).
func (h *Histogram) Size() int { return h.size }

// Counts returns the raw row-major counters. The slice is owned by the
// histogram; callers must not retain it across steps.
func (h *Histogram) Counts() []uint32 { return h.counts }

// At returns the counter of stored column x in row y, or 0 out of range.
func (h *Histogram) At(x, y int) uint32 {
	if x < 0 || x >= h.half || y < 0 || y >= h.size {
		return 0
	}
	return h.counts[y*h.half+x]
}

// add increments the cell under the folded pixel-space position (px, py).
// It reports false, leaving the grid untouched, when the position falls
// outside the grid.
func (h *Histogram) add(px, py float64) bool {
	if !(px >= 0 && py >= 0 && px < float64(h.half) && py < float64(h.size)) {
		return false
	}
	h.counts[int(py)*h.half+int(px)]++
	return true
}

// Sum returns the total of all stored counters, i.e. the number of
// accumulated samples.
func (h *Histogram) Sum() uint64 {
	var sum uint64
	for _, c := range h.counts {
		sum += uint64(c)
	}
	return sum
}

// Stats returns the density statistics of the unfolded image. The seam
// column appears in both halves, so its counters are doubled when looking
// for the maximum and counted twice in the sum. The mean divides by
// Half()*Size()+Size().
func (h *Histogram) Stats() Stats {
	var maxCount, sum uint64
	for y := 0; y < h.size; y++ {
		row := h.counts[y*h.half : (y+1)*h.half]
		seam := uint64(row[0])
		sum += 2 * seam
		maxCount = max(maxCount, 2*seam)
		for _, c := range row[1:] {
			sum += uint64(c)
			maxCount = max(maxCount, uint64(c))
		}
	}
	return Stats{
		Max:  maxCount,
		Mean: float64(sum) / float64(h.half*h.size+h.size),
	}
}

// Stats are the histogram statistics used for convergence detection.
type Stats struct {
	Max  uint64
	Mean float64
}

// Ratio returns Mean/Max, or 0 for an empty histogram.
func (s Stats) Ratio() float64 {
	if s.Max == 0 {
		return 0
	}
	return s.Mean / float64(s.Max)
}
