package detector

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// mask is a binary image; true marks ink.
type mask struct {
	w, h int
	pix  []bool
}

func newMask(w, h int) *mask {
	return &mask{w: w, h: h, pix: make([]bool, w*h)}
}

func (m *mask) at(x, y int) bool {
	return m.pix[y*m.w+x]
}

// count returns the number of ink pixels inside box.
func (m *mask) count(box domain.BoundingBox) int {
	n := 0
	for y := box.Y; y < box.Y+box.H; y++ {
		row := m.pix[y*m.w : (y+1)*m.w]
		for x := box.X; x < box.X+box.W; x++ {
			if row[x] {
				n++
			}
		}
	}
	return n
}

// outerBackground marks the non-ink pixels 4-connected to the image border.
func (m *mask) outerBackground() []bool {
	outer := make([]bool, len(m.pix))
	var stack []int
	push := func(i int) {
		if !m.pix[i] && !outer[i] {
			outer[i] = true
			stack = append(stack, i)
		}
	}
	for x := 0; x < m.w; x++ {
		push(x)
		push((m.h-1)*m.w + x)
	}
	for y := 0; y < m.h; y++ {
		push(y * m.w)
		push(y*m.w + m.w - 1)
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%m.w, i/m.w
		if x > 0 {
			push(i - 1)
		}
		if x < m.w-1 {
			push(i + 1)
		}
		if y > 0 {
			push(i - m.w)
		}
		if y < m.h-1 {
			push(i + m.w)
		}
	}
	return outer
}

// binarize converts img to grayscale and marks pixels at or below
// threshold as ink.
func binarize(img image.Image, threshold uint8) *mask {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	m := newMask(b.Dx(), b.Dy())
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			// Grayscale leaves R, G and B equal.
			if gray.Pix[y*gray.Stride+x*4] <= threshold {
				m.pix[y*m.w+x] = true
			}
		}
	}
	return m
}

// closeMask applies a morphological close with a k-by-k square kernel
// anchored at k/2: dilation by the reflected kernel, then erosion. Pixels
// outside the image do not take part in either step.
func closeMask(m *mask, k int) *mask {
	lo, hi := -(k / 2), k-k/2-1
	return morph(morph(m, -hi, -lo, true), lo, hi, false)
}

// morph dilates (grow=true) or erodes the mask. The square kernel is
// separable so rows and columns are processed in two passes.
func morph(m *mask, lo, hi int, grow bool) *mask {
	rows := newMask(m.w, m.h)
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			rows.pix[y*m.w+x] = window(lo, hi, x, m.w, grow, func(i int) bool { return m.at(i, y) })
		}
	}
	out := newMask(m.w, m.h)
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			out.pix[y*m.w+x] = window(lo, hi, y, m.h, grow, func(i int) bool { return rows.at(x, i) })
		}
	}
	return out
}

// window reduces the in-bounds samples at pos+lo..pos+hi with any (grow)
// or all (shrink).
func window(lo, hi, pos, n int, grow bool, sample func(int) bool) bool {
	for d := lo; d <= hi; d++ {
		i := pos + d
		if i < 0 || i >= n {
			continue
		}
		if sample(i) == grow {
			return grow
		}
	}
	return !grow
}
