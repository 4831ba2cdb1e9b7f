package classifier

import "github.com/disintegration/imaging"

// Text heuristic thresholds.
const (
	minTextWidth  = 25
	minTextHeight = 20
	maxTextAspect = 5.0
	minTextAspect = 0.2
	inkThreshold  = 200
	minInkRatio   = 0.12
)

// LooksLikeText reports whether a crop is probably a text fragment or
// noise and should not be sent to the vision model. Unreadable files
// count as text.
func LooksLikeText(path string) bool {
	img, err := imaging.Open(path)
	if err != nil {
		return true
	}

	gray := imaging.Grayscale(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if w < minTextWidth || h < minTextHeight {
		return true
	}

	aspect := float64(w) / float64(h)
	if aspect > maxTextAspect || aspect < minTextAspect {
		return true
	}

	ink := 0
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := 0; x < w; x++ {
			if row[x*4] <= inkThreshold {
				ink++
			}
		}
	}
	return float64(ink)/float64(w*h) < minInkRatio
}
