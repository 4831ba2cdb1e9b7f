// Package detector finds icon-shaped regions on rendered manual pages.
//
// A page is binarised, closed with a small square kernel and split into
// external connected components. Each component's bounding box must pass
// an area band, an aspect limit, a solidity floor, an edge margin and an
// ink density floor before it is cropped from the original page.
package detector

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Config holds the shape thresholds.
type Config struct {
	// MinArea and MaxArea bound the bounding box area in pixels.
	MinArea int
	MaxArea int

	// MinSolidity is the minimum filled shape area over the bounding box area.
	MinSolidity float64

	// MaxAspect is the maximum long side over short side ratio.
	MaxAspect float64

	// EdgeMargin is the minimum distance in pixels from every page border.
	EdgeMargin int

	// MinDensity is the minimum ratio of ink pixels inside the bounding box.
	MinDensity float64

	// BinaryThreshold is the highest gray level still counted as ink.
	BinaryThreshold uint8

	// CloseKernel is the side of the square closing kernel. Zero disables closing.
	CloseKernel int
}

// DefaultConfig returns the thresholds tuned for vector-drawn manual icons.
func DefaultConfig() Config {
	return Config{
		MinArea:         600,
		MaxArea:         30000,
		MinSolidity:     0.5,
		MaxAspect:       2.0,
		EdgeMargin:      20,
		MinDensity:      0.15,
		BinaryThreshold: 200,
		CloseKernel:     4,
	}
}

// Detector extracts icon crops from page images.
type Detector struct {
	cfg Config
}

// New creates a detector with the given thresholds.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Detect finds icons on one page and writes each accepted crop to outDir
// as {page_stem}_icon_{NNNN}.png. Finding nothing is not an error.
func (d *Detector) Detect(ctx context.Context, pagePath, outDir string) ([]domain.IconCrop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := imaging.Open(pagePath)
	if err != nil {
		return nil, fmt.Errorf("open page %s: %w", filepath.Base(pagePath), err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create icons directory: %w", err)
	}

	bounds := src.Bounds()
	pageW, pageH := bounds.Dx(), bounds.Dy()
	ink := binarize(src, d.cfg.BinaryThreshold)
	if d.cfg.CloseKernel > 0 {
		ink = closeMask(ink, d.cfg.CloseKernel)
	}

	pageID := strings.TrimSuffix(filepath.Base(pagePath), filepath.Ext(pagePath))
	crops := make([]domain.IconCrop, 0)

	for _, c := range externalComponents(ink) {
		box := c.box
		area := box.Area()
		if area < d.cfg.MinArea || area > d.cfg.MaxArea {
			continue
		}
		if box.AspectRatio() > d.cfg.MaxAspect {
			continue
		}
		solidity := float64(filledArea(ink, c)) / float64(area)
		if solidity < d.cfg.MinSolidity {
			continue
		}
		m := d.cfg.EdgeMargin
		if box.X < m || box.Y < m || box.X+box.W > pageW-m || box.Y+box.H > pageH-m {
			continue
		}
		density := float64(ink.count(box)) / float64(area)
		if density < d.cfg.MinDensity {
			continue
		}

		name := domain.IconFileName(pageID, len(crops))
		path := filepath.Join(outDir, name)
		rect := image.Rect(box.X, box.Y, box.X+box.W, box.Y+box.H).Add(bounds.Min)
		if err := imaging.Save(imaging.Crop(src, rect), path); err != nil {
			return nil, fmt.Errorf("save icon %s: %w", name, err)
		}

		crops = append(crops, domain.IconCrop{
			File:     path,
			Page:     pageID,
			BBox:     box,
			Area:     area,
			Solidity: solidity,
			Density:  density,
		})
	}

	logger.Debug("detector: %s -> %d icons", pageID, len(crops))
	return crops, nil
}

// DetectAll runs Detect over every page in order and concatenates the results.
func (d *Detector) DetectAll(ctx context.Context, pages []domain.PageImage, outDir string) ([]domain.IconCrop, error) {
	all := make([]domain.IconCrop, 0)
	for _, p := range pages {
		crops, err := d.Detect(ctx, p.Path, outDir)
		if err != nil {
			return nil, err
		}
		all = append(all, crops...)
	}
	return all, nil
}

// ClearCrops removes previously extracted crop files from dir.
// Other files are left alone.
func ClearCrops(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*_icon_*.png"))
	if err != nil {
		return fmt.Errorf("list icons: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove icon: %w", err)
		}
	}
	return nil
}

// component is one 8-connected group of ink pixels.
type component struct {
	box    domain.BoundingBox
	pixels []int
}

// externalComponents returns the components reachable from the outer
// background, sorted top-to-bottom then left-to-right. Components nested
// inside another component's hole are not returned.
func externalComponents(m *mask) []component {
	outer := m.outerBackground()
	labels := make([]int32, len(m.pix))
	var label int32
	var comps []component
	var stack []int

	for start := range m.pix {
		if !m.pix[start] || labels[start] != 0 {
			continue
		}
		label++
		labels[start] = label
		stack = append(stack[:0], start)

		var pixels []int
		minX, minY, maxX, maxY := m.w, m.h, -1, -1
		external := false

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			pixels = append(pixels, i)

			x, y := i%m.w, i/m.w
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
			if x == 0 || y == 0 || x == m.w-1 || y == m.h-1 {
				external = true
			}

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= m.w || ny >= m.h {
						continue
					}
					j := ny*m.w + nx
					if m.pix[j] {
						if labels[j] == 0 {
							labels[j] = label
							stack = append(stack, j)
						}
					} else if (dx == 0 || dy == 0) && outer[j] {
						external = true
					}
				}
			}
		}

		if !external {
			continue
		}
		comps = append(comps, component{
			box:    domain.BoundingBox{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1},
			pixels: pixels,
		})
	}

	sort.SliceStable(comps, func(a, b int) bool {
		if comps[a].box.Y != comps[b].box.Y {
			return comps[a].box.Y < comps[b].box.Y
		}
		return comps[a].box.X < comps[b].box.X
	})
	return comps
}

// filledArea returns the component's area with its holes filled: the box
// area minus the pixels reachable from outside the component without
// crossing it.
func filledArea(m *mask, c component) int {
	// Local grid padded by one pixel so the outside is connected around the shape.
	w, h := c.box.W+2, c.box.H+2
	wall := make([]bool, w*h)
	for _, i := range c.pixels {
		x, y := i%m.w-c.box.X+1, i/m.w-c.box.Y+1
		wall[y*w+x] = true
	}

	seen := make([]bool, w*h)
	seen[0] = true
	stack := []int{0}
	outside := 0
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		if x > 0 && x < w-1 && y > 0 && y < h-1 {
			outside++
		}
		for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
			nx, ny := n[0], n[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			j := ny*w + nx
			if seen[j] || wall[j] {
				continue
			}
			seen[j] = true
			stack = append(stack, j)
		}
	}
	return c.box.Area() - outside
}
