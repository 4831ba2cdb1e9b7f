package domain

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// iconFileSeparator joins the page id and the crop sequence in crop file names.
const iconFileSeparator = "_icon_"

// BoundingBox is an axis-aligned rectangle in page pixel coordinates.
type BoundingBox struct {
	X, Y, W, H int
}

// Area returns the box area in pixels.
func (b BoundingBox) Area() int {
	return b.W * b.H
}

// AspectRatio returns the long side over the short side, always >= 1.
// Degenerate boxes return 0.
func (b BoundingBox) AspectRatio() float64 {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	long, short := b.W, b.H
	if short > long {
		long, short = short, long
	}
	return float64(long) / float64(short)
}

// MarshalJSON encodes the box as [x, y, w, h].
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{b.X, b.Y, b.W, b.H})
}

// UnmarshalJSON decodes a box from [x, y, w, h].
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var v [4]int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode bbox: %w", err)
	}
	b.X, b.Y, b.W, b.H = v[0], v[1], v[2], v[3]
	return nil
}

// IconCrop is a candidate icon cut out of a page.
type IconCrop struct {
	// File is the path of the saved crop.
	File string `json:"file"`

	// Page is the page id the crop came from.
	Page string `json:"page"`

	// BBox locates the crop on the page.
	BBox BoundingBox `json:"bbox"`

	// Area is the bounding box area in pixels.
	Area int `json:"area"`

	// Solidity is the filled shape area over the bounding box area.
	Solidity float64 `json:"solidity"`

	// Density is the ink pixel ratio inside the bounding box.
	Density float64 `json:"density"`
}

// IconFileName returns the crop file name for a page and 0-based sequence index.
func IconFileName(pageID string, seq int) string {
	return fmt.Sprintf("%s%s%04d.png", pageID, iconFileSeparator, seq)
}

// PageIDFromIconFile returns the page id encoded in a crop file name,
// e.g. "page_003" for ".../page_003_icon_0004.png", or "" when path is
// not a crop file name.
func PageIDFromIconFile(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	before, _, found := strings.Cut(stem, iconFileSeparator)
	if !found {
		return ""
	}
	return before
}

// IconCluster groups near-duplicate crops.
// Files[0] is the representative and Hash is its perceptual hash.
type IconCluster struct {
	Hash  string   `json:"hash"`
	Files []string `json:"files"`
}

// Representative returns the first-seen member of the cluster.
func (c IconCluster) Representative() string {
	if len(c.Files) == 0 {
		return ""
	}
	return c.Files[0]
}

// IconKind is the vision model's verdict on a crop.
type IconKind string

// Vision verdicts.
const (
	IconKindIcon  IconKind = "ICON"
	IconKindText  IconKind = "TEXT"
	IconKindNoise IconKind = "NOISE"
)

// ParseIconKind interprets a raw model reply. Anything unrecognised is noise.
func ParseIconKind(reply string) IconKind {
	switch IconKind(strings.ToUpper(strings.TrimSpace(reply))) {
	case IconKindIcon:
		return IconKindIcon
	case IconKindText:
		return IconKindText
	default:
		return IconKindNoise
	}
}

// IconClassification is the semantic description of one icon cluster.
type IconClassification struct {
	ClusterID   int     `json:"cluster_id"`
	Path        string  `json:"path"`
	Label       string  `json:"label"`
	Meaning     string  `json:"meaning"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Placeholder values used when a classification reply cannot be parsed.
const (
	UnknownLabel             = "unknown"
	FailedClassificationNote = "Failed to classify"
)

// PlaceholderClassification returns the record substituted for a failed classification.
func PlaceholderClassification(clusterID int, path string) IconClassification {
	return IconClassification{
		ClusterID:   clusterID,
		Path:        path,
		Label:       UnknownLabel,
		Meaning:     UnknownLabel,
		Description: FailedClassificationNote,
		Confidence:  0,
	}
}
