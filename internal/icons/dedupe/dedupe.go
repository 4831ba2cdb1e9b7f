// Package dedupe groups visually similar icon crops by perceptual hash.
package dedupe

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Hash returns the 64-bit DCT perceptual hash of the grayscale image at path.
func Hash(path string) (*goimagehash.ImageHash, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open icon %s: %w", filepath.Base(path), err)
	}
	h, err := goimagehash.PerceptionHash(imaging.Grayscale(img))
	if err != nil {
		return nil, fmt.Errorf("hash icon %s: %w", filepath.Base(path), err)
	}
	return h, nil
}

// FormatHash renders a hash as 16 lowercase hex digits.
func FormatHash(h *goimagehash.ImageHash) string {
	return fmt.Sprintf("%016x", h.GetHash())
}

// Cluster assigns each file, in lexical order, to the first cluster whose
// representative hash is within threshold, or starts a new cluster.
// The first file of a cluster stays its representative.
func Cluster(ctx context.Context, files []string, threshold int) ([]domain.IconCluster, error) {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	hashes := make([]*goimagehash.ImageHash, 0, len(sorted))
	for _, f := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h, err := Hash(f)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}

	clusters, err := assign(sorted, hashes, threshold)
	if err != nil {
		return nil, err
	}
	logger.Debug("dedupe: %d crops -> %d clusters", len(sorted), len(clusters))
	return clusters, nil
}

// assign groups files by their precomputed hashes, first match wins.
func assign(files []string, hashes []*goimagehash.ImageHash, threshold int) ([]domain.IconCluster, error) {
	var reps []*goimagehash.ImageHash
	clusters := make([]domain.IconCluster, 0)

	for i, f := range files {
		placed := false
		for ci, rep := range reps {
			d, err := hashes[i].Distance(rep)
			if err != nil {
				return nil, fmt.Errorf("compare %s: %w", filepath.Base(f), err)
			}
			if d <= threshold {
				clusters[ci].Files = append(clusters[ci].Files, f)
				placed = true
				break
			}
		}
		if placed {
			continue
		}
		reps = append(reps, hashes[i])
		clusters = append(clusters, domain.IconCluster{Hash: FormatHash(hashes[i]), Files: []string{f}})
	}
	return clusters, nil
}
