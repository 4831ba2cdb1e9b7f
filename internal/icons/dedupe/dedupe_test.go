package dedupe

import (
	"context"
	"image"
	"image/color"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// blocky returns a 64x64 image of random 8x8 gray blocks.
func blocky(seed uint64) *image.Gray {
	r := rand.New(rand.NewPCG(seed, seed+1))
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for by := 0; by < 8; by++ {
		for bx := 0; bx < 8; bx++ {
			v := uint8(r.IntN(256))
			for y := by * 8; y < by*8+8; y++ {
				for x := bx * 8; x < bx*8+8; x++ {
					img.SetGray(x, y, color.Gray{Y: v})
				}
			}
		}
	}
	return img
}

func save(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

// variant repaints random blocks of base until the saved crop's hash is
// exactly bits away from the hash of the crop at basePath.
func variant(t *testing.T, basePath string, base *image.Gray, bits int) *image.Gray {
	t.Helper()
	want, err := Hash(basePath)
	require.NoError(t, err)

	scratch := filepath.Join(t.TempDir(), "candidate.png")
	r := rand.New(rand.NewPCG(uint64(bits), 42))
	for i := 0; i < 5000; i++ {
		img := image.NewGray(base.Rect)
		copy(img.Pix, base.Pix)
		for n := 0; n <= i%6; n++ {
			bx, by, v := r.IntN(8), r.IntN(8), uint8(r.IntN(256))
			for y := by * 8; y < by*8+8; y++ {
				for x := bx * 8; x < bx*8+8; x++ {
					img.SetGray(x, y, color.Gray{Y: v})
				}
			}
		}
		require.NoError(t, imaging.Save(img, scratch))
		h, err := Hash(scratch)
		require.NoError(t, err)
		d, err := h.Distance(want)
		require.NoError(t, err)
		if d == bits {
			return img
		}
	}
	t.Fatalf("no variant %d bits away from %s", bits, filepath.Base(basePath))
	return nil
}

func hashOf(v uint64) *goimagehash.ImageHash {
	return goimagehash.NewImageHash(v, goimagehash.PHash)
}

func TestAssign_Threshold(t *testing.T) {
	files := []string{"a.png", "b.png", "c.png"}
	// b is 2 bits from a, c is 8 bits from a.
	hashes := []*goimagehash.ImageHash{hashOf(0x0), hashOf(0x3), hashOf(0xff)}

	clusters, err := assign(files, hashes, 5)
	require.NoError(t, err)

	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"a.png", "b.png"}, clusters[0].Files)
	assert.Equal(t, "0000000000000000", clusters[0].Hash)
	assert.Equal(t, []string{"c.png"}, clusters[1].Files)
	assert.Equal(t, "00000000000000ff", clusters[1].Hash)
}

func TestAssign_FirstMatchWinsAndRepresentativeIsFixed(t *testing.T) {
	files := []string{"a.png", "b.png", "c.png"}
	// c is within 5 of both reps; a's cluster was created first.
	hashes := []*goimagehash.ImageHash{hashOf(0x0), hashOf(0x3f), hashOf(0x7)}

	clusters, err := assign(files, hashes, 5)
	require.NoError(t, err)

	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"a.png", "c.png"}, clusters[0].Files)
	assert.Equal(t, "a.png", clusters[0].Representative())
	assert.Equal(t, []string{"b.png"}, clusters[1].Files)
}

func TestAssign_ReclusteringRepresentativesIsIdempotent(t *testing.T) {
	files := []string{"a.png", "b.png", "c.png", "d.png"}
	hashes := []*goimagehash.ImageHash{hashOf(0x0), hashOf(0xff00), hashOf(0x1), hashOf(0xff0000)}

	first, err := assign(files, hashes, 5)
	require.NoError(t, err)
	require.Len(t, first, 3)

	byFile := make(map[string]*goimagehash.ImageHash, len(files))
	for i, f := range files {
		byFile[f] = hashes[i]
	}
	var repFiles []string
	var repHashes []*goimagehash.ImageHash
	for _, c := range first {
		repFiles = append(repFiles, c.Representative())
		repHashes = append(repHashes, byFile[c.Representative()])
	}

	second, err := assign(repFiles, repHashes, 5)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i, c := range second {
		assert.Equal(t, []string{repFiles[i]}, c.Files)
	}
}

func TestFormatHash_SixteenHexDigits(t *testing.T) {
	assert.Equal(t, "000000000000abcd", FormatHash(hashOf(0xabcd)))
	assert.Equal(t, "ffffffffffffffff", FormatHash(hashOf(^uint64(0))))
}

func TestCluster_DuplicatesAndDistinctImages(t *testing.T) {
	dir := t.TempDir()
	a := blocky(1)
	files := []string{
		save(t, dir, "page_001_icon_0000.png", a),
		save(t, dir, "page_002_icon_0000.png", blocky(99)),
		save(t, dir, "page_003_icon_0001.png", a),
	}

	clusters, err := Cluster(context.Background(), files, domain.DefaultHashThreshold)
	require.NoError(t, err)

	require.Len(t, clusters, 2)
	assert.Equal(t, []string{
		filepath.Join(dir, "page_001_icon_0000.png"),
		filepath.Join(dir, "page_003_icon_0001.png"),
	}, clusters[0].Files)
	assert.Equal(t, []string{filepath.Join(dir, "page_002_icon_0000.png")}, clusters[1].Files)
	assert.Len(t, clusters[0].Hash, 16)
}

func TestCluster_HashDistanceAgainstThreshold(t *testing.T) {
	dir := t.TempDir()
	base := blocky(3)
	first := save(t, dir, "page_001_icon_0000.png", base)
	near := save(t, dir, "page_001_icon_0001.png", variant(t, first, base, 2))
	far := save(t, dir, "page_002_icon_0000.png", variant(t, first, base, 8))

	baseHash, err := Hash(first)
	require.NoError(t, err)
	for path, bits := range map[string]int{near: 2, far: 8} {
		h, err := Hash(path)
		require.NoError(t, err)
		d, err := h.Distance(baseHash)
		require.NoError(t, err)
		require.Equal(t, bits, d, filepath.Base(path))
	}

	clusters, err := Cluster(context.Background(), []string{far, near, first}, domain.DefaultHashThreshold)
	require.NoError(t, err)

	require.Len(t, clusters, 2)
	assert.Equal(t, []string{first, near}, clusters[0].Files)
	assert.Equal(t, FormatHash(baseHash), clusters[0].Hash)
	assert.Equal(t, []string{far}, clusters[1].Files)
}

func TestCluster_LexicalOrderIndependentOfInput(t *testing.T) {
	dir := t.TempDir()
	img := blocky(7)
	first := save(t, dir, "page_001_icon_0000.png", img)
	second := save(t, dir, "page_004_icon_0002.png", img)

	clusters, err := Cluster(context.Background(), []string{second, first}, 5)
	require.NoError(t, err)

	require.Len(t, clusters, 1)
	assert.Equal(t, first, clusters[0].Representative())
}

func TestCluster_NoFiles(t *testing.T) {
	clusters, err := Cluster(context.Background(), nil, 5)
	require.NoError(t, err)
	assert.Empty(t, clusters)
	assert.NotNil(t, clusters)
}

func TestCluster_UnreadableFile(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("not a png"), 0o600))

	_, err := Cluster(context.Background(), []string{broken}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open icon broken.png")
}
