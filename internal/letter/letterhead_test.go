package letter

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLetterhead builds an in-memory Letterhead for renderer tests.
func testLetterhead(t *testing.T, w, h int) *Letterhead {
	t.Helper()
	path := writeTestPNG(t, w, h)
	lh, err := LoadLetterhead(path)
	require.NoError(t, err)
	return lh
}

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "letterhead.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestLoadLetterhead(t *testing.T) {
	t.Parallel()

	t.Run("loads a png banner", func(t *testing.T) {
		t.Parallel()
		lh, err := LoadLetterhead(writeTestPNG(t, 800, 200))
		require.NoError(t, err)
		assert.Equal(t, 800, lh.Width)
		assert.Equal(t, 200, lh.Height)
		assert.NotEmpty(t, lh.PNG)
	})

	t.Run("downscales wide banners", func(t *testing.T) {
		t.Parallel()
		lh, err := LoadLetterhead(writeTestPNG(t, 3200, 800))
		require.NoError(t, err)
		assert.Equal(t, letterheadMaxWidth, lh.Width)
		assert.Equal(t, 400, lh.Height)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadLetterhead(filepath.Join(t.TempDir(), "missing.png"))
		assert.Error(t, err)
	})

	t.Run("non-image content", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "banner.png")
		require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o640))
		_, err := LoadLetterhead(path)
		assert.Error(t, err)
	})
}
