// Package letter renders offer letter documents.
package letter

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"

	"interndesk/internal/middleware"

	xdraw "golang.org/x/image/draw"

	_ "image/jpeg"              // Register JPEG decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// letterheadMaxWidth caps the embedded banner resolution. Anything wider is
// downscaled before embedding to keep letter PDFs small.
const letterheadMaxWidth = 1600

// Letterhead is a decoded banner image normalized to PNG for embedding.
type Letterhead struct {
	PNG    []byte
	Width  int
	Height int
}

// LoadLetterhead reads, decodes, and normalizes the banner image at path.
// PNG, JPEG, and WebP sources are accepted; the result is always PNG.
func LoadLetterhead(path string) (*Letterhead, error) {
	// #nosec G304: path comes from operator configuration, not request input
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read letterhead: %w", err)
	}

	decoded, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode letterhead: %w", err)
	}

	decoded = downscaleToWidth(decoded, letterheadMaxWidth)
	b := decoded.Bounds()

	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, decoded); err != nil {
		return nil, fmt.Errorf("encode letterhead: %w", err)
	}

	middleware.Logger.Info("Letterhead loaded",
		slog.String("path", path),
		slog.String("source_format", format),
		slog.Int("width", b.Dx()),
		slog.Int("height", b.Dy()),
	)

	return &Letterhead{
		PNG:    buf.Bytes(),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

func downscaleToWidth(src image.Image, maxWidth int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= maxWidth || w <= 0 || h <= 0 {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	newW := maxWidth
	newH := int(float64(h) * scale)
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
