package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

// OverlayPosition anchors the caption on the sticker.
type OverlayPosition string

const (
	OverlayTop    OverlayPosition = "top"
	OverlayBottom OverlayPosition = "bottom"
)

const overlayFontSize = 48

// TextOverlay draws outlined captions onto sticker images. It is disabled
// when no font is configured; callers check Enabled before offering the
// feature.
type TextOverlay struct {
	face font.Face
}

// NewTextOverlay loads the TTF font at fontPath. An empty path yields a
// disabled overlay without error.
func NewTextOverlay(fontPath string) (*TextOverlay, error) {
	if fontPath == "" {
		return &TextOverlay{}, nil
	}

	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read overlay font: %w", err)
	}
	parsed, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse overlay font: %w", err)
	}

	face := truetype.NewFace(parsed, &truetype.Options{Size: overlayFontSize})
	return &TextOverlay{face: face}, nil
}

func (o *TextOverlay) Enabled() bool {
	return o.face != nil
}

// Apply draws text onto the image and returns new PNG bytes. The input is
// not mutated; the caller persists the result as a fresh sticker record.
func (o *TextOverlay) Apply(raw []byte, text string, pos OverlayPosition) ([]byte, error) {
	if !o.Enabled() {
		return nil, fmt.Errorf("text overlay is not configured")
	}
	if text == "" {
		return nil, fmt.Errorf("overlay text is empty")
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image for overlay: %w", err)
	}

	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())

	dc := gg.NewContext(bounds.Dx(), bounds.Dy())
	dc.DrawImage(img, 0, 0)
	dc.SetFontFace(o.face)

	x := w / 2
	y := h - overlayFontSize
	if pos == OverlayTop {
		y = overlayFontSize
	}
	maxWidth := w * 0.9

	// Dark outline first, white fill on top, so the caption reads on any
	// artwork.
	dc.SetRGB(0, 0, 0)
	for dx := -2.0; dx <= 2.0; dx += 2 {
		for dy := -2.0; dy <= 2.0; dy += 2 {
			if dx == 0 && dy == 0 {
				continue
			}
			dc.DrawStringWrapped(text, x+dx, y+dy, 0.5, 0.5, maxWidth, 1.2, gg.AlignCenter)
		}
	}
	dc.SetRGB(1, 1, 1)
	dc.DrawStringWrapped(text, x, y, 0.5, 0.5, maxWidth, 1.2, gg.AlignCenter)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode overlay result: %w", err)
	}
	return buf.Bytes(), nil
}
