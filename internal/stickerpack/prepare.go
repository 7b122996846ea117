package stickerpack

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	stddraw "image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// Binary contract of the sticker-set API: exactly square, alpha-capable,
// PNG, under the per-file ceiling.
const (
	StickerDimension = 512
	StickerMaxBytes  = 512 * 1024
)

// PrepareStickerFile normalizes arbitrary raster bytes into the shape the
// transport demands. Decode failures propagate; garbage bytes are never
// passed through.
func PrepareStickerFile(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode sticker image: %w", err)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, StickerDimension, StickerDimension))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode sticker png: %w", err)
	}
	if buf.Len() <= StickerMaxBytes {
		return buf.Bytes(), nil
	}

	// Over the ceiling: quantize to a 256-color palette with one transparent
	// entry and encode once more before giving up.
	pal := make(color.Palette, 0, 256)
	pal = append(pal, color.Transparent)
	pal = append(pal, palette.Plan9[:255]...)

	paletted := image.NewPaletted(dst.Bounds(), pal)
	stddraw.FloydSteinberg.Draw(paletted, dst.Bounds(), dst, image.Point{})

	buf.Reset()
	if err := png.Encode(&buf, paletted); err != nil {
		return nil, fmt.Errorf("failed to encode quantized sticker png: %w", err)
	}
	if buf.Len() > StickerMaxBytes {
		return nil, fmt.Errorf("sticker is %d bytes even after quantization, limit is %d", buf.Len(), StickerMaxBytes)
	}
	return buf.Bytes(), nil
}
