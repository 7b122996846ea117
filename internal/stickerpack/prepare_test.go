package stickerpack

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareStickerFileResizesToSquare(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 800, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 800; x++ {
			src.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 40, A: 255})
		}
	}

	out, err := PrepareStickerFile(encodePNG(t, src))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), StickerMaxBytes)

	decoded, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, StickerDimension, decoded.Bounds().Dx())
	assert.Equal(t, StickerDimension, decoded.Bounds().Dy())
}

func TestPrepareStickerFileAcceptsJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 640, 640))
	for y := 0; y < 640; y++ {
		for x := 0; x < 640; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: uint8((x + y) % 256), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	out, err := PrepareStickerFile(buf.Bytes())
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, StickerDimension, decoded.Bounds().Dx())
	assert.Equal(t, StickerDimension, decoded.Bounds().Dy())
}

func TestPrepareStickerFilePreservesTransparency(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 512, 512))
	// opaque center square, transparent elsewhere
	for y := 200; y < 300; y++ {
		for x := 200; x < 300; x++ {
			src.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}

	out, err := PrepareStickerFile(encodePNG(t, src))
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	_, _, _, a := decoded.At(10, 10).RGBA()
	assert.Equal(t, uint32(0), a)
	_, _, _, a = decoded.At(250, 250).RGBA()
	assert.NotEqual(t, uint32(0), a)
}

func TestPrepareStickerFileRejectsGarbage(t *testing.T) {
	_, err := PrepareStickerFile([]byte("definitely not an image"))
	assert.Error(t, err)

	_, err = PrepareStickerFile(nil)
	assert.Error(t, err)
}

func TestPrepareStickerFileIdempotentSize(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	out, err := PrepareStickerFile(encodePNG(t, src))
	require.NoError(t, err)

	again, err := PrepareStickerFile(out)
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(again))
	require.NoError(t, err)
	assert.Equal(t, StickerDimension, decoded.Bounds().Dx())
	assert.Equal(t, StickerDimension, decoded.Bounds().Dy())
}
