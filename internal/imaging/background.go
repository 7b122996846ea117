package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/fogleman/gg"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// Background styles a sticker can be rendered with.
type Background string

const (
	BackgroundTransparent Background = "transparent"
	BackgroundWhite       Background = "white"
	BackgroundGradient    Background = "gradient"
	BackgroundCircle      Background = "circle"
	BackgroundRounded     Background = "rounded"
)

// Backgrounds lists the selectable styles in menu order.
func Backgrounds() []Background {
	return []Background{
		BackgroundTransparent,
		BackgroundWhite,
		BackgroundGradient,
		BackgroundCircle,
		BackgroundRounded,
	}
}

// ParseBackground validates a callback value.
func ParseBackground(s string) (Background, bool) {
	for _, b := range Backgrounds() {
		if string(b) == s {
			return b, true
		}
	}
	return "", false
}

// ApplyBackground renders the style onto the image and returns PNG bytes.
func ApplyBackground(raw []byte, style Background) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image for background: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dc := gg.NewContext(w, h)

	switch style {
	case BackgroundWhite:
		dc.SetRGB(1, 1, 1)
		dc.Clear()
		dc.DrawImage(img, 0, 0)

	case BackgroundGradient:
		// Soft pink-to-blue, same ramp the sticker crowd expects.
		grad := gg.NewLinearGradient(0, 0, 0, float64(h))
		grad.AddColorStop(0, rgba(255, 200, 220))
		grad.AddColorStop(1, rgba(205, 250, 255))
		dc.SetFillStyle(grad)
		dc.DrawRectangle(0, 0, float64(w), float64(h))
		dc.Fill()
		dc.DrawImage(img, 0, 0)

	case BackgroundCircle:
		radius := float64(min(w, h)) / 2
		dc.DrawCircle(float64(w)/2, float64(h)/2, radius)
		dc.Clip()
		dc.DrawImage(img, 0, 0)

	case BackgroundRounded:
		radius := float64(min(w, h)) / 10
		dc.DrawRoundedRectangle(0, 0, float64(w), float64(h), radius)
		dc.Clip()
		dc.DrawImage(img, 0, 0)

	default:
		// transparent: nothing to paint under the image
		dc.DrawImage(img, 0, 0)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode background result: %w", err)
	}
	return buf.Bytes(), nil
}

func rgba(r, g, b uint8) color.Color {
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
