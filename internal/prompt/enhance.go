package prompt

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Style is a generation style tag selectable from the bot menu.
type Style string

const (
	StyleCartoon    Style = "cartoon"
	StyleAnime      Style = "anime"
	StyleRealistic  Style = "realistic"
	StylePixel      Style = "pixel"
	StyleMinimalist Style = "minimalist"
	StyleCute       Style = "cute"
)

// Styles lists the selectable styles in menu order.
func Styles() []Style {
	return []Style{StyleCartoon, StyleAnime, StyleRealistic, StylePixel, StyleMinimalist, StyleCute}
}

// ParseStyle validates a callback value.
func ParseStyle(s string) (Style, bool) {
	for _, st := range Styles() {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// StylePrompts carries the positive and negative prompt fragments for one
// style.
type StylePrompts struct {
	Positive string
	Negative string
}

var stylePrompts = map[Style]StylePrompts{
	StyleCartoon: {
		Positive: "cartoon style, flat colors, simple design, cute, kawaii",
		Negative: "realistic, complex, detailed, photographic",
	},
	StyleAnime: {
		Positive: "anime style, manga, japanese animation, expressive",
		Negative: "western cartoon, realistic, 3d render",
	},
	StyleRealistic: {
		Positive: "photorealistic, detailed, high quality",
		Negative: "cartoon, anime, illustration, drawing",
	},
	StylePixel: {
		Positive: "pixel art, 8-bit, retro game style, pixelated",
		Negative: "smooth, realistic, high resolution",
	},
	StyleMinimalist: {
		Positive: "minimalist, simple shapes, flat design, clean",
		Negative: "complex, detailed, realistic, busy",
	},
	StyleCute: {
		Positive: "kawaii, chibi, adorable, big eyes, cute style",
		Negative: "scary, realistic, dark, serious",
	},
}

// Negative returns the negative prompt for a style.
func Negative(style Style) string {
	if p, ok := stylePrompts[style]; ok {
		return p.Negative
	}
	return stylePrompts[StyleCartoon].Negative
}

// Words that suggest the user is describing a scene, in which case wiping
// the background would destroy the request.
var (
	locationIndicators = []string{
		"в ", "на ", "под ", "около ", "у ", "возле ",
		"in ", "on ", "at ", "near ", "by ", "under ",
	}
	locations = []string{
		"космос", "лес", "море", "город", "дом", "офис", "парк",
		"горы", "пустыня", "пляж", "улица", "комната", "кухня",
		"space", "forest", "ocean", "city", "house", "office", "park",
	}
)

// NeedsBackground reports whether the prompt describes a scene rather than
// an isolated subject.
func NeedsBackground(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, indicator := range locationIndicators {
		if !strings.Contains(lower, indicator) {
			continue
		}
		for _, location := range locations {
			if strings.Contains(lower, location) {
				return true
			}
		}
	}
	return false
}

// Enhance expands a raw user prompt with style fragments and sticker-format
// hints. The second result reports whether a generated environment should be
// kept.
func Enhance(userPrompt string, style Style) (string, bool) {
	needsBackground := NeedsBackground(userPrompt)

	styleAddition := stylePrompts[StyleCartoon].Positive
	if p, ok := stylePrompts[style]; ok {
		styleAddition = p.Positive
	}

	var enhanced string
	if needsBackground {
		enhanced = fmt.Sprintf("%s, %s, detailed environment, sticker design", userPrompt, styleAddition)
	} else {
		enhanced = fmt.Sprintf("%s, %s, white background, isolated character, centered, sticker", userPrompt, styleAddition)
	}
	enhanced += ", high quality, clear details"

	return enhanced, needsBackground
}

// TemplateID derives a stable id for a (style, fragment) pair, useful for
// correlating generations with the template that produced them.
func TemplateID(style Style, fragment string) (string, error) {
	h, err := blake2b.New(16, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create blake2b hasher: %w", err)
	}
	if _, err := h.Write([]byte(style)); err != nil {
		return "", err
	}
	if _, err := h.Write([]byte(fragment)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
