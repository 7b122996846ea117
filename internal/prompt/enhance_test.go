package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStyle(t *testing.T) {
	for _, style := range Styles() {
		got, ok := ParseStyle(string(style))
		assert.True(t, ok)
		assert.Equal(t, style, got)
	}

	_, ok := ParseStyle("baroque")
	assert.False(t, ok)
}

func TestNeedsBackground(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"russian scene", "кот в космосе", true},
		{"english scene", "a cat in space", true},
		{"russian location no indicator", "космос", false},
		{"indicator without location", "кот в шляпе", false},
		{"isolated subject", "весёлый кот", false},
		{"english forest", "a fox near the forest", true},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NeedsBackground(tt.input))
		})
	}
}

func TestEnhanceIsolatedSubject(t *testing.T) {
	enhanced, keepBackground := Enhance("весёлый кот", StyleCartoon)

	assert.False(t, keepBackground)
	assert.True(t, strings.HasPrefix(enhanced, "весёлый кот, "))
	assert.Contains(t, enhanced, "cartoon style")
	assert.Contains(t, enhanced, "white background")
	assert.Contains(t, enhanced, "isolated character")
}

func TestEnhanceSceneKeepsEnvironment(t *testing.T) {
	enhanced, keepBackground := Enhance("кот в космосе", StyleAnime)

	assert.True(t, keepBackground)
	assert.Contains(t, enhanced, "anime style")
	assert.Contains(t, enhanced, "detailed environment")
	assert.NotContains(t, enhanced, "white background")
}

func TestEnhanceUnknownStyleFallsBack(t *testing.T) {
	enhanced, _ := Enhance("кот", Style("baroque"))
	assert.Contains(t, enhanced, "cartoon style")
}

func TestNegative(t *testing.T) {
	assert.Contains(t, Negative(StyleRealistic), "cartoon")
	assert.Contains(t, Negative(StylePixel), "smooth")
	// unknown styles share the cartoon negatives
	assert.Equal(t, Negative(StyleCartoon), Negative(Style("baroque")))
}

func TestTemplateIDStable(t *testing.T) {
	a, err := TemplateID(StyleCute, "kawaii, chibi")
	require.NoError(t, err)
	b, err := TemplateID(StyleCute, "kawaii, chibi")
	require.NoError(t, err)
	c, err := TemplateID(StyleAnime, "kawaii, chibi")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}
