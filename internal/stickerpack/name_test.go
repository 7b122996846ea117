package stickerpack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransliterate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"cyrillic name", "Иван", "ivan"},
		{"latin passthrough", "Alice", "alice"},
		{"digits kept", "user42", "user42"},
		{"underscore kept", "cool_name", "cool_name"},
		{"soft and hard signs dropped", "Объявь", "obyav"},
		{"multi letter mapping", "Щука", "schuka"},
		{"emoji only", "🦊🦊🦊", ""},
		{"spaces dropped", "Анна Мария", "annamariya"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Transliterate(tt.input))
		})
	}
}

func TestTransliterateCapsPrefix(t *testing.T) {
	long := strings.Repeat("я", 100)
	got := Transliterate(long)
	assert.LessOrEqual(t, len(got), translitPrefixLimit)
	assert.True(t, strings.HasPrefix(got, "ya"))
}

func TestPackNameFirstPackUsesDisplayName(t *testing.T) {
	name := PackName("TestBot", 42, 1, "Иван")
	assert.Equal(t, "ivan_stickers_by_TestBot", name)
}

func TestPackNameFallsBackToNumericScheme(t *testing.T) {
	tests := []struct {
		name        string
		ordinal     int
		displayName string
		expected    string
	}{
		{"second pack ignores display name", 2, "Иван", "pack2_42_by_TestBot"},
		{"empty display name", 1, "", "pack1_42_by_TestBot"},
		{"nothing survives transliteration", 1, "🦊🦊", "pack1_42_by_TestBot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PackName("TestBot", 42, tt.ordinal, tt.displayName))
		})
	}
}

func TestPackNameDeterministic(t *testing.T) {
	a := PackName("TestBot", 7, 1, "Мария")
	b := PackName("TestBot", 7, 1, "Мария")
	assert.Equal(t, a, b)
}

func TestPackNameNeverExceedsLimit(t *testing.T) {
	longName := strings.Repeat("ж", 60)
	name := PackName("very_long_bot_username_here_bot", 99, 1, longName)
	assert.LessOrEqual(t, len(name), maxNameLength)
	assert.True(t, strings.HasSuffix(name, "_by_very_long_bot_username_here_bot"))
	assert.Contains(t, name, "_stickers")
}

func TestPackTitle(t *testing.T) {
	assert.Equal(t, "Ivan's stickers", PackTitle("Ivan", 1))
	assert.Equal(t, "Ivan's stickers vol.3", PackTitle("Ivan", 3))
}
