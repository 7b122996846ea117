package stickerpack

import (
	"fmt"
	"strings"
)

// Telegram allows up to 64 characters for a set name, letters, digits and
// underscores only. The transliterated prefix is capped well below that so
// the mandatory bot suffix always fits.
const (
	maxNameLength       = 64
	translitPrefixLimit = 32
)

// Phonetic Cyrillic -> ASCII mapping used to build recognizable pack names.
var translitTable = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "e", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "sch", 'ъ': "", 'ы': "y", 'ь': "",
	'э': "e", 'ю': "yu", 'я': "ya",
}

// Transliterate converts a display name into the transport's legal alphabet.
// Characters with no phonetic equivalent are dropped; the result may be
// empty when nothing survives.
func Transliterate(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if mapped, ok := translitTable[r]; ok {
			b.WriteString(mapped)
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	result := b.String()
	if len(result) > translitPrefixLimit {
		result = result[:translitPrefixLimit]
	}
	return result
}

// PackName derives the external set name for a user's pack. Deterministic:
// lookups and retries must agree on pack identity without asking the
// transport first.
//
// The first pack uses the transliterated display name when one survives
// transliteration; every other case falls back to the numeric scheme, which
// is collision-free across users because it embeds the user id.
func PackName(botUsername string, userID int64, ordinal int, displayName string) string {
	suffix := "_by_" + botUsername

	if ordinal == 1 && displayName != "" {
		if translit := Transliterate(displayName); translit != "" {
			name := translit + "_stickers" + suffix
			if len(name) > maxNameLength {
				overflow := len(name) - maxNameLength
				name = translit[:len(translit)-overflow] + "_stickers" + suffix
			}
			return name
		}
	}

	return fmt.Sprintf("pack%d_%d%s", ordinal, userID, suffix)
}

// PackTitle builds the human-readable set title.
func PackTitle(displayName string, ordinal int) string {
	if ordinal > 1 {
		return fmt.Sprintf("%s's stickers vol.%d", displayName, ordinal)
	}
	return fmt.Sprintf("%s's stickers", displayName)
}
