package translate

import (
	"unicode"

	"github.com/JonMunkholm/listingbridge/internal/platform"
)

// japaneseHan is the CJK unified range treated as Japanese. Han characters
// outside it fall through to Chinese.
var japaneseHan = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x4E00, Hi: 0x9FAF, Stride: 1}},
}

// DetectLanguage guesses the language of text from its Unicode ranges.
//
// Precedence: kana or common CJK ideographs mean Japanese, then Hangul means
// Korean, then any other Han ideograph means Chinese, and everything else is
// English. Japanese is checked first because Japanese text also uses CJK
// ideographs.
func DetectLanguage(text string) platform.Language {
	switch {
	case containsAny(text, unicode.Hiragana, unicode.Katakana, japaneseHan):
		return platform.Japanese
	case containsAny(text, unicode.Hangul):
		return platform.Korean
	case containsAny(text, unicode.Han):
		return platform.Chinese
	default:
		return platform.English
	}
}

func containsAny(text string, tables ...*unicode.RangeTable) bool {
	for _, r := range text {
		if unicode.In(r, tables...) {
			return true
		}
	}
	return false
}
