package dialog

import (
	"strconv"
	"strings"
)

// Counter suffixes people attach to spoken numerals ("두 잔", "세 개").
var quantitySuffixes = []string{"개", "잔", "컵", "병", "그릇"}

// Spoken-numeral synonyms, 1..10. Both counting and determiner forms.
var spokenNumerals = map[string]int{
	"하나": 1, "한": 1,
	"둘": 2, "두": 2,
	"셋": 3, "세": 3,
	"넷": 4, "네": 4,
	"다섯": 5,
	"여섯": 6,
	"일곱": 7,
	"여덟": 8,
	"아홉": 9,
	"열":  10,
}

// ExtractQuantity pulls a quantity out of an utterance. Digits win: all
// non-digit runes are stripped and whatever remains is parsed. Otherwise
// the whole (normalized) utterance must be a spoken numeral, optionally
// followed by a counter suffix. Returns 0 when no quantity can be read.
// Never panics; any unparseable input is just 0.
func ExtractQuantity(text string) int {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() > 0 {
		n, err := strconv.Atoi(digits.String())
		if err != nil {
			return 0
		}
		return n
	}

	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(text), " ", ""))
	for _, suffix := range quantitySuffixes {
		if strings.HasSuffix(normalized, suffix) {
			normalized = strings.TrimSuffix(normalized, suffix)
			break
		}
	}
	if n, ok := spokenNumerals[normalized]; ok {
		return n
	}
	return 0
}
