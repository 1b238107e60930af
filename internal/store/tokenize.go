package store

import "unicode"

// cjkTokenize inserts spaces between consecutive CJK (Han, Hiragana,
// Katakana, Hangul) runes before the text reaches FTS5's indexer.
// SQLite's default unicode61 tokenizer treats CJK scripts as one long
// run of "word" characters and never splits them, so a search for a
// two-character substring of a longer CJK phrase would otherwise never
// match. Whitespace-separating each CJK rune turns it into its own
// FTS5 token, at the cost of losing multi-character-word phrase
// matching for those scripts — an acceptable trade for keyword recall.
func cjkTokenize(s string) string {
	var hasCJK bool
	for _, r := range s {
		if isCJK(r) {
			hasCJK = true
			break
		}
	}
	if !hasCJK {
		return s
	}

	var b []rune
	for _, r := range s {
		if isCJK(r) {
			b = append(b, ' ', r, ' ')
			continue
		}
		b = append(b, r)
	}
	return string(b)
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
