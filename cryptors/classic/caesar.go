package classic

import "strings"

// CaesarEncrypt shifts every letter and digit of text by key positions.
func CaesarEncrypt(text string, key int) string {
	var sb strings.Builder
	sb.Grow(len(text))

	for _, r := range text {
		sb.WriteRune(shift(r, key))
	}

	return sb.String()
}

// CaesarDecrypt undoes CaesarEncrypt.
func CaesarDecrypt(text string, key int) string {
	return CaesarEncrypt(text, -key)
}

// CaesarAnalyze returns the decryption of text under every key from 1 to 25.
// Entry i holds the result for key i+1.
func CaesarAnalyze(text string) []string {
	out := make([]string, 0, letters-1)

	for k := 1; k < letters; k++ {
		out = append(out, CaesarDecrypt(text, k))
	}

	return out
}
