package classic

import "strings"

// vigenereShifts converts key into the shift for every rune of a text of
// length n.  The key is repeated from the start of the text, so symbols that
// are not enciphered still use up a key letter.
func vigenereShifts(key string, n int) ([]int, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	k := []rune(strings.ToUpper(key))
	for _, r := range k {
		if r < 'A' || r > 'Z' {
			return nil, ErrInvalidKey
		}
	}

	shifts := make([]int, n)
	for i := range shifts {
		shifts[i] = int(k[i%len(k)] - 'A')
	}

	return shifts, nil
}

// VigenereEncrypt enciphers text with the repeating key.
func VigenereEncrypt(text, key string) (string, error) {
	return vigenere(text, key, 1)
}

// VigenereDecrypt undoes VigenereEncrypt.
func VigenereDecrypt(text, key string) (string, error) {
	return vigenere(text, key, -1)
}

func vigenere(text, key string, dir int) (string, error) {
	runes := []rune(text)
	shifts, err := vigenereShifts(key, len(runes))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(text))

	for i, r := range runes {
		sb.WriteRune(shift(r, dir*shifts[i]))
	}

	return sb.String(), nil
}
