package classic

import "strings"

const plainAlphabet = "abcdefghijklmnopqrstuvwxyz"

// SubstitutionKeys are the built-in substitution alphabets, numbered from 1.
var SubstitutionKeys = []string{
	"KWJHUBVGTXLZIDQYSMFRNCPAEO",
	"WJHUBVGTXLZIDQYSMFRNCPAEOK",
}

func substitutionKey(keyNo int) (string, error) {
	if keyNo < 1 || keyNo > len(SubstitutionKeys) {
		return "", ErrKeyNumber
	}

	return SubstitutionKeys[keyNo-1], nil
}

// SubstitutionEncrypt replaces every lowercase letter of text with the
// matching upper case letter of the substitution alphabet keyNo.
func SubstitutionEncrypt(text string, keyNo int) (string, error) {
	key, err := substitutionKey(keyNo)
	if err != nil {
		return "", err
	}

	return substitute(text, plainAlphabet, key), nil
}

// SubstitutionDecrypt maps the letters of the substitution alphabet keyNo back
// to lowercase letters.  Upper case letters in the plaintext are not
// enciphered by SubstitutionEncrypt, so they do not survive a round trip.
func SubstitutionDecrypt(text string, keyNo int) (string, error) {
	key, err := substitutionKey(keyNo)
	if err != nil {
		return "", err
	}

	return substitute(text, key, plainAlphabet), nil
}

func substitute(text, from, to string) string {
	var sb strings.Builder
	sb.Grow(len(text))

	for _, r := range text {
		if i := strings.IndexRune(from, r); i >= 0 {
			sb.WriteByte(to[i])
		} else {
			sb.WriteRune(r)
		}
	}

	return sb.String()
}
