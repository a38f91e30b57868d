// Package classic implements the pen and paper ciphers that predate rotor
// machines: the Caesar shift, the Vigenere cipher, a fixed alphabet
// substitution and a block transposition.  They work on any string; symbols a
// cipher does not know about are copied through unchanged.
package classic

import "errors"

var (
	// ErrKeyNumber is returned when a built-in key number is out of range.
	ErrKeyNumber = errors.New("key number out of range")
	// ErrEmptyKey is returned when a Vigenere key is empty.
	ErrEmptyKey = errors.New("empty key")
	// ErrInvalidKey is returned when a Vigenere key holds a non-letter.
	ErrInvalidKey = errors.New("key must only contain letters")
)

const (
	letters = 26
	digits  = 10
)

// mod returns a modulo m in the range [0, m).
func mod(a, m int) int {
	a %= m
	if a < 0 {
		a += m
	}
	return a
}

// shift moves letters by n positions (keeping their case) and digits by n
// positions modulo 10.  Everything else is returned unchanged.
func shift(r rune, n int) rune {
	switch {
	case 'A' <= r && r <= 'Z':
		return 'A' + rune(mod(int(r-'A')+n, letters))
	case 'a' <= r && r <= 'z':
		return 'a' + rune(mod(int(r-'a')+n, letters))
	case '0' <= r && r <= '9':
		return '0' + rune(mod(int(r-'0')+n, digits))
	default:
		return r
	}
}
