// Package cryptors holds the pieces shared by every part of the rotor machine:
// the symbol alphabet, the Crypter interface implemented by the substitution
// stages and the error reported for symbols outside the alphabet.
package cryptors

import (
	"errors"
	"fmt"
)

const (
	// Symbols is the ordered alphabet the rotor machine works on.  The
	// position of a symbol in this string is its canonical index.
	Symbols = "abcdefghijklmnopqrstuvwxyz ?.,"
	// AlphabetSize is the number of symbols in the alphabet (and the size of
	// every rotor, reflector and plugboard table).
	AlphabetSize = len(Symbols)
	// CycleSize is the number of symbols processed before the middle rotor
	// has completed a full turn and the slow rotor advances.
	CycleSize = AlphabetSize * AlphabetSize
)

var (
	// alphabet holds the symbols in canonical order.
	alphabet [AlphabetSize]rune
	// index maps a symbol back to its canonical position.  Symbols not in
	// the alphabet are absent.
	index = make(map[rune]int, AlphabetSize)
)

// ErrInvalidSymbol is matched (via errors.Is) by every InvalidSymbolError.
var ErrInvalidSymbol = errors.New("invalid symbol")

func init() {
	for i, r := range []rune(Symbols) {
		alphabet[i] = r
		index[r] = i
	}
}

// InvalidSymbolError reports a symbol that is not part of the alphabet along
// with its position in the input being processed.  Position is -1 when the
// symbol was rejected outside of a text (for example by a single rotor).
type InvalidSymbolError struct {
	Symbol   rune
	Position int
}

func (e *InvalidSymbolError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("invalid symbol %q", e.Symbol)
	}

	return fmt.Sprintf("invalid symbol %q at position %d", e.Symbol, e.Position)
}

// Is lets errors.Is(err, ErrInvalidSymbol) match any InvalidSymbolError.
func (e *InvalidSymbolError) Is(target error) bool {
	return target == ErrInvalidSymbol
}

// Crypter is a reversible substitution stage of the machine.  Backward must
// undo Forward for as long as the stage is not stepped.
type Crypter interface {
	Forward(rune) (rune, error)
	Backward(rune) (rune, error)
}

// IsValidSymbol reports whether r belongs to the alphabet.
func IsValidSymbol(r rune) bool {
	_, ok := index[r]
	return ok
}

// Index returns the canonical index of r, or an InvalidSymbolError if r is not
// part of the alphabet.
func Index(r rune) (int, error) {
	if i, ok := index[r]; ok {
		return i, nil
	}

	return 0, &InvalidSymbolError{Symbol: r, Position: -1}
}

// Symbol returns the symbol at canonical index i.  i is reduced modulo the
// alphabet size, so negative values wrap around.
func Symbol(i int) rune {
	i %= AlphabetSize
	if i < 0 {
		i += AlphabetSize
	}

	return alphabet[i]
}

// Alphabet returns a copy of the symbols in canonical order.
func Alphabet() [AlphabetSize]rune {
	return alphabet
}

// Validate checks that every rune of text belongs to the alphabet.  The first
// offending rune is reported together with its rune position in text.
func Validate(text []rune) error {
	for pos, r := range text {
		if !IsValidSymbol(r) {
			return &InvalidSymbolError{Symbol: r, Position: pos}
		}
	}

	return nil
}
