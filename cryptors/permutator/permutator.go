// permutator
package permutator

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bgallie/cipherbox/cryptors"
)

// Permutation is a bijection over the symbol alphabet.  Entry i is the image of
// the i-th symbol of the alphabet.
type Permutation [cryptors.AlphabetSize]rune

// Generator derives a Permutation from a seed.  Implementations must be
// deterministic: the same seed always yields the same Permutation.
type Generator interface {
	Permutation(seed int64) Permutation
}

// GeneratorFunc adapts an ordinary function to the Generator interface.
type GeneratorFunc func(seed int64) Permutation

// Permutation calls f(seed).
func (f GeneratorFunc) Permutation(seed int64) Permutation {
	return f(seed)
}

// Identity returns the permutation mapping every symbol to itself.
func Identity() Permutation {
	return Permutation(cryptors.Alphabet())
}

// SplitMix is the default Generator.  It seeds a SplitMix64 stream with the
// seed and Fisher-Yates shuffles a copy of the alphabet with it.
type SplitMix struct{}

// Permutation returns the shuffled alphabet for seed.
func (SplitMix) Permutation(seed int64) Permutation {
	p := Identity()
	src := newSource(seed)

	for i := len(p) - 1; i > 0; i-- {
		j := int(src.next() % uint64(i+1))
		p[i], p[j] = p[j], p[i]
	}

	return p
}

// Default is the Generator used when none is given.
var Default Generator = SplitMix{}

// source is a SplitMix64 stream.  Its output sequence is fixed by the
// constants below and does not depend on the Go release.
type source struct {
	state uint64
}

func newSource(seed int64) *source {
	return &source{state: uint64(seed)}
}

func (s *source) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// ErrNotBijection is returned by Validate.
var ErrNotBijection = errors.New("permutation is not a bijection")

// Validate reports an error wrapping ErrNotBijection if p is not a bijection
// over the alphabet.
func (p Permutation) Validate() error {
	var seen [cryptors.AlphabetSize]bool

	for i, r := range p {
		idx, err := cryptors.Index(r)
		if err != nil {
			return fmt.Errorf("%w: entry %d: %w", ErrNotBijection, i, err)
		}

		if seen[idx] {
			return fmt.Errorf("%w: symbol %q appears twice (entry %d)", ErrNotBijection, r, i)
		}

		seen[idx] = true
	}

	return nil
}

// Positions returns the reverse index of p: Positions()[k] is the position of
// the k-th alphabet symbol in p.  p must be a bijection.
func (p Permutation) Positions() [cryptors.AlphabetSize]int {
	var pos [cryptors.AlphabetSize]int

	for i, r := range p {
		idx, _ := cryptors.Index(r)
		pos[idx] = i
	}

	return pos
}

func (p Permutation) String() string {
	var output bytes.Buffer
	output.WriteString("[")

	for _, r := range p {
		output.WriteRune(r)
	}

	output.WriteString("]")
	return output.String()
}
