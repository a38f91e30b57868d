// reflector
package reflector

import (
	"fmt"

	"github.com/bgallie/cipherbox/cryptors"
	"github.com/bgallie/cipherbox/cryptors/permutator"
)

// Reflector pairs the adjacent entries of a fixed permutation table: the
// symbol at an even position p is exchanged with the one at p+1 and vice
// versa.  The alphabet has an even size, so every symbol has a partner and
// none maps to itself.
type Reflector struct {
	perm      permutator.Permutation
	positions [cryptors.AlphabetSize]int
}

// New creates a reflector from the permutation p.
func New(p permutator.Permutation) *Reflector {
	return &Reflector{perm: p, positions: p.Positions()}
}

// Reflect returns the partner of s.
func (r *Reflector) Reflect(s rune) (rune, error) {
	i, err := cryptors.Index(s)
	if err != nil {
		return 0, err
	}

	p := r.positions[i]
	if p%2 == 0 {
		return r.perm[p+1], nil
	}

	return r.perm[p-1], nil
}

// Table returns the reflector's permutation table.
func (r *Reflector) Table() permutator.Permutation {
	return r.perm
}

func (r *Reflector) String() string {
	return fmt.Sprintf("reflector.New(%s)\n", r.perm)
}
