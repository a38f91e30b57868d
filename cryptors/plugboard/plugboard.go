// plugboard
package plugboard

import (
	"fmt"

	"github.com/bgallie/cipherbox/cryptors"
	"github.com/bgallie/cipherbox/cryptors/permutator"
)

const (
	// Seed is the constant seed every plugboard is derived from.  It does not
	// depend on the seeds given to the machine.
	Seed int64 = 0
	// Plugs is the number of alphabet positions wired by the plugboard.  They
	// are swapped in pairs.
	Plugs = 6
)

// Plugboard is the identity table with Plugs positions swapped pairwise.
type Plugboard struct {
	perm      permutator.Permutation
	positions [cryptors.AlphabetSize]int
	plugs     [Plugs]int
}

// New builds the plugboard with the given generator.  The positions to swap
// are the canonical indices of the first Plugs symbols of the permutation the
// generator derives from Seed.  That permutation must be a bijection.
func New(g permutator.Generator) (*Plugboard, error) {
	var pb Plugboard
	sample := g.Permutation(Seed)
	if err := sample.Validate(); err != nil {
		return nil, fmt.Errorf("plugboard: %w", err)
	}

	pb.perm = permutator.Identity()
	for i := range pb.plugs {
		idx, err := cryptors.Index(sample[i])
		if err != nil {
			return nil, fmt.Errorf("plugboard: %w", err)
		}
		pb.plugs[i] = idx
	}

	for i := 0; i < Plugs; i += 2 {
		a, b := pb.plugs[i], pb.plugs[i+1]
		pb.perm[a], pb.perm[b] = pb.perm[b], pb.perm[a]
	}

	pb.positions = pb.perm.Positions()
	return &pb, nil
}

// Forward substitutes s on the way into the rotors.
func (pb *Plugboard) Forward(s rune) (rune, error) {
	i, err := cryptors.Index(s)
	if err != nil {
		return 0, err
	}

	return pb.perm[i], nil
}

// Backward undoes Forward on the way out of the rotors.
func (pb *Plugboard) Backward(s rune) (rune, error) {
	i, err := cryptors.Index(s)
	if err != nil {
		return 0, err
	}

	return cryptors.Symbol(pb.positions[i]), nil
}

// Wiring returns the canonical positions wired by the plugboard, in the order
// they are paired.
func (pb *Plugboard) Wiring() [Plugs]int {
	return pb.plugs
}

// Table returns the plugboard's substitution table.
func (pb *Plugboard) Table() permutator.Permutation {
	return pb.perm
}

func (pb *Plugboard) String() string {
	return fmt.Sprintf("plugboard.New(%v) %s\n", pb.plugs, pb.perm)
}
