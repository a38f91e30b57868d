// rotor
package rotor

import (
	"bytes"
	"fmt"

	"github.com/bgallie/cipherbox/cryptors"
	"github.com/bgallie/cipherbox/cryptors/permutator"
)

// Rotor is a permutation whose lookup table turns one position to the left
// every time it is stepped.  The table is never copied on a step: current is
// the offset of the table's first entry in the original permutation.
type Rotor struct {
	perm      permutator.Permutation
	positions [cryptors.AlphabetSize]int
	current   int
	steps     int
}

// New creates a rotor wired with the permutation p.
func New(p permutator.Permutation) *Rotor {
	var r Rotor
	r.Update(p)
	return &r
}

// Update rewires the rotor with the permutation p and returns it to its
// starting position.
func (r *Rotor) Update(p permutator.Permutation) {
	r.perm = p
	r.positions = p.Positions()
	r.current = 0
	r.steps = 0
}

// Forward substitutes the symbol at canonical index i of the alphabet with
// entry i of the rotor's current table.
func (r *Rotor) Forward(s rune) (rune, error) {
	i, err := cryptors.Index(s)
	if err != nil {
		return 0, err
	}

	return r.perm[(i+r.current)%cryptors.AlphabetSize], nil
}

// Backward finds the table entry equal to s and returns the alphabet symbol
// at that entry's position.  It undoes Forward.
func (r *Rotor) Backward(s rune) (rune, error) {
	i, err := cryptors.Index(s)
	if err != nil {
		return 0, err
	}

	return cryptors.Symbol(r.positions[i] - r.current), nil
}

// Step rotates the table left by one position.
func (r *Rotor) Step() {
	r.current = (r.current + 1) % cryptors.AlphabetSize
	r.steps++
}

// SetIndex puts the rotor in the state it would be in after being stepped n
// times from its starting position.
func (r *Rotor) SetIndex(n int) {
	r.steps = n
	r.current = n % cryptors.AlphabetSize
	if r.current < 0 {
		r.current += cryptors.AlphabetSize
	}
}

// Steps returns the number of times the rotor has been stepped.
func (r *Rotor) Steps() int {
	return r.steps
}

// Table returns the rotor's current lookup table.
func (r *Rotor) Table() permutator.Permutation {
	var t permutator.Permutation

	for i := range t {
		t[i] = r.perm[(i+r.current)%cryptors.AlphabetSize]
	}

	return t
}

func (r *Rotor) String() string {
	var output bytes.Buffer
	output.WriteString(fmt.Sprintf("rotor.New(%s) steps: %d, current: %d\n",
		r.perm, r.steps, r.current))
	output.WriteString(fmt.Sprintf("\ttable: %s\n", r.Table()))
	return output.String()
}
