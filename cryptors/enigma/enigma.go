// Package enigma implements a three rotor machine with a plugboard and a
// reflector.  Every symbol passes through the plugboard, the three rotors,
// the reflector, the three rotors in reverse and the plugboard again, after
// which the rotors advance like an odometer.  The composition is its own
// inverse, so a message is decrypted by running it through a fresh Engine
// built from the same seeds.
//
// An Engine is not safe for concurrent use.  Build one Engine per session.
package enigma

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bgallie/cipherbox/cryptors"
	"github.com/bgallie/cipherbox/cryptors/permutator"
	"github.com/bgallie/cipherbox/cryptors/plugboard"
	"github.com/bgallie/cipherbox/cryptors/reflector"
	"github.com/bgallie/cipherbox/cryptors/rotor"
)

// NumberOfRotors is the number of rotors in the machine.
const NumberOfRotors = 3

// Engine is the rotor machine.  It owns all of its tables; nothing is shared
// between engines.
type Engine struct {
	generator permutator.Generator
	seeds     [NumberOfRotors]int64
	plugboard *plugboard.Plugboard
	rotors    [NumberOfRotors]*rotor.Rotor
	reflector *reflector.Reflector
	// stages is the path from the keyboard to the reflector: the plugboard
	// then the rotors from fast to slow.
	stages []cryptors.Crypter
	index  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRotorSeeds sets the seeds of the middle and slow rotors.  Both default
// to 0.
func WithRotorSeeds(seed2, seed3 int64) Option {
	return func(e *Engine) {
		e.seeds[1], e.seeds[2] = seed2, seed3
	}
}

// WithGenerator replaces the permutation generator used to wire the machine.
func WithGenerator(g permutator.Generator) Option {
	return func(e *Engine) {
		if g != nil {
			e.generator = g
		}
	}
}

// New builds an Engine.  seed wires the fast rotor and the reflector; the
// plugboard is always wired from plugboard.Seed.  Every permutation the
// generator returns is checked, and one that is not a bijection over the
// alphabet is reported as an error wrapping permutator.ErrNotBijection.
func New(seed int64, opts ...Option) (*Engine, error) {
	e := &Engine{generator: permutator.Default}
	e.seeds[0] = seed

	for _, opt := range opts {
		opt(e)
	}

	pb, err := plugboard.New(e.generator)
	if err != nil {
		return nil, err
	}
	e.plugboard = pb
	e.stages = append(e.stages, pb)

	for i, s := range e.seeds {
		p, err := e.permutation(s)
		if err != nil {
			return nil, fmt.Errorf("rotor %d: %w", i+1, err)
		}
		e.rotors[i] = rotor.New(p)
		e.stages = append(e.stages, e.rotors[i])
	}

	p, err := e.permutation(e.seeds[0])
	if err != nil {
		return nil, fmt.Errorf("reflector: %w", err)
	}
	e.reflector = reflector.New(p)

	return e, nil
}

func (e *Engine) permutation(seed int64) (permutator.Permutation, error) {
	p := e.generator.Permutation(seed)
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("seed %d: %w", seed, err)
	}
	return p, nil
}

// Process runs text through the machine and returns the result.  Either the
// whole text is processed or, if it holds a symbol outside the alphabet, an
// *cryptors.InvalidSymbolError is returned and the Engine is left exactly as
// it was before the call.
func (e *Engine) Process(text string) (string, error) {
	out, err := e.ProcessRunes([]rune(text))
	if err != nil {
		return "", err
	}

	return string(out), nil
}

// ProcessRunes is Process for a slice of runes.  The input slice is not
// modified.
func (e *Engine) ProcessRunes(text []rune) ([]rune, error) {
	if err := cryptors.Validate(text); err != nil {
		return nil, err
	}

	start := e.index
	out := make([]rune, len(text))

	for pos, c := range text {
		r, err := e.encode(c)
		if err != nil {
			// The input was validated, so a stage produced the bad symbol.
			e.SetIndex(start)
			return nil, fmt.Errorf("machine failed on position %d: %w", pos, err)
		}

		out[pos] = r
		e.advance()
	}

	return out, nil
}

// encode passes one symbol through every stage of the machine.
func (e *Engine) encode(c rune) (rune, error) {
	var err error

	for _, st := range e.stages {
		if c, err = st.Forward(c); err != nil {
			return 0, err
		}
	}

	if c, err = e.reflector.Reflect(c); err != nil {
		return 0, err
	}

	for i := len(e.stages) - 1; i >= 0; i-- {
		if c, err = e.stages[i].Backward(c); err != nil {
			return 0, err
		}
	}

	return c, nil
}

// advance steps the rotors after the symbol at the current index has been
// processed and moves on to the next index.
func (e *Engine) advance() {
	middle, slow := carries(e.index)
	e.rotors[0].Step()

	if middle {
		e.rotors[1].Step()
	}

	if slow {
		e.rotors[2].Step()
	}

	e.index++
}

// carries reports whether the middle and slow rotors step after the symbol at
// idx.  The middle rotor steps at every positive multiple of the alphabet size
// and the slow rotor at every positive multiple of its square.
func carries(idx int) (middle, slow bool) {
	if idx <= 0 {
		return false, false
	}

	return idx%cryptors.AlphabetSize == 0, idx%cryptors.CycleSize == 0
}

// stepsBefore returns how many times each rotor has stepped once n symbols
// have been processed.
func stepsBefore(n int) [NumberOfRotors]int {
	if n <= 0 {
		return [NumberOfRotors]int{}
	}

	last := n - 1
	return [NumberOfRotors]int{n, last / cryptors.AlphabetSize, last / cryptors.CycleSize}
}

// SetIndex puts the Engine in the state it would be in after processing n
// symbols.  Negative values are treated as 0.
func (e *Engine) SetIndex(n int) {
	if n < 0 {
		n = 0
	}

	for i, s := range stepsBefore(n) {
		e.rotors[i].SetIndex(s)
	}

	e.index = n
}

// Reset returns the Engine to its starting state.
func (e *Engine) Reset() {
	e.SetIndex(0)
}

// Index returns the number of symbols processed so far.
func (e *Engine) Index() int {
	return e.index
}

// Seeds returns the seeds of the fast, middle and slow rotors.
func (e *Engine) Seeds() [NumberOfRotors]int64 {
	return e.seeds
}

// State is a snapshot of the moving parts of an Engine.
type State struct {
	Index  int
	Steps  [NumberOfRotors]int
	Tables [NumberOfRotors]permutator.Permutation
}

// State returns a snapshot of the Engine's rotors.
func (e *Engine) State() State {
	s := State{Index: e.index}

	for i, r := range e.rotors {
		s.Steps[i] = r.Steps()
		s.Tables[i] = r.Table()
	}

	return s
}

func (e *Engine) String() string {
	var output bytes.Buffer
	output.WriteString(fmt.Sprintf("enigma.New(%d, WithRotorSeeds(%d, %d)) index: %d\n",
		e.seeds[0], e.seeds[1], e.seeds[2], e.index))
	output.WriteString(e.plugboard.String())

	for _, r := range e.rotors {
		output.WriteString(r.String())
	}

	output.WriteString(e.reflector.String())
	return output.String()
}

// Normalize lower-cases text so that letters fall into the alphabet.  It does
// not remove any other symbol.
func Normalize(text string) string {
	return strings.ToLower(text)
}
