package cryptors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlphabet(t *testing.T) {
	assert.Equal(t, 30, AlphabetSize)
	assert.Equal(t, 900, CycleSize)

	a := Alphabet()
	assert.Equal(t, Symbols, string(a[:]))
}

func TestIsValidSymbol(t *testing.T) {
	for _, r := range Symbols {
		assert.True(t, IsValidSymbol(r), "symbol %q", r)
	}

	for _, r := range "AZ!\n\t0é;" {
		assert.False(t, IsValidSymbol(r), "symbol %q", r)
	}
}

func TestIndexAndSymbol(t *testing.T) {
	for i, r := range []rune(Symbols) {
		idx, err := Index(r)
		require.NoError(t, err)
		assert.Equal(t, i, idx)
		assert.Equal(t, r, Symbol(i))
	}

	assert.Equal(t, ',', Symbol(-1))
	assert.Equal(t, 'a', Symbol(AlphabetSize))

	_, err := Index('Q')
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSymbol))

	var ise *InvalidSymbolError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 'Q', ise.Symbol)
	assert.Equal(t, -1, ise.Position)
	assert.Equal(t, `invalid symbol 'Q'`, err.Error())
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate([]rune("hello, world?")))
	require.NoError(t, Validate(nil))

	err := Validate([]rune("hello World"))
	require.ErrorIs(t, err, ErrInvalidSymbol)

	var ise *InvalidSymbolError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 'W', ise.Symbol)
	assert.Equal(t, 6, ise.Position)
	assert.Equal(t, `invalid symbol 'W' at position 6`, err.Error())
}
