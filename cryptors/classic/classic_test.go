package classic

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaesar(t *testing.T) {
	tests := []struct {
		text string
		key  int
		want string
	}{
		{"Hello, World 2024!", 3, "Khoor, Zruog 5357!"},
		{"xyz XYZ 789", 5, "cde CDE 234"},
		{"abc", 27, "bcd"},
		{"abc", -1, "zab"},
		{"", 4, ""},
	}

	for _, tc := range tests {
		got := CaesarEncrypt(tc.text, tc.key)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.text, CaesarDecrypt(got, tc.key))
	}
}

func TestCaesarAnalyze(t *testing.T) {
	candidates := CaesarAnalyze("Khoor")
	require.Len(t, candidates, 25)
	assert.Equal(t, "Jgnnq", candidates[0])
	assert.Equal(t, "Hello", candidates[2])
}

func TestVigenere(t *testing.T) {
	got, err := VigenereEncrypt("Attack at dawn 1984!", "lemon")
	require.NoError(t, err)
	assert.Equal(t, "Lxfopv mh oeib 2308!", got)

	back, err := VigenereDecrypt(got, "LEMON")
	require.NoError(t, err)
	assert.Equal(t, "Attack at dawn 1984!", back)

	got, err = VigenereEncrypt("hello", "Key")
	require.NoError(t, err)
	assert.Equal(t, "rijvs", got)
}

func TestVigenereKeyErrors(t *testing.T) {
	_, err := VigenereEncrypt("hello", "")
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, err = VigenereDecrypt("hello", "k3y")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSubstitution(t *testing.T) {
	tests := []struct {
		keyNo int
		want  string
	}{
		{1, "GUZZQ PQMZH"},
		{2, "TBIIY AYFIU"},
	}

	for _, tc := range tests {
		got, err := SubstitutionEncrypt("hello world", tc.keyNo)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)

		back, err := SubstitutionDecrypt(got, tc.keyNo)
		require.NoError(t, err)
		assert.Equal(t, "hello world", back)
	}

	_, err := SubstitutionEncrypt("x", 0)
	assert.ErrorIs(t, err, ErrKeyNumber)
	_, err = SubstitutionDecrypt("x", 3)
	assert.ErrorIs(t, err, ErrKeyNumber)
}

func TestTransposition(t *testing.T) {
	tests := []struct {
		text  string
		keyNo int
		want  string
	}{
		{"abcdefghijkl", 1, "cebadhjgfikl"},
		{"hello world", 2, "elholwr lod"},
		{"hello world", 3, "ollehlrow d"},
		{"hello world", 4, "hello world"},
		{"abc", 1, "abc"},
	}

	for _, tc := range tests {
		got, err := TranspositionEncrypt(tc.text, tc.keyNo)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)

		back, err := TranspositionDecrypt(got, tc.keyNo)
		require.NoError(t, err)
		assert.Equal(t, tc.text, back)
	}

	_, err := TranspositionEncrypt("x", 5)
	assert.ErrorIs(t, err, ErrKeyNumber)
}

func TestRoundTripProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("caesar round trip", prop.ForAll(
		func(text string, key int) bool {
			return CaesarDecrypt(CaesarEncrypt(text, key), key) == text
		},
		gen.Identifier(), gen.IntRange(-1000, 1000),
	))

	properties.Property("vigenere round trip", prop.ForAll(
		func(text, key string) bool {
			if key == "" {
				return true
			}
			enc, err := VigenereEncrypt(text, key)
			if err != nil {
				return false
			}
			dec, err := VigenereDecrypt(enc, key)
			return err == nil && dec == text
		},
		gen.Identifier(), gen.AlphaString(),
	))

	properties.Property("transposition round trip", prop.ForAll(
		func(text string, keyNo int) bool {
			enc, err := TranspositionEncrypt(text, keyNo)
			if err != nil {
				return false
			}
			dec, err := TranspositionDecrypt(enc, keyNo)
			return err == nil && dec == text
		},
		gen.AlphaString(), gen.IntRange(1, len(TranspositionKeys)),
	))

	properties.TestingRun(t)
}
