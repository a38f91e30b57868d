package classic

// TranspositionBlock is the number of symbols moved around as a unit.
const TranspositionBlock = 5

// TranspositionKeys are the built-in transposition keys, numbered from 1.
// Entry i of a key is the 1-based position in the plaintext block of the
// i-th ciphertext symbol.
var TranspositionKeys = [][TranspositionBlock]int{
	{3, 5, 2, 1, 4},
	{2, 4, 1, 5, 3},
	{5, 4, 3, 2, 1},
	{1, 2, 3, 4, 5},
}

func transpositionKey(keyNo int) ([TranspositionBlock]int, error) {
	if keyNo < 1 || keyNo > len(TranspositionKeys) {
		return [TranspositionBlock]int{}, ErrKeyNumber
	}

	return TranspositionKeys[keyNo-1], nil
}

// TranspositionEncrypt reorders every full block of text with key keyNo.  A
// trailing partial block is copied unchanged.
func TranspositionEncrypt(text string, keyNo int) (string, error) {
	key, err := transpositionKey(keyNo)
	if err != nil {
		return "", err
	}

	return transpose(text, func(block []rune) []rune {
		out := make([]rune, TranspositionBlock)
		for i, loc := range key {
			out[i] = block[loc-1]
		}
		return out
	}), nil
}

// TranspositionDecrypt undoes TranspositionEncrypt.
func TranspositionDecrypt(text string, keyNo int) (string, error) {
	key, err := transpositionKey(keyNo)
	if err != nil {
		return "", err
	}

	return transpose(text, func(block []rune) []rune {
		out := make([]rune, TranspositionBlock)
		for i, loc := range key {
			out[loc-1] = block[i]
		}
		return out
	}), nil
}

func transpose(text string, f func([]rune) []rune) string {
	runes := []rune(text)
	out := make([]rune, 0, len(runes))

	for start := 0; start < len(runes); start += TranspositionBlock {
		end := start + TranspositionBlock
		if end > len(runes) {
			out = append(out, runes[start:]...)
			break
		}

		out = append(out, f(runes[start:end])...)
	}

	return string(out)
}
