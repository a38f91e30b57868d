package vault

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"regexp"
)

const (
	letterChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
	// PasswordChars are the characters generated passwords are drawn from.
	PasswordChars = letterChars + digitChars + symbolChars
	// MinPasswordLength is the shortest password that can pass Strong.
	MinPasswordLength = 4
	// MaxPasswordLength is the longest password Generate can produce, since
	// no character is used twice.
	MaxPasswordLength = len(PasswordChars)
	// maxAttempts bounds the number of candidates Generate draws.
	maxAttempts = 10000
)

var (
	strengthChecks = []*regexp.Regexp{
		regexp.MustCompile(`^[a-z]`),
		regexp.MustCompile(`[A-Z]`),
		regexp.MustCompile(`[a-z]`),
		regexp.MustCompile(`[0-9]`),
		regexp.MustCompile("[!-/:-@\\[-`{-~]"),
	}
)

// Strong reports whether pw starts with a lowercase letter and holds at least
// one upper case letter, one lowercase letter, one digit and one symbol.
func Strong(pw string) bool {
	for _, re := range strengthChecks {
		if !re.MatchString(pw) {
			return false
		}
	}
	return true
}

// GeneratePassword draws length distinct characters from PasswordChars until
// the result passes Strong.
func GeneratePassword(length int) (string, error) {
	return generatePassword(rand.Reader, length)
}

func generatePassword(rnd io.Reader, length int) (string, error) {
	if length < MinPasswordLength || length > MaxPasswordLength {
		return "", fmt.Errorf("password length must be between %d and %d: %d",
			MinPasswordLength, MaxPasswordLength, length)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		pw, err := sample(rnd, length)
		if err != nil {
			return "", err
		}
		if Strong(pw) {
			return pw, nil
		}
	}

	return "", fmt.Errorf("no strong password of length %d after %d attempts", length, maxAttempts)
}

// sample picks n distinct characters of PasswordChars in random order.
func sample(rnd io.Reader, n int) (string, error) {
	pool := []byte(PasswordChars)

	for i := 0; i < n; i++ {
		j, err := rand.Int(rnd, big.NewInt(int64(len(pool)-i)))
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		k := i + int(j.Int64())
		pool[i], pool[k] = pool[k], pool[i]
	}

	return string(pool[:n]), nil
}
