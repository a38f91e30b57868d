package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 iteration count used for new vaults.
	DefaultIterations = 1000
	// DefaultKeySize is the AES key size (in bytes) used for new vaults.
	DefaultKeySize = 16
	// SaltSize is the size of the random salt generated for new vaults.
	SaltSize = 16
)

// Sealer encrypts entry passwords with AES-CBC under a key derived from the
// master password.  A sealed value is base64(IV || ciphertext), with the
// plaintext PKCS#7 padded to the AES block size.
type Sealer struct {
	block cipher.Block
	rand  io.Reader
}

// NewSealer derives the key with PBKDF2-HMAC-SHA256.  keySize must be 16, 24
// or 32.
func NewSealer(master string, salt []byte, iterations, keySize int) (*Sealer, error) {
	switch keySize {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrKeySize, keySize)
	}

	if iterations < 1 {
		return nil, fmt.Errorf("iterations must be positive: %d", iterations)
	}

	key := pbkdf2.Key([]byte(master), salt, iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	return &Sealer{block: block, rand: rand.Reader}, nil
}

// Seal encrypts plain under a fresh random IV.
func (s *Sealer) Seal(plain string) (string, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(s.rand, iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	data := pkcs7Pad([]byte(plain), aes.BlockSize)
	out := make([]byte, aes.BlockSize+len(data))
	copy(out, iv)
	cipher.NewCBCEncrypter(s.block, iv).CryptBlocks(out[aes.BlockSize:], data)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal.  A value that does not decode or
// unpad (usually a wrong key) yields ErrCorrupt.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if len(raw) < 2*aes.BlockSize || len(raw)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: bad length %d", ErrCorrupt, len(raw))
	}

	iv, data := raw[:aes.BlockSize], raw[aes.BlockSize:]
	plain := make([]byte, len(data))
	cipher.NewCBCDecrypter(s.block, iv).CryptBlocks(plain, data)

	plain, err = pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}

	return string(plain), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: bad padded length", ErrCorrupt)
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: bad padding", ErrCorrupt)
	}

	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrCorrupt)
		}
	}

	return data[:len(data)-n], nil
}
