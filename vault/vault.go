// Package vault keeps account passwords in a local bbolt file.  Passwords are
// sealed with AES-CBC under a key derived from the master password with
// PBKDF2; the other fields of an entry are stored in the clear.
package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Meta keys
const (
	metaSalt       = "salt"
	metaVerifier   = "verifier"
	metaIterations = "iterations"
	metaKeySize    = "keysize"
)

// Vault is an open password vault.  It must be unlocked with the master
// password before passwords can be sealed or opened.
type Vault struct {
	store      *store
	sealer     *Sealer
	log        zerolog.Logger
	iterations int
	keySize    int
	rand       io.Reader
}

// Option configures a Vault.
type Option func(*Vault)

// WithLogger sets the logger used for vault events.  The default discards
// everything.
func WithLogger(l zerolog.Logger) Option {
	return func(v *Vault) {
		v.log = l
	}
}

// WithIterations sets the PBKDF2 iteration count used by Init.
func WithIterations(n int) Option {
	return func(v *Vault) {
		v.iterations = n
	}
}

// WithKeySize sets the AES key size used by Init.
func WithKeySize(n int) Option {
	return func(v *Vault) {
		v.keySize = n
	}
}

// Open opens the vault file at path, creating it if needed.  The vault is
// returned locked.
func Open(path string, opts ...Option) (*Vault, error) {
	v := &Vault{
		log:        zerolog.Nop(),
		iterations: DefaultIterations,
		keySize:    DefaultKeySize,
		rand:       rand.Reader,
	}

	for _, opt := range opts {
		opt(v)
	}

	s, err := openStore(path)
	if err != nil {
		return nil, err
	}

	v.store = s
	v.log.Debug().Str("path", path).Msg("vault opened")
	return v, nil
}

// Close closes the vault file.
func (v *Vault) Close() error {
	v.sealer = nil
	return v.store.close()
}

// Initialized reports whether a master password has been set.
func (v *Vault) Initialized() (bool, error) {
	verifier, err := v.store.get(bucketMeta, metaVerifier)
	return verifier != nil, err
}

// Init sets the master password of a new vault and unlocks it.
func (v *Vault) Init(master string) error {
	ok, err := v.Initialized()
	if err != nil {
		return err
	}
	if ok {
		return ErrInitialized
	}

	if master == "" {
		return fmt.Errorf("%w: empty master password", ErrBadPassword)
	}

	if _, err := NewSealer(master, nil, v.iterations, v.keySize); err != nil {
		return err
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(v.rand, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	err = v.store.setAll(bucketMeta, map[string][]byte{
		metaSalt:       salt,
		metaVerifier:   []byte(verifier(master)),
		metaIterations: []byte(strconv.Itoa(v.iterations)),
		metaKeySize:    []byte(strconv.Itoa(v.keySize)),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize vault: %w", err)
	}

	v.log.Info().Int("iterations", v.iterations).Int("keysize", v.keySize).Msg("vault initialized")
	return v.Unlock(master)
}

// Unlock checks the master password and derives the sealing key.
func (v *Vault) Unlock(master string) error {
	meta, err := v.meta()
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(verifier(master)), []byte(meta.verifier)) != 1 {
		v.log.Warn().Msg("master password rejected")
		return ErrBadPassword
	}

	sealer, err := NewSealer(master, meta.salt, meta.iterations, meta.keySize)
	if err != nil {
		return err
	}

	sealer.rand = v.rand
	v.sealer = sealer
	v.log.Debug().Msg("vault unlocked")
	return nil
}

type metadata struct {
	salt       []byte
	verifier   string
	iterations int
	keySize    int
}

func (v *Vault) meta() (metadata, error) {
	var m metadata
	raw := make(map[string][]byte, 4)

	for _, k := range []string{metaSalt, metaVerifier, metaIterations, metaKeySize} {
		val, err := v.store.get(bucketMeta, k)
		if err != nil {
			return m, err
		}
		if val == nil {
			return m, ErrNotInitialized
		}
		raw[k] = val
	}

	var err error
	m.salt = raw[metaSalt]
	m.verifier = string(raw[metaVerifier])
	if m.iterations, err = strconv.Atoi(string(raw[metaIterations])); err != nil {
		return m, fmt.Errorf("bad iteration count in vault: %w", err)
	}
	if m.keySize, err = strconv.Atoi(string(raw[metaKeySize])); err != nil {
		return m, fmt.Errorf("bad key size in vault: %w", err)
	}

	return m, nil
}

// verifier is the value stored to check the master password.
func verifier(master string) string {
	sum := sha256.Sum256([]byte(master))
	return hex.EncodeToString(sum[:])
}

func (v *Vault) unlocked() error {
	if v.sealer == nil {
		return ErrLocked
	}
	return nil
}

// Add stores a new entry.  e.Password is ignored; password is sealed in its
// place.
func (v *Vault) Add(e Entry, password string) error {
	if err := v.unlocked(); err != nil {
		return err
	}

	if err := e.Validate(); err != nil {
		return err
	}

	var existing Entry
	found, err := v.store.getJSON(bucketEntries, e.ID, &existing)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("%w: %s", ErrExists, e.ID)
	}

	if e.Password, err = v.sealer.Seal(password); err != nil {
		return err
	}

	if err := v.store.setJSON(bucketEntries, e.ID, e); err != nil {
		return fmt.Errorf("failed to store entry %s: %w", e.ID, err)
	}

	v.log.Info().Str("id", e.ID).Msg("entry added")
	return nil
}

// Display returns the entry stored under id with its password still sealed.
func (v *Vault) Display(id string) (Entry, error) {
	var e Entry
	found, err := v.store.getJSON(bucketEntries, id, &e)
	if err != nil {
		return e, err
	}
	if !found {
		return e, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// Get returns the entry stored under id and its decrypted password.
func (v *Vault) Get(id string) (Entry, string, error) {
	if err := v.unlocked(); err != nil {
		return Entry{}, "", err
	}

	e, err := v.Display(id)
	if err != nil {
		return e, "", err
	}

	pw, err := v.sealer.Open(e.Password)
	if err != nil {
		return e, "", fmt.Errorf("entry %s: %w", id, err)
	}

	v.log.Debug().Str("id", id).Msg("entry read")
	return e, pw, nil
}

// Edit updates the entry stored under id.  Empty fields of changes, and an
// empty password, keep the stored values.
func (v *Vault) Edit(id string, changes Entry, password string) error {
	if err := v.unlocked(); err != nil {
		return err
	}

	e, err := v.Display(id)
	if err != nil {
		return err
	}

	changes.Password = ""
	if password != "" {
		if changes.Password, err = v.sealer.Seal(password); err != nil {
			return err
		}
	}

	e = e.merge(changes)
	if err := e.Validate(); err != nil {
		return err
	}

	if err := v.store.setJSON(bucketEntries, id, e); err != nil {
		return fmt.Errorf("failed to store entry %s: %w", id, err)
	}

	v.log.Info().Str("id", id).Msg("entry edited")
	return nil
}

// Delete removes the entry stored under id.
func (v *Vault) Delete(id string) error {
	if err := v.unlocked(); err != nil {
		return err
	}

	found, err := v.store.remove(bucketEntries, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	v.log.Info().Str("id", id).Msg("entry removed")
	return nil
}

// List returns the IDs of all entries sorted without regard to case.
func (v *Vault) List() ([]string, error) {
	ids, err := v.store.keys(bucketEntries)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(ids, func(i, j int) bool {
		return strings.ToLower(ids[i]) < strings.ToLower(ids[j])
	})
	return ids, nil
}

// Generate creates a strong password of the given length, stores it in a new
// entry and returns it.
func (v *Vault) Generate(e Entry, length int) (string, error) {
	if err := v.unlocked(); err != nil {
		return "", err
	}

	pw, err := generatePassword(v.rand, length)
	if err != nil {
		return "", err
	}

	if err := v.Add(e, pw); err != nil {
		return "", err
	}

	return pw, nil
}
