package vault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned when an entry does not exist.
	ErrNotFound = errors.New("entry not found")
	// ErrExists is returned when adding an entry whose ID is already taken.
	ErrExists = errors.New("entry already exists")
	// ErrBadPassword is returned when the master password does not match.
	ErrBadPassword = errors.New("invalid master password")
	// ErrNotInitialized is returned when the vault has no master password yet.
	ErrNotInitialized = errors.New("vault is not initialized")
	// ErrInitialized is returned by Init and Import on a vault already in use.
	ErrInitialized = errors.New("vault is already initialized")
	// ErrNotEmpty is returned by Import on a vault that already holds entries.
	ErrNotEmpty = errors.New("vault already holds entries")
	// ErrLocked is returned by operations that need Unlock to be called first.
	ErrLocked = errors.New("vault is locked")
	// ErrCorrupt is returned when a sealed value cannot be opened.
	ErrCorrupt = errors.New("sealed value is corrupt")
	// ErrKeySize is returned for an AES key size other than 16, 24 or 32.
	ErrKeySize = errors.New("invalid key size")
	// ErrInvalidEntry is returned when an entry fails validation.
	ErrInvalidEntry = errors.New("invalid entry")
)

// Entry is one account kept in the vault.  Password always holds the sealed
// form of the password.
type Entry struct {
	ID       string `json:"id" yaml:"id" validate:"required,max=128"`
	User     string `json:"user" yaml:"user" validate:"max=256"`
	Password string `json:"password" yaml:"password"`
	URL      string `json:"url" yaml:"url" validate:"omitempty,url"`
	Note     string `json:"note" yaml:"note" validate:"max=4096"`
}

var validate = validator.New()

// Validate checks the entry's fields.  The error wraps ErrInvalidEntry and
// names the failing fields.
func (e Entry) Validate() error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}

	return fmt.Errorf("%w: %s", ErrInvalidEntry, strings.Join(fields, ", "))
}

// merge returns e with every non-empty field of changes applied.
func (e Entry) merge(changes Entry) Entry {
	if changes.User != "" {
		e.User = changes.User
	}
	if changes.Password != "" {
		e.Password = changes.Password
	}
	if changes.URL != "" {
		e.URL = changes.URL
	}
	if changes.Note != "" {
		e.Note = changes.Note
	}
	return e
}
