// Package hash provides the one-way credential hashers used for passwords.
package hash

import (
	"fmt"
	"strings"

	"github.com/ourpoint/fisher-accounts/internal/core/ports"
)

const (
	KindBcrypt = "bcrypt"
	KindArgon2 = "argon2"
)

// New returns the hasher named by kind. bcryptCost is ignored for argon2.
func New(kind string, bcryptCost int) (ports.CredentialHasher, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindBcrypt:
		return NewBcryptHasher(bcryptCost), nil
	case KindArgon2:
		return NewArgon2Hasher(), nil
	default:
		return nil, fmt.Errorf("unknown hasher %q", kind)
	}
}
