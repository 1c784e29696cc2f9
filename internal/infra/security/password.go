package security

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrSecretRequired = errors.New("security: secret is required")

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrSecretRequired
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ResolveSecretHash returns hash when set, otherwise hashes plain. It is used
// once at startup to accept either ADMIN_PASSWORD_HASH or ADMIN_PASSWORD.
func (h BcryptHasher) ResolveSecretHash(hash, plain string) (string, error) {
	hash = strings.TrimSpace(hash)
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return "", err
		}
		return hash, nil
	}
	return h.Hash(plain)
}

func (h BcryptHasher) cost() int {
	if h.Cost >= bcrypt.MinCost {
		return h.Cost
	}
	return bcrypt.DefaultCost
}
