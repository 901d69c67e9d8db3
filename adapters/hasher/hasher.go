// Package hasher checks admin bearer tokens against their stored
// bcrypt hash, so configuration never carries the plaintext token.
package hasher

import (
	"github.com/artpar/prism/ports"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes admin tokens with bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a token hasher with the given cost. A cost outside
// the bcrypt range falls back to the library default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash derives the storable hash of a token, for auth.admin_token_hash.
func (h *Bcrypt) Hash(token string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(token), h.cost)
}

// Compare reports whether a presented token matches the stored hash.
func (h *Bcrypt) Compare(hash []byte, token string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(token)) == nil
}

var _ ports.Hasher = (*Bcrypt)(nil)

// Fake matches tokens by plain equality. Test use only.
type Fake struct{}

// Hash returns the token itself as its "hash".
func (Fake) Hash(token string) ([]byte, error) {
	return []byte(token), nil
}

// Compare checks plain equality.
func (Fake) Compare(hash []byte, token string) bool {
	return string(hash) == token
}

var _ ports.Hasher = Fake{}
