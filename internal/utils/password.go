package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// PasswordHasher is the one-way credential capability used by the
// credential store.  Cost is fixed at construction.
type PasswordHasher struct {
	cost  int
	dummy []byte
}

// NewPasswordHasher returns a bcrypt hasher.  Costs outside bcrypt's
// accepted range fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// A throwaway hash of the same cost; comparing against it costs the
	// same as a real comparison.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("dummy-password"), cost)
	return &PasswordHasher{cost: cost, dummy: dummy}
}

// Hash returns the bcrypt hash of plain.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	return HashPassword(plain, h.cost)
}

// Verify reports whether plain matches hash.
func (h *PasswordHasher) Verify(hash, plain string) bool {
	return VerifyPassword(hash, plain)
}

// Burn runs a comparison that always fails.  Login calls it for unknown
// emails so that the response time does not reveal whether the account
// exists.
func (h *PasswordHasher) Burn(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
}
