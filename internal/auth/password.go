package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor: each step doubles the hashing
// time. 12 takes roughly a quarter of a second on current hardware, which
// is unnoticeable for one sign-up and expensive for anyone trying to crack
// a stolen table.
const defaultCost = 12

// PasswordService hashes the passwords typed into the sign-up form.
//
// WHY BCRYPT?
// bcrypt is slow on purpose, generates a random salt per hash and embeds
// both salt and cost in its output:
//
//	$2a$12$<22-char salt><31-char hash>
//	    ^^
//	    cost
//
// So the single string is all the accounts table needs. Fast hashes like
// SHA-256 would let a GPU test billions of guesses per second.
//
// Login never checks a password (every login yields the demo user), so
// only hashing lives here. Stored registrations keep the hash, never the
// plaintext.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost is for tests, where the default cost is slow.
// bcrypt.MinCost (4) keeps a test hash in the microseconds.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext.
//
// THE 72-BYTE LIMIT:
// bcrypt only looks at the first 72 bytes of its input. Two long passwords
// sharing a 72-byte prefix would hash identically, so longer passwords are
// rejected instead of silently truncated.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}
