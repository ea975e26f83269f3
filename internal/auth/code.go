package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
)

// GenerateCode returns a uniformly random login code of exactly n decimal
// digits, zero padded ("000123"). The draw comes from crypto/rand over the
// full [0, 10^n) range.
func GenerateCode(n int) (string, error) {
	space := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, space)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v), nil
}

// HashCode returns the SHA-256 hex digest stored in place of the code.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// ValidCode reports whether code is exactly n decimal digits. Checked
// before hashing so malformed input never reaches the store.
func ValidCode(code string, n int) bool {
	if len(code) != n {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// NormalizeEmail lowercases and trims an email. Every lookup and insert
// goes through this first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
