// Package otp generates and verifies numeric one-time codes. Codes are only
// ever persisted as SHA-256 digests.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const (
	minLength = 4
	maxLength = 10
)

// Generator generates fixed-length numeric codes.
type Generator struct {
	length int
}

// NewGenerator clamps length into [4, 10].
func NewGenerator(length int) *Generator {
	if length < minLength {
		length = minLength
	}
	if length > maxLength {
		length = maxLength
	}
	return &Generator{length: length}
}

// Length is the number of digits produced.
func (g *Generator) Length() int {
	return g.length
}

// Generate returns a random numeric code padded with leading zeros.
func (g *Generator) Generate() (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(g.length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", g.length, n), nil
}

// Validate checks the code shape without comparing it to anything.
func (g *Generator) Validate(code string) bool {
	if len(code) != g.length {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Normalize strips spaces and dashes users paste from emails.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, " ", "")
	return strings.ReplaceAll(code, "-", "")
}

// Hash returns the hex SHA-256 digest stored in place of the code.
func Hash(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Matches compares a submitted code with a stored digest in constant time.
func Matches(code, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(code)), []byte(digest)) == 1
}
