// Package apikey defines the shape of issued credentials and how they are
// hashed for storage. Only the prefix and the hash are ever persisted.
package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// Scheme marks every credential this service issues.
	Scheme = "rvk_live_"
	// secretBytes of randomness give 320 bits of entropy.
	secretBytes = 40
	// PrefixLen is the stored lookup prefix: the scheme plus 7 secret chars.
	PrefixLen = len(Scheme) + 7
)

var (
	encoding = base64.RawURLEncoding
	// Length is the exact length of a well-formed credential.
	Length = len(Scheme) + encoding.EncodedLen(secretBytes)

	ErrMalformed = errors.New("malformed credential")
)

// Credential is a freshly generated key. Plaintext is shown to the caller once.
type Credential struct {
	Plaintext string
	Prefix    string
	Hash      string
}

func Generate() (Credential, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return Credential{}, fmt.Errorf("read random: %w", err)
	}
	plain := Scheme + encoding.EncodeToString(buf)
	return Credential{Plaintext: plain, Prefix: plain[:PrefixLen], Hash: Hash(plain)}, nil
}

// Prefix validates the shape of a presented credential and returns its lookup
// prefix. No I/O happens here, so garbage is rejected cheaply.
func Prefix(presented string) (string, error) {
	if len(presented) != Length || !strings.HasPrefix(presented, Scheme) {
		return "", ErrMalformed
	}
	for _, r := range presented[len(Scheme):] {
		if !isURLSafe(r) {
			return "", ErrMalformed
		}
	}
	return presented[:PrefixLen], nil
}

// Hash is the hex SHA-256 of the full credential.
func Hash(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}

// Verify compares the hash of presented against stored in constant time.
func Verify(presented, storedHash string) bool {
	computed := Hash(presented)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

func isURLSafe(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}
