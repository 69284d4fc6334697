// Package cryptox derives password keys on the client and checks them on the
// server. The server never sees a password, only the verifier of the derived
// key.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// KeyLen is the length of keys returned by DeriveKey.
const KeyLen = 32

// DeriveKey stretches password with argon2id.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeyLen)
}

// MakeVerifier returns the value the server stores for a derived key.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// VerifierMatches reports whether key hashes to verifier, in constant time.
func VerifierMatches(key, verifier []byte) bool {
	return subtle.ConstantTimeCompare(MakeVerifier(key), verifier) == 1
}
