package service

import (
	"crypto/rand"
	"math/big"
)

// accessCodeChars excludes visually ambiguous characters (0/O, 1/I/L) so
// codes survive being read aloud or retyped from an email.
const accessCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// AccessCodeLength is the fixed length of generated access codes.
// 32^12 candidate strings make collisions negligible, but uniqueness is
// still enforced at the storage layer, never assumed from entropy.
const AccessCodeLength = 12

// GenerateAccessCode produces a random access code from a cryptographically
// strong source. Codes gate account creation and must not be predictable.
func GenerateAccessCode() string {
	chars := []byte(accessCodeChars)
	code := make([]byte, AccessCodeLength)

	for i := 0; i < AccessCodeLength; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		code[i] = chars[n.Int64()]
	}

	return string(code)
}
