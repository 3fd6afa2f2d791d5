package id

import (
	"math/rand/v2"
	"strings"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789" // 62 chars

// RandomBase62 returns a random string of length n over the 62-character alphabet.
// Characters are drawn independently and uniformly from the non-cryptographic source r.
func RandomBase62(r *rand.Rand, n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[r.IntN(len(alphabet))])
	}
	return b.String()
}

// Alphabet exposes the base62 alphabet.
func Alphabet() string { return alphabet }

// IsBase62 reports whether every byte of s is in the alphabet.
func IsBase62(s string) bool {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
