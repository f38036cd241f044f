// Package token generates opaque alphanumeric tokens for sessions and
// one-time links.
package token

import (
	"crypto/rand"
	"fmt"
)

// Length of every session, confirmation and reset token.
const Length = 128

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// maxByte is the largest multiple of len(alphabet) that fits in a byte.
// Bytes at or above it are discarded to keep the distribution uniform.
const maxByte = 256 - (256 % len(alphabet))

// Generate returns length characters drawn uniformly from [A-Za-z0-9].
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("token: invalid length %d", length)
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("token: read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// HasValidLength reports whether t could have been issued by Generate(Length).
func HasValidLength(t string) bool {
	return len(t) == Length
}
