package auth

import (
	"crypto/rand"
	"fmt"
)

// CodeLength is the length of generated access codes.
const CodeLength = 8

// CodeAlphabet is the symbol set access codes are drawn from.
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomCode returns a CodeLength-character code drawn uniformly from
// CodeAlphabet. Rejection sampling keeps the draw unbiased.
func randomCode() (string, error) {
	const limit = byte(len(CodeAlphabet) * (256 / len(CodeAlphabet))) // 252

	out := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength)
	for len(out) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, CodeAlphabet[int(b)%len(CodeAlphabet)])
			if len(out) == CodeLength {
				break
			}
		}
	}
	return string(out), nil
}
