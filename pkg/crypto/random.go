package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"math/big"
)

const lowercaseAlphabet = "abcdefghijklmnopqrstuvwxyz"

// GenerateToken returns length random bytes encoded as unpadded URL-safe base64.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("crypto: length must be positive")
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RandomLowercase returns n characters drawn uniformly from a-z. Event short
// codes use it.
func RandomLowercase(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("crypto: length must be positive")
	}
	alphabet := big.NewInt(int64(len(lowercaseAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			return "", err
		}
		out[i] = lowercaseAlphabet[idx.Int64()]
	}
	return string(out), nil
}
