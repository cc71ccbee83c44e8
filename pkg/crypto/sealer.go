// Package crypto seals reference signatures at rest and generates the random
// codes and secrets the engine hands out.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// sealedPrefix versions the sealed format so the derivation can change later.
const sealedPrefix = "v1:"

// sealerSalt is fixed so a configured secret always derives the same key across restarts.
var sealerSalt = []byte("attendance.signature.v1")

var ErrMalformedSealed = errors.New("sealer: malformed sealed value")

// Argon2Parameters are the Argon2id cost factors used to derive the sealing key.
type Argon2Parameters struct {
	Time      uint32 // iterations
	Memory    uint32 // KiB
	Threads   uint8
	KeyLength uint32 // 16, 24 or 32 bytes, selecting AES-128/192/256
}

// DefaultArgon2Params are the production cost factors: 2 passes over 64 MiB.
func DefaultArgon2Params() Argon2Parameters {
	return Argon2Parameters{Time: 2, Memory: 64 * 1024, Threads: 4, KeyLength: 32}
}

func (p Argon2Parameters) validate() error {
	switch {
	case p.Time == 0:
		return errors.New("argon2: time cost must be greater than zero")
	case p.Threads == 0:
		return errors.New("argon2: parallelism must be greater than zero")
	case p.Memory < 8*uint32(p.Threads):
		return errors.New("argon2: memory cost must be at least 8 * threads")
	case p.KeyLength != 16 && p.KeyLength != 24 && p.KeyLength != 32:
		return fmt.Errorf("argon2: key length must be 16, 24, or 32 bytes (got %d)", p.KeyLength)
	}
	return nil
}

// Sealer encrypts reference signatures with AES-GCM under a key derived from
// an operator secret. It is safe for concurrent use.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the sealing key from secret. Derivation is deliberately
// slow, so build one Sealer per process.
func NewSealer(secret string, params Argon2Parameters) (*Sealer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("sealer: secret is required")
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	key := argon2.IDKey([]byte(secret), sealerSalt, params.Time, params.Memory, params.Threads, params.KeyLength)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("sealer: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("sealer: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext under a fresh nonce. Empty input stays empty.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("sealer: nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. A value sealed under another secret fails authentication.
func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	encoded, ok := strings.CutPrefix(sealed, sealedPrefix)
	if !ok {
		return "", ErrMalformedSealed
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) < s.aead.NonceSize() {
		return "", ErrMalformedSealed
	}

	nonce, body := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("sealer: open: %w", err)
	}
	return string(plain), nil
}
