package app

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Config keys of secrets that ApplyRuntimeDefaults can generate.
const (
	GeneratedJWTSecret    = "auth.jwt.secret"
	GeneratedSignatureKey = "attendance.signature_key"
)

type secretSpec struct {
	key    string
	size   int
	encode func([]byte) string
	field  func(*Config) *string
}

var runtimeSecrets = []secretSpec{
	{
		key:    GeneratedJWTSecret,
		size:   48,
		encode: base64.RawURLEncoding.EncodeToString,
		field:  func(c *Config) *string { return &c.Auth.JWT.Secret },
	},
	{
		key:    GeneratedSignatureKey,
		size:   32,
		encode: hex.EncodeToString,
		field:  func(c *Config) *string { return &c.Attendance.SignatureKey },
	},
}

// ApplyRuntimeDefaults fills blank secrets with random values and reports which
// keys it generated. Values are never logged.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	generated := make(map[string]bool, len(runtimeSecrets))
	for _, spec := range runtimeSecrets {
		target := spec.field(cfg)
		if strings.TrimSpace(*target) != "" {
			continue
		}
		buf := make([]byte, spec.size)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate %s: %w", spec.key, err)
		}
		*target = spec.encode(buf)
		generated[spec.key] = true
	}
	return generated, nil
}

// SecretField returns a pointer to the config value behind a generated key,
// or nil when key is not a runtime secret.
func (c *Config) SecretField(key string) *string {
	for _, spec := range runtimeSecrets {
		if spec.key == key {
			return spec.field(c)
		}
	}
	return nil
}
