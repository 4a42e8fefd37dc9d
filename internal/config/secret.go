package config

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const base64Prefix = "base64:"

// Secret is a string setting that may be given base64 encoded.
// A value starting with "base64:" is decoded; anything else is used as is.
// This keeps keys and client secrets free of shell escaping problems:
//
//	IDENTITY_JWT_SECRET=plain-value
//	IDENTITY_JWT_SECRET=base64:cGxhaW4tdmFsdWU=
type Secret string

// UnmarshalText implements encoding.TextUnmarshaler for env parsing
func (s *Secret) UnmarshalText(text []byte) error {
	value := string(text)
	if !strings.HasPrefix(value, base64Prefix) {
		*s = Secret(value)
		return nil
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, base64Prefix))
	if err != nil {
		return fmt.Errorf("invalid base64 encoding: %w", err)
	}
	*s = Secret(decoded)
	return nil
}

// String returns the decoded value
func (s Secret) String() string {
	return string(s)
}
