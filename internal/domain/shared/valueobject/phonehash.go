package valueobject

import (
	"encoding/hex"
	"errors"
	"strings"
)

// PhoneHash is the opaque unique customer identity key. The hash is
// computed by the telecom operator before it reaches this core; the
// engine never sees a clear phone number.
type PhoneHash string

// NewPhoneHash builds a PhoneHash from the operator-supplied raw bytes
func NewPhoneHash(raw []byte) PhoneHash {
	return PhoneHash(hex.EncodeToString(raw))
}

// ParsePhoneHash validates and normalizes a hex-encoded phone hash
func ParsePhoneHash(s string) (PhoneHash, error) {
	s = strings.ToLower(strings.TrimPrefix(s, "0x"))
	if s == "" {
		return "", errors.New("phone hash cannot be empty")
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", errors.New("phone hash must be hex encoded")
	}
	return PhoneHash(s), nil
}

// String returns the hex representation
func (p PhoneHash) String() string {
	return string(p)
}

// IsZero reports whether the hash is unset
func (p PhoneHash) IsZero() bool {
	return p == ""
}
