// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package club

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// HashPassword returns the hex SHA-256 digest of the trimmed password, the
// format stored in the password_hash column.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(password)))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword reports whether password matches hash.
func VerifyPassword(password, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashPassword(password)), []byte(strings.TrimSpace(hash))) == 1
}
