// Package utils provides session token issuance and password
// verification helpers shared by the auth handlers.
package utils

import "golang.org/x/crypto/bcrypt"

// VerifyPassword reports whether the plain password matches the stored
// bcrypt hash. Comparison time does not depend on where a mismatch
// occurs.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
