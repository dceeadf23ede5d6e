package auth

import "crypto/sha256"

// MinKeyLength is the HS256 key size in bytes.
const MinKeyLength = 32

// SigningKey returns the HMAC key for secret. Secrets shorter than
// MinKeyLength are replaced by their SHA-256 digest so signing never fails.
func SigningKey(secret string) []byte {
	key := []byte(secret)
	if len(key) < MinKeyLength {
		sum := sha256.Sum256(key)
		return sum[:]
	}
	return key
}
