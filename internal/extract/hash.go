package extract

import (
	"crypto/sha256"
	"encoding/hex"
)

// contentHasher is the default crawl.Hasher: a lowercase hex SHA-256
// digest of the raw body, stored as the snapshot content hash. Two
// bodies produce the same snapshot hash iff their bytes are identical.
type contentHasher struct{}

func (contentHasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
