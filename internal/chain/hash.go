package chain

import "golang.org/x/crypto/blake2b"

// ProjectHash maps a project identifier to the fixed 32-byte hash the
// contract expects for its [u8;32] parameter. blake2b-256, so output size is
// independent of the identifier's length.
func ProjectHash(projectID string) [32]byte {
	return blake2b.Sum256([]byte(projectID))
}
