package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomHex returns a hex string of the given length, from crypto/rand.
func RandomHex(length int) string {
	bytes := make([]byte, (length+1)/2)
	_, err := rand.Read(bytes)
	if err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}
