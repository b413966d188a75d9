package serialization

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
)

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum compares the checksum of data against want.
// Returns ErrChecksumMismatch if they don't match.
func VerifyChecksum(data []byte, want string) error {
	if got := Checksum(data); got != want {
		return errors.Wrapf(ErrChecksumMismatch, "got %s, want %s", got, want)
	}
	return nil
}
