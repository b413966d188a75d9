package serialization

import (
	"errors"
	"testing"
)

// TestChecksum verifies SHA-256 checksum computation.
func TestChecksum(t *testing.T) {
	data := []byte("test data")
	if Checksum(data) != Checksum(data) {
		t.Error("Checksums should match for identical data")
	}
	if Checksum(data) == Checksum([]byte("different data")) {
		t.Error("Checksums should differ for different data")
	}
	if len(Checksum(data)) != 64 {
		t.Errorf("Expected 64 hex characters, got %d", len(Checksum(data)))
	}
}

// TestKnownVectorSHA256 checks the empty-input test vector.
func TestKnownVectorSHA256(t *testing.T) {
	const want = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Checksum(nil); got != want {
		t.Errorf("Checksum(nil) = %s, want %s", got, want)
	}
}

// TestVerifyChecksum verifies mismatch detection.
func TestVerifyChecksum(t *testing.T) {
	data := []byte("weights")
	if err := VerifyChecksum(data, Checksum(data)); err != nil {
		t.Errorf("Expected match, got %v", err)
	}
	if err := VerifyChecksum(data, Checksum([]byte("other"))); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got %v", err)
	}
}
