package serialization

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Well-known metadata keys.
const (
	MetaFormat      = "format"
	MetaModel       = "model"
	MetaFingerprint = "fingerprint"
	MetaRunID       = "run_id"
	MetaConfig      = "config"
	MetaChecksum    = "sha256"
)

// FormatName is stored under MetaFormat in every file this package writes.
const FormatName = "hourglass"

// Metadata identifies the model a weights file belongs to.
type Metadata struct {
	Model       string // Model name
	Fingerprint string // Topology fingerprint of the model
	RunID       string // Unique id of the run that wrote the file
	Config      string // Build configuration, JSON encoded
}

// NewMetadata returns metadata for a fresh run.
func NewMetadata(model, fingerprint, config string) Metadata {
	return Metadata{
		Model:       model,
		Fingerprint: fingerprint,
		RunID:       uuid.New().String(),
		Config:      config,
	}
}

// Map returns the metadata as SafeTensors header entries.
func (m Metadata) Map() map[string]string {
	out := map[string]string{MetaFormat: FormatName}
	for k, v := range map[string]string{
		MetaModel:       m.Model,
		MetaFingerprint: m.Fingerprint,
		MetaRunID:       m.RunID,
		MetaConfig:      m.Config,
	} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// ParseMetadata extracts the well-known entries from header metadata.
func ParseMetadata(meta map[string]string) Metadata {
	return Metadata{
		Model:       meta[MetaModel],
		Fingerprint: meta[MetaFingerprint],
		RunID:       meta[MetaRunID],
		Config:      meta[MetaConfig],
	}
}

// CheckFingerprint returns ErrFingerprintMismatch when the metadata names a
// fingerprint different from want. Files without a fingerprint pass.
func (m Metadata) CheckFingerprint(want string) error {
	if m.Fingerprint == "" || m.Fingerprint == want {
		return nil
	}
	return errors.Wrapf(ErrFingerprintMismatch, "file %s, model %s", m.Fingerprint, want)
}
