// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/hourglass/internal/serialization"
)

// Metadata identifies the model a weights file belongs to: its name,
// topology fingerprint, the id of the run that wrote it and the build
// configuration.
type Metadata = serialization.Metadata

// ErrFingerprintMismatch is returned when loading weights saved for a
// different topology.
var ErrFingerprintMismatch = serialization.ErrFingerprintMismatch
