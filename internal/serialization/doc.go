// Package serialization saves and loads model weights in the SafeTensors
// format:
//
//	[8 bytes: header size (uint64 LE)]
//	[header: JSON object]
//	[tensor data: raw little-endian bytes]
//
// The header maps each parameter name to its dtype, shape and byte range
// and carries string metadata under "__metadata__": the model name, its
// topology fingerprint, a run id, the build configuration and the SHA-256 of
// the data section.
//
// Weights are always float32 in memory. Files may store them as F32, F16 or
// BF16; reading converts back to float32.
//
// Example usage:
//
//	meta := serialization.NewMetadata(model.Name(), fingerprint, configJSON)
//	err := serialization.WriteFile("weights.safetensors", weights.StateDict(), tensor.Float16, meta.Map())
//
//	f, err := serialization.ReadFile("weights.safetensors")
//	if err := f.Metadata().CheckFingerprint(fingerprint); err != nil {
//	    return err
//	}
//	err = weights.Load(f.Tensors)
package serialization
