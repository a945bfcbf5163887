// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of warp.
//
// warp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package key

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// KDF identifies the key derivation algorithm used to derive per-file keys.
type KDF uint8

const (
	// KDFHkdfSha3256 is HKDF instantiated with SHA3-256.
	KDFHkdfSha3256 KDF = 1
)

// Valid reports whether the tag is known to this build.
func (k KDF) Valid() bool {
	switch k {
	case KDFHkdfSha3256:
		return true
	default:
		return false
	}
}

func (k KDF) String() string {
	switch k {
	case KDFHkdfSha3256:
		return "hkdf-sha3-256"
	default:
		return fmt.Sprintf("kdf(%d)", uint8(k))
	}
}

// Encryption identifies the cipher used to encrypt file contents.
type Encryption uint8

const (
	// EncryptionAesCtr128 is AES-128 in counter mode.
	EncryptionAesCtr128 Encryption = 1
)

// Valid reports whether the tag is known to this build.
func (e Encryption) Valid() bool {
	switch e {
	case EncryptionAesCtr128:
		return true
	default:
		return false
	}
}

func (e Encryption) String() string {
	switch e {
	case EncryptionAesCtr128:
		return "aes-ctr-128"
	default:
		return fmt.Sprintf("encryption(%d)", uint8(e))
	}
}

// MAC identifies the message authentication code used for file contents.
// MACNone means the key was generated without a MAC.
type MAC uint8

const (
	// MACNone records the absence of a MAC algorithm.
	MACNone MAC = 0

	// MACHmacSha3256 is HMAC instantiated with SHA3-256.
	MACHmacSha3256 MAC = 1
)

// Valid reports whether the tag is known to this build. MACNone is valid.
func (m MAC) Valid() bool {
	switch m {
	case MACNone, MACHmacSha3256:
		return true
	default:
		return false
	}
}

func (m MAC) String() string {
	switch m {
	case MACNone:
		return "none"
	case MACHmacSha3256:
		return "hmac-sha3-256"
	default:
		return fmt.Sprintf("mac(%d)", uint8(m))
	}
}

// Data is the per-key metadata a keystore persists next to the key
// material. It is not secret.
type Data struct {
	KDF        KDF
	Encryption Encryption
	MAC        MAC
	Created    time.Time
}

// DefaultData returns the metadata for a key generated now with the current
// default algorithms.
func DefaultData(created time.Time) *Data {
	return &Data{
		KDF:        KDFHkdfSha3256,
		Encryption: EncryptionAesCtr128,
		MAC:        MACHmacSha3256,
		Created:    created,
	}
}

// HasMAC reports whether a MAC algorithm is recorded.
func (d *Data) HasMAC() bool {
	return d.MAC != MACNone
}

// Validate checks that every algorithm tag is known.
func (d *Data) Validate() error {
	if !d.KDF.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownAlgorithm, d.KDF)
	}
	if !d.Encryption.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownAlgorithm, d.Encryption)
	}
	if !d.MAC.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownAlgorithm, d.MAC)
	}
	return nil
}

// dataVersion is the current serialization format of Data.
const dataVersion = 1

// wireData is the CBOR form of Data. Integer map keys keep the encoding
// compact enough for keychain attributes.
type wireData struct {
	Version    uint8 `cbor:"1,keyasint"`
	KDF        uint8 `cbor:"2,keyasint"`
	Encryption uint8 `cbor:"3,keyasint"`
	MAC        uint8 `cbor:"4,keyasint,omitempty"`
	Created    int64 `cbor:"5,keyasint"`
}

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("key: cbor encoder: %v", err))
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels: 4,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("key: cbor decoder: %v", err))
	}
	return dm
}

// MarshalBinary encodes the metadata in its deterministic CBOR form.
func (d *Data) MarshalBinary() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return encMode.Marshal(&wireData{
		Version:    dataVersion,
		KDF:        uint8(d.KDF),
		Encryption: uint8(d.Encryption),
		MAC:        uint8(d.MAC),
		Created:    d.Created.UnixNano(),
	})
}

// UnmarshalData decodes metadata written by MarshalBinary.
//
// Malformed input and unsupported format versions return ErrInvalidData;
// unrecognized algorithm tags return ErrUnknownAlgorithm.
func UnmarshalData(b []byte) (*Data, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidData)
	}

	var w wireData
	if err := decMode.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if w.Version != dataVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidData, w.Version)
	}

	d := &Data{
		KDF:        KDF(w.KDF),
		Encryption: Encryption(w.Encryption),
		MAC:        MAC(w.MAC),
		Created:    time.Unix(0, w.Created).UTC(),
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
