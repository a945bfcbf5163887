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
	"crypto/aes"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

const (
	// Size is the length of raw key material in bytes (AES-128).
	Size = 16

	// IDSize is the length of a key ID in bytes.
	IDSize = 16
)

// ID uniquely identifies a key within and across keystores.
type ID [IDSize]byte

// DeriveID computes the ID of the given key material.
//
// The key check value of raw is hashed with SHAKE-128 and the first IDSize
// bytes of output are returned. The same material always yields the same ID.
func DeriveID(raw *[Size]byte) ID {
	var zero [aes.BlockSize]byte
	kcv := encryptBlock(raw, &zero)

	var id ID
	sha3.ShakeSum128(id[:], kcv[:])
	return id
}

// encryptBlock encrypts a single block under raw with AES-128, no chaining.
func encryptBlock(raw *[Size]byte, in *[aes.BlockSize]byte) [aes.BlockSize]byte {
	block, err := aes.NewCipher(raw[:])
	if err != nil {
		// Only reachable with an invalid key length, which the array type rules out.
		panic(fmt.Sprintf("key: aes: %v", err))
	}

	var out [aes.BlockSize]byte
	block.Encrypt(out[:], in[:])
	return out
}

// ParseID parses the 32 character hex form of an ID.
func ParseID(s string) (ID, error) {
	var id ID
	if len(s) != hex.EncodedLen(IDSize) {
		return id, fmt.Errorf("%w: expected %d hex characters, got %d",
			ErrInvalidID, hex.EncodedLen(IDSize), len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return ID{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return id, nil
}

// String returns the lowercase hex form of the ID.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the ID is the zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
