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

package keyfile

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	saltSize = 16

	// Upper bounds accepted when reading parameters back from disk.
	maxArgon2Time   = 64
	maxArgon2Memory = 4 * 1024 * 1024
)

// Argon2Params are the Argon2id cost parameters used to derive the sealing
// key. They are stored with every sealed payload, so changing them only
// affects newly generated keys.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultArgon2Params returns the cost parameters for new keys.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:    2,
		Memory:  64 * 1024,
		Threads: 1,
	}
}

// paramsLen is the encoded size of Argon2Params.
const paramsLen = 4 + 4 + 1

func (p Argon2Params) append(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, p.Time)
	b = binary.BigEndian.AppendUint32(b, p.Memory)
	return append(b, p.Threads)
}

func parseArgon2Params(b []byte) Argon2Params {
	return Argon2Params{
		Time:    binary.BigEndian.Uint32(b[0:4]),
		Memory:  binary.BigEndian.Uint32(b[4:8]),
		Threads: b[8],
	}
}

func (p Argon2Params) validate() error {
	if p.Time == 0 || p.Time > maxArgon2Time ||
		p.Threads == 0 || p.Memory < 8*uint32(p.Threads) || p.Memory > maxArgon2Memory {
		return fmt.Errorf("keyfile: invalid argon2 parameters %+v", p)
	}
	return nil
}

// PassphraseProtector seals key material with XChaCha20-Poly1305 under a
// key derived from a passphrase with Argon2id. Each payload carries its own
// salt and nonce:
//
//	params [9]byte | salt [16]byte | nonce [24]byte | ciphertext+tag
//
// The params prefix and the caller's entropy are authenticated as
// additional data.
type PassphraseProtector struct {
	passphrase []byte
	params     Argon2Params
}

// NewPassphraseProtector returns a protector for passphrase. The passphrase
// is copied.
func NewPassphraseProtector(passphrase []byte, params Argon2Params) (*PassphraseProtector, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("keyfile: empty passphrase")
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &PassphraseProtector{
		passphrase: append([]byte(nil), passphrase...),
		params:     params,
	}, nil
}

// Name implements Protector.
func (p *PassphraseProtector) Name() string {
	return "passphrase"
}

// Protect implements Protector.
func (p *PassphraseProtector) Protect(plain, entropy []byte) ([]byte, error) {
	out := make([]byte, 0, paramsLen+saltSize+chacha20poly1305.NonceSizeX+len(plain)+chacha20poly1305.Overhead)
	out = p.params.append(out)

	out = out[:paramsLen+saltSize+chacha20poly1305.NonceSizeX]
	salt := out[paramsLen : paramsLen+saltSize]
	nonce := out[paramsLen+saltSize:]
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("keyfile: salt: %w", err)
	}
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("keyfile: nonce: %w", err)
	}

	aead, err := p.aead(p.params, salt)
	if err != nil {
		return nil, err
	}

	ad := append(append([]byte(nil), out[:paramsLen]...), entropy...)
	return aead.Seal(out, nonce, plain, ad), nil
}

// Unprotect implements Protector.
func (p *PassphraseProtector) Unprotect(sealed, entropy []byte) ([]byte, error) {
	if len(sealed) < paramsLen+saltSize+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("%w: payload too short", ErrUnprotectFailed)
	}

	params := parseArgon2Params(sealed[:paramsLen])
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnprotectFailed, err)
	}
	salt := sealed[paramsLen : paramsLen+saltSize]
	nonce := sealed[paramsLen+saltSize : paramsLen+saltSize+chacha20poly1305.NonceSizeX]
	ciphertext := sealed[paramsLen+saltSize+chacha20poly1305.NonceSizeX:]

	aead, err := p.aead(params, salt)
	if err != nil {
		return nil, err
	}

	ad := append(append([]byte(nil), sealed[:paramsLen]...), entropy...)
	plain, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, ErrUnprotectFailed
	}
	return plain, nil
}

func (p *PassphraseProtector) aead(params Argon2Params, salt []byte) (cipher.AEAD, error) {
	k := argon2.IDKey(p.passphrase, salt, params.Time, params.Memory, params.Threads, chacha20poly1305.KeySize)
	defer memguard.WipeBytes(k)

	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return nil, fmt.Errorf("keyfile: cipher: %w", err)
	}
	return aead, nil
}
