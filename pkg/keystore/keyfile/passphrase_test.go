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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testParams keep Argon2id cheap enough for unit tests.
var testParams = Argon2Params{Time: 1, Memory: 64, Threads: 1}

func newTestPassphrase(t *testing.T, pass string) *PassphraseProtector {
	t.Helper()
	p, err := NewPassphraseProtector([]byte(pass), testParams)
	require.NoError(t, err)
	return p
}

func TestPassphraseProtector_RoundTrip(t *testing.T) {
	p := newTestPassphrase(t, "correct horse")
	plain := bytes.Repeat([]byte{0x5a}, 16)
	entropy := []byte("header")

	sealed, err := p.Protect(plain, entropy)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), string(plain))

	got, err := p.Unprotect(sealed, entropy)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestPassphraseProtector_FreshSaltAndNonce(t *testing.T) {
	p := newTestPassphrase(t, "pw")
	plain := make([]byte, 16)

	a, err := p.Protect(plain, nil)
	require.NoError(t, err)
	b, err := p.Protect(plain, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPassphraseProtector_Failures(t *testing.T) {
	p := newTestPassphrase(t, "right")
	sealed, err := p.Protect(make([]byte, 16), []byte("ctx"))
	require.NoError(t, err)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0x01

	oddParams := append([]byte(nil), sealed...)
	oddParams[3]++ // time parameter, authenticated

	tests := []struct {
		name    string
		p       *PassphraseProtector
		sealed  []byte
		entropy []byte
	}{
		{"wrong passphrase", newTestPassphrase(t, "wrong"), sealed, []byte("ctx")},
		{"wrong entropy", p, sealed, []byte("other")},
		{"tampered ciphertext", p, tampered, []byte("ctx")},
		{"tampered params", p, oddParams, []byte("ctx")},
		{"too short", p, sealed[:20], []byte("ctx")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.Unprotect(tt.sealed, tt.entropy)
			assert.ErrorIs(t, err, ErrUnprotectFailed)
		})
	}
}

func TestPassphraseProtector_ParamsTravelWithPayload(t *testing.T) {
	old := newTestPassphrase(t, "pw")
	sealed, err := old.Protect([]byte("0123456789abcdef"), nil)
	require.NoError(t, err)

	stronger, err := NewPassphraseProtector([]byte("pw"), Argon2Params{Time: 2, Memory: 128, Threads: 1})
	require.NoError(t, err)

	got, err := stronger.Unprotect(sealed, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789abcdef"), got)
}

func TestNewPassphraseProtector_Invalid(t *testing.T) {
	_, err := NewPassphraseProtector(nil, testParams)
	assert.Error(t, err)

	_, err = NewPassphraseProtector([]byte("pw"), Argon2Params{})
	assert.Error(t, err)

	_, err = NewPassphraseProtector([]byte("pw"), Argon2Params{Time: 1, Memory: 1 << 30, Threads: 1})
	assert.Error(t, err)

	assert.NoError(t, DefaultArgon2Params().validate())
}
