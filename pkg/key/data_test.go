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
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestData_RoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 14, 15, 9, 26, 535897932, time.UTC)

	tests := []struct {
		name string
		data *Data
	}{
		{name: "defaults", data: DefaultData(created)},
		{
			name: "without mac",
			data: &Data{
				KDF:        KDFHkdfSha3256,
				Encryption: EncryptionAesCtr128,
				MAC:        MACNone,
				Created:    created,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.data.MarshalBinary()
			require.NoError(t, err)

			got, err := UnmarshalData(b)
			require.NoError(t, err)
			assert.Equal(t, tt.data.KDF, got.KDF)
			assert.Equal(t, tt.data.Encryption, got.Encryption)
			assert.Equal(t, tt.data.MAC, got.MAC)
			assert.Equal(t, tt.data.HasMAC(), got.HasMAC())
			assert.True(t, tt.data.Created.Equal(got.Created))
		})
	}
}

func TestData_MarshalDeterministic(t *testing.T) {
	d := DefaultData(time.Unix(1700000000, 0))

	a, err := d.MarshalBinary()
	require.NoError(t, err)
	b, err := d.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestData_MACNoneOmitted(t *testing.T) {
	d := DefaultData(time.Unix(0, 0))
	withMAC, err := d.MarshalBinary()
	require.NoError(t, err)

	d.MAC = MACNone
	withoutMAC, err := d.MarshalBinary()
	require.NoError(t, err)

	assert.Less(t, len(withoutMAC), len(withMAC))

	var m map[int]any
	require.NoError(t, cbor.Unmarshal(withoutMAC, &m))
	assert.NotContains(t, m, 4)
}

func TestData_MarshalRejectsUnknownTags(t *testing.T) {
	d := DefaultData(time.Now())
	d.Encryption = Encryption(42)

	_, err := d.MarshalBinary()
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestUnmarshalData_Errors(t *testing.T) {
	encode := func(w wireData) []byte {
		b, err := cbor.Marshal(w)
		require.NoError(t, err)
		return b
	}
	valid := wireData{Version: dataVersion, KDF: 1, Encryption: 1, MAC: 1}

	unknownKDF := valid
	unknownKDF.KDF = 99
	unknownMAC := valid
	unknownMAC.MAC = 7
	zeroEncryption := valid
	zeroEncryption.Encryption = 0
	badVersion := valid
	badVersion.Version = 2

	tests := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{name: "empty", input: nil, wantErr: ErrInvalidData},
		{name: "garbage", input: []byte{0xff, 0x00, 0x13}, wantErr: ErrInvalidData},
		{name: "wrong type", input: encode(wireData{})[:1], wantErr: ErrInvalidData},
		{name: "unsupported version", input: encode(badVersion), wantErr: ErrInvalidData},
		{name: "unknown kdf", input: encode(unknownKDF), wantErr: ErrUnknownAlgorithm},
		{name: "unknown mac", input: encode(unknownMAC), wantErr: ErrUnknownAlgorithm},
		{name: "missing encryption", input: encode(zeroEncryption), wantErr: ErrUnknownAlgorithm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalData(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAlgorithmStrings(t *testing.T) {
	assert.Equal(t, "hkdf-sha3-256", KDFHkdfSha3256.String())
	assert.Equal(t, "aes-ctr-128", EncryptionAesCtr128.String())
	assert.Equal(t, "hmac-sha3-256", MACHmacSha3256.String())
	assert.Equal(t, "none", MACNone.String())
	assert.Equal(t, "kdf(9)", KDF(9).String())
}
