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
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// On-disk layout of a key file:
//
//	magic    [8]byte  "WARPKEY\n"
//	version  uint8
//	hdrLen   uint16   big endian
//	header   [hdrLen]byte  CBOR key.Data
//	payload  []byte        protected key material
//
// The header is passed to the Protector as entropy so that the metadata is
// bound to the material it describes.
const (
	fileMagic   = "WARPKEY\n"
	fileVersion = 1

	prefixLen = len(fileMagic) + 1 + 2
)

var (
	errBadMagic   = errors.New("not a warp key file")
	errTruncated  = errors.New("truncated key file")
	errBadVersion = errors.New("unsupported key file version")
)

// encodeFile assembles a key file from its header and protected payload.
func encodeFile(header, payload []byte) ([]byte, error) {
	if len(header) > math.MaxUint16 {
		return nil, fmt.Errorf("keyfile: header too large: %d bytes", len(header))
	}

	buf := make([]byte, 0, prefixLen+len(header)+len(payload))
	buf = append(buf, fileMagic...)
	buf = append(buf, fileVersion)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(header)))
	buf = append(buf, header...)
	buf = append(buf, payload...)
	return buf, nil
}

// decodeFile splits a key file into its header and payload. The returned
// slices alias b.
func decodeFile(b []byte) (header, payload []byte, err error) {
	if len(b) < prefixLen {
		if bytes.HasPrefix([]byte(fileMagic), b) {
			return nil, nil, errTruncated
		}
		return nil, nil, errBadMagic
	}
	if string(b[:len(fileMagic)]) != fileMagic {
		return nil, nil, errBadMagic
	}
	if v := b[len(fileMagic)]; v != fileVersion {
		return nil, nil, fmt.Errorf("%w: %d", errBadVersion, v)
	}

	n := int(binary.BigEndian.Uint16(b[len(fileMagic)+1:]))
	rest := b[prefixLen:]
	if len(rest) < n {
		return nil, nil, errTruncated
	}
	header, payload = rest[:n], rest[n:]
	if len(payload) == 0 {
		return nil, nil, errTruncated
	}
	return header, payload, nil
}
