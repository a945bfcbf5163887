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

//go:build windows

package keyfile

import (
	"fmt"
	"unsafe"

	"github.com/awnumar/memguard"
	"golang.org/x/sys/windows"
)

// DPAPIProtector seals key material with the Windows Data Protection API,
// scoped to the current user's logon credentials. No user interface is
// ever shown.
type DPAPIProtector struct{}

// NewDPAPIProtector returns the user-scoped DPAPI protector.
func NewDPAPIProtector() *DPAPIProtector {
	return &DPAPIProtector{}
}

// Name implements Protector.
func (*DPAPIProtector) Name() string {
	return "dpapi"
}

// Protect implements Protector.
func (*DPAPIProtector) Protect(plain, entropy []byte) ([]byte, error) {
	var out windows.DataBlob
	err := windows.CryptProtectData(
		newBlob(plain),
		nil,
		newBlob(entropy),
		0,
		nil,
		windows.CRYPTPROTECT_UI_FORBIDDEN,
		&out,
	)
	if err != nil {
		return nil, fmt.Errorf("keyfile: CryptProtectData: %w", err)
	}
	return takeBlob(&out, false), nil
}

// Unprotect implements Protector.
func (*DPAPIProtector) Unprotect(sealed, entropy []byte) ([]byte, error) {
	var out windows.DataBlob
	err := windows.CryptUnprotectData(
		newBlob(sealed),
		nil,
		newBlob(entropy),
		0,
		nil,
		windows.CRYPTPROTECT_UI_FORBIDDEN,
		&out,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: CryptUnprotectData: %v", ErrUnprotectFailed, err)
	}
	return takeBlob(&out, true), nil
}

// newBlob points a DataBlob at b. The blob borrows b and is only valid
// while b is reachable.
func newBlob(b []byte) *windows.DataBlob {
	if len(b) == 0 {
		return nil
	}
	return &windows.DataBlob{
		Size: uint32(len(b)),
		Data: &b[0],
	}
}

// takeBlob copies a system-allocated output blob into Go memory and
// releases it with LocalFree exactly once. A secret blob is wiped before
// it is freed.
func takeBlob(blob *windows.DataBlob, secret bool) []byte {
	if blob.Data == nil {
		return nil
	}
	native := unsafe.Slice(blob.Data, blob.Size)
	out := make([]byte, len(native))
	copy(out, native)

	if secret {
		memguard.WipeBytes(native)
	}
	_, _ = windows.LocalFree(windows.Handle(unsafe.Pointer(blob.Data)))
	blob.Data = nil
	blob.Size = 0
	return out
}
