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

package keymgr

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned by Lookup for an id no store holds.
var ErrKeyNotFound = errors.New("keymgr: key not found")

// ListError is returned when a keystore cannot be fully enumerated while
// building the index.
type ListError struct {
	Store string
	Err   error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("couldn't list keys from '%s' store: %v", e.Store, e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}

// GenerateError is returned when a keystore fails to generate a key.
type GenerateError struct {
	Store string
	Err   error
}

func (e *GenerateError) Error() string {
	return fmt.Sprintf("couldn't generate a key in '%s' store: %v", e.Store, e.Err)
}

func (e *GenerateError) Unwrap() error {
	return e.Err
}
