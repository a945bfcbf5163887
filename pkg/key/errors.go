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

import "errors"

var (
	// ErrInvalidID is returned when a string is not a well formed key ID.
	ErrInvalidID = errors.New("key: invalid key ID")

	// ErrInvalidData is returned when serialized key data is malformed or
	// uses an unsupported format version.
	ErrInvalidData = errors.New("key: invalid key data")

	// ErrUnknownAlgorithm is returned when key data carries an algorithm
	// tag this build does not recognize.
	ErrUnknownAlgorithm = errors.New("key: unknown algorithm")
)
