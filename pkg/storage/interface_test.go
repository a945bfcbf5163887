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

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.NotNil(t, opts)
	assert.Equal(t, 0600, int(opts.Permissions))
	assert.False(t, opts.Exclusive)
}

func TestExclusiveOptions(t *testing.T) {
	opts := ExclusiveOptions()

	assert.Equal(t, 0600, int(opts.Permissions))
	assert.True(t, opts.Exclusive)

	// Each call returns a fresh value.
	opts.Exclusive = false
	assert.True(t, ExclusiveOptions().Exclusive)
}
