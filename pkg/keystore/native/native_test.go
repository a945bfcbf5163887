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

package native

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeremyhahn/warp/pkg/keystore"
)

type testHome string

func (h testHome) Keys() string { return string(h) }

func TestNew(t *testing.T) {
	store, err := New(testHome(t.TempDir()), nil)
	if errors.Is(err, keystore.ErrNotSupported) {
		assert.Nil(t, store)
		return
	}
	if assert.NoError(t, err) {
		assert.Equal(t, keystore.DefaultStoreID, store.ID())
	}
}
