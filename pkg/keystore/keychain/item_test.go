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

package keychain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/warp/pkg/key"
	"github.com/jeremyhahn/warp/pkg/keystore"
)

func TestItemType(t *testing.T) {
	assert.Equal(t, "WFK1", fourCC(itemType))
	assert.Equal(t, int32(0x57464b31), itemType)
}

func TestAbsoluteTime(t *testing.T) {
	assert.Equal(t, time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), absoluteTime(0))
	assert.Equal(t, time.Date(2001, 1, 1, 0, 1, 0, 500000000, time.UTC), absoluteTime(60.5))
	assert.Equal(t, time.Date(2000, 12, 31, 23, 59, 59, 0, time.UTC), absoluteTime(-1))
}

func TestParseItem(t *testing.T) {
	var id key.ID
	id[15] = 7
	data := key.DefaultData(time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC))
	generic, err := data.MarshalBinary()
	require.NoError(t, err)

	keychainTime := absoluteTime(760000000)
	k, err := parseItem(id.String(), generic, keychainTime)
	require.NoError(t, err)
	assert.Equal(t, id, k.ID())
	assert.Equal(t, keychainTime, k.Created())

	k, err = parseItem(id.String(), generic, time.Time{})
	require.NoError(t, err)
	assert.True(t, data.Created.Equal(k.Created()))

	_, err = parseItem("not-an-id", generic, keychainTime)
	assert.ErrorIs(t, err, key.ErrInvalidID)

	_, err = parseItem(id.String(), []byte{0xff}, keychainTime)
	assert.ErrorIs(t, err, key.ErrInvalidData)
}

func testItem(t *testing.T, last byte) rawItem {
	t.Helper()
	var id key.ID
	id[15] = last
	generic, err := key.DefaultData(time.Now()).MarshalBinary()
	require.NoError(t, err)
	return rawItem{account: id.String(), generic: generic, created: absoluteTime(float64(last))}
}

func itemsQuery(items ...rawItem) func(func(rawItem) bool) error {
	return func(each func(rawItem) bool) error {
		for _, it := range items {
			if !each(it) {
				return nil
			}
		}
		return nil
	}
}

func TestListItems(t *testing.T) {
	a, b := testItem(t, 1), testItem(t, 2)

	keys, errs := keystore.Collect(listItems(itemsQuery(a, b)))
	assert.Empty(t, errs)
	require.Len(t, keys, 2)
	assert.Equal(t, a.account, keys[0].ID().String())
	assert.Equal(t, absoluteTime(2), keys[1].Created())
}

func TestListItems_CorruptAmongValid(t *testing.T) {
	tests := []struct {
		name    string
		item    rawItem
		wantErr error
	}{
		{"missing account", rawItem{generic: testItem(t, 9).generic}, key.ErrInvalidID},
		{"missing generic", rawItem{account: testItem(t, 9).account}, key.ErrInvalidData},
		{"garbage generic", rawItem{account: testItem(t, 9).account, generic: []byte{0xff}}, key.ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, errs := keystore.Collect(listItems(itemsQuery(testItem(t, 1), tt.item, testItem(t, 3))))
			assert.Len(t, keys, 2)
			require.Len(t, errs, 1)
			assert.ErrorIs(t, errs[0], keystore.ErrCorruptEntry)
			assert.ErrorIs(t, errs[0], tt.wantErr)
		})
	}
}

func TestListItems_QueryFailed(t *testing.T) {
	seq := listItems(func(func(rawItem) bool) error {
		return errors.New("keychain: SecItemCopyMatching: interaction not allowed (OSStatus -25308)")
	})

	keys, errs := keystore.Collect(seq)
	assert.Empty(t, keys)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], keystore.ErrQueryFailed)
}

func TestListItems_OneShot(t *testing.T) {
	seq := listItems(itemsQuery(testItem(t, 1)))

	first, _ := keystore.Collect(seq)
	second, _ := keystore.Collect(seq)
	assert.Len(t, first, 1)
	assert.Empty(t, second)
}

func TestListItems_StopsEarly(t *testing.T) {
	calls := 0
	seq := listItems(func(each func(rawItem) bool) error {
		for _, it := range []rawItem{testItem(t, 1), testItem(t, 2), testItem(t, 3)} {
			calls++
			if !each(it) {
				return nil
			}
		}
		return nil
	})

	for range seq {
		break
	}
	assert.Equal(t, 1, calls)
}
