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

// Package keychain implements a keystore on the macOS data protection
// keychain. Each key is a generic password item whose data is the key
// material and whose generic attribute carries the key metadata.
//
// The Store itself only builds with cgo on darwin; item naming and
// decoding live here so they are shared and testable everywhere.
package keychain

import (
	"fmt"
	"iter"
	"time"

	"github.com/jeremyhahn/warp/pkg/key"
	"github.com/jeremyhahn/warp/pkg/keystore"
)

// Item attributes.
const (
	service     = "sh.warpgate.warp"
	label       = "Warp File Key"
	description = "Key to encrypt Warp files"

	// itemType is the kSecAttrType FourCharCode 'WFK1' that marks warp
	// file key items and versions the item layout.
	itemType int32 = 'W'<<24 | 'F'<<16 | 'K'<<8 | '1'
)

// cfAbsoluteEpoch is 2001-01-01T00:00:00Z, the reference date of
// CFAbsoluteTime, in Unix seconds.
const cfAbsoluteEpoch = 978307200

// absoluteTime converts a CFAbsoluteTime to a UTC time.Time.
func absoluteTime(secs float64) time.Time {
	whole := int64(secs)
	frac := int64((secs - float64(whole)) * 1e9)
	return time.Unix(cfAbsoluteEpoch+whole, frac).UTC()
}

// fourCC renders a FourCharCode for diagnostics.
func fourCC(v int32) string {
	return string([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// parseItem rebuilds a key from an item's account and generic attribute.
// created is the keychain's own creation date and wins over the one in the
// metadata when set.
func parseItem(account string, generic []byte, created time.Time) (*key.Key, error) {
	id, err := key.ParseID(account)
	if err != nil {
		return nil, fmt.Errorf("account %q: %w", account, err)
	}

	data, err := key.UnmarshalData(generic)
	if err != nil {
		return nil, err
	}

	if created.IsZero() {
		created = data.Created
	}
	return key.New(id, created), nil
}

// rawItem holds the attributes of one keychain item as returned by a
// query. Missing attributes are left empty.
type rawItem struct {
	account string
	generic []byte
	created time.Time
}

// listItems turns a keychain query into a key listing. query calls each
// for every matching item and fails only when the query itself could not
// run.
func listItems(query func(each func(rawItem) bool) error) iter.Seq2[*key.Key, error] {
	return keystore.Once(func(yield func(*key.Key, error) bool) {
		err := query(func(item rawItem) bool {
			k, err := parseItem(item.account, item.generic, item.created)
			if err != nil {
				err = keystore.CorruptEntry(item.account, err)
			}
			return yield(k, err)
		})
		if err != nil {
			yield(nil, keystore.QueryError(err))
		}
	})
}
