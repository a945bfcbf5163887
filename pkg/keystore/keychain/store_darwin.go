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

//go:build darwin && cgo

package keychain

/*
#include <CoreFoundation/CoreFoundation.h>
#include <Security/Security.h>
*/
import "C"

import (
	"iter"
	"time"

	"github.com/jeremyhahn/warp/pkg/key"
	"github.com/jeremyhahn/warp/pkg/keystore"
	"github.com/jeremyhahn/warp/pkg/logging"
)

// Store is a keystore on the user's data protection keychain.
type Store struct {
	id     string
	logger *logging.Logger
}

// New returns a keychain Store with the given id.
func New(id string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{
		id:     id,
		logger: logger.With("store", id, "item_type", fourCC(itemType)),
	}
}

// ID implements keystore.Keystore.
func (s *Store) ID() string {
	return s.id
}

// Generate implements keystore.Keystore. The keychain serializes
// concurrent adds across processes.
func (s *Store) Generate() (*key.Key, error) {
	return keystore.Generate(s.persist)
}

func (s *Store) persist(id key.ID, raw *[key.Size]byte, data *key.Data) (time.Time, error) {
	generic, err := data.MarshalBinary()
	if err != nil {
		return time.Time{}, err
	}

	attrs, err := newDict()
	if err != nil {
		return time.Time{}, err
	}
	defer attrs.Release()

	if err := s.fillBase(attrs); err != nil {
		return time.Time{}, err
	}

	values := []struct {
		attr C.CFStringRef
		make func() (*cfOwned, error)
	}{
		{C.kSecValueData, func() (*cfOwned, error) { return newData(raw[:]) }},
		{C.kSecAttrGeneric, func() (*cfOwned, error) { return newData(generic) }},
		{C.kSecAttrAccount, func() (*cfOwned, error) { return newString(id.String()) }},
		{C.kSecAttrLabel, func() (*cfOwned, error) { return newString(label) }},
		{C.kSecAttrDescription, func() (*cfOwned, error) { return newString(description) }},
		{C.kSecAttrAccessControl, newAccessControl},
	}
	for _, v := range values {
		owned, err := v.make()
		if err != nil {
			return time.Time{}, err
		}
		attrs.setOwned(C.CFTypeRef(v.attr), owned)
	}
	attrs.set(C.CFTypeRef(C.kSecReturnAttributes), C.CFTypeRef(C.kCFBooleanTrue))

	var result C.CFTypeRef
	status := C.SecItemAdd(attrs.dict(), &result)
	returned := own(result)
	defer returned.Release()

	if status != C.errSecSuccess {
		return time.Time{}, &statusError{op: "SecItemAdd", status: status}
	}

	var created time.Time
	withBorrowed(returned, func(item cfBorrowed) {
		created, _ = item.get(C.CFTypeRef(C.kSecAttrCreationDate)).date()
	})
	s.logger.Debug("keychain item added", "key", id)
	return created, nil
}

// fillBase sets the attributes shared by adds and queries.
func (s *Store) fillBase(d *cfDict) error {
	svc, err := newString(service)
	if err != nil {
		return err
	}
	typ, err := newSInt32(itemType)
	if err != nil {
		svc.Release()
		return err
	}

	d.set(C.CFTypeRef(C.kSecClass), C.CFTypeRef(C.kSecClassGenericPassword))
	d.setOwned(C.CFTypeRef(C.kSecAttrService), svc)
	d.setOwned(C.CFTypeRef(C.kSecAttrType), typ)
	d.set(C.CFTypeRef(C.kSecUseDataProtectionKeychain), C.CFTypeRef(C.kCFBooleanTrue))
	return nil
}

// List implements keystore.Keystore. Only attributes are fetched, so
// listing never triggers the user presence check that guards item data.
func (s *Store) List() iter.Seq2[*key.Key, error] {
	return listItems(s.each)
}

// each runs the query and calls fn with every item found.
func (s *Store) each(fn func(rawItem) bool) error {
	items, err := s.query()
	if err != nil {
		return err
	}
	defer items.Release()

	eachInArray(items, func(item cfBorrowed) bool {
		return fn(readItem(item))
	})
	return nil
}

// query returns the owned array of attribute dictionaries of every warp
// item. No matching item yields an empty owner.
func (s *Store) query() (*cfOwned, error) {
	q, err := newDict()
	if err != nil {
		return nil, err
	}
	defer q.Release()

	if err := s.fillBase(q); err != nil {
		return nil, err
	}
	q.set(C.CFTypeRef(C.kSecMatchLimit), C.CFTypeRef(C.kSecMatchLimitAll))
	q.set(C.CFTypeRef(C.kSecReturnAttributes), C.CFTypeRef(C.kCFBooleanTrue))

	var result C.CFTypeRef
	status := C.SecItemCopyMatching(q.dict(), &result)
	items := own(result)

	switch status {
	case C.errSecSuccess:
		return items, nil
	case C.errSecItemNotFound:
		items.Release()
		return own(0), nil
	default:
		items.Release()
		return nil, &statusError{op: "SecItemCopyMatching", status: status}
	}
}

func readItem(item cfBorrowed) rawItem {
	account, _ := item.get(C.CFTypeRef(C.kSecAttrAccount)).string()
	generic, _ := item.get(C.CFTypeRef(C.kSecAttrGeneric)).bytes()
	created, _ := item.get(C.CFTypeRef(C.kSecAttrCreationDate)).date()
	return rawItem{account: account, generic: generic, created: created}
}
