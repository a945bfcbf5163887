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

// Package secretservice implements a keystore on top of the freedesktop.org
// Secret Service API (GNOME Keyring, KWallet) over the D-Bus session bus.
//
// Every operation opens its own secret session and closes it before
// returning, so a Store holds no secret session between calls.
package secretservice

import (
	"encoding/base64"
	"fmt"
	"iter"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jeremyhahn/warp/pkg/key"
	"github.com/jeremyhahn/warp/pkg/keystore"
	"github.com/jeremyhahn/warp/pkg/logging"
)

// Item attributes. The application attribute is what listing searches on.
const (
	attrApplication = "application"
	attrKeyID       = "warp-key-id"
	attrKeyData     = "warp-key-data"

	applicationName = "warp"
	itemLabel       = "Warp File Key"
	contentType     = "application/octet-stream"
)

// Store is a keystore backed by the user's login collection.
type Store struct {
	id     string
	dial   func() (session, error)
	logger *logging.Logger
}

// New returns a Store with the given id that keeps keys in the user's
// login collection.
func New(id string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{
		id:     id,
		dial:   dialBus,
		logger: logger.With("store", id),
	}
}

// ID implements keystore.Keystore.
func (s *Store) ID() string {
	return s.id
}

// Generate implements keystore.Keystore. The collection is unlocked first,
// which may prompt the user.
func (s *Store) Generate() (*key.Key, error) {
	return keystore.Generate(s.persist)
}

// withSession runs fn on a fresh session and closes it afterwards.
func (s *Store) withSession(fn func(sess session) error) error {
	sess, err := s.dial()
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.logger.Warn("closing secret session", "error", err)
		}
	}()

	if err := sess.Unlock(); err != nil {
		return err
	}
	return fn(sess)
}

func (s *Store) persist(id key.ID, raw *[key.Size]byte, data *key.Data) (time.Time, error) {
	attrs, err := itemAttributes(id, data)
	if err != nil {
		return time.Time{}, err
	}

	var created time.Time
	err = s.withSession(func(sess session) error {
		if err := sess.CreateItem(itemLabel, attrs, raw[:]); err != nil {
			return err
		}

		// CreateItem does not hand back the item path, so find it by id.
		t, err := itemCreated(sess, id)
		if err != nil {
			s.logger.Warn("item created without readable timestamp", "key", id, "error", err)
			return nil
		}
		created = t
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("secretservice: %w", err)
	}

	s.logger.Debug("secret item created", "key", id)
	return created, nil
}

// List implements keystore.Keystore.
func (s *Store) List() iter.Seq2[*key.Key, error] {
	return keystore.Once(func(yield func(*key.Key, error) bool) {
		err := s.withSession(func(sess session) error {
			paths, err := sess.SearchItems(map[string]string{attrApplication: applicationName})
			if err != nil {
				return err
			}

			for _, path := range paths {
				k, err := readKey(sess, path)
				if err != nil {
					err = keystore.CorruptEntry(string(path), err)
				}
				if !yield(k, err) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(nil, keystore.QueryError(fmt.Errorf("secretservice: %w", err)))
		}
	})
}

func readKey(sess session, path dbus.ObjectPath) (*key.Key, error) {
	v, err := sess.ItemProperty(path, "Attributes")
	if err != nil {
		return nil, err
	}
	attrs, ok := v.Value().(map[string]string)
	if !ok {
		return nil, fmt.Errorf("unexpected Attributes type %s", v.Signature())
	}

	created, err := itemTime(sess, path)
	if err != nil {
		return nil, err
	}
	return parseItem(attrs, created)
}

// itemCreated returns the service's creation time of the item holding id.
func itemCreated(sess session, id key.ID) (time.Time, error) {
	paths, err := sess.SearchItems(map[string]string{
		attrApplication: applicationName,
		attrKeyID:       id.String(),
	})
	if err != nil {
		return time.Time{}, err
	}
	if len(paths) != 1 {
		return time.Time{}, fmt.Errorf("found %d items for key %s", len(paths), id)
	}
	return itemTime(sess, paths[0])
}

// itemTime reads an item's Created property.
func itemTime(sess session, path dbus.ObjectPath) (time.Time, error) {
	v, err := sess.ItemProperty(path, "Created")
	if err != nil {
		return time.Time{}, err
	}
	secs, ok := v.Value().(uint64)
	if !ok {
		return time.Time{}, fmt.Errorf("unexpected Created type %s", v.Signature())
	}
	return time.Unix(int64(secs), 0).UTC(), nil
}

// itemAttributes returns the searchable attributes stored with a key.
func itemAttributes(id key.ID, data *key.Data) (map[string]string, error) {
	encoded, err := data.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return map[string]string{
		attrApplication: applicationName,
		attrKeyID:       id.String(),
		attrKeyData:     base64.RawStdEncoding.EncodeToString(encoded),
	}, nil
}

// parseItem rebuilds a key from an item's attributes. created is the
// service's own timestamp and wins over the one in the key data when set.
func parseItem(attrs map[string]string, created time.Time) (*key.Key, error) {
	id, err := key.ParseID(attrs[attrKeyID])
	if err != nil {
		return nil, err
	}

	raw, err := base64.RawStdEncoding.DecodeString(attrs[attrKeyData])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", key.ErrInvalidData, err)
	}
	data, err := key.UnmarshalData(raw)
	if err != nil {
		return nil, err
	}

	if created.IsZero() || created.Unix() == 0 {
		created = data.Created
	}
	return key.New(id, created), nil
}
