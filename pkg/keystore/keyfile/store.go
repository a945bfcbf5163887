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

// Package keyfile implements a keystore that keeps one protected file per
// key. It is the native store on Windows, where key material is sealed with
// DPAPI, and backs the portable passphrase store everywhere.
package keyfile

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/awnumar/memguard"

	"github.com/jeremyhahn/warp/pkg/key"
	"github.com/jeremyhahn/warp/pkg/keystore"
	"github.com/jeremyhahn/warp/pkg/logging"
	"github.com/jeremyhahn/warp/pkg/storage"
)

// fileExt is appended to the id hex to form a key file name.
const fileExt = ".key"

// Store is a file-per-key keystore over a storage.Backend.
type Store struct {
	id        string
	backend   storage.Backend
	protector Protector
	logger    *logging.Logger
}

// New returns a Store with the given id that writes key files to backend,
// sealing material with protector.
func New(id string, backend storage.Backend, protector Protector, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{
		id:        id,
		backend:   backend,
		protector: protector,
		logger:    logger.With("store", id, "protector", protector.Name()),
	}
}

// ID implements keystore.Keystore.
func (s *Store) ID() string {
	return s.id
}

// Generate implements keystore.Keystore. Concurrent calls, including from
// other processes sharing the directory, never overwrite each other's files.
func (s *Store) Generate() (*key.Key, error) {
	k, err := keystore.Generate(s.persist)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("key file written", "key", k.ID())
	return k, nil
}

func (s *Store) persist(id key.ID, raw *[key.Size]byte, data *key.Data) (time.Time, error) {
	header, err := data.MarshalBinary()
	if err != nil {
		return time.Time{}, err
	}

	sealed, err := s.protector.Protect(raw[:], header)
	if err != nil {
		return time.Time{}, err
	}

	contents, err := encodeFile(header, sealed)
	if err != nil {
		return time.Time{}, err
	}

	if err := s.backend.Put(fileName(id), contents, storage.ExclusiveOptions()); err != nil {
		return time.Time{}, fmt.Errorf("keyfile: write %s: %w", fileName(id), err)
	}
	return data.Created, nil
}

// List implements keystore.Keystore.
func (s *Store) List() iter.Seq2[*key.Key, error] {
	return keystore.Once(func(yield func(*key.Key, error) bool) {
		names, err := s.backend.List("")
		if err != nil {
			yield(nil, keystore.QueryError(err))
			return
		}

		for _, name := range names {
			idHex, ok := strings.CutSuffix(name, fileExt)
			if !ok {
				s.logger.Debug("skipping foreign file", "name", name)
				continue
			}

			k, err := s.load(name, idHex)
			if errors.Is(err, storage.ErrNotFound) {
				// Removed since the listing was taken.
				continue
			}
			if err != nil {
				err = keystore.CorruptEntry(name, err)
			}
			if !yield(k, err) {
				return
			}
		}
	})
}

// load reads and verifies one key file.
func (s *Store) load(name, idHex string) (*key.Key, error) {
	id, err := key.ParseID(idHex)
	if err != nil {
		return nil, err
	}

	contents, err := s.backend.Get(name)
	if err != nil {
		return nil, err
	}

	header, payload, err := decodeFile(contents)
	if err != nil {
		return nil, err
	}

	data, err := key.UnmarshalData(header)
	if err != nil {
		return nil, err
	}

	plain, err := s.protector.Unprotect(payload, header)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(plain)

	if len(plain) != key.Size {
		return nil, fmt.Errorf("keyfile: key material is %d bytes, want %d", len(plain), key.Size)
	}

	var raw [key.Size]byte
	defer memguard.WipeBytes(raw[:])
	copy(raw[:], plain)

	if key.DeriveID(&raw) != id {
		return nil, keystore.ErrIDMismatch
	}
	return key.New(id, data.Created), nil
}

func fileName(id key.ID) string {
	return id.String() + fileExt
}
