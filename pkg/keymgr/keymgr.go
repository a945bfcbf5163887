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

// Package keymgr owns the enabled keystores and an in-memory index of every
// key they hold.
//
// The index is a cache derived from the stores' own listings. It is built
// eagerly when a KeyMgr is created, grows as keys are generated and is
// rebuilt by Reload, which Lookup runs on a miss. Store calls never run
// under the index lock, so a store blocked on user interaction does not
// stall readers.
package keymgr

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jeremyhahn/warp/pkg/key"
	"github.com/jeremyhahn/warp/pkg/keystore"
	"github.com/jeremyhahn/warp/pkg/keystore/keyfile"
	"github.com/jeremyhahn/warp/pkg/keystore/native"
	"github.com/jeremyhahn/warp/pkg/logging"
	"github.com/jeremyhahn/warp/pkg/metrics"
	"github.com/jeremyhahn/warp/pkg/storage/file"
)

// PassphraseStoreID is the id of the optional passphrase-sealed store.
const PassphraseStoreID = "passphrase"

// Home locates the directories file-backed stores write to.
type Home interface {
	// Keys is where the native file-backed store keeps key files.
	Keys() string

	// Sealed is where the passphrase store keeps key files.
	Sealed() string
}

// Config selects the stores a KeyMgr enables.
type Config struct {
	// DefaultStorage enables the platform's native store.
	DefaultStorage bool

	// Passphrase, when non-empty, enables the passphrase store.
	Passphrase []byte

	// Argon2 overrides the passphrase store's cost parameters for new keys.
	Argon2 *keyfile.Argon2Params
}

type entry struct {
	key   *key.Key
	store string
}

// KeyMgr indexes the keys of a fixed set of keystores.
type KeyMgr struct {
	logger *logging.Logger
	stores map[string]keystore.Keystore

	mu   sync.RWMutex
	keys map[key.ID]entry
}

// New builds the stores enabled by cfg and loads their keys.
func New(home Home, cfg *Config, logger *logging.Logger) (*KeyMgr, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	var stores []keystore.Keystore
	if cfg.DefaultStorage {
		s, err := native.New(home, logger)
		if err != nil {
			return nil, fmt.Errorf("keymgr: %s store: %w", keystore.DefaultStoreID, err)
		}
		stores = append(stores, s)
	}

	if len(cfg.Passphrase) > 0 {
		params := keyfile.DefaultArgon2Params()
		if cfg.Argon2 != nil {
			params = *cfg.Argon2
		}
		protector, err := keyfile.NewPassphraseProtector(cfg.Passphrase, params)
		if err != nil {
			return nil, fmt.Errorf("keymgr: %s store: %w", PassphraseStoreID, err)
		}
		backend, err := file.New(home.Sealed())
		if err != nil {
			return nil, fmt.Errorf("keymgr: %s store: %w", PassphraseStoreID, err)
		}
		stores = append(stores, keyfile.New(PassphraseStoreID, backend, protector, logger))
	}

	return NewWithStores(logger, stores...)
}

// NewWithStores returns a KeyMgr over the given stores, loading every key
// they hold. Any listing error, including a single bad entry, fails the
// whole construction with a *ListError.
func NewWithStores(logger *logging.Logger, stores ...keystore.Keystore) (*KeyMgr, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	m := &KeyMgr{
		logger: logger,
		stores: make(map[string]keystore.Keystore, len(stores)),
	}
	for _, s := range stores {
		if _, dup := m.stores[s.ID()]; dup {
			return nil, fmt.Errorf("keymgr: duplicate store id %q", s.ID())
		}
		m.stores[s.ID()] = s
	}

	keys, err := m.load()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.keys = keys
	m.publishCountsLocked()
	m.mu.Unlock()
	return m, nil
}

// load lists every store into a fresh index.
func (m *KeyMgr) load() (map[key.ID]entry, error) {
	keys := make(map[key.ID]entry)
	for _, s := range m.Stores() {
		start := time.Now()
		count := 0
		var listErr error
		for k, err := range s.List() {
			if err != nil {
				listErr = err
				break
			}
			insert(keys, k, s.ID())
			count++
		}
		metrics.ObserveOperation(metrics.OpList, s.ID(), start, listErr)
		if listErr != nil {
			metrics.RecordError(metrics.OpList, s.ID(), errorType(listErr))
			return nil, &ListError{Store: s.ID(), Err: listErr}
		}
		m.logger.Debug("keystore listed", "store", s.ID(), "keys", count)
	}
	return keys, nil
}

// insert adds k to keys. Two stores claiming one id, or one store listing
// an id twice, breaks the index invariant and panics.
func insert(keys map[key.ID]entry, k *key.Key, store string) {
	if prev, dup := keys[k.ID()]; dup {
		panic(fmt.Sprintf("keymgr: key %s from store %q is already indexed from store %q",
			k.ID(), store, prev.store))
	}
	keys[k.ID()] = entry{key: k, store: store}
}

// HasKeys reports whether any key is indexed.
func (m *KeyMgr) HasKeys() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys) != 0
}

// Len returns the number of indexed keys.
func (m *KeyMgr) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}

// Stores returns the enabled stores sorted by id.
func (m *KeyMgr) Stores() []keystore.Keystore {
	out := make([]keystore.Keystore, 0, len(m.stores))
	for _, s := range m.stores {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b keystore.Keystore) int {
		return strings.Compare(a.ID(), b.ID())
	})
	return out
}

// Store returns the store with the given id.
func (m *KeyMgr) Store(id string) (keystore.Keystore, bool) {
	s, ok := m.stores[id]
	return s, ok
}

// Key returns the indexed key with the given id.
func (m *KeyMgr) Key(id key.ID) (*key.Key, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.keys[id]
	return e.key, ok
}

// StoreOf returns the id of the store holding the key with the given id.
func (m *KeyMgr) StoreOf(id key.ID) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.keys[id]
	return e.store, ok
}

// Keys returns a snapshot of the index ordered by creation time, then id.
func (m *KeyMgr) Keys() []*key.Key {
	m.mu.RLock()
	out := make([]*key.Key, 0, len(m.keys))
	for _, e := range m.keys {
		out = append(out, e.key)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *key.Key) int {
		if c := a.Created().Compare(b.Created()); c != 0 {
			return c
		}
		ida, idb := a.ID(), b.ID()
		return bytes.Compare(ida[:], idb[:])
	})
	return out
}

// ForEachKey calls fn for every indexed key, in no particular order, under
// the read lock. fn must not call back into m's writers. Iteration stops
// when fn returns false.
func (m *KeyMgr) ForEachKey(fn func(*key.Key) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.keys {
		if !fn(e.key) {
			return
		}
	}
}

// Generate creates a key in the store with the given id and indexes it.
// An unknown store id returns nil and no error.
func (m *KeyMgr) Generate(storeID string) (*key.Key, error) {
	s, ok := m.stores[storeID]
	if !ok {
		return nil, nil
	}

	start := time.Now()
	k, err := s.Generate()
	metrics.ObserveOperation(metrics.OpGenerate, storeID, start, err)
	if err != nil {
		metrics.RecordError(metrics.OpGenerate, storeID, errorType(err))
		return nil, &GenerateError{Store: storeID, Err: err}
	}

	m.mu.Lock()
	// A Reload that ran after the store persisted k has indexed it already.
	if prev, ok := m.keys[k.ID()]; !ok || prev.store != storeID {
		insert(m.keys, k, storeID)
	}
	m.publishCountsLocked()
	m.mu.Unlock()

	m.logger.Info("key generated", "store", storeID, "key", k.ID())
	return k, nil
}

// Reload rebuilds the index from the stores and replaces it atomically.
// On error the current index is kept.
func (m *KeyMgr) Reload() error {
	start := time.Now()
	keys, err := m.load()
	metrics.ObserveOperation(metrics.OpReload, "all", start, err)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.keys = keys
	m.publishCountsLocked()
	m.mu.Unlock()
	return nil
}

// Lookup returns the key with the given id and the store holding it. A key
// missing from the index triggers one Reload, so keys created by other
// processes since the index was built are found.
func (m *KeyMgr) Lookup(id key.ID) (*key.Key, string, error) {
	m.mu.RLock()
	e, ok := m.keys[id]
	m.mu.RUnlock()
	if ok {
		return e.key, e.store, nil
	}

	m.logger.Debug("key not indexed, reloading", "key", id)
	if err := m.Reload(); err != nil {
		return nil, "", err
	}

	m.mu.RLock()
	e, ok = m.keys[id]
	m.mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}
	return e.key, e.store, nil
}

// publishCountsLocked updates the per-store key gauge. The caller holds
// m.mu, so concurrent updates publish in index order.
func (m *KeyMgr) publishCountsLocked() {
	counts := make(map[string]int, len(m.stores))
	for id := range m.stores {
		counts[id] = 0
	}
	for _, e := range m.keys {
		counts[e.store]++
	}
	for id, n := range counts {
		metrics.SetKeysTotal(id, float64(n))
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, keystore.ErrQueryFailed):
		return "query_failed"
	case errors.Is(err, keystore.ErrIDMismatch):
		return "id_mismatch"
	case errors.Is(err, keystore.ErrCorruptEntry):
		return "corrupt_entry"
	case errors.Is(err, keystore.ErrRandomFailed):
		return "random_failed"
	case errors.Is(err, keystore.ErrPersistFailed):
		return "persist_failed"
	case errors.Is(err, os.ErrPermission):
		return "permission_denied"
	default:
		return "other"
	}
}
