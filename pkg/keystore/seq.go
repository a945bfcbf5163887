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

package keystore

import (
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/jeremyhahn/warp/pkg/key"
)

// Once wraps seq so that only the first range over it runs seq; later
// ranges yield nothing.
func Once(seq iter.Seq2[*key.Key, error]) iter.Seq2[*key.Key, error] {
	var used atomic.Bool
	return func(yield func(*key.Key, error) bool) {
		if used.Swap(true) {
			return
		}
		seq(yield)
	}
}

// Failed returns a one-shot sequence yielding a single ErrQueryFailed error
// wrapping cause.
func Failed(cause error) iter.Seq2[*key.Key, error] {
	return Once(func(yield func(*key.Key, error) bool) {
		yield(nil, QueryError(cause))
	})
}

// QueryError wraps cause with ErrQueryFailed.
func QueryError(cause error) error {
	return fmt.Errorf("%w: %w", ErrQueryFailed, cause)
}

// CorruptEntry wraps cause with ErrCorruptEntry, naming the entry.
func CorruptEntry(name string, cause error) error {
	return fmt.Errorf("%w %q: %w", ErrCorruptEntry, name, cause)
}

// Collect drains seq into its keys and errors.
func Collect(seq iter.Seq2[*key.Key, error]) ([]*key.Key, []error) {
	var keys []*key.Key
	var errs []error
	for k, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		keys = append(keys, k)
	}
	return keys, errs
}
