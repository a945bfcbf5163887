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

// Package home locates warp's per-user application directory.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the name of the application directory under the user's home.
const DirName = ".warp"

// EnvHome overrides the application directory when set.
const EnvHome = "WARP_HOME"

// Home is the root of warp's on-disk state.
type Home struct {
	root string
}

// New returns the Home rooted at $WARP_HOME, or ~/.warp when unset, and
// creates it with owner-only permissions.
func New() (*Home, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return At(dir)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("home: locate user home: %w", err)
	}
	return At(filepath.Join(userHome, DirName))
}

// At returns a Home rooted at dir, creating it if needed.
func At(dir string) (*Home, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("home: %w", err)
	}
	if err := os.MkdirAll(abs, 0700); err != nil {
		return nil, fmt.Errorf("home: create %s: %w", abs, err)
	}
	return &Home{root: abs}, nil
}

// Root returns the application directory.
func (h *Home) Root() string { return h.root }

// Config returns the path of the configuration file.
func (h *Home) Config() string { return filepath.Join(h.root, "config.yaml") }

// Keys returns the directory of natively protected key files.
func (h *Home) Keys() string { return filepath.Join(h.root, "keys") }

// Sealed returns the directory of passphrase-sealed key files.
func (h *Home) Sealed() string { return filepath.Join(h.root, "sealed") }
