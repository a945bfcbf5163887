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

package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/warp/pkg/key"
)

func testKeyInfo(t *testing.T) KeyInfo {
	t.Helper()
	var raw [key.Size]byte
	raw[0] = 1
	id := key.DeriveID(&raw)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewKeyInfo(key.New(id, created), "default")
}

func TestPrintKeyList_Table(t *testing.T) {
	info := testKeyInfo(t)
	var buf bytes.Buffer

	require.NoError(t, NewPrinter("table", &buf).PrintKeyList([]KeyInfo{info}))
	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "CREATED")
	assert.Contains(t, out, info.ID)
	assert.Contains(t, out, "2025-03-01T12:00:00Z")
	assert.Contains(t, out, "default")
}

func TestPrintKeyList_Text(t *testing.T) {
	info := testKeyInfo(t)
	var buf bytes.Buffer

	require.NoError(t, NewPrinter("text", &buf).PrintKeyList([]KeyInfo{info}))
	assert.Contains(t, buf.String(), info.ID+" (default, created 2025-03-01T12:00:00Z)")
}

func TestPrintStoreList(t *testing.T) {
	stores := []StoreInfo{{ID: "default", Keys: 2}, {ID: "passphrase", Keys: 0}}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter("table", &buf).PrintStoreList(stores))
	assert.Contains(t, buf.String(), "KEYSTORE")
	assert.Contains(t, buf.String(), "passphrase")

	buf.Reset()
	require.NoError(t, NewPrinter("text", &buf).PrintStoreList(nil))
	assert.Contains(t, buf.String(), "No keystores enabled")
}

func TestPrintKeyInfo_Text(t *testing.T) {
	info := testKeyInfo(t)
	var buf bytes.Buffer

	require.NoError(t, NewPrinter("text", &buf).PrintKeyInfo("Generated key", info))
	assert.Contains(t, buf.String(), "Generated key "+info.ID)
	assert.Contains(t, buf.String(), "Store:   default")
}

func TestPrinter_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter("xml", &buf)

	assert.ErrorContains(t, p.PrintKeyList(nil), "unknown output format")
	assert.ErrorContains(t, p.PrintStoreList(nil), "unknown output format")
	assert.ErrorContains(t, p.PrintKeyInfo("Key", KeyInfo{}), "unknown output format")
	assert.ErrorContains(t, p.PrintSuccess("done"), "unknown output format")
}

func TestPrintSuccess(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter("text", &buf).PrintSuccess("Wrote config"))
	assert.Contains(t, buf.String(), "Wrote config")

	buf.Reset()
	require.NoError(t, NewPrinter("json", &buf).PrintSuccess("Wrote config"))
	assert.Contains(t, buf.String(), `"status": "success"`)
}

func TestPrintError_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter("text", &buf).PrintError(errors.New("boom")))
	assert.Contains(t, buf.String(), "Error:")
	assert.Contains(t, buf.String(), "boom")
}
