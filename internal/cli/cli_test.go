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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/warp/internal/config"
	"github.com/jeremyhahn/warp/internal/home"
	"github.com/jeremyhahn/warp/pkg/key"
	"github.com/jeremyhahn/warp/pkg/keymgr"
)

const testPassphraseEnv = "WARP_TEST_PASSPHRASE"

// setupHome points the application home at a temp dir whose config enables
// only the passphrase keystore.
func setupHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(home.EnvHome, dir)
	t.Setenv(testPassphraseEnv, "correct horse battery staple")
	t.Setenv("WARP_LOG_LEVEL", "")
	t.Setenv("WARP_LOG_FORMAT", "")
	t.Setenv("WARP_DEFAULT_SERVER", "")

	cfg := `
key:
  default_storage: false
  passphrase:
    enabled: true
    env: ` + testPassphraseEnv + `
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0600))
	return dir
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = run(args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestVersion_Text(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "warp version "+Version)
	assert.Contains(t, out, "Go version:")
}

func TestVersion_JSON(t *testing.T) {
	out, _, err := execute(t, "version", "-o", "json")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, Version, got["version"])
	assert.Equal(t, GitCommit, got["commit"])
}

func TestUnknownOutputFormat(t *testing.T) {
	_, errOut, err := execute(t, "version", "-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, errOut, "unknown output format: yaml")
}

func TestKeyList_Empty(t *testing.T) {
	setupHome(t)

	out, _, err := execute(t, "key", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No keys found")
}

func TestKeyNew_ThenList(t *testing.T) {
	setupHome(t)

	out, _, err := execute(t, "key", "new", "--store", keymgr.PassphraseStoreID, "-o", "json")
	require.NoError(t, err)

	var created KeyInfo
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Len(t, created.ID, 32)
	assert.Equal(t, keymgr.PassphraseStoreID, created.Store)
	assert.False(t, created.Created.IsZero())

	out, _, err = execute(t, "key", "ls", "-o", "json")
	require.NoError(t, err)

	var listed struct {
		Keys []KeyInfo `json:"keys"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Keys, 1)
	assert.Equal(t, created.ID, listed.Keys[0].ID)
	assert.Equal(t, keymgr.PassphraseStoreID, listed.Keys[0].Store)
}

func TestKeyNew_UnknownStore(t *testing.T) {
	setupHome(t)

	_, errOut, err := execute(t, "key", "new", "--store", "nope")
	require.ErrorIs(t, err, ErrNoSuchKeystore)
	assert.Contains(t, errOut, "no such keystore")
}

func TestKeyNew_DefaultStoreDisabled(t *testing.T) {
	setupHome(t)

	_, _, err := execute(t, "key", "new")
	assert.ErrorIs(t, err, ErrNoSuchKeystore)
}

func TestKeyNew_Verbose(t *testing.T) {
	setupHome(t)

	_, errOut, err := execute(t, "key", "new", "--store", keymgr.PassphraseStoreID, "-v")
	require.NoError(t, err)
	assert.Contains(t, errOut, "[VERBOSE] Generating key in passphrase keystore")
}

func TestKeystoreList(t *testing.T) {
	setupHome(t)

	_, _, err := execute(t, "key", "new", "--store", keymgr.PassphraseStoreID)
	require.NoError(t, err)

	out, _, err := execute(t, "keystore", "ls", "-o", "json")
	require.NoError(t, err)

	var listed struct {
		Keystores []StoreInfo `json:"keystores"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Equal(t, []StoreInfo{{ID: keymgr.PassphraseStoreID, Keys: 1}}, listed.Keystores)
}

func TestConfigFlag(t *testing.T) {
	setupHome(t)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("logging:\n  level: loud\n"), 0600))

	_, errOut, err := execute(t, "--config", bad, "key", "ls")
	require.Error(t, err)
	assert.Contains(t, errOut, "invalid log level")
}

func TestMissingPassphrase(t *testing.T) {
	setupHome(t)
	t.Setenv(testPassphraseEnv, "")

	_, _, err := execute(t, "key", "ls")
	assert.ErrorContains(t, err, testPassphraseEnv)
}

func TestMetricsFlag(t *testing.T) {
	setupHome(t)

	_, errOut, err := execute(t, "--metrics", "key", "new", "--store", keymgr.PassphraseStoreID)
	require.NoError(t, err)
	assert.Contains(t, errOut, "warp_operations_total")
	assert.Contains(t, errOut, `operation="generate"`)
	assert.Contains(t, errOut, "warp_goroutines")
}

func TestErrorJSON(t *testing.T) {
	setupHome(t)

	_, errOut, err := execute(t, "key", "new", "--store", "nope", "-o", "json")
	require.Error(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(errOut), &got))
	assert.Equal(t, "error", got["status"])
	assert.Contains(t, got["error"], "no such keystore")
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(home.EnvHome, dir)
	t.Setenv("WARP_LOG_LEVEL", "")
	t.Setenv("WARP_LOG_FORMAT", "")
	t.Setenv("WARP_DEFAULT_SERVER", "")
	path := filepath.Join(dir, "config.yaml")

	out, _, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), loaded)

	_, errOut, err := execute(t, "init")
	require.ErrorIs(t, err, ErrConfigExists)
	assert.Contains(t, errOut, "already exists")

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0600))
	_, _, err = execute(t, "init", "--force")
	require.NoError(t, err)
	loaded, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", loaded.Logging.Level)
}

func TestKeyShow(t *testing.T) {
	setupHome(t)

	out, _, err := execute(t, "key", "new", "--store", keymgr.PassphraseStoreID, "-o", "json")
	require.NoError(t, err)
	var created KeyInfo
	require.NoError(t, json.Unmarshal([]byte(out), &created))

	out, _, err = execute(t, "key", "show", created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Key "+created.ID)
	assert.Contains(t, out, "Store:   passphrase")
}

func TestKeyShow_Errors(t *testing.T) {
	setupHome(t)

	_, _, err := execute(t, "key", "show", "not-hex")
	assert.ErrorIs(t, err, key.ErrInvalidID)

	_, _, err = execute(t, "key", "show", "00000000000000000000000000000001")
	assert.ErrorIs(t, err, keymgr.ErrKeyNotFound)
}
