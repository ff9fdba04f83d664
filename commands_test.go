package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"universe/pkg/datastore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// writeCLIConfig points the CLI at a fresh sqlite file.
func writeCLIConfig(t *testing.T) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "cli.db")
	cfgPath = filepath.Join(dir, "universe.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  dsn: "+dbPath+"\nlog:\n  level: error\n"), 0o600))
	return cfgPath, dbPath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCreateAccountAndResetPINCommands(t *testing.T) {
	cfgPath, dbPath := writeCLIConfig(t)

	out, err := runCLI(t, "--config", cfgPath, "create-account",
		"--name", "Ada", "--email", "Ada@Example.com", "--pin", "1234")
	require.NoError(t, err, out)
	assert.Contains(t, out, "account ada@example.com created")

	_, err = runCLI(t, "--config", cfgPath, "create-account",
		"--name", "Ada", "--email", "ada@example.com", "--pin", "1234")
	assert.ErrorIs(t, err, datastore.ErrDuplicate)

	out, err = runCLI(t, "--config", cfgPath, "reset-pin", "--email", "ada@example.com", "--pin", "98765")
	require.NoError(t, err, out)
	assert.Contains(t, out, "PIN updated")

	store, err := datastore.OpenGorm("sqlite", dbPath)
	require.NoError(t, err)
	defer store.Close()
	acc, err := store.AccountByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.True(t, acc.EmailVerified)
	assert.NoError(t, bcrypt.CompareHashAndPassword(acc.PINHash, []byte("98765")))
}

func TestCreateAccountRejectsBadPIN(t *testing.T) {
	cfgPath, _ := writeCLIConfig(t)
	_, err := runCLI(t, "--config", cfgPath, "create-account",
		"--name", "Ada", "--email", "ada@example.com", "--pin", "12")
	assert.Error(t, err)
}

func TestResetPINUnknownAccount(t *testing.T) {
	cfgPath, _ := writeCLIConfig(t)
	_, err := runCLI(t, "--config", cfgPath, "reset-pin", "--email", "ghost@example.com", "--pin", "1234")
	assert.ErrorIs(t, err, datastore.ErrNotFound)
}

func TestMigrateCommand(t *testing.T) {
	cfgPath, dbPath := writeCLIConfig(t)
	out, err := runCLI(t, "--config", cfgPath, "migrate")
	require.NoError(t, err, out)
	assert.Contains(t, out, "migration completed")
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}
