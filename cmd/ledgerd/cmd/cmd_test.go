package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { configPath = "" })
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestGenesisCmd(t *testing.T) {
	out := execute(t, "genesis")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 11)
	require.Contains(t, lines[0], "ed25519:")
	require.Equal(t, "total voting power: 100", lines[10])
}

func TestGenesisCmdConfigured(t *testing.T) {
	path := writeConfig(t, "chain:\n  validatorCount: 3\n  votingPower: 5\n")
	out := execute(t, "genesis", "--config", path)
	require.Contains(t, out, "total voting power: 15")
}

func TestResetCmd(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "state.db")
	require.NoError(t, os.WriteFile(db, []byte("x"), 0o600))
	path := writeConfig(t, "db:\n  path: "+db+"\n")

	out := execute(t, "reset", "--config", path)
	require.Contains(t, out, db)
	_, err := os.Stat(db)
	require.True(t, os.IsNotExist(err))

	// Resetting an absent database is not an error.
	execute(t, "reset", "--config", path)
}
