package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "ledgerview-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "ledgerview")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/ledgerview")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runLedgerview(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = t.TempDir()
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestInit_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	out, err := runLedgerview(t, "init", dir, "--base-url", "http://fava.local:5000")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Initialized ledgerview")

	data, err := os.ReadFile(filepath.Join(dir, "ledgerview.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "base_url: http://fava.local:5000")
	assert.Contains(t, contents, "extend_days: 31")
	assert.Contains(t, contents, "- Assets:Checking")
}

func TestInit_Offline(t *testing.T) {
	dir := t.TempDir()
	_, err := runLedgerview(t, "init", dir, "--offline")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "ledgerview.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "dir: data")

	ledger, err := os.ReadFile(filepath.Join(dir, "data", "ledger.csv"))
	require.NoError(t, err)
	assert.Equal(t, "date,account,balance,transaction,description\n", string(ledger))

	edits, err := os.ReadFile(filepath.Join(dir, "data", "edits.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,timestamp,date,account,field,value,bold,italic\n", string(edits))
}

func TestInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	_, err := runLedgerview(t, "init", dir)
	require.NoError(t, err)

	out, err := runLedgerview(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, out, "already exists")
}

func TestVersion(t *testing.T) {
	out, err := runLedgerview(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none")
}
