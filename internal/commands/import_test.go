package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chaseExport = `Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #
CREDIT,01/03/2024,ACME INVOICE,200.00,ACH_CREDIT,1150.00,
DEBIT,01/01/2024,GITHUB,-50.00,ACH_DEBIT,950.00,
`

func writeExport(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "chase.csv")
	require.NoError(t, os.WriteFile(path, []byte(chaseExport), 0o644))
	return path
}

func TestImport_ReplacesAccount(t *testing.T) {
	cfg := offlineProject(t, sampleLedger)
	csvPath := writeExport(t, filepath.Dir(cfg))

	out, err := runLedgerview(t, "import", csvPath, "--config", cfg, "--account", "Assets:Checking:Chase")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported 2 transactions into 3 rows for Assets:Checking:Chase (2024-01-01 to 2024-01-03, opening 1000.00)")

	ledger, err := os.ReadFile(filepath.Join(filepath.Dir(cfg), "data", "ledger.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(ledger), "2024-01-01,Assets:Checking:Chase,1000.00,-50.00,GITHUB")
	assert.Contains(t, string(ledger), "2024-01-03,Assets:Checking:Chase,950.00,200.00,ACME INVOICE")
	assert.Contains(t, string(ledger), "2024-01-01,Assets:Saving:Ally,0,,")
	assert.NotContains(t, string(ledger), "paycheck")

	out, err = runLedgerview(t, append([]string{"validate", "--config", cfg}, january...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "No issues found")
}

func TestImport_OpeningOverride(t *testing.T) {
	cfg := offlineProject(t, sampleLedger)
	csvPath := writeExport(t, filepath.Dir(cfg))

	out, err := runLedgerview(t, "import", csvPath, "--config", cfg,
		"--account", "Assets:Checking:Chase", "--opening", "0")
	require.NoError(t, err, out)
	assert.Contains(t, out, "opening 0.00)")

	ledger, err := os.ReadFile(filepath.Join(filepath.Dir(cfg), "data", "ledger.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(ledger), "2024-01-03,Assets:Checking:Chase,-50.00,200.00,ACME INVOICE")
}

func TestImport_Rejects(t *testing.T) {
	cfg := offlineProject(t, sampleLedger)
	csvPath := writeExport(t, filepath.Dir(cfg))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown format", []string{"--account", "A", "--format", "ally"}, `unknown format "ally" (available: chase)`},
		{"bad opening", []string{"--account", "A", "--opening", "abc"}, "invalid --opening"},
		{"missing account", nil, `required flag(s) "account" not set`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"import", csvPath, "--config", cfg}, tt.args...)
			out, err := runLedgerview(t, args...)
			require.Error(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestImport_CommitsSnapshot(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	out, err := runLedgerview(t, "init", dir, "--offline", "--git")
	require.NoError(t, err, out)
	cfg := filepath.Join(dir, "ledgerview.yaml")

	out, err = runLedgerview(t, "import", writeExport(t, dir), "--config", cfg, "--account", "Assets:Checking:Chase")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Committed ")

	log := exec.Command("git", "log", "--format=%s")
	log.Dir = filepath.Join(dir, "data")
	history, err := log.Output()
	require.NoError(t, err)
	assert.Equal(t, "import: Assets:Checking:Chase from chase.csv\ninit: empty ledger\n", string(history))
}
