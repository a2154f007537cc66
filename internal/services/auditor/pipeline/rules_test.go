package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	r := DefaultRules()
	require.NoError(t, r.Validate())
	require.Len(t, r.ApprovalCodes, 11)
	require.Contains(t, r.ApprovalCodes, "07")
	require.Contains(t, r.ApprovalCodes, "31")
	require.NotContains(t, r.ApprovalCodes, "08")
	require.Len(t, r.RestructuringSchemes, 16)
	require.Equal(t, 10, r.TopN)
}

func TestLoadRulesOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_n: 5\nstale_grace_days: 45\nstale_types: [BĐS]\n"), 0o600))

	r, err := LoadRules(path)
	require.NoError(t, err)
	require.Equal(t, 5, r.TopN)
	require.Equal(t, 45, r.StaleGraceDays)
	require.Equal(t, []string{"BĐS"}, r.StaleTypes)
	require.Equal(t, "Không TS", r.NoCollateralLabel)
	require.Equal(t, 365, r.ValuationCycleDays)
}

func TestLoadRulesEmptyPath(t *testing.T) {
	r, err := LoadRules("")
	require.NoError(t, err)
	require.Equal(t, DefaultRules(), r)
}

func TestLoadRulesRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("delay_from_year: 2026\ndelay_to_year: 2024\n"), 0o600))
	_, err := LoadRules(path)
	require.Error(t, err)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
