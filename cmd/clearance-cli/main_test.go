package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(append([]string{"--rules-dir", "../../pkg/rules"}, args...))
	require.NoError(t, root.Execute())
	return out.String()
}

func TestTariffCmd(t *testing.T) {
	out := run(t, "tariff", "--country", "usa", "--hs", "8471.30", "--value", "2000", "--weight", "1")
	assert.Contains(t, out, "TARIFF QUOTE")
	assert.Contains(t, out, "COMPUTERS")
	assert.Contains(t, out, "Total:")
}

func TestTariffCmd_NoRule(t *testing.T) {
	out := run(t, "tariff", "--country", "atlantis", "--hs", "0101", "--value", "10")
	assert.Contains(t, out, "Nenhuma regra")
}

func TestShippingCmd(t *testing.T) {
	out := run(t, "shipping", "--country", "UAE", "--weight", "2")
	assert.Contains(t, out, "Custo:        1500.00")
}

func TestPenaltyCmd(t *testing.T) {
	out := run(t, "penalty", "--milestone", "not a date", "--base", "100")
	assert.Contains(t, out, "Multa:       0.00")
}

func TestGuardsCmd(t *testing.T) {
	file := filepath.Join(t.TempDir(), "intake.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"receiver":{"country":"USA","email":"bo@example.com"},"product":{"declared_value":0,"weight_kg":1}}`), 0o644))

	out := run(t, "guards", "--file", file)
	assert.Contains(t, out, "declared-value-positive")
	assert.Contains(t, out, "BLOQUEADO")
}

func TestTrackCmd(t *testing.T) {
	out := run(t, "track", "--mode", "DAP", "--events", "hs.approved,delivered,documents.approved")
	assert.Contains(t, out, "rejeitado")
	assert.Contains(t, out, "[RECEIVER]")
	assert.Contains(t, out, "Payment")
}
