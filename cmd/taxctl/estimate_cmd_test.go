package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"taxsavings-backend/internal/estimate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEstimateCostSegText(t *testing.T) {
	out, err := run(t, "estimate", "cost-seg", "--cost", "1,000,000", "--type", "office")
	require.NoError(t, err)
	assert.Contains(t, out, "Bonus depreciation: 100%")
	assert.Contains(t, out, "Estimated first-year tax savings: $92,500.00")
	assert.Contains(t, out, "Estimated five-year savings: $138,750.00")
}

func TestEstimateCostSegJSONAndPDF(t *testing.T) {
	pdf := filepath.Join(t.TempDir(), "estimate.pdf")
	out, err := run(t, "estimate", "cost-seg", "--cost", "2000000", "--bonus", "60", "--json", "--pdf", pdf)
	require.NoError(t, err)

	var est estimate.CostSegEstimate
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.InDelta(t, 111_000.0, est.EstimatedTaxSavings, 0.001)

	doc, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestEstimateRDCredit(t *testing.T) {
	out, err := run(t, "estimate", "rd-credit", "--payroll", "500000",
		"--activity", "new_products", "--activity", "prototyping", "--activity", "software")
	require.NoError(t, err)
	assert.Contains(t, out, "Qualifying activities (3 of 8)")
	assert.Contains(t, out, "Eligibility score: 37.5%")
	assert.Contains(t, out, "Estimated credit: $13,125.00")
}

func TestEstimateRejectsBadInput(t *testing.T) {
	_, err := run(t, "estimate", "cost-seg", "--cost", "-10")
	assert.ErrorIs(t, err, estimate.ErrValidation)

	_, err = run(t, "estimate", "rd-credit", "--payroll", "500000")
	assert.ErrorIs(t, err, estimate.ErrInvalidInput)

	_, err = run(t, "estimate", "rd-credit", "--payroll", "500000", "--activity", "astrology")
	assert.ErrorIs(t, err, estimate.ErrValidation)

	_, err = run(t, "estimate", "cost-seg")
	assert.Error(t, err, "--cost is required")
}
