package estimate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activityIDs(n int) []string {
	ids := make([]string, 0, n)
	for _, a := range Activities[:n] {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestCatalogHasEightActivities(t *testing.T) {
	require.Len(t, Activities, 8)
	seen := map[string]bool{}
	for _, a := range Activities {
		assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
		seen[a.ID] = true
		assert.NotEmpty(t, a.Label)
	}
}

func TestEstimateRDCreditHalfSelected(t *testing.T) {
	got, err := EstimateRDCredit(RDCreditInput{AnnualPayroll: 1_000_000, Activities: activityIDs(4)})
	require.NoError(t, err)

	assert.Equal(t, 50.0, got.EligibilityScore)
	assert.Equal(t, "50.0", got.DisplayScore())
	assert.InDelta(t, 35_000.0, got.EstimatedCredit, 1e-6)
	assert.Equal(t, 35_000.0, got.Rounded().EstimatedCredit)
	assert.Equal(t, 4, got.SelectedActivities)
	assert.Equal(t, 8, got.TotalActivities)
}

func TestEstimateRDCreditScoreForEverySubsetSize(t *testing.T) {
	for n := 1; n <= len(Activities); n++ {
		got, err := EstimateRDCredit(RDCreditInput{AnnualPayroll: 250_000, Activities: activityIDs(n)})
		require.NoError(t, err)
		assert.Equal(t, float64(n)/8*100, got.EligibilityScore)
		assert.Equal(t, 250_000*0.07*(float64(n)/8), got.EstimatedCredit)
	}
}

func TestEstimateRDCreditDisplayScoreOneDecimal(t *testing.T) {
	got, err := EstimateRDCredit(RDCreditInput{AnnualPayroll: 100_000, Activities: activityIDs(3)})
	require.NoError(t, err)
	assert.Equal(t, "37.5", got.DisplayScore())
}

func TestEstimateRDCreditNoActivitiesIsInvalidInput(t *testing.T) {
	got, err := EstimateRDCredit(RDCreditInput{AnnualPayroll: 1_000_000})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, RDCreditEstimate{}, got)
}

func TestEstimateRDCreditNonPositivePayrollIsInvalidInput(t *testing.T) {
	for _, payroll := range []float64{0, -10} {
		_, err := EstimateRDCredit(RDCreditInput{AnnualPayroll: payroll, Activities: activityIDs(2)})
		assert.True(t, errors.Is(err, ErrInvalidInput), "payroll %v", payroll)
	}
}

func TestEstimateRDCreditDuplicatesCountOnce(t *testing.T) {
	got, err := EstimateRDCredit(RDCreditInput{
		AnnualPayroll: 800_000,
		Activities:    []string{"software", "software", "prototyping"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.SelectedActivities)
	assert.Equal(t, []string{"software", "prototyping"}, got.Activities)
}

func TestEstimateRDCreditUnknownActivity(t *testing.T) {
	_, err := EstimateRDCredit(RDCreditInput{AnnualPayroll: 800_000, Activities: []string{"time_travel"}})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, KindUnknownValue, ve.Kind)
	assert.False(t, errors.Is(err, ErrInvalidInput))
}

func TestEstimateRDCreditIsDeterministic(t *testing.T) {
	in := RDCreditInput{AnnualPayroll: 1_234_567.89, Activities: activityIDs(5)}
	first, err := EstimateRDCredit(in)
	require.NoError(t, err)
	second, err := EstimateRDCredit(in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
