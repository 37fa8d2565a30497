package estimate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := map[string]float64{
		"$1,000,000":  1_000_000,
		" 500000.50 ": 500_000.50,
		"250000":      250_000,
		"1 250 000":   1_250_000,
		"75,000 USD":  75_000,
		"$0.01":       0.01,
		"1_000":       1_000,
	}
	for raw, want := range cases {
		got, err := ParseAmount("propertyCost", raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParseAmountRejects(t *testing.T) {
	cases := map[string]Kind{
		"":      KindEmptyOrNonNumeric,
		"   ":   KindEmptyOrNonNumeric,
		"abc":   KindEmptyOrNonNumeric,
		"$":     KindEmptyOrNonNumeric,
		"0":     KindEmptyOrNonNumeric,
		"$0.00": KindEmptyOrNonNumeric,
		"NaN":   KindEmptyOrNonNumeric,
		"-5":    KindOutOfRange,
	}
	for raw, kind := range cases {
		_, err := ParseAmount("propertyCost", raw)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), "input %q", raw)
		assert.Equal(t, kind, ve.Kind, "input %q", raw)
		assert.Equal(t, "propertyCost", ve.Field)
	}
}

func TestParsePercent(t *testing.T) {
	for raw, want := range map[string]int{"0": 0, "50%": 50, " 100 ": 100, "80.0": 80} {
		got, err := ParsePercent("bonusDepreciationPercent", raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	for _, raw := range []string{"101", "-1", "12.5"} {
		_, err := ParsePercent("bonusDepreciationPercent", raw)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), raw)
		assert.Equal(t, KindOutOfRange, ve.Kind)
	}
	_, err := ParsePercent("bonusDepreciationPercent", "lots")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("dateInService", "2024-07-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("dateInService", "")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseDate("dateInService", "07/01/2024")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, KindInvalidDate, ve.Kind)
}

func TestNormalizeCostSegForm(t *testing.T) {
	in, err := NormalizeCostSegForm(CostSegForm{
		PropertyType:             "Mixed-Use",
		PropertyCost:             "$2,500,000",
		DateInService:            "2023-03-15",
		BonusDepreciationPercent: "80%",
	})
	require.NoError(t, err)
	assert.Equal(t, PropertyMixedUse, in.PropertyType)
	assert.Equal(t, 2_500_000.0, in.PropertyCost)
	assert.Equal(t, 80, in.BonusDepreciationPercent)
	assert.Equal(t, 2023, in.DateInService.Year())
}

func TestNormalizeCostSegFormDefaultsBonus(t *testing.T) {
	in, err := NormalizeCostSegForm(CostSegForm{PropertyCost: "100000"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBonusDepreciationPercent, in.BonusDepreciationPercent)
}

func TestNormalizeCostSegFormErrors(t *testing.T) {
	_, err := NormalizeCostSegForm(CostSegForm{PropertyCost: ""})
	assert.Equal(t, map[string]string{"propertyCost": "EmptyOrNonNumeric"}, Details(err))

	_, err = NormalizeCostSegForm(CostSegForm{PropertyCost: "10", PropertyType: "castle"})
	assert.Equal(t, map[string]string{"propertyType": "UnknownValue"}, Details(err))
}

func TestNormalizeRDCreditForm(t *testing.T) {
	in, err := NormalizeRDCreditForm(RDCreditForm{
		AnnualPayroll: "$1,000,000",
		Activities:    []string{" Software ", "", "prototyping"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1_000_000.0, in.AnnualPayroll)
	assert.Equal(t, []string{"software", "prototyping"}, in.Activities)

	_, err = NormalizeRDCreditForm(RDCreditForm{AnnualPayroll: "n/a"})
	assert.Equal(t, map[string]string{"annualPayroll": "EmptyOrNonNumeric"}, Details(err))
}

func TestDetailsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, Details(errors.New("boom")))
}
