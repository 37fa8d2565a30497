package estimate

import (
	"math"
	"strconv"
)

type RDCreditInput struct {
	AnnualPayroll float64  `json:"annualPayroll"`
	Activities    []string `json:"activities"`
}

type RDCreditEstimate struct {
	AnnualPayroll      float64  `json:"annualPayroll"`
	Activities         []string `json:"activities"`
	SelectedActivities int      `json:"selectedActivities"`
	TotalActivities    int      `json:"totalActivities"`
	EligibilityScore   float64  `json:"eligibilityScore"`
	EstimatedCredit    float64  `json:"estimatedCredit"`
}

// distinctActivities returns the catalog IDs in input order with duplicates removed.
func distinctActivities(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !IsValidActivity(id) {
			return nil, newValidationError("activities", KindUnknownValue, "contains an unknown activity")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// EstimateRDCredit scores the selected activities against the catalog and scales
// a flat payroll credit by that ratio. A zero payroll or an empty selection is
// rejected rather than reported as a zero credit.
func EstimateRDCredit(in RDCreditInput) (RDCreditEstimate, error) {
	if math.IsNaN(in.AnnualPayroll) || math.IsInf(in.AnnualPayroll, 0) || in.AnnualPayroll <= 0 {
		return RDCreditEstimate{}, newValidationError("annualPayroll", KindInvalidInput, "must be greater than zero")
	}
	activities, err := distinctActivities(in.Activities)
	if err != nil {
		return RDCreditEstimate{}, err
	}
	if len(activities) == 0 {
		return RDCreditEstimate{}, newValidationError("activities", KindInvalidInput, "select at least one qualifying activity")
	}

	total := len(Activities)
	ratio := float64(len(activities)) / float64(total)

	return RDCreditEstimate{
		AnnualPayroll:      in.AnnualPayroll,
		Activities:         activities,
		SelectedActivities: len(activities),
		TotalActivities:    total,
		EligibilityScore:   ratio * 100,
		EstimatedCredit:    in.AnnualPayroll * RDCreditRate * ratio,
	}, nil
}

// DisplayScore formats the eligibility score with one decimal, e.g. "62.5".
func (e RDCreditEstimate) DisplayScore() string {
	return strconv.FormatFloat(e.EligibilityScore, 'f', 1, 64)
}

func (e RDCreditEstimate) Rounded() RDCreditEstimate {
	e.AnnualPayroll = RoundCents(e.AnnualPayroll)
	e.EligibilityScore = math.Round(e.EligibilityScore*10) / 10
	e.EstimatedCredit = RoundCents(e.EstimatedCredit)
	return e
}
