package leads

import (
	"fmt"
	"strings"

	"taxsavings-backend/internal/estimate"
)

// Summary is the estimate as the CRM sees it: headline figures plus a
// free-text rendering that ends up in the lead's notes.
type Summary struct {
	Kind          string
	Source        string
	PropertyType  string
	PropertyCost  float64
	AnnualPayroll float64
	Savings       float64
	Tags          []string
	Lines         []string
}

func CostSegSummary(in estimate.CostSegInput, est estimate.CostSegEstimate) Summary {
	lines := []string{"Cost segregation estimate"}
	if in.PropertyType != "" {
		lines = append(lines, "Property type: "+in.PropertyType)
	}
	lines = append(lines, "Property cost: "+estimate.FormatMoney(est.PropertyCost))
	if !in.DateInService.IsZero() {
		lines = append(lines, "Date in service: "+in.DateInService.Format(estimate.DateLayout))
	}
	lines = append(lines,
		fmt.Sprintf("Bonus depreciation: %d%%", est.BonusDepreciationPercent),
		"Accelerated depreciation: "+estimate.FormatMoney(est.AcceleratedDepreciation),
		"Bonus depreciation amount: "+estimate.FormatMoney(est.BonusDepreciation),
		"Estimated first-year tax savings: "+estimate.FormatMoney(est.EstimatedTaxSavings),
		"Estimated five-year savings: "+estimate.FormatMoney(est.FiveYearSavings),
	)

	tags := []string{"calculator", "cost-segregation"}
	if in.PropertyType != "" {
		tags = append(tags, in.PropertyType)
	}

	return Summary{
		Kind:         KindCostSegregation,
		Source:       SourceCostSegCalculator,
		PropertyType: in.PropertyType,
		PropertyCost: est.PropertyCost,
		Savings:      estimate.RoundCents(est.EstimatedTaxSavings),
		Tags:         tags,
		Lines:        lines,
	}
}

func RDCreditSummary(est estimate.RDCreditEstimate) Summary {
	lines := []string{
		"R&D tax credit estimate",
		"Annual payroll: " + estimate.FormatMoney(est.AnnualPayroll),
		fmt.Sprintf("Qualifying activities (%d of %d): %s",
			est.SelectedActivities, est.TotalActivities, strings.Join(estimate.ActivityLabels(est.Activities), "; ")),
		"Eligibility score: " + est.DisplayScore() + "%",
		"Estimated credit: " + estimate.FormatMoney(est.EstimatedCredit),
	}

	return Summary{
		Kind:          KindRDCredit,
		Source:        SourceRDCreditCalculator,
		AnnualPayroll: est.AnnualPayroll,
		Savings:       estimate.RoundCents(est.EstimatedCredit),
		Tags:          []string{"calculator", "rd-credit"},
		Lines:         lines,
	}
}

func (s Summary) Notes() string {
	return strings.Join(s.Lines, "\n")
}
