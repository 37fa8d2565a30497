package estimate

import (
	"math"
	"time"
)

// CostSegInput is the typed cost-segregation request. DateInService is
// informational only; the heuristic does not depend on it.
type CostSegInput struct {
	PropertyType             string    `json:"propertyType,omitempty"`
	PropertyCost             float64   `json:"propertyCost"`
	DateInService            time.Time `json:"dateInService,omitempty"`
	BonusDepreciationPercent int       `json:"bonusDepreciationPercent"`
}

type CostSegEstimate struct {
	PropertyCost             float64 `json:"propertyCost"`
	BonusDepreciationPercent int     `json:"bonusDepreciationPercent"`
	AcceleratedDepreciation  float64 `json:"acceleratedDepreciation"`
	BonusDepreciation        float64 `json:"bonusDepreciation"`
	EstimatedTaxSavings      float64 `json:"estimatedTaxSavings"`
	FiveYearSavings          float64 `json:"fiveYearSavings"`
}

func (in CostSegInput) Validate() error {
	if math.IsNaN(in.PropertyCost) || math.IsInf(in.PropertyCost, 0) || in.PropertyCost == 0 {
		return newValidationError("propertyCost", KindEmptyOrNonNumeric, "must be greater than zero")
	}
	if in.PropertyCost < 0 {
		return newValidationError("propertyCost", KindOutOfRange, "must be greater than zero")
	}
	if in.BonusDepreciationPercent < MinBonusDepreciationPercent || in.BonusDepreciationPercent > MaxBonusDepreciationPercent {
		return newValidationError("bonusDepreciationPercent", KindOutOfRange, "must be a whole number between 0 and 100")
	}
	if in.PropertyType != "" && !IsValidPropertyType(in.PropertyType) {
		return newValidationError("propertyType", KindUnknownValue, "is not a supported property type")
	}
	return nil
}

// EstimateCostSegregation projects first-year savings from reclassifying part of
// a property's basis and expensing it through bonus depreciation.
func EstimateCostSegregation(in CostSegInput) (CostSegEstimate, error) {
	if err := in.Validate(); err != nil {
		return CostSegEstimate{}, err
	}

	accelerated := in.PropertyCost * AssumedAccelerableFraction
	bonus := accelerated * float64(in.BonusDepreciationPercent) / 100
	savings := bonus * AssumedMarginalTaxRate

	return CostSegEstimate{
		PropertyCost:             in.PropertyCost,
		BonusDepreciationPercent: in.BonusDepreciationPercent,
		AcceleratedDepreciation:  accelerated,
		BonusDepreciation:        bonus,
		EstimatedTaxSavings:      savings,
		FiveYearSavings:          savings * FiveYearMultiplier,
	}, nil
}

// Rounded returns a copy with every money field rounded to cents for display.
func (e CostSegEstimate) Rounded() CostSegEstimate {
	e.PropertyCost = RoundCents(e.PropertyCost)
	e.AcceleratedDepreciation = RoundCents(e.AcceleratedDepreciation)
	e.BonusDepreciation = RoundCents(e.BonusDepreciation)
	e.EstimatedTaxSavings = RoundCents(e.EstimatedTaxSavings)
	e.FiveYearSavings = RoundCents(e.FiveYearSavings)
	return e
}

func RoundCents(value float64) float64 {
	return math.Round(value*100) / 100
}
