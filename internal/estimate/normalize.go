package estimate

import (
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

const (
	DateLayout = "2006-01-02"

	// DefaultBonusDepreciationPercent applies when the form leaves the slider untouched.
	DefaultBonusDepreciationPercent = 100
)

var amountReplacer = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "", "_", "")

// CostSegForm is the raw cost-segregation form as submitted by the browser.
type CostSegForm struct {
	PropertyType             string `json:"propertyType" validate:"propertytype"`
	PropertyCost             string `json:"propertyCost" validate:"money"`
	DateInService            string `json:"dateInService" validate:"date"`
	BonusDepreciationPercent string `json:"bonusDepreciationPercent" validate:"percent"`
}

// RDCreditForm is the raw R&D credit form as submitted by the browser.
type RDCreditForm struct {
	AnnualPayroll string   `json:"annualPayroll" validate:"money"`
	Activities    []string `json:"activities" validate:"omitempty,dive,activity"`
}

// ParseAmount turns a currency string such as "$1,250,000.50" into a positive number.
func ParseAmount(field, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, newValidationError(field, KindEmptyOrNonNumeric, "is required")
	}
	s = amountReplacer.Replace(s)
	if upper := strings.ToUpper(s); strings.HasSuffix(upper, "USD") {
		s = s[:len(s)-3]
	}
	if s == "" {
		return 0, newValidationError(field, KindEmptyOrNonNumeric, "must be a number")
	}

	value, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, newValidationError(field, KindEmptyOrNonNumeric, "must be a number")
	}
	if value == 0 {
		return 0, newValidationError(field, KindEmptyOrNonNumeric, "must be greater than zero")
	}
	if value < 0 {
		return 0, newValidationError(field, KindOutOfRange, "must be greater than zero")
	}
	return value, nil
}

// ParsePercent parses a whole percentage between 0 and 100. A trailing "%" is accepted.
func ParsePercent(field, raw string) (int, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if s == "" {
		return 0, newValidationError(field, KindEmptyOrNonNumeric, "is required")
	}
	value, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, newValidationError(field, KindEmptyOrNonNumeric, "must be a number")
	}
	if value != math.Trunc(value) || value < MinBonusDepreciationPercent || value > MaxBonusDepreciationPercent {
		return 0, newValidationError(field, KindOutOfRange, "must be a whole number between 0 and 100")
	}
	return int(value), nil
}

// ParseDate parses an optional YYYY-MM-DD date. An empty value yields the zero time.
func ParseDate(field, raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, newValidationError(field, KindInvalidDate, "must be a date (YYYY-MM-DD)")
	}
	return t, nil
}

// NormalizePropertyType lowercases the value and folds the common spellings
// ("Mixed-Use", "mixed use") onto the canonical identifiers.
func NormalizePropertyType(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return s
}

func NormalizeCostSegForm(form CostSegForm) (CostSegInput, error) {
	cost, err := ParseAmount("propertyCost", form.PropertyCost)
	if err != nil {
		return CostSegInput{}, err
	}

	bonus := DefaultBonusDepreciationPercent
	if strings.TrimSpace(form.BonusDepreciationPercent) != "" {
		bonus, err = ParsePercent("bonusDepreciationPercent", form.BonusDepreciationPercent)
		if err != nil {
			return CostSegInput{}, err
		}
	}

	inService, err := ParseDate("dateInService", form.DateInService)
	if err != nil {
		return CostSegInput{}, err
	}

	propertyType := NormalizePropertyType(form.PropertyType)
	if propertyType != "" && !IsValidPropertyType(propertyType) {
		return CostSegInput{}, newValidationError("propertyType", KindUnknownValue, "is not a supported property type")
	}

	return CostSegInput{
		PropertyType:             propertyType,
		PropertyCost:             cost,
		DateInService:            inService,
		BonusDepreciationPercent: bonus,
	}, nil
}

func NormalizeRDCreditForm(form RDCreditForm) (RDCreditInput, error) {
	payroll, err := ParseAmount("annualPayroll", form.AnnualPayroll)
	if err != nil {
		return RDCreditInput{}, err
	}

	activities := make([]string, 0, len(form.Activities))
	for _, raw := range form.Activities {
		id := strings.ToLower(strings.TrimSpace(raw))
		if id == "" {
			continue
		}
		if !IsValidActivity(id) {
			return RDCreditInput{}, newValidationError("activities", KindUnknownValue, "contains an unknown activity")
		}
		activities = append(activities, id)
	}

	return RDCreditInput{
		AnnualPayroll: payroll,
		Activities:    activities,
	}, nil
}
