package estimate

// Heuristic constants used by the savings estimators. They are rough marketing
// figures, not tax-law values: there is no MACRS schedule, no bracket lookup and
// no jurisdiction handling behind them.
const (
	// AssumedAccelerableFraction is the share of a property's cost basis assumed
	// to be reclassifiable into shorter-lived asset classes.
	AssumedAccelerableFraction = 0.25

	// AssumedMarginalTaxRate is the federal bracket applied to the bonus deduction.
	AssumedMarginalTaxRate = 0.37

	// FiveYearMultiplier turns first-year savings into a five-year projection.
	// It is a flat multiplier, not a time-value calculation.
	FiveYearMultiplier = 1.5

	// RDCreditRate is the share of payroll assumed to come back as credit when
	// every catalog activity applies.
	RDCreditRate = 0.07

	MinBonusDepreciationPercent = 0
	MaxBonusDepreciationPercent = 100
)

const (
	PropertyOffice      = "office"
	PropertyRetail      = "retail"
	PropertyIndustrial  = "industrial"
	PropertyMultifamily = "multifamily"
	PropertyHospitality = "hospitality"
	PropertyMedical     = "medical"
	PropertyWarehouse   = "warehouse"
	PropertyMixedUse    = "mixed_use"
)

// PropertyTypes lists the accepted property types in display order.
var PropertyTypes = []string{
	PropertyOffice,
	PropertyRetail,
	PropertyIndustrial,
	PropertyMultifamily,
	PropertyHospitality,
	PropertyMedical,
	PropertyWarehouse,
	PropertyMixedUse,
}

var validPropertyTypes = func() map[string]struct{} {
	m := make(map[string]struct{}, len(PropertyTypes))
	for _, t := range PropertyTypes {
		m[t] = struct{}{}
	}
	return m
}()

func IsValidPropertyType(value string) bool {
	_, ok := validPropertyTypes[value]
	return ok
}

// Activity is one entry of the qualifying R&D activity checklist.
type Activity struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Activities is the closed checklist the R&D estimator scores against.
var Activities = []Activity{
	{ID: "new_products", Label: "Developing new or improved products"},
	{ID: "process_design", Label: "Designing or improving manufacturing processes"},
	{ID: "software", Label: "Building or enhancing proprietary software"},
	{ID: "prototyping", Label: "Creating prototypes, models or pilot runs"},
	{ID: "engineering", Label: "Engineering or architectural design work"},
	{ID: "materials", Label: "Formulating new materials, recipes or compounds"},
	{ID: "automation", Label: "Automating internal workflows or equipment"},
	{ID: "experimentation", Label: "Testing alternatives to resolve technical uncertainty"},
}

var activityIndex = func() map[string]Activity {
	m := make(map[string]Activity, len(Activities))
	for _, a := range Activities {
		m[a.ID] = a
	}
	return m
}()

func IsValidActivity(id string) bool {
	_, ok := activityIndex[id]
	return ok
}

func LookupActivity(id string) (Activity, bool) {
	a, ok := activityIndex[id]
	return a, ok
}
