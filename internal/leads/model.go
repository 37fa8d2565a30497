package leads

import "time"

const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusWon       = "won"
	StatusLost      = "lost"

	StageLead      = "lead"
	StageQualified = "qualified"
	StageProposal  = "proposal"
	StageWon       = "won"
	StageLost      = "lost"

	SourceCostSegCalculator  = "cost_segregation_calculator"
	SourceRDCreditCalculator = "rd_credit_calculator"

	KindCostSegregation = "cost_segregation"
	KindRDCredit        = "rd_credit"
)

var validStatuses = map[string]struct{}{
	StatusNew:       {},
	StatusContacted: {},
	StatusQualified: {},
	StatusWon:       {},
	StatusLost:      {},
}

var validStages = map[string]struct{}{
	StageLead:      {},
	StageQualified: {},
	StageProposal:  {},
	StageWon:       {},
	StageLost:      {},
}

var validSources = map[string]struct{}{
	SourceCostSegCalculator:  {},
	SourceRDCreditCalculator: {},
}

// Statuses and Stages are listed in pipeline order for the dashboard.
var (
	Statuses = []string{StatusNew, StatusContacted, StatusQualified, StatusWon, StatusLost}
	Stages   = []string{StageLead, StageQualified, StageProposal, StageWon, StageLost}
)

func IsValidStatus(value string) bool {
	_, ok := validStatuses[value]
	return ok
}

func IsValidStage(value string) bool {
	_, ok := validStages[value]
	return ok
}

func IsValidSource(value string) bool {
	_, ok := validSources[value]
	return ok
}

// Lead is a contact record created from a calculator submission. Field names
// on the wire and in storage match the CRM "contacts" table.
type Lead struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	Name             string    `bson:"name" json:"name"`
	Email            string    `bson:"email" json:"email"`
	Phone            string    `bson:"phone" json:"phone"`
	Company          string    `bson:"company,omitempty" json:"company,omitempty"`
	PropertyType     string    `bson:"property_type,omitempty" json:"property_type,omitempty"`
	PropertyCost     float64   `bson:"property_cost,omitempty" json:"property_cost,omitempty"`
	AnnualPayroll    float64   `bson:"annual_payroll,omitempty" json:"annual_payroll,omitempty"`
	LeadSource       string    `bson:"lead_source" json:"lead_source"`
	Status           string    `bson:"status" json:"status"`
	PipelineStage    string    `bson:"pipeline_stage" json:"pipeline_stage"`
	Tags             []string  `bson:"tags" json:"tags"`
	Notes            string    `bson:"notes" json:"notes"`
	EstimateKind     string    `bson:"estimate_kind" json:"estimate_kind"`
	EstimatedSavings float64   `bson:"estimated_savings" json:"estimated_savings"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}

// Contact is the visitor-supplied part of a submission.
type Contact struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,phone"`
	Company string `json:"company" validate:"max=160"`
}

// CaptureRequest pairs a contact with an already computed estimate summary.
type CaptureRequest struct {
	Contact  Contact
	Estimate Summary
}

type AdminStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted qualified won lost"`
}

type AdminStageUpdateRequest struct {
	Stage string `json:"stage" validate:"required,oneof=lead qualified proposal won lost"`
}

type ListFilter struct {
	Status string
	Stage  string
	Source string
	Tag    string
}

// Stats is the CRM dashboard breakdown.
type Stats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	ByStage  map[string]int64 `json:"by_stage"`
}
