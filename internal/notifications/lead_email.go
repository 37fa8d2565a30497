package notifications

import (
	"bytes"
	"html/template"
	"strings"

	"taxsavings-backend/internal/estimate"
	"taxsavings-backend/internal/leads"
)

const leadNotificationTemplate = `<!DOCTYPE html>
<html>
<body>
  <h3>New {{.Kind}} lead</h3>
  <p><strong>Name:</strong> {{.Lead.Name}}</p>
  <p><strong>Email:</strong> {{.Lead.Email}}</p>
  <p><strong>Phone:</strong> {{.Lead.Phone}}</p>
  {{if .Lead.Company}}<p><strong>Company:</strong> {{.Lead.Company}}</p>{{end}}
  <p><strong>Source:</strong> {{.Lead.LeadSource}}</p>
  <p><strong>Estimated savings:</strong> {{.Savings}}</p>
  <p><strong>ID:</strong> {{.Lead.ID}}</p>
  <p><strong>Estimate details:</strong></p>
  <ul>
  {{range .Lines}}  <li>{{.}}</li>
  {{end}}</ul>
</body>
</html>`

const leadConfirmationTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hello {{.Name}},</p>
  <p>Thanks for using our {{.Kind}} calculator. Here is a copy of your estimate:</p>
  <ul>
  {{range .Lines}}  <li>{{.}}</li>
  {{end}}</ul>
  <p>These figures are a rough estimate based on typical assumptions, not tax advice.
  A specialist will contact you to review your situation.</p>
  <p>Reference: {{.Lead.ID}}</p>
</body>
</html>`

var (
	leadNotificationTmpl = template.Must(template.New("lead_notification").Parse(leadNotificationTemplate))
	leadConfirmationTmpl = template.Must(template.New("lead_confirmation").Parse(leadConfirmationTemplate))
)

type leadEmailData struct {
	Lead    leads.Lead
	Name    string
	Kind    string
	Savings string
	Lines   []string
}

func newLeadEmailData(lead leads.Lead) leadEmailData {
	name := strings.TrimSpace(lead.Name)
	if name == "" {
		name = lead.Email
	}
	lines := strings.Split(strings.TrimSpace(lead.Notes), "\n")
	if len(lines) > 0 && strings.HasSuffix(lines[0], " estimate") {
		lines = lines[1:]
	}
	return leadEmailData{
		Lead:    lead,
		Name:    name,
		Kind:    kindLabel(lead.EstimateKind),
		Savings: estimate.FormatMoney(lead.EstimatedSavings),
		Lines:   lines,
	}
}

func buildLeadNotificationHTML(lead leads.Lead) (string, error) {
	var buf bytes.Buffer
	if err := leadNotificationTmpl.Execute(&buf, newLeadEmailData(lead)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildLeadConfirmationHTML(lead leads.Lead) (string, error) {
	var buf bytes.Buffer
	if err := leadConfirmationTmpl.Execute(&buf, newLeadEmailData(lead)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func kindLabel(kind string) string {
	switch kind {
	case leads.KindCostSegregation:
		return "cost segregation"
	case leads.KindRDCredit:
		return "R&D tax credit"
	}
	return "tax savings"
}
