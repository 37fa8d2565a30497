// Package reports renders calculator estimates as downloadable PDF documents.
package reports

import (
	"fmt"
	"strings"
	"time"

	"taxsavings-backend/internal/estimate"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

const ContentType = "application/pdf"

const disclaimer = "This is a rough estimate based on typical assumptions " +
	"(25% accelerable basis, 37% marginal rate, 7% credit rate). It is not tax advice."

var (
	mutedText = &props.Color{Red: 90, Green: 90, Blue: 90}
	labelBg   = &props.Color{Red: 240, Green: 242, Blue: 245}
)

type line struct {
	label string
	value string
	bold  bool
}

// CostSegPDF renders a one-page cost segregation estimate.
func CostSegPDF(in estimate.CostSegInput, est estimate.CostSegEstimate, generated time.Time) ([]byte, error) {
	lines := []line{}
	if in.PropertyType != "" {
		lines = append(lines, line{label: "Property type", value: titleCase(in.PropertyType)})
	}
	lines = append(lines, line{label: "Property cost", value: estimate.FormatMoney(est.PropertyCost)})
	if !in.DateInService.IsZero() {
		lines = append(lines, line{label: "Date in service", value: in.DateInService.Format(estimate.DateLayout)})
	}
	lines = append(lines,
		line{label: "Bonus depreciation", value: fmt.Sprintf("%d%%", est.BonusDepreciationPercent)},
		line{label: "Accelerated depreciation", value: estimate.FormatMoney(est.AcceleratedDepreciation)},
		line{label: "Bonus depreciation amount", value: estimate.FormatMoney(est.BonusDepreciation)},
		line{label: "Estimated first-year tax savings", value: estimate.FormatMoney(est.EstimatedTaxSavings), bold: true},
		line{label: "Estimated five-year savings", value: estimate.FormatMoney(est.FiveYearSavings), bold: true},
	)
	return render("Cost Segregation Estimate", lines, generated)
}

// RDCreditPDF renders a one-page R&D tax credit estimate.
func RDCreditPDF(est estimate.RDCreditEstimate, generated time.Time) ([]byte, error) {
	lines := []line{
		{label: "Annual payroll", value: estimate.FormatMoney(est.AnnualPayroll)},
		{label: "Qualifying activities", value: fmt.Sprintf("%d of %d", est.SelectedActivities, est.TotalActivities)},
	}
	for _, label := range estimate.ActivityLabels(est.Activities) {
		lines = append(lines, line{label: "", value: label})
	}
	lines = append(lines,
		line{label: "Eligibility score", value: est.DisplayScore() + "%"},
		line{label: "Estimated credit", value: estimate.FormatMoney(est.EstimatedCredit), bold: true},
	)
	return render("R&D Tax Credit Estimate", lines, generated)
}

func render(title string, lines []line, generated time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.Letter).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)
	addHeader(m, title, generated)
	for _, l := range lines {
		addLine(m, l)
	}
	m.AddRows(row.New(8))
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(text.New(disclaimer, props.Text{Size: 8, Style: fontstyle.Italic, Color: mutedText})),
		),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func addHeader(m core.Maroto, title string, generated time.Time) {
	m.AddRows(
		row.New(14).Add(
			col.New(12).Add(text.New(title, props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center})),
		),
		row.New(8).Add(
			col.New(12).Add(text.New("Prepared "+generated.Format("January 2, 2006"), props.Text{
				Size:  9,
				Align: align.Center,
				Color: mutedText,
			})),
		),
		row.New(6),
	)
}

func addLine(m core.Maroto, l line) {
	style := fontstyle.Normal
	if l.bold {
		style = fontstyle.Bold
	}
	m.AddRows(
		row.New(8).Add(
			col.New(7).Add(text.New(l.label, props.Text{Size: 10, Style: style, Left: 2, Top: 1.5})).
				WithStyle(&props.Cell{BackgroundColor: labelBg}),
			col.New(5).Add(text.New(l.value, props.Text{Size: 10, Style: style, Align: align.Right, Right: 2, Top: 1.5})),
		),
	)
}

func titleCase(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
