package leads

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Leads"

var exportHeaders = []string{
	"ID", "Created", "Name", "Email", "Phone", "Company", "Source", "Estimate",
	"Property type", "Property cost", "Annual payroll", "Estimated savings",
	"Status", "Stage", "Tags", "Notes",
}

// Workbook renders leads as a single-sheet XLSX file, one row per lead
// beneath a header row.
func Workbook(items []Lead) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastCol, err := excelize.ColumnNumberToName(len(exportHeaders))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"1", bold); err != nil {
		return nil, err
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	for i, lead := range items {
		row := i + 2
		values := []interface{}{
			lead.ID,
			lead.CreatedAt.Format("2006-01-02 15:04"),
			lead.Name,
			lead.Email,
			lead.Phone,
			lead.Company,
			lead.LeadSource,
			lead.EstimateKind,
			lead.PropertyType,
			lead.PropertyCost,
			lead.AnnualPayroll,
			lead.EstimatedSavings,
			lead.Status,
			lead.PipelineStage,
			strings.Join(lead.Tags, ", "),
			lead.Notes,
		}
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(exportSheet, fmt.Sprintf("J%d", row), fmt.Sprintf("L%d", row), money); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(exportSheet, "A", lastCol, 18); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
