package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"taxsavings-backend/internal/estimate"
	"taxsavings-backend/internal/leads"
	"taxsavings-backend/internal/reports"

	"github.com/spf13/cobra"
)

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Compute a calculator estimate",
	}

	cmd.AddCommand(
		newCostSegCmd(),
		newRDCreditCmd(),
	)

	return cmd
}

type outputFlags struct {
	asJSON  bool
	pdfPath string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "Print the estimate as JSON")
	cmd.Flags().StringVar(&o.pdfPath, "pdf", "", "Also write a PDF copy of the estimate to this path")
}

func newCostSegCmd() *cobra.Command {
	var form estimate.CostSegForm
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "cost-seg",
		Short: "Estimate first-year savings from a cost segregation study",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := estimate.NormalizeCostSegForm(form)
			if err != nil {
				return err
			}
			est, err := estimate.EstimateCostSegregation(in)
			if err != nil {
				return err
			}

			if out.pdfPath != "" {
				doc, err := reports.CostSegPDF(in, est, time.Now())
				if err != nil {
					return err
				}
				if err := os.WriteFile(out.pdfPath, doc, 0o644); err != nil {
					return err
				}
			}
			if out.asJSON {
				return writeJSON(cmd.OutOrStdout(), est.Rounded())
			}
			return writeLines(cmd.OutOrStdout(), leads.CostSegSummary(in, est).Lines)
		},
	}

	cmd.Flags().StringVar(&form.PropertyCost, "cost", "", "Property cost, e.g. 1,000,000")
	cmd.Flags().StringVar(&form.BonusDepreciationPercent, "bonus", "", "Bonus depreciation percent (0-100, default 100)")
	cmd.Flags().StringVar(&form.PropertyType, "type", "", "Property type: "+strings.Join(estimate.PropertyTypes, ", "))
	cmd.Flags().StringVar(&form.DateInService, "in-service", "", "Date placed in service (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("cost")
	out.register(cmd)
	return cmd
}

func newRDCreditCmd() *cobra.Command {
	var form estimate.RDCreditForm
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "rd-credit",
		Short: "Estimate the R&D tax credit from payroll and qualifying activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := estimate.NormalizeRDCreditForm(form)
			if err != nil {
				return err
			}
			est, err := estimate.EstimateRDCredit(in)
			if err != nil {
				return err
			}

			if out.pdfPath != "" {
				doc, err := reports.RDCreditPDF(est, time.Now())
				if err != nil {
					return err
				}
				if err := os.WriteFile(out.pdfPath, doc, 0o644); err != nil {
					return err
				}
			}
			if out.asJSON {
				return writeJSON(cmd.OutOrStdout(), est.Rounded())
			}
			return writeLines(cmd.OutOrStdout(), leads.RDCreditSummary(est).Lines)
		},
	}

	ids := make([]string, 0, len(estimate.Activities))
	for _, a := range estimate.Activities {
		ids = append(ids, a.ID)
	}
	cmd.Flags().StringVar(&form.AnnualPayroll, "payroll", "", "Annual payroll, e.g. 500000")
	cmd.Flags().StringSliceVar(&form.Activities, "activity", nil, "Qualifying activity (repeatable): "+strings.Join(ids, ", "))
	_ = cmd.MarkFlagRequired("payroll")
	out.register(cmd)
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
