package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/naac-validator/internal/config"
	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/sheet"
	"github.com/sells-group/naac-validator/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect persisted validation results",
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted validation results, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate(config.ModeStore); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		code, _ := cmd.Flags().GetString("criterion")
		dec, _ := cmd.Flags().GetString("decision")
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")
		report, _ := cmd.Flags().GetString("report")

		results, err := st.ListResults(ctx, store.ResultFilter{
			CriterionCode: code,
			Decision:      model.Decision(dec),
			Limit:         limit,
		})
		if err != nil {
			return eris.Wrap(err, "results list")
		}

		if report != "" {
			rows := make([]sheet.ReportRow, len(results))
			for i, r := range results {
				rows[i] = sheet.ReportRow{RecordID: r.RecordID, Document: r.Document, Result: &r.Result}
			}
			if err := sheet.WriteResults(report, rows); err != nil {
				return err
			}
		}

		if format == "json" {
			return writeJSON(os.Stdout, results)
		}
		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No results found.")
			return nil
		}
		formatResults(os.Stdout, results)
		return nil
	},
}

func init() {
	resultsListCmd.Flags().String("criterion", "", "filter by criterion code")
	resultsListCmd.Flags().String("decision", "", "filter by decision (ACCEPT, FLAG_FOR_REVIEW, REJECT)")
	resultsListCmd.Flags().Int("limit", 50, "max number of results to display")
	resultsListCmd.Flags().String("format", "table", "output format (table, json)")
	resultsListCmd.Flags().String("report", "", "also write an Excel report to this path")

	resultsCmd.AddCommand(resultsListCmd)
	rootCmd.AddCommand(resultsCmd)
}
