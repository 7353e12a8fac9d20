package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/naac-validator/internal/sheet"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank recent records by how well a document supports them",
	Long: "Extracts the document once and validates it against the most recent records of the " +
		"criterion's response table, printing the candidates best match first.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		code, _ := cmd.Flags().GetString("criterion")
		doc, _ := cmd.Flags().GetString("document")
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")
		report, _ := cmd.Flags().GetString("report")

		env, err := initEnv(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		outs, err := env.Pipeline.MatchDocument(ctx, code, doc, limit)
		if err != nil {
			return eris.Wrap(err, "match")
		}
		if report != "" {
			if err := sheet.WriteResults(report, reportRows(outs)); err != nil {
				return err
			}
		}
		return writeOutcomes(os.Stdout, format, outs)
	},
}

func init() {
	matchCmd.Flags().String("criterion", "", "NAAC criterion code (e.g. 3.1.1)")
	matchCmd.Flags().String("document", "", "path to the evidence document")
	matchCmd.Flags().Int("limit", 0, "number of recent records to compare (default validation.candidate_limit)")
	matchCmd.Flags().String("format", "table", "output format (table, json)")
	matchCmd.Flags().String("report", "", "also write an Excel report to this path")
	_ = matchCmd.MarkFlagRequired("criterion")
	_ = matchCmd.MarkFlagRequired("document")

	rootCmd.AddCommand(matchCmd)
}
