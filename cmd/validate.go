package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/pipeline"
	"github.com/sells-group/naac-validator/internal/sheet"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate one document against one record",
	Long: "Extracts the document's text and checks it against a record, either fetched from the " +
		"record store by --record or read from a JSON object with --record-file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		code, _ := cmd.Flags().GetString("criterion")
		doc, _ := cmd.Flags().GetString("document")
		recordID, _ := cmd.Flags().GetString("record")
		recordFile, _ := cmd.Flags().GetString("record-file")
		format, _ := cmd.Flags().GetString("format")
		report, _ := cmd.Flags().GetString("report")

		if (recordID == "") == (recordFile == "") {
			return eris.New("validate: exactly one of --record or --record-file is required")
		}

		env, err := initEnv(ctx, recordID != "")
		if err != nil {
			return err
		}
		defer env.Close()

		var out *pipeline.Outcome
		if recordID != "" {
			out, err = env.Pipeline.ValidateRecord(ctx, code, recordID, doc)
		} else {
			rec, rerr := readRecordFile(recordFile)
			if rerr != nil {
				return rerr
			}
			text := env.Pipeline.ExtractText(ctx, doc)
			out, err = env.Pipeline.ValidateText(ctx, code, rec, text, filepath.Base(doc))
		}
		if err != nil {
			return eris.Wrap(err, "validate")
		}

		outs := []pipeline.Outcome{*out}
		if report != "" {
			if err := sheet.WriteResults(report, reportRows(outs)); err != nil {
				return err
			}
		}
		return writeOutcomes(os.Stdout, format, outs)
	},
}

func readRecordFile(path string) (model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Record{}, eris.Wrap(err, "read record file")
	}
	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.Record{}, eris.Wrapf(err, "parse record file %s", path)
	}
	return rec, nil
}

func init() {
	validateCmd.Flags().String("criterion", "", "NAAC criterion code (e.g. 3.1.1)")
	validateCmd.Flags().String("document", "", "path to the evidence document (pdf, image or text)")
	validateCmd.Flags().String("record", "", "record sl_no or id in the record store")
	validateCmd.Flags().String("record-file", "", "path to a JSON object holding the record")
	validateCmd.Flags().String("format", "table", "output format (table, json)")
	validateCmd.Flags().String("report", "", "also write an Excel report to this path")
	_ = validateCmd.MarkFlagRequired("criterion")
	_ = validateCmd.MarkFlagRequired("document")

	rootCmd.AddCommand(validateCmd)
}
