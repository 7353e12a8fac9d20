package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/pipeline"
	"github.com/sells-group/naac-validator/internal/registry"
	"github.com/sells-group/naac-validator/internal/sheet"
	"github.com/sells-group/naac-validator/internal/store"
)

// writeOutcomes renders outcomes as a table or as indented JSON.
func writeOutcomes(out io.Writer, format string, outs []pipeline.Outcome) error {
	switch format {
	case "json":
		return writeJSON(out, outs)
	case "table", "":
		formatOutcomes(out, outs)
		return nil
	default:
		return eris.Errorf("unknown format %q", format)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatOutcomes writes a summary row per outcome followed by per-field
// detail for the first.
func formatOutcomes(out io.Writer, outs []pipeline.Outcome) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RECORD\tCRITERION\tDECISION\tCONFIDENCE\tFOUND\tFALLBACK\tNOTE")
	_, _ = fmt.Fprintln(w, "------\t---------\t--------\t----------\t-----\t--------\t----")
	for _, o := range outs {
		res := o.Result
		found := "-"
		if res.Coverage != nil {
			found = fmt.Sprintf("%d/%d", len(res.Coverage.FoundFields), len(res.Coverage.ContentFields))
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%t\t%s\n",
			o.RecordID, res.CriterionCode, res.Decision, res.ConfidenceScore, found, res.FallbackMode, resultNote(res))
	}
	_ = w.Flush()

	if len(outs) == 0 || outs[0].Result.Coverage == nil {
		return
	}
	cov := outs[0].Result.Coverage
	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIELD\tEXPECTED\tFOUND\tMATCH")
	for _, name := range cov.ContentFields {
		o := cov.PerField[name]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", name, truncate(o.Expected, 40), o.Found, o.Kind)
	}
	_ = w.Flush()
}

// resultNote summarises why a result is not a clean accept.
func resultNote(res *model.ValidationResult) string {
	if res.Error != nil {
		return fmt.Sprintf("%s: %s", res.Error.Code, res.Error.Message)
	}
	var parts []string
	for _, v := range res.RuleViolations {
		parts = append(parts, fmt.Sprintf("%s %s", v.Field, v.Severity))
	}
	return strings.Join(parts, ", ")
}

func reportRows(outs []pipeline.Outcome) []sheet.ReportRow {
	rows := make([]sheet.ReportRow, len(outs))
	for i, o := range outs {
		rows[i] = sheet.ReportRow{RecordID: o.RecordID, Document: o.Document, Result: o.Result}
	}
	return rows
}

// formatCriteria writes one row per criterion definition.
func formatCriteria(out io.Writer, defs []registry.Definition) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CODE\tTABLE\tREQUIRED\tCRITICAL\tNAME")
	_, _ = fmt.Fprintln(w, "----\t-----\t--------\t--------\t----")
	for _, d := range defs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			d.Code, d.Table, len(d.RequiredFields), len(d.CriticalFields), truncate(d.Name, 60))
	}
	_ = w.Flush()
}

// formatRecords writes records as a table whose columns are the union of
// their field names in first-seen order.
func formatRecords(out io.Writer, recs []model.Record) {
	var cols []string
	seen := map[string]bool{}
	for _, r := range recs {
		for _, f := range r.Fields {
			if !seen[f.Name] {
				seen[f.Name] = true
				cols = append(cols, f.Name)
			}
		}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.ToUpper(strings.Join(cols, "\t")))
	for _, r := range recs {
		vals := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := r.Get(c); ok {
				vals[i] = truncate(v.String(), 30)
			}
		}
		_, _ = fmt.Fprintln(w, strings.Join(vals, "\t"))
	}
	_ = w.Flush()
}

// formatCounts writes table row counts sorted by table name.
func formatCounts(out io.Writer, counts map[string]int64) {
	tables := make([]string, 0, len(counts))
	for t := range counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TABLE\tROWS")
	for _, t := range tables {
		n := fmt.Sprintf("%d", counts[t])
		if counts[t] < 0 {
			n = "missing"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", t, n)
	}
	_ = w.Flush()
}

// formatResults writes persisted results newest first.
func formatResults(out io.Writer, results []store.StoredResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCRITERION\tRECORD\tDOCUMENT\tDECISION\tCONFIDENCE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t---------\t------\t--------\t--------\t----------\t-------")
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			truncateID(r.ID),
			r.Result.CriterionCode,
			r.RecordID,
			truncate(r.Document, 30),
			r.Result.Decision,
			r.Result.ConfidenceScore,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
