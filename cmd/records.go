package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/naac-validator/internal/config"
	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/registry"
	"github.com/sells-group/naac-validator/internal/sheet"
	"github.com/sells-group/naac-validator/internal/store"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Browse and load criterion response records",
}

// -- records list --

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent records of a criterion",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		def, st, err := recordsSetup(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		recs, err := st.ListRecords(ctx, def.Table, limit)
		if err != nil {
			return eris.Wrap(err, "records list")
		}
		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No records found.")
			return nil
		}
		formatRecords(os.Stdout, recs)
		return nil
	},
}

// -- records search --

var recordsSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search records by field substrings",
	Long:  "Matches records whose fields contain every --filter value. Only the criterion's required fields can be filtered on.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		def, st, err := recordsSetup(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		raw, _ := cmd.Flags().GetStringSlice("filter")
		filters, err := parseFilters(raw)
		if err != nil {
			return err
		}
		recs, err := st.SearchRecords(ctx, def.Table, filters, def.RequiredFields)
		if err != nil {
			return eris.Wrap(err, "records search")
		}
		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No records found.")
			return nil
		}
		formatRecords(os.Stdout, recs)
		return nil
	},
}

// -- records import --

var recordsImportCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Load records from an Excel data template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		def, st, err := recordsSetup(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sheetName, _ := cmd.Flags().GetString("sheet")
		n, err := importRecords(ctx, st, def, args[0], sheetName)
		if err != nil {
			return err
		}
		zap.L().Info("records imported",
			zap.String("criterion", def.Code),
			zap.String("table", def.Table),
			zap.Int("count", n),
		)
		fmt.Fprintf(os.Stderr, "Imported %d records into %s.\n", n, def.Table)
		return nil
	},
}

// -- records status --

var recordsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show row counts of every criterion table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate(config.ModeStore); err != nil {
			return err
		}
		reg, err := buildRegistry(cfg)
		if err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		tables := make([]string, 0, reg.Len())
		for _, d := range reg.List() {
			tables = append(tables, d.Table)
		}
		counts, err := st.TableCounts(ctx, tables)
		if err != nil {
			return eris.Wrap(err, "records status")
		}
		formatCounts(os.Stdout, counts)
		return nil
	},
}

// importRecords loads the data template at path into def's response table,
// creating the table if needed. Rows without a criteria_code are stamped
// with def's code.
func importRecords(ctx context.Context, st store.Store, def registry.Definition, path, sheetName string) (int, error) {
	recs, err := sheet.ReadRecords(path, sheet.ReadOptions{SheetName: sheetName})
	if err != nil {
		return 0, err
	}
	if err := st.EnsureTables(ctx, []registry.Definition{def}); err != nil {
		return 0, err
	}

	for i, rec := range recs {
		if v, ok := rec.Get("criteria_code"); !ok || v.IsBlank() {
			rec.Set("criteria_code", model.Text(def.Code))
		}
		if err := st.InsertRecord(ctx, def.Table, rec); err != nil {
			return i, eris.Wrapf(err, "records import: row %d", i+2)
		}
	}
	return len(recs), nil
}

// recordsSetup resolves --criterion and opens the store.
func recordsSetup(cmd *cobra.Command) (registry.Definition, store.Store, error) {
	if err := cfg.Validate(config.ModeStore); err != nil {
		return registry.Definition{}, nil, err
	}
	reg, err := buildRegistry(cfg)
	if err != nil {
		return registry.Definition{}, nil, err
	}
	code, _ := cmd.Flags().GetString("criterion")
	def, err := reg.Lookup(code)
	if err != nil {
		return registry.Definition{}, nil, err
	}
	st, err := openStore(cmd.Context())
	if err != nil {
		return registry.Definition{}, nil, err
	}
	return def, st, nil
}

// parseFilters turns field=value pairs into a filter map.
func parseFilters(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, eris.Errorf("invalid filter %q, want field=value", kv)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

func init() {
	for _, c := range []*cobra.Command{recordsListCmd, recordsSearchCmd, recordsImportCmd} {
		c.Flags().String("criterion", "", "NAAC criterion code (e.g. 3.1.1)")
		_ = c.MarkFlagRequired("criterion")
	}
	recordsListCmd.Flags().Int("limit", 10, "max number of records to display")
	recordsSearchCmd.Flags().StringSlice("filter", nil, "field=value substring filter (repeatable)")
	recordsImportCmd.Flags().String("sheet", "", "sheet name (default first sheet)")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsSearchCmd)
	recordsCmd.AddCommand(recordsImportCmd)
	recordsCmd.AddCommand(recordsStatusCmd)
	rootCmd.AddCommand(recordsCmd)
}
