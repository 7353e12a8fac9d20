package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/naac-validator/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the results table and every criterion response table",
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

		if err := st.EnsureTables(ctx, reg.List()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Migrated results table and %d criterion tables.\n", reg.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
