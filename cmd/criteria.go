package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "Inspect the criterion catalogue",
}

var criteriaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered criteria",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := buildRegistry(cfg)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			return writeJSON(os.Stdout, reg.List())
		}
		formatCriteria(os.Stdout, reg.List())
		return nil
	},
}

var criteriaShowCmd = &cobra.Command{
	Use:   "show <code>",
	Short: "Show one criterion definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		reg, err := buildRegistry(cfg)
		if err != nil {
			return err
		}
		def, err := reg.Lookup(args[0])
		if err != nil {
			return eris.Wrap(err, "criteria show")
		}
		return writeJSON(os.Stdout, def)
	},
}

func init() {
	criteriaListCmd.Flags().String("format", "table", "output format (table, json)")

	criteriaCmd.AddCommand(criteriaListCmd)
	criteriaCmd.AddCommand(criteriaShowCmd)
	rootCmd.AddCommand(criteriaCmd)
}
