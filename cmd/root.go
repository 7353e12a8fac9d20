package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/naac-validator/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "naac-validator",
	Short: "NAAC accreditation document validator",
	Long:  "Checks uploaded evidence documents against the institution records submitted for NAAC criteria and decides whether each document corroborates its record.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyOverrides(cmd, c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		zap.L().Debug("config loaded",
			zap.String("store_driver", cfg.Store.Driver),
			zap.String("ocr_provider", cfg.OCR.Provider),
			zap.Bool("advisory", cfg.Advisory.Enabled),
			zap.Bool("strict", cfg.Validation.Strict),
		)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = zap.L().Sync()
	},
}

// applyOverrides lets persistent flags win over config.yaml and NAAC_ env.
func applyOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("verbose") {
		if v, _ := flags.GetBool("verbose"); v {
			c.Log.Level = "debug"
		}
	}
	if flags.Changed("strict") {
		c.Validation.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("advisory") {
		c.Advisory.Enabled, _ = flags.GetBool("advisory")
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().Bool("strict", false, "use the legacy 0.8 accept threshold")
	rootCmd.PersistentFlags().Bool("advisory", false, "ask the advisory model for an opinion (overrides advisory.enabled)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
