package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cpsfl/scorecard/internal/config"
	"github.com/cpsfl/scorecard/internal/ingest"
	"github.com/cpsfl/scorecard/internal/snapshot"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config and compile every section's field mapping",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		b, err := snapshot.NewBuilder(cmd.Context(), cfg, nil, ingest.Options{})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "config ok: %d sheets, %d sections\n",
			len(cfg.Sheets), len(b.SectionIDs()))
		return nil
	},
}
