package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cpsfl/scorecard/internal/config"
	"github.com/cpsfl/scorecard/internal/ingest"
	"github.com/cpsfl/scorecard/internal/snapshot"
	"github.com/cpsfl/scorecard/internal/view"
)

var snapshotRaw bool

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch every sheet once and print the rendered view as JSON",
	Long: `snapshot runs a single refresh and writes the view model to stdout.
With --raw it writes the underlying snapshot instead.
The exit status is non-zero when any section failed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSnapshot(cmd, cmd.OutOrStdout())
	},
}

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotRaw, "raw", false, "print the snapshot instead of the rendered view")
}

func runSnapshot(cmd *cobra.Command, w io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	b, err := snapshot.NewBuilder(cmd.Context(), cfg, nil, ingest.Options{})
	if err != nil {
		return err
	}

	snap := b.Build(cmd.Context(), snapshot.Options{Refresh: true})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	var out any = view.Render(snap)
	if snapshotRaw {
		out = snap
	}
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if n := snap.FailedSections(); n > 0 {
		return fmt.Errorf("%d of %d sections failed", n, len(snap.Sections))
	}
	return nil
}
