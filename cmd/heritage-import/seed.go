package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"heritage-map/internal/config"
	"heritage-map/internal/heritage"
	"heritage-map/internal/seed"
)

var (
	seedFile   string
	seedDryRun bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import a seed file, manual coordinates first, then rate-limited lookups",
	RunE: func(cmd *cobra.Command, _ []string) error {
		recs, err := seed.ReadFile(seedFile)
		if err != nil {
			return err
		}
		if seedDryRun {
			return printPlan(cmd, recs)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		total := len(recs)
		out := cmd.OutOrStdout()
		sum, err := e.imp.ImportSeed(ctx, recs, func(done int) {
			fmt.Fprintf(out, "\r%d/%d", done, total)
		})
		if err != nil {
			return err
		}
		if err := e.queue.Flush(ctx); err != nil {
			fmt.Fprintf(out, "\ninterrupted with %d records pending\n", e.queue.Len())
			return err
		}
		st := e.queue.Status()
		fmt.Fprintf(out, "\nmanual=%d queued=%d processed=%d skipped=%d failed=%d\n",
			sum.Manual, sum.Queued, st.Processed, st.Skipped, st.Failed)
		for _, f := range e.queue.Failures() {
			fmt.Fprintf(out, "failed %s (%s): %s\n", f.ID, f.Title, f.Err)
		}
		return nil
	},
}

// printPlan：只校验与分类，不访问外部服务也不写库
func printPlan(cmd *cobra.Command, recs []heritage.RawRecord) error {
	pol := heritage.DefaultPolicy()
	if p := config.FromEnv().PolicyFile; p != "" {
		var err error
		if pol, err = heritage.LoadPolicy(p); err != nil {
			return err
		}
	}
	var manual, points, areas int
	for _, r := range recs {
		switch {
		case r.HasManualCoordinates():
			manual++
		case pol.Classify(r) == heritage.KindArea:
			areas++
		default:
			points++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "records=%d manual=%d points=%d areas=%d\n", len(recs), manual, points, areas)
	return nil
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "seed JSON file")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "validate and classify only")
	_ = seedCmd.MarkFlagRequired("file")
}
