package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/davestroud/publix/internal/analytics"
	"github.com/davestroud/publix/internal/model"
	"github.com/davestroud/publix/internal/store"
)

var opportunitiesCmd = &cobra.Command{
	Use:   "opportunities",
	Short: "Rank expansion opportunities for a state",
	Long: `Scores every city in a state with a demographic profile and ranks
them by expansion opportunity: low saturation and large population score
high. Cities below the minimum population are skipped.

Examples:
  opportunities --state GA
  opportunities --state FL --limit 10 --min-population 75000
  opportunities --state GA --format json`,
	RunE: runOpportunities,
}

func init() {
	f := opportunitiesCmd.Flags()
	f.String("state", "", "two-letter state code (required)")
	f.Int("limit", 0, "maximum number of results (0=all)")
	f.Int("min-population", 0, "minimum city population (default: from config)")
	f.Int("workers", 8, "parallel scoring workers")
	f.String("format", "table", "output format: table or json")
	_ = opportunitiesCmd.MarkFlagRequired("state")

	rootCmd.AddCommand(opportunitiesCmd)
}

func runOpportunities(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	state, _ := cmd.Flags().GetString("state")
	limit, _ := cmd.Flags().GetInt("limit")
	minPop, _ := cmd.Flags().GetInt("min-population")
	workers, _ := cmd.Flags().GetInt("workers")
	format, _ := cmd.Flags().GetString("format")

	if minPop <= 0 {
		minPop = cfg.Analytics.MinPopulation
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	ranked, err := rankState(ctx, st, state, minPop, workers)
	if err != nil {
		return err
	}

	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}

	if format == "json" {
		return printJSON(ranked)
	}

	if len(ranked) == 0 {
		fmt.Fprintln(os.Stderr, "No opportunities found.")
		return nil
	}
	formatOpportunities(os.Stdout, ranked)
	return nil
}

// rankState scores every profiled city in the state and returns the ranked
// opportunity list.
func rankState(ctx context.Context, st store.Store, state string, minPop, workers int) ([]model.OpportunityScore, error) {
	profiles, err := st.ListDemographics(ctx, state)
	if err != nil {
		return nil, eris.Wrap(err, "opportunities: list demographics")
	}
	stores, err := st.ListStores(ctx, store.StoreFilter{State: state})
	if err != nil {
		return nil, eris.Wrap(err, "opportunities: list stores")
	}

	metrics, err := analytics.ComputeCityMetrics(ctx, profiles, stores, cfg.Chain.Name, densityConfig(), workers)
	if err != nil {
		return nil, eris.Wrap(err, "opportunities: compute metrics")
	}
	return analytics.RankOpportunities(metrics, minPop), nil
}

func formatOpportunities(out io.Writer, ranked []model.OpportunityScore) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tCITY\tPOPULATION\tSTORES\tPER 100K\tSATURATION\tSCORE")
	for _, o := range ranked {
		_, _ = fmt.Fprintf(w, "%d\t%s, %s\t%d\t%d\t%.2f\t%.2f\t%.3f\n",
			o.Rank, o.City, o.State, o.Population, o.TargetStores,
			o.StoresPer100k, o.SaturationScore, o.OpportunityScore)
	}
	_ = w.Flush()
}
