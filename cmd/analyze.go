package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davestroud/publix/internal/analytics"
	"github.com/davestroud/publix/internal/expansion"
	"github.com/davestroud/publix/internal/model"
	"github.com/davestroud/publix/internal/store"
	"github.com/davestroud/publix/pkg/census"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze store density and market saturation for a city",
	Long: `Computes the chain's store density, competitor counts, and market
saturation for one city. When the city's demographics are not in the local
store and a Census API key is configured, the profile is fetched and saved
first.

Examples:
  # Saturation metrics for Lakeland, FL
  analyze --city Lakeland --state FL

  # Include similar markets where the chain already operates
  analyze --city Valdosta --state GA --compare

  # Machine-readable output
  analyze --city Lakeland --state FL --format json`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.String("city", "", "city name (required)")
	f.String("state", "", "two-letter state code (required)")
	f.Bool("compare", false, "also list similar-population markets with chain presence")
	f.String("format", "table", "output format: table or json")
	_ = analyzeCmd.MarkFlagRequired("city")
	_ = analyzeCmd.MarkFlagRequired("state")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	city, _ := cmd.Flags().GetString("city")
	state, _ := cmd.Flags().GetString("state")
	compare, _ := cmd.Flags().GetBool("compare")
	format, _ := cmd.Flags().GetString("format")

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	profile, err := lookupDemographic(ctx, st, city, state)
	if err != nil {
		return err
	}
	if profile == nil {
		return eris.Errorf("analyze: no demographic data for %s, %s", city, state)
	}

	stores, err := st.ListStores(ctx, store.StoreFilter{})
	if err != nil {
		return eris.Wrap(err, "analyze: list stores")
	}

	targetCount, competitors := analytics.CountByCity(stores, cfg.Chain.Name, profile.City, profile.State)
	density, err := analytics.ComputeDensity(targetCount, competitors, profile.Population, densityConfig())
	if err != nil {
		return eris.Wrap(err, "analyze")
	}
	if density == nil {
		return eris.Errorf("analyze: insufficient data for %s, %s", profile.City, profile.State)
	}

	var comparison *expansion.MarketComparison
	if compare {
		profiles, err := st.ListDemographics(ctx, "")
		if err != nil {
			return eris.Wrap(err, "analyze: list demographics")
		}
		comparison = expansion.CompareSimilarMarkets(*profile, profiles, stores, cfg.Chain.Name)
	}

	if format == "json" {
		return printJSON(map[string]any{
			"city":            profile.City,
			"state":           profile.State,
			"density":         density,
			"similar_markets": comparison,
		})
	}

	formatDensity(os.Stdout, profile, density)
	if comparison != nil {
		formatComparison(os.Stdout, comparison)
	}
	return nil
}

// lookupDemographic reads the profile from the store, falling back to the
// Census API when a key is configured. Fetched profiles are persisted so
// later commands see them.
func lookupDemographic(ctx context.Context, st store.Store, city, state string) (*model.DemographicProfile, error) {
	profile, err := st.GetDemographic(ctx, city, state)
	if err != nil {
		return nil, eris.Wrap(err, "analyze: get demographic")
	}
	if profile != nil || cfg.Census.Key == "" {
		return profile, nil
	}

	client := census.NewClient(cfg.Census.Key, census.WithBaseURL(cfg.Census.BaseURL))
	profile, err = client.GetDemographics(ctx, city, state)
	if err != nil {
		return nil, eris.Wrap(err, "analyze: census lookup")
	}
	if profile == nil {
		return nil, nil
	}

	if _, err := st.UpsertDemographics(ctx, []model.DemographicProfile{*profile}); err != nil {
		zap.L().Warn("analyze: failed to persist census profile",
			zap.String("city", city),
			zap.String("state", state),
			zap.Error(err),
		)
	}
	return profile, nil
}

func formatDensity(out io.Writer, p *model.DemographicProfile, d *model.DensityMetrics) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "City\t%s, %s\n", p.City, p.State)
	_, _ = fmt.Fprintf(w, "Population\t%d\n", d.Population)
	_, _ = fmt.Fprintf(w, "%s stores\t%d\n", cfg.Chain.Name, d.TargetStoreCount)
	_, _ = fmt.Fprintf(w, "Competitor stores\t%d\n", d.TotalCompetitors())
	_, _ = fmt.Fprintf(w, "Stores per 100k\t%.2f\n", d.StoresPer100k)
	_, _ = fmt.Fprintf(w, "Stores per sq mile\t%.3f\n", d.StoresPerSqMile)
	_, _ = fmt.Fprintf(w, "Saturation\t%.2f\n", d.SaturationScore)
	_ = w.Flush()

	if len(d.CompetitorCounts) > 0 {
		fmt.Fprintln(out)
		cw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(cw, "COMPETITOR\tSTORES")
		for brand, n := range d.CompetitorCounts {
			_, _ = fmt.Fprintf(cw, "%s\t%d\n", brand, n)
		}
		_ = cw.Flush()
	}
}

func formatComparison(out io.Writer, c *expansion.MarketComparison) {
	fmt.Fprintln(out)
	if len(c.SimilarMarkets) == 0 {
		fmt.Fprintln(out, "No similar markets with chain presence found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SIMILAR MARKET\tPOPULATION\tSTORES\tPER 100K")
	for _, m := range c.SimilarMarkets {
		_, _ = fmt.Fprintf(w, "%s, %s\t%d\t%d\t%.2f\n", m.City, m.State, m.Population, m.TargetStores, m.StoresPer100k)
	}
	_ = w.Flush()
	fmt.Fprintf(out, "\nAverage stores in similar markets: %.1f\n", c.AverageStoresInSimilar)
}
