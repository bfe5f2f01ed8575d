package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/davestroud/publix/internal/analytics"
	"github.com/davestroud/publix/internal/store"
)

var roiCmd = &cobra.Command{
	Use:   "roi",
	Short: "Estimate investment ROI for a new store",
	Long: `Estimates land and construction costs against modeled revenue for a
new store. When --city/--state are given, the city's demographics and the
chain's existing store count there adjust the revenue model.

Examples:
  roi
  roi --city Valdosta --state GA
  roi --acres 18 --format json`,
	RunE: runROI,
}

func init() {
	f := roiCmd.Flags()
	f.String("city", "", "city for demographic adjustments (optional)")
	f.String("state", "", "two-letter state code (required with --city)")
	f.Float64("acres", 0, "site acreage (default: from config)")
	f.String("format", "table", "output format: table or json")

	rootCmd.AddCommand(roiCmd)
}

func runROI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	city, _ := cmd.Flags().GetString("city")
	state, _ := cmd.Flags().GetString("state")
	acres, _ := cmd.Flags().GetFloat64("acres")
	format, _ := cmd.Flags().GetString("format")

	if city != "" && state == "" {
		return eris.New("roi: --state is required with --city")
	}

	in := analytics.ROIInput{
		StoreSizeSqFt:       cfg.ROI.StoreSizeSqFt,
		LandCostPerAcre:     cfg.ROI.LandCostPerAcre,
		ConstructionPerSqFt: cfg.ROI.ConstructionPerSqFt,
		AcresNeeded:         acres,
	}

	if city != "" {
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		profile, err := lookupDemographic(ctx, st, city, state)
		if err != nil {
			return err
		}
		if profile != nil {
			in.Population = &profile.Population
			in.MedianIncome = profile.MedianIncome
		}

		stores, err := st.ListStores(ctx, store.StoreFilter{Chain: cfg.Chain.Name, City: city, State: state})
		if err != nil {
			return eris.Wrap(err, "roi: list stores")
		}
		in.ExistingStoreCount = len(stores)
	}

	estimate, err := analytics.EstimateROI(in, roiConfig())
	if err != nil {
		return eris.Wrap(err, "roi")
	}

	if format == "json" {
		return printJSON(estimate)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Land cost\t$%.0f\n", estimate.LandCost)
	_, _ = fmt.Fprintf(w, "Construction cost\t$%.0f\n", estimate.ConstructionCost)
	_, _ = fmt.Fprintf(w, "Total investment\t$%.0f\n", estimate.TotalInvestment)
	_, _ = fmt.Fprintf(w, "Annual revenue\t$%.0f\n", estimate.AnnualRevenue)
	_, _ = fmt.Fprintf(w, "Annual profit\t$%.0f\n", estimate.AnnualProfit)
	_, _ = fmt.Fprintf(w, "ROI\t%.2f%%\n", estimate.ROIPercentage)
	if estimate.PaybackYears != nil {
		_, _ = fmt.Fprintf(w, "Payback\t%.1f years\n", *estimate.PaybackYears)
	} else {
		_, _ = fmt.Fprintf(w, "Payback\tn/a (no positive profit)\n")
	}
	_, _ = fmt.Fprintf(w, "Recommendation\t%s\n", estimate.Recommendation)
	_ = w.Flush()
	return nil
}
